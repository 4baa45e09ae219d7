// Package equipment is the read-only weapon database shared by all
// simulation replicas.
package equipment

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WeaponType groups weapons for skill lookups.
type WeaponType string

const (
	TypeAxe          WeaponType = "axe"
	TypeSword        WeaponType = "sword"
	TypeMace         WeaponType = "mace"
	TypeDagger       WeaponType = "dagger"
	TypeFist         WeaponType = "fist"
	TypeTwoHandAxe   WeaponType = "two_hand_axe"
	TypeTwoHandSword WeaponType = "two_hand_sword"
	TypeTwoHandMace  WeaponType = "two_hand_mace"
	TypePolearm      WeaponType = "polearm"
	TypeStaff        WeaponType = "staff"
	TypeBow          WeaponType = "bow"
	TypeGun          WeaponType = "gun"
	TypeCrossbow     WeaponType = "crossbow"
)

var knownTypes = map[WeaponType]struct{}{
	TypeAxe: {}, TypeSword: {}, TypeMace: {}, TypeDagger: {}, TypeFist: {},
	TypeTwoHandAxe: {}, TypeTwoHandSword: {}, TypeTwoHandMace: {},
	TypePolearm: {}, TypeStaff: {}, TypeBow: {}, TypeGun: {}, TypeCrossbow: {},
}

// Weapon is one database entry.
type Weapon struct {
	Name         string     `yaml:"name"`
	Type         WeaponType `yaml:"type"`
	SpeedSeconds float64    `yaml:"speed"`
	MinDamage    float64    `yaml:"min_damage"`
	MaxDamage    float64    `yaml:"max_damage"`
	// SkillBonus is weapon skill granted by the item itself.
	SkillBonus int `yaml:"skill_bonus"`
}

// Speed returns the swing interval.
func (w Weapon) Speed() time.Duration {
	return time.Duration(w.SpeedSeconds * float64(time.Second))
}

// TwoHanded reports whether the weapon occupies both hands.
func (w Weapon) TwoHanded() bool {
	switch w.Type {
	case TypeTwoHandAxe, TypeTwoHandSword, TypeTwoHandMace, TypePolearm, TypeStaff:
		return true
	default:
		return false
	}
}

// Ranged reports whether the weapon is used in the ranged slot.
func (w Weapon) Ranged() bool {
	switch w.Type {
	case TypeBow, TypeGun, TypeCrossbow:
		return true
	default:
		return false
	}
}

func (w Weapon) validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("weapon name missing")
	}
	if _, ok := knownTypes[w.Type]; !ok {
		return fmt.Errorf("weapon '%s': unknown type '%s'", w.Name, w.Type)
	}
	if w.SpeedSeconds <= 0 {
		return fmt.Errorf("weapon '%s': speed must be > 0", w.Name)
	}
	if w.MaxDamage < w.MinDamage {
		return fmt.Errorf("weapon '%s': max damage below min damage", w.Name)
	}
	return nil
}

// DB is an immutable name-indexed weapon table. It is safe for concurrent
// readers because nothing mutates it after construction.
type DB struct {
	weapons map[string]Weapon
}

// NewDB validates weapons and builds a DB.
func NewDB(weapons []Weapon) (*DB, error) {
	db := &DB{weapons: make(map[string]Weapon, len(weapons))}
	for _, w := range weapons {
		if err := w.validate(); err != nil {
			return nil, err
		}
		key := normalize(w.Name)
		if _, dup := db.weapons[key]; dup {
			return nil, fmt.Errorf("weapon '%s' listed more than once", w.Name)
		}
		db.weapons[key] = w
	}
	return db, nil
}

// Weapon looks up a weapon by name, case-insensitively.
func (db *DB) Weapon(name string) (Weapon, bool) {
	if db == nil {
		return Weapon{}, false
	}
	w, ok := db.weapons[normalize(name)]
	return w, ok
}

// Len returns the number of weapons.
func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.weapons)
}

// Names returns all weapon names sorted.
func (db *DB) Names() []string {
	names := make([]string, 0, db.Len())
	for _, w := range db.weapons {
		names = append(names, w.Name)
	}
	sort.Strings(names)
	return names
}

// LoadYAML reads a weapon list file.
func LoadYAML(path string) ([]Weapon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file struct {
		Weapons []Weapon `yaml:"weapons"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return file.Weapons, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
