package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Simulation holds batch and fight settings
type Simulation struct {
	DurationSeconds float64 `yaml:"duration_seconds"`
	Iterations      int     `yaml:"iterations"`
	Replicas        int     `yaml:"replicas"`
	Concurrency     int     `yaml:"concurrency"`
	Seed            int64   `yaml:"seed"`
	// ExecutePercent is the target health percent where the execute phase starts.
	ExecutePercent float64 `yaml:"execute_percent"`
	ContinuePolicy string  `yaml:"continue_policy"`
	CombatLog      bool    `yaml:"combat_log"`
}

// Duration returns the fight length.
func (s Simulation) Duration() time.Duration {
	return time.Duration(s.DurationSeconds * float64(time.Second))
}

// Stats holds character statistics as written in the setup
type Stats struct {
	AttackPower float64 `yaml:"attack_power"`
	SpellPower  float64 `yaml:"spell_power"`
	CritPercent float64 `yaml:"crit_percent"`
	SpellCrit   float64 `yaml:"spell_crit_percent"`
	HitPercent  float64 `yaml:"hit_percent"`
	SpellHit    float64 `yaml:"spell_hit_percent"`
	MaxMana     float64 `yaml:"max_mana"`
}

// Player holds player character configuration
type Player struct {
	Class string `yaml:"class"`
	Level int    `yaml:"level"`
	Stats Stats  `yaml:"stats"`
	// Resources maps a resource name (mana, rage, energy) to its maximum.
	Resources      map[string]float64 `yaml:"resources"`
	WeaponSkills   map[string]int     `yaml:"weapon_skills"`
	GlobalCooldown float64            `yaml:"global_cooldown"`
	Mainhand       string             `yaml:"mainhand"`
	Offhand        string             `yaml:"offhand"`
	Ranged         string             `yaml:"ranged"`
}

// Target holds the defending mob
type Target struct {
	Level        int            `yaml:"level"`
	Armor        float64        `yaml:"armor"`
	Front        bool           `yaml:"front"`
	ParryPercent float64        `yaml:"parry_percent"`
	BlockPercent float64        `yaml:"block_percent"`
	BlockValue   float64        `yaml:"block_value"`
	Resistances  map[string]int `yaml:"resistances"`
}

// Setup is one simulation batch. File references are relative to the
// directory the setup was loaded from.
type Setup struct {
	Simulation  Simulation `yaml:"simulation"`
	Player      Player     `yaml:"player"`
	Target      Target     `yaml:"target"`
	Abilities   string     `yaml:"abilities"`
	Rotation    string     `yaml:"rotation"`
	Weapons     string     `yaml:"weapons"`
	EquipmentDB string     `yaml:"equipment_db"`
}

const (
	defaultDuration       = 300
	defaultIterations     = 1
	defaultReplicas       = 1
	defaultExecutePercent = 20
	defaultLevel          = 60
)

// ParseSetup parses, defaults and validates a setup document.
func ParseSetup(data []byte) (*Setup, error) {
	var setup Setup
	if err := yaml.Unmarshal(data, &setup); err != nil {
		return nil, fmt.Errorf("parse setup: %w", err)
	}
	setup.applyDefaults()
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	return &setup, nil
}

// LoadSetup reads a setup file. The returned base directory resolves the
// setup's file references.
func LoadSetup(path string) (*Setup, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	setup, err := ParseSetup(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return setup, filepath.Dir(path), nil
}

func (s *Setup) applyDefaults() {
	if s.Simulation.DurationSeconds == 0 {
		s.Simulation.DurationSeconds = defaultDuration
	}
	if s.Simulation.Iterations == 0 {
		s.Simulation.Iterations = defaultIterations
	}
	if s.Simulation.Replicas == 0 {
		s.Simulation.Replicas = defaultReplicas
	}
	if s.Simulation.ExecutePercent == 0 {
		s.Simulation.ExecutePercent = defaultExecutePercent
	}
	if s.Player.Level == 0 {
		s.Player.Level = defaultLevel
	}
	if s.Target.Level == 0 {
		s.Target.Level = s.Player.Level
	}
}

// Resolve joins a setup file reference with baseDir. Absolute references
// are returned unchanged.
func Resolve(baseDir, ref string) string {
	if ref == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(baseDir, ref)
}
