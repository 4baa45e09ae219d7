package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/donggangwhy/ClassicSim/internal/attack"
	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/config"
	"github.com/donggangwhy/ClassicSim/internal/equipment"
	"github.com/donggangwhy/ClassicSim/internal/random"
	"github.com/donggangwhy/ClassicSim/internal/rotation"
	"github.com/donggangwhy/ClassicSim/internal/spells"
)

// SimulationConfig holds simulation parameters
type SimulationConfig struct {
	Duration   time.Duration // Fight duration
	Iterations int           // Number of iterations to run
	// ExecutePercent is the target health percent where the execute phase begins.
	ExecutePercent float64
}

// Spec is everything a replica needs, resolved from a setup. It is never
// mutated after NewSpec, so replicas share it and build their own state.
type Spec struct {
	Character character.Config
	Target    attack.Target
	Abilities []spells.Definition
	Rotation  *rotation.Definition
	Policy    rotation.ContinuePolicy
	Sim       SimulationConfig
}

// NewSpec loads the ability kit and rotation referenced by setup and
// resolves weapons against db.
func NewSpec(setup *config.Setup, db *equipment.DB, baseDir string) (*Spec, error) {
	kit, err := spells.LoadKit(config.Resolve(baseDir, setup.Abilities))
	if err != nil {
		return nil, fmt.Errorf("load abilities: %w", err)
	}
	rotationPath := config.Resolve(baseDir, setup.Rotation)
	def, err := rotation.LoadDefinition(filepath.Dir(rotationPath), filepath.Base(rotationPath))
	if err != nil {
		return nil, fmt.Errorf("load rotation: %w", err)
	}
	policy, err := rotation.ParseContinuePolicy(setup.Simulation.ContinuePolicy)
	if err != nil {
		return nil, err
	}

	class := setup.Player.Class
	if !sameClass(kit.Class, class) {
		return nil, fmt.Errorf("ability kit is for %s, player is %s", kit.Class, class)
	}
	if !sameClass(def.Class, class) {
		return nil, fmt.Errorf("rotation '%s' is for %s, player is %s", def.Name, def.Class, class)
	}

	charCfg, err := characterConfig(setup.Player, db)
	if err != nil {
		return nil, err
	}

	return &Spec{
		Character: charCfg,
		Target: attack.Target{
			Level:       setup.Target.Level,
			Armor:       setup.Target.Armor,
			Front:       setup.Target.Front,
			ParryChance: setup.Target.ParryPercent / 100,
			BlockChance: setup.Target.BlockPercent / 100,
			BlockValue:  setup.Target.BlockValue,
			Resistances: setup.Target.Resistances,
		},
		Abilities: kit.Abilities,
		Rotation:  def,
		Policy:    policy,
		Sim: SimulationConfig{
			Duration:       setup.Simulation.Duration(),
			Iterations:     setup.Simulation.Iterations,
			ExecutePercent: setup.Simulation.ExecutePercent,
		},
	}, nil
}

func characterConfig(p config.Player, db *equipment.DB) (character.Config, error) {
	cfg := character.Config{
		Class: p.Class,
		Level: p.Level,
		Stats: character.Stats{
			AttackPower:  p.Stats.AttackPower,
			SpellPower:   p.Stats.SpellPower,
			CritPct:      p.Stats.CritPercent,
			SpellCritPct: p.Stats.SpellCrit,
			HitPct:       p.Stats.HitPercent,
			SpellHitPct:  p.Stats.SpellHit,
			MaxMana:      p.Stats.MaxMana,
		},
		Resources:      make(map[character.Resource]float64, len(p.Resources)),
		WeaponSkills:   make(map[equipment.WeaponType]int, len(p.WeaponSkills)),
		GlobalCooldown: time.Duration(p.GlobalCooldown * float64(time.Second)),
	}
	for name, limit := range p.Resources {
		kind, err := character.ParseResource(name)
		if err != nil {
			return cfg, err
		}
		cfg.Resources[kind] = limit
	}
	for typ, bonus := range p.WeaponSkills {
		cfg.WeaponSkills[equipment.WeaponType(strings.ToLower(typ))] = bonus
	}

	var err error
	if cfg.Mainhand, err = lookupWeapon(db, p.Mainhand); err != nil {
		return cfg, err
	}
	if cfg.Offhand, err = lookupWeapon(db, p.Offhand); err != nil {
		return cfg, err
	}
	if cfg.Ranged, err = lookupWeapon(db, p.Ranged); err != nil {
		return cfg, err
	}
	if cfg.Mainhand != nil && cfg.Mainhand.TwoHanded() && cfg.Offhand != nil {
		return cfg, fmt.Errorf("cannot wield offhand '%s' with two-handed '%s'", cfg.Offhand.Name, cfg.Mainhand.Name)
	}
	if cfg.Ranged != nil && !cfg.Ranged.Ranged() {
		return cfg, fmt.Errorf("'%s' is not a ranged weapon", cfg.Ranged.Name)
	}
	return cfg, nil
}

func lookupWeapon(db *equipment.DB, name string) (*equipment.Weapon, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	w, ok := db.Weapon(name)
	if !ok {
		return nil, fmt.Errorf("weapon '%s' not in equipment database", name)
	}
	return &w, nil
}

func sameClass(a, b string) bool {
	return a == "" || strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// LoadEquipment opens the equipment source a setup names: the SQLite
// database when set, else the YAML weapon list, else an empty table.
func LoadEquipment(ctx context.Context, setup *config.Setup, baseDir string) (*equipment.DB, error) {
	switch {
	case setup.EquipmentDB != "":
		return equipment.Open(ctx, config.Resolve(baseDir, setup.EquipmentDB))
	case setup.Weapons != "":
		weapons, err := equipment.LoadYAML(config.Resolve(baseDir, setup.Weapons))
		if err != nil {
			return nil, err
		}
		return equipment.NewDB(weapons)
	default:
		return equipment.NewDB(nil)
	}
}

// newTarget returns a private copy of the target template.
func (s *Spec) newTarget() *attack.Target {
	target := s.Target
	if s.Target.Resistances != nil {
		target.Resistances = make(map[string]int, len(s.Target.Resistances))
		for school, value := range s.Target.Resistances {
			target.Resistances[school] = value
		}
	}
	return &target
}

// CheckRotation links a fresh rotation against a fresh character built
// from spec. The error lists the executors that stayed inactive.
func CheckRotation(spec *Spec, logger *zap.Logger) (*rotation.Rotation, error) {
	player, err := newPlayer(spec, random.New(0))
	if err != nil {
		return nil, err
	}
	rot, err := rotation.FromDefinition(spec.Rotation,
		rotation.WithLogger(logger),
		rotation.WithContinuePolicy(spec.Policy))
	if err != nil {
		return nil, err
	}
	return rot, rot.Link(player)
}
