package spells

import (
	"fmt"
	"strings"
	"time"

	"github.com/donggangwhy/ClassicSim/internal/attack"
	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/effects"
)

// Kind selects what an ability does when performed.
type Kind string

const (
	KindAttack   Kind = "attack"
	KindBuff     Kind = "buff"
	KindResource Kind = "resource"
)

// Table selects the attack table of an attack ability.
type Table string

const (
	TableWhite   Table = "white"
	TableSpecial Table = "special"
	TableMagic   Table = "magic"
)

// Definition describes one ability as written in an ability kit file.
type Definition struct {
	Name        string  `yaml:"name"`
	Kind        Kind    `yaml:"kind"`
	Resource    string  `yaml:"resource"`
	Cost        float64 `yaml:"cost"`
	Cooldown    float64 `yaml:"cooldown"`
	CastTime    float64 `yaml:"cast_time"`
	TriggersGCD *bool   `yaml:"triggers_gcd"`
	Disabled    bool    `yaml:"disabled"`
	Precast     bool    `yaml:"precast"`

	// Attack abilities.
	Table         Table   `yaml:"table"`
	School        string  `yaml:"school"`
	Slot          string  `yaml:"slot"`
	WeaponDamage  bool    `yaml:"weapon_damage"`
	MinDamage     float64 `yaml:"min_damage"`
	MaxDamage     float64 `yaml:"max_damage"`
	BonusDamage   float64 `yaml:"bonus_damage"`
	APCoefficient float64 `yaml:"ap_coefficient"`
	SPCoefficient float64 `yaml:"sp_coefficient"`

	// Buff abilities.
	Aura        string  `yaml:"aura"`
	Duration    float64 `yaml:"duration"`
	MaxStacks   int     `yaml:"max_stacks"`
	CritPct     float64 `yaml:"crit_pct"`
	HitPct      float64 `yaml:"hit_pct"`
	AttackPower float64 `yaml:"attack_power"`

	// Resource abilities.
	Gain         float64 `yaml:"gain"`
	GainResource string  `yaml:"gain_resource"`
}

// Validate checks the definition for contradictions.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("ability name missing")
	}
	if d.Cost > 0 {
		if _, err := character.ParseResource(d.Resource); err != nil {
			return fmt.Errorf("ability '%s': %w", d.Name, err)
		}
	}
	if d.Cooldown < 0 || d.CastTime < 0 {
		return fmt.Errorf("ability '%s': negative cooldown or cast time", d.Name)
	}
	switch d.Kind {
	case KindAttack:
		switch d.Table {
		case TableWhite, TableSpecial, TableMagic:
		default:
			return fmt.Errorf("ability '%s': unknown table '%s'", d.Name, d.Table)
		}
		if d.MaxDamage < d.MinDamage {
			return fmt.Errorf("ability '%s': max damage below min damage", d.Name)
		}
		if _, err := parseSlot(d.Slot); err != nil {
			return fmt.Errorf("ability '%s': %w", d.Name, err)
		}
	case KindBuff:
		if d.Duration < 0 || d.MaxStacks < 0 {
			return fmt.Errorf("ability '%s': negative duration or stacks", d.Name)
		}
	case KindResource:
		if d.Gain <= 0 {
			return fmt.Errorf("ability '%s': gain must be > 0", d.Name)
		}
		if _, err := character.ParseResource(d.GainResource); err != nil {
			return fmt.Errorf("ability '%s': %w", d.Name, err)
		}
	default:
		return fmt.Errorf("ability '%s': unknown kind '%s'", d.Name, d.Kind)
	}
	return nil
}

func parseSlot(name string) (character.Slot, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mainhand":
		return character.SlotMainhand, nil
	case "offhand":
		return character.SlotOffhand, nil
	case "ranged":
		return character.SlotRanged, nil
	default:
		return 0, fmt.Errorf("unknown slot '%s'", name)
	}
}

// Ability is a data-driven Spell bound to one character.
type Ability struct {
	def      Definition
	char     *character.Character
	cooldown *effects.Cooldown
	resource character.Resource
	slot     character.Slot
	gcd      bool
	aura     *effects.Aura
	restack  func()
	gain     character.Resource
}

// NewAbility binds def to char. Buff abilities register their aura on the
// character so rotations can resolve it even when the ability is disabled.
func NewAbility(def Definition, char *character.Character) (*Ability, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	a := &Ability{
		def:      def,
		char:     char,
		cooldown: effects.NewCooldown(seconds(def.Cooldown)),
		gcd:      def.TriggersGCD == nil || *def.TriggersGCD,
	}
	if def.Cost > 0 {
		a.resource, _ = character.ParseResource(def.Resource)
	}
	a.slot, _ = parseSlot(def.Slot)
	switch def.Kind {
	case KindBuff:
		a.aura = a.buildAura()
		char.RegisterAura(a.aura)
	case KindResource:
		a.gain, _ = character.ParseResource(def.GainResource)
	}
	return a, nil
}

func (a *Ability) buildAura() *effects.Aura {
	name := a.def.Aura
	if name == "" {
		name = a.def.Name
	}
	maxStacks := a.def.MaxStacks
	if maxStacks == 0 {
		maxStacks = 1
	}
	aura := effects.NewAura(name, seconds(a.def.Duration), maxStacks)
	aura.Enabled = !a.def.Disabled
	char := a.char
	crit, hit, ap := a.def.CritPct, a.def.HitPct, a.def.AttackPower
	applied := 0
	apply := func(stacks int) {
		delta := float64(stacks - applied)
		if delta == 0 {
			return
		}
		if crit != 0 {
			char.ModifyCrit(crit * delta)
		}
		if hit != 0 {
			char.ModifyHit(hit * delta)
		}
		if ap != 0 {
			char.ModifyAttackPower(ap * delta)
		}
		applied = stacks
	}
	aura.OnGain = func(au *effects.Aura, _ time.Duration) { apply(au.Stacks()) }
	aura.OnExpire = func(_ *effects.Aura, _ time.Duration) { apply(0) }
	a.restack = func() { apply(aura.Stacks()) }
	return aura
}

// Name returns the ability name.
func (a *Ability) Name() string { return a.def.Name }

// Definition returns the definition the ability was built from.
func (a *Ability) Definition() Definition { return a.def }

// Enabled reports whether the character knows the ability.
func (a *Ability) Enabled() bool { return !a.def.Disabled }

// TriggersGCD reports whether casting starts the global cooldown.
func (a *Ability) TriggersGCD() bool { return a.gcd }

// CastTime returns the cast duration.
func (a *Ability) CastTime() time.Duration { return seconds(a.def.CastTime) }

// CooldownRemaining returns the time until the ability is off cooldown.
func (a *Ability) CooldownRemaining() time.Duration {
	return a.cooldown.Remaining(a.char.CurrentTime)
}

// Aura returns the aura applied by a buff ability, or nil.
func (a *Ability) Aura() *effects.Aura { return a.aura }

// Available reports whether the ability can be performed now.
func (a *Ability) Available() bool {
	if a.def.Disabled || a.char.IsCasting() {
		return false
	}
	if !a.cooldown.Ready(a.char.CurrentTime) {
		return false
	}
	if a.gcd && !a.char.IsGCDReady() {
		return false
	}
	return a.def.Cost <= 0 || a.char.CanAfford(a.resource, a.def.Cost)
}

// Perform casts the ability if available.
func (a *Ability) Perform() CastResult {
	if !a.Available() {
		return CastResult{Spell: a.def.Name}
	}
	return a.perform()
}

func (a *Ability) perform() CastResult {
	char := a.char
	result := CastResult{
		Spell:    a.def.Name,
		Cast:     true,
		CastTime: a.CastTime(),
	}
	if a.def.Cost > 0 {
		char.SpendResource(a.resource, a.def.Cost)
		result.ResourceSpent = a.def.Cost
	}
	if a.gcd {
		char.StartGCD()
		result.GCDTime = char.GlobalCooldownDuration()
	}
	a.cooldown.Start(char.CurrentTime)
	char.StartCast(result.CastTime)

	switch a.def.Kind {
	case KindAttack:
		a.resolveAttack(&result)
	case KindBuff:
		a.aura.Apply(char.CurrentTime)
		a.restack()
		result.Outcome = "APPLIED"
	case KindResource:
		result.ResourceGained = char.GainResource(a.gain, a.def.Gain)
		result.Outcome = "GAINED"
	}
	return result
}

func (a *Ability) resolveAttack(result *CastResult) {
	char := a.char
	roll := char.CombatRoll()
	switch a.def.Table {
	case TableMagic:
		table := roll.MagicAttackTable(a.def.School)
		outcome := table.Roll()
		result.Outcome = outcome.String()
		if outcome == attack.MagicMiss {
			break
		}
		damage := char.Random().Between(a.def.MinDamage, a.def.MaxDamage) +
			a.def.BonusDamage + char.Stats.SpellPower*a.def.SPCoefficient
		if char.Random().Float64() < char.SpellCritChance() {
			damage *= spellCritMultiplier
			result.Outcome = attack.OutcomeCritical.String()
		}
		result.Damage = damage * (1 - table.ResistReduction())
	case TableWhite:
		table := roll.WhiteHitTable(char.WeaponSkill(a.slot))
		outcome := table.Roll(char.MeleeCritChance())
		result.Outcome = outcome.String()
		result.Damage = applyMeleeOutcome(char, a.rawPhysical(), outcome)
	default:
		table := roll.MeleeSpecialTable(char.WeaponSkill(a.slot))
		outcome := table.Roll(char.MeleeCritChance())
		result.Outcome = outcome.String()
		result.Damage = applyMeleeOutcome(char, a.rawPhysical(), outcome)
	}
	char.Meter.Record(a.def.Name, result.Outcome, result.Damage)
}

func (a *Ability) rawPhysical() float64 {
	char := a.char
	raw := char.Random().Between(a.def.MinDamage, a.def.MaxDamage) +
		a.def.BonusDamage + char.Stats.AttackPower*a.def.APCoefficient
	if a.def.WeaponDamage {
		raw += weaponDamage(char, a.slot)
	}
	return raw
}
