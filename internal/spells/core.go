// Package spells is the spell boundary consumed by rotations and the
// engine, plus a small data-driven ability kit that implements it.
package spells

import (
	"time"

	"github.com/donggangwhy/ClassicSim/internal/attack"
	"github.com/donggangwhy/ClassicSim/internal/character"
)

const (
	meleeCritMultiplier = 2.0
	spellCritMultiplier = 1.5
	glancingMultiplier  = 0.65
	offhandMultiplier   = 0.5
)

// Spell is what rotations see of an ability.
type Spell interface {
	Name() string
	// Enabled is false for spells the character does not know.
	Enabled() bool
	// Available reports whether Perform would succeed now.
	Available() bool
	CooldownRemaining() time.Duration
	TriggersGCD() bool
	CastTime() time.Duration
	Perform() CastResult
}

// Precaster is implemented by spells that can be cast before combat starts.
type Precaster interface {
	Spell
	Precast() CastResult
}

// AsPrecaster reports whether s can be used as a precast.
func AsPrecaster(s Spell) (Precaster, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.(Precaster)
	return p, ok
}

// CastResult represents the result of a spell cast.
type CastResult struct {
	Spell    string
	Outcome  string
	Damage   float64
	Cast     bool
	CastTime time.Duration
	GCDTime  time.Duration

	ResourceSpent  float64
	ResourceGained float64
}

// armorReduction returns the fraction of physical damage removed by armor.
func armorReduction(armor float64, attackerLevel int) float64 {
	if armor <= 0 {
		return 0
	}
	reduction := armor / (armor + 400 + 85*float64(attackerLevel))
	if reduction > 0.75 {
		return 0.75
	}
	return reduction
}

// applyMeleeOutcome scales raw physical damage by the table outcome and the
// target's armor.
func applyMeleeOutcome(char *character.Character, raw float64, outcome attack.Outcome) float64 {
	var damage float64
	switch outcome {
	case attack.OutcomeMiss, attack.OutcomeDodge, attack.OutcomeParry:
		return 0
	case attack.OutcomeGlancing:
		damage = raw * glancingMultiplier
	case attack.OutcomeBlock:
		damage = raw - char.Target().BlockValue
	case attack.OutcomeBlockCritical:
		damage = raw*meleeCritMultiplier - char.Target().BlockValue
	case attack.OutcomeCritical:
		damage = raw * meleeCritMultiplier
	default:
		damage = raw
	}
	if damage <= 0 {
		return 0
	}
	return damage * (1 - armorReduction(char.Target().Armor, char.Level()))
}

// weaponDamage rolls weapon damage plus the attack power contribution over
// the weapon's speed.
func weaponDamage(char *character.Character, slot character.Slot) float64 {
	w := char.Weapon(slot)
	if w == nil {
		return 1 + char.Stats.AttackPower/14*2.0
	}
	return char.Random().Between(w.MinDamage, w.MaxDamage) + char.Stats.AttackPower/14*w.SpeedSeconds
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
