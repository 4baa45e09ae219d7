package spells

import (
	"time"

	"github.com/donggangwhy/ClassicSim/internal/character"
)

// AutoAttack is the white swing of one weapon slot. It is driven by the
// engine's swing timer, not by rotations.
type AutoAttack struct {
	char *character.Character
	slot character.Slot
	name string
}

// NewAutoAttack returns the swing of slot, or nil when the slot is empty.
func NewAutoAttack(char *character.Character, slot character.Slot) *AutoAttack {
	if char.Weapon(slot) == nil {
		return nil
	}
	name := "Auto Attack"
	switch slot {
	case character.SlotOffhand:
		name = "Auto Attack (Offhand)"
	case character.SlotRanged:
		name = "Auto Shot"
	}
	return &AutoAttack{char: char, slot: slot, name: name}
}

// Name returns the meter name of the swing.
func (a *AutoAttack) Name() string { return a.name }

// Speed returns the weapon's swing interval.
func (a *AutoAttack) Speed() time.Duration {
	return a.char.Weapon(a.slot).Speed()
}

// Swing resolves one white hit, records it and converts damage into rage.
func (a *AutoAttack) Swing() CastResult {
	char := a.char
	table := char.CombatRoll().WhiteHitTable(char.WeaponSkill(a.slot))
	outcome := table.Roll(char.MeleeCritChance())
	raw := weaponDamage(char, a.slot)
	if a.slot == character.SlotOffhand {
		raw *= offhandMultiplier
	}
	damage := applyMeleeOutcome(char, raw, outcome)
	char.Meter.Record(a.name, outcome.String(), damage)
	return CastResult{
		Spell:          a.name,
		Outcome:        outcome.String(),
		Damage:         damage,
		Cast:           true,
		ResourceGained: char.GainRageFromDamage(damage),
	}
}
