package attack

import (
	"github.com/donggangwhy/ClassicSim/internal/random"
)

// WhiteHitTable resolves melee auto-attack swings.
// Band order: miss, dodge, parry, glancing, block, critical, hit.
type WhiteHitTable struct {
	random random.Source
	skill  int

	miss     float64
	dodge    float64
	parry    float64
	glancing float64
	block    float64

	missRange     int
	dodgeRange    int
	parryRange    int
	glancingRange int
	blockRange    int
}

// NewWhiteHitTable builds a table for one weapon skill.
func NewWhiteHitTable(src random.Source, skill int, miss, dodge, parry, glancing, block float64) *WhiteHitTable {
	t := &WhiteHitTable{
		random:   src,
		skill:    skill,
		miss:     miss,
		dodge:    dodge,
		parry:    parry,
		glancing: glancing,
		block:    block,
	}
	t.missRange = cumulative(0, miss)
	t.dodgeRange = cumulative(t.missRange, dodge)
	t.parryRange = cumulative(t.dodgeRange, parry)
	t.glancingRange = cumulative(t.parryRange, glancing)
	t.blockRange = cumulative(t.glancingRange, block)
	return t
}

// Outcome maps roll to an outcome given the attacker's current crit chance.
func (t *WhiteHitTable) Outcome(roll int, critChance float64) Outcome {
	checkRoll(roll)
	switch {
	case roll < t.missRange:
		return OutcomeMiss
	case roll < t.dodgeRange:
		return OutcomeDodge
	case roll < t.parryRange:
		return OutcomeParry
	case roll < t.glancingRange:
		return OutcomeGlancing
	case roll < t.blockRange:
		return OutcomeBlock
	case roll < cumulative(t.blockRange, critChance):
		return OutcomeCritical
	default:
		return OutcomeHit
	}
}

// Roll draws a roll from the table's source and resolves it.
func (t *WhiteHitTable) Roll(critChance float64) Outcome {
	return t.Outcome(t.random.Draw(), critChance)
}

// Skill returns the weapon skill the table was built for.
func (t *WhiteHitTable) Skill() int { return t.skill }

// MissChance returns the miss chance baked into the table.
func (t *WhiteHitTable) MissChance() float64 { return t.miss }

// GlancingChance returns the glancing chance baked into the table.
func (t *WhiteHitTable) GlancingChance() float64 { return t.glancing }

// MeleeSpecialTable resolves melee special attacks. There is no glancing band.
// A roll in the block band draws again against crit chance to decide between
// a critical block and a plain block.
type MeleeSpecialTable struct {
	random random.Source
	skill  int

	miss  float64
	dodge float64
	parry float64
	block float64

	missRange  int
	dodgeRange int
	parryRange int
	blockRange int
}

// NewMeleeSpecialTable builds a table for one weapon skill.
func NewMeleeSpecialTable(src random.Source, skill int, miss, dodge, parry, block float64) *MeleeSpecialTable {
	t := &MeleeSpecialTable{
		random: src,
		skill:  skill,
		miss:   miss,
		dodge:  dodge,
		parry:  parry,
		block:  block,
	}
	t.missRange = cumulative(0, miss)
	t.dodgeRange = cumulative(t.missRange, dodge)
	t.parryRange = cumulative(t.dodgeRange, parry)
	t.blockRange = cumulative(t.parryRange, block)
	return t
}

// Outcome maps roll to an outcome given the attacker's current crit chance.
func (t *MeleeSpecialTable) Outcome(roll int, critChance float64) Outcome {
	checkRoll(roll)
	switch {
	case roll < t.missRange:
		return OutcomeMiss
	case roll < t.dodgeRange:
		return OutcomeDodge
	case roll < t.parryRange:
		return OutcomeParry
	case roll < t.blockRange:
		return OutcomeBlockCritical
	case roll < cumulative(t.blockRange, critChance):
		return OutcomeCritical
	default:
		return OutcomeHit
	}
}

// Roll draws a roll from the table's source and resolves it.
func (t *MeleeSpecialTable) Roll(critChance float64) Outcome {
	return t.Outcome(t.random.Draw(), critChance)
}

// Skill returns the weapon skill the table was built for.
func (t *MeleeSpecialTable) Skill() int { return t.skill }

// MagicAttackTable resolves spell hit or miss. Crits are rolled by the caster.
// Unlike the melee tables it is updated in place through UpdateMissChance,
// which must be called whenever target level or attacker hit changes.
type MagicAttackTable struct {
	mechanics  *Mechanics
	random     random.Source
	level      int
	hitChance  float64
	resistance int

	missChance float64
	missRange  int
}

// NewMagicAttackTable builds a table for an attacker level and spell hit chance.
func NewMagicAttackTable(mechanics *Mechanics, src random.Source, level int, hitChance float64, resistance int) *MagicAttackTable {
	t := &MagicAttackTable{
		mechanics:  mechanics,
		random:     src,
		resistance: resistance,
	}
	t.UpdateMissChance(level, hitChance)
	return t
}

// UpdateMissChance recomputes the miss band from the current target level.
func (t *MagicAttackTable) UpdateMissChance(level int, hitChance float64) {
	t.level = level
	t.hitChance = hitChance
	miss := t.mechanics.SpellMissChance(level) - hitChance
	if miss < minSpellMiss {
		miss = minSpellMiss
	}
	t.missChance = miss
	t.missRange = cumulative(0, miss)
}

// Outcome maps roll to hit or miss.
func (t *MagicAttackTable) Outcome(roll int) MagicOutcome {
	checkRoll(roll)
	if roll < t.missRange {
		return MagicMiss
	}
	return MagicHit
}

// Roll draws a roll from the table's source and resolves it.
func (t *MagicAttackTable) Roll() MagicOutcome {
	return t.Outcome(t.random.Draw())
}

// MissChance returns the current miss chance.
func (t *MagicAttackTable) MissChance() float64 { return t.missChance }

// SetResistance updates the target resistance used for partial resists.
func (t *MagicAttackTable) SetResistance(resistance int) {
	t.resistance = resistance
}

// ResistReduction returns the average damage fraction lost to partial resists.
func (t *MagicAttackTable) ResistReduction() float64 {
	if t.resistance <= 0 || t.level <= 0 {
		return 0
	}
	r := 0.75 * float64(t.resistance) / float64(5*t.level)
	if r > 0.75 {
		return 0.75
	}
	return r
}
