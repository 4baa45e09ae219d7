package attack

import "github.com/donggangwhy/ClassicSim/internal/random"

// Attacker supplies the attacker-side inputs of table construction.
type Attacker interface {
	Level() int
	MeleeHitChance() float64
	SpellHitChance() float64
	DualWielding() bool
}

// CombatRoll owns the attack tables of one character. Tables are built
// lazily per weapon skill and reused until Invalidate is called. A CombatRoll
// belongs to exactly one simulation replica and is never shared.
type CombatRoll struct {
	attacker  Attacker
	target    *Target
	mechanics *Mechanics
	random    random.Source

	white   map[int]*WhiteHitTable
	special map[int]*MeleeSpecialTable
	magic   *MagicAttackTable
}

// NewCombatRoll returns an empty cache for attacker against target.
func NewCombatRoll(attacker Attacker, target *Target, src random.Source) *CombatRoll {
	return &CombatRoll{
		attacker:  attacker,
		target:    target,
		mechanics: NewMechanics(target),
		random:    src,
		white:     make(map[int]*WhiteHitTable),
		special:   make(map[int]*MeleeSpecialTable),
	}
}

// WhiteHitTable returns the auto-attack table for skill.
func (c *CombatRoll) WhiteHitTable(skill int) *WhiteHitTable {
	if table, ok := c.white[skill]; ok {
		return table
	}
	miss := c.mechanics.WhiteMissChance(skill, c.attacker.DualWielding()) - c.attacker.MeleeHitChance()
	if miss < 0 {
		miss = 0
	}
	table := NewWhiteHitTable(c.random,
		skill,
		miss,
		c.mechanics.DodgeChance(skill),
		c.mechanics.ParryChance(),
		c.mechanics.GlancingChance(c.attacker.Level(), skill),
		c.mechanics.BlockChance())
	c.white[skill] = table
	return table
}

// MeleeSpecialTable returns the special attack table for skill.
func (c *CombatRoll) MeleeSpecialTable(skill int) *MeleeSpecialTable {
	if table, ok := c.special[skill]; ok {
		return table
	}
	miss := c.mechanics.YellowMissChance(skill) - c.attacker.MeleeHitChance()
	if miss < 0 {
		miss = 0
	}
	table := NewMeleeSpecialTable(c.random,
		skill,
		miss,
		c.mechanics.DodgeChance(skill),
		c.mechanics.ParryChance(),
		c.mechanics.BlockChance())
	c.special[skill] = table
	return table
}

// MagicAttackTable returns the spell hit table for the attacker's level.
func (c *CombatRoll) MagicAttackTable(school string) *MagicAttackTable {
	if c.magic == nil {
		c.magic = NewMagicAttackTable(c.mechanics, c.random, c.attacker.Level(), c.attacker.SpellHitChance(), 0)
	}
	c.magic.SetResistance(c.target.Resistance(school))
	return c.magic
}

// UpdateSpellHit refreshes the magic table after a level or spell hit change.
func (c *CombatRoll) UpdateSpellHit() {
	if c.magic == nil {
		return
	}
	c.magic.UpdateMissChance(c.attacker.Level(), c.attacker.SpellHitChance())
}

// Invalidate drops every cached table. Callers signal it when static
// defensive inputs change, such as a weapon swap or a melee hit change.
func (c *CombatRoll) Invalidate() {
	clear(c.white)
	clear(c.special)
	c.magic = nil
}

// SetTarget switches target and invalidates the cache.
func (c *CombatRoll) SetTarget(target *Target) {
	c.target = target
	c.mechanics = NewMechanics(target)
	c.Invalidate()
}

// Target returns the current target.
func (c *CombatRoll) Target() *Target {
	return c.target
}

// Source returns the random source feeding the tables.
func (c *CombatRoll) Source() random.Source {
	return c.random
}

// CachedTables reports how many melee tables are currently cached.
func (c *CombatRoll) CachedTables() int {
	return len(c.white) + len(c.special)
}
