package attack

const minSpellMiss = 0.01

// Target is the defending side of every attack table.
type Target struct {
	Level int
	Armor float64
	// Front enables parry and block; attacks from behind cannot be parried or blocked.
	Front       bool
	ParryChance float64
	BlockChance float64
	BlockValue  float64
	Resistances map[string]int
}

// NewTarget returns a target of the given level attacked from behind.
func NewTarget(level int) *Target {
	return &Target{Level: level}
}

// Defense returns the target's defense skill.
func (t *Target) Defense() int {
	return t.Level * 5
}

// Resistance returns the target's resistance to a magic school.
func (t *Target) Resistance(school string) int {
	if t == nil || t.Resistances == nil {
		return 0
	}
	return t.Resistances[school]
}

// Mechanics derives the static band chances from attacker skill and target.
type Mechanics struct {
	target *Target
}

// NewMechanics returns mechanics bound to target. Level changes on the
// target are picked up by the next table construction or update.
func NewMechanics(target *Target) *Mechanics {
	return &Mechanics{target: target}
}

// Target returns the bound target.
func (m *Mechanics) Target() *Target {
	return m.target
}

func (m *Mechanics) defenseDiff(skill int) int {
	return m.target.Defense() - skill
}

// YellowMissChance is the miss chance of special attacks and two-hand swings.
func (m *Mechanics) YellowMissChance(skill int) float64 {
	diff := m.defenseDiff(skill)
	var miss float64
	if diff > 10 {
		miss = 0.06 + float64(diff)*0.002
	} else {
		miss = 0.05 + float64(diff)*0.001
	}
	if miss < 0 {
		return 0
	}
	return miss
}

// WhiteMissChance is the miss chance of auto-attacks.
func (m *Mechanics) WhiteMissChance(skill int, dualWield bool) float64 {
	miss := m.YellowMissChance(skill)
	if dualWield {
		miss += 0.19
	}
	return miss
}

// DodgeChance is the target's dodge chance against a weapon skill: 5%,
// lowered by 0.1% for each skill point above the target's defense.
func (m *Mechanics) DodgeChance(skill int) float64 {
	dodge := 0.05
	if diff := m.defenseDiff(skill); diff < 0 {
		dodge += float64(diff) * 0.001
	}
	if dodge < 0 {
		return 0
	}
	return dodge
}

// ParryChance is zero unless the target is attacked from the front.
func (m *Mechanics) ParryChance() float64 {
	if !m.target.Front {
		return 0
	}
	return m.target.ParryChance
}

// BlockChance is zero unless the target is attacked from the front.
func (m *Mechanics) BlockChance() float64 {
	if !m.target.Front {
		return 0
	}
	return m.target.BlockChance
}

// GlancingChance is the auto-attack glancing chance. Only targets at or
// above the attacker's level produce glancing blows.
func (m *Mechanics) GlancingChance(attackerLevel, skill int) float64 {
	if m.target.Level < attackerLevel {
		return 0
	}
	capped := skill
	if levelCap := attackerLevel * 5; capped > levelCap {
		capped = levelCap
	}
	glancing := 0.10 + float64(m.target.Defense()-capped)*0.02
	if glancing < 0 {
		return 0
	}
	return glancing
}

// SpellMissChance is the base spell miss chance before hit. Targets three or
// more levels above the attacker use the large boss penalty.
func (m *Mechanics) SpellMissChance(attackerLevel int) float64 {
	diff := m.target.Level - attackerLevel
	switch {
	case diff >= 3:
		return 0.17
	case diff == 2:
		return 0.06
	case diff == 1:
		return 0.05
	case diff == 0:
		return 0.04
	case diff == -1:
		return 0.03
	case diff == -2:
		return 0.02
	default:
		return minSpellMiss
	}
}
