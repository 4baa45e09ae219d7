// Package attack resolves random rolls into combat outcomes.
//
// Tables hold cumulative thresholds over [0, random.Domain). Defensive bands
// are fixed at construction; crit chance is passed with every query because
// it changes during a fight while the defensive bands do not.
package attack

import (
	"fmt"
	"math"

	"github.com/donggangwhy/ClassicSim/internal/random"
)

// Outcome is the result of a physical attack roll.
type Outcome int

const (
	OutcomeMiss Outcome = iota
	OutcomeDodge
	OutcomeParry
	OutcomeGlancing
	OutcomeBlock
	OutcomeBlockCritical
	OutcomeCritical
	OutcomeHit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "MISS"
	case OutcomeDodge:
		return "DODGE"
	case OutcomeParry:
		return "PARRY"
	case OutcomeGlancing:
		return "GLANCING"
	case OutcomeBlock:
		return "BLOCK"
	case OutcomeBlockCritical:
		return "BLOCK_CRITICAL"
	case OutcomeCritical:
		return "CRITICAL"
	case OutcomeHit:
		return "HIT"
	default:
		return "UNKNOWN"
	}
}

// Landed reports whether the attack connected and deals damage.
func (o Outcome) Landed() bool {
	switch o {
	case OutcomeGlancing, OutcomeBlock, OutcomeBlockCritical, OutcomeCritical, OutcomeHit:
		return true
	default:
		return false
	}
}

// MagicOutcome is the result of a spell hit roll.
type MagicOutcome int

const (
	MagicMiss MagicOutcome = iota
	MagicHit
)

func (o MagicOutcome) String() string {
	switch o {
	case MagicMiss:
		return "MISS"
	case MagicHit:
		return "HIT"
	default:
		return "UNKNOWN"
	}
}

// width converts a chance into a band width in domain units.
func width(chance float64) int {
	if chance <= 0 {
		return 0
	}
	w := int(math.Round(chance * random.Domain))
	if w > random.Domain {
		return random.Domain
	}
	return w
}

// cumulative adds a band of the given chance on top of floor, capped at the domain.
func cumulative(floor int, chance float64) int {
	next := floor + width(chance)
	if next > random.Domain {
		return random.Domain
	}
	return next
}

func checkRoll(roll int) {
	if roll < 0 || roll >= random.Domain {
		panic(fmt.Sprintf("attack: roll %d outside [0, %d)", roll, random.Domain))
	}
}
