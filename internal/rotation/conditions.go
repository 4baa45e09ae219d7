package rotation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/effects"
	"github.com/donggangwhy/ClassicSim/internal/spells"
)

// Character is what the decision engine reads from the simulated player.
// It never mutates the character except through spell Perform calls.
type Character interface {
	Spell(name string) (spells.Spell, bool)
	Buff(name string) (*effects.Aura, bool)
	ResourceLevel(kind character.Resource) float64
	// GlobalCooldownDuration is the base global cooldown.
	GlobalCooldownDuration() time.Duration
	Builtin(b Builtin) float64
	Now() time.Duration
}

// Builtin is a simulation variable a condition can read by name.
type Builtin int

const (
	BuiltinUndefined Builtin = iota
	BuiltinTimeRemainingEncounter
	BuiltinTimeRemainingExecute
	BuiltinTimeSinceCombatStart
	BuiltinTargetHealthPercent
	BuiltinSwingTimer
)

var builtinNames = map[string]Builtin{
	"time_remaining_encounter": BuiltinTimeRemainingEncounter,
	"time_remaining_execute":   BuiltinTimeRemainingExecute,
	"time_since_combat_start":  BuiltinTimeSinceCombatStart,
	"target_health_percent":    BuiltinTargetHealthPercent,
	"swing_timer":              BuiltinSwingTimer,
}

// ParseBuiltin returns BuiltinUndefined for unknown names.
func ParseBuiltin(name string) Builtin {
	return builtinNames[normalizeName(name)]
}

func (b Builtin) String() string {
	for name, v := range builtinNames {
		if v == b {
			return name
		}
	}
	return "undefined"
}

// Condition is a resolved predicate bound to live simulation state.
type Condition interface {
	Evaluate() bool
}

// ConditionGroup is a conjunction of conditions.
type ConditionGroup []Condition

// Evaluate reports whether every condition holds. An empty group holds.
func (g ConditionGroup) Evaluate() bool {
	for _, c := range g {
		if !c.Evaluate() {
			return false
		}
	}
	return true
}

// ResolutionPolicy says what happens when a sentence cannot be bound.
type ResolutionPolicy int

const (
	// PolicyFail makes the whole executor link fail.
	PolicyFail ResolutionPolicy = iota
	// PolicyBindNil builds the condition against a missing object; it never holds.
	PolicyBindNil
	// PolicySkip drops the condition from its group.
	PolicySkip
)

func (p ResolutionPolicy) String() string {
	switch p {
	case PolicyFail:
		return "fail"
	case PolicyBindNil:
		return "bind_nil"
	case PolicySkip:
		return "skip"
	default:
		return "unknown"
	}
}

var resolutionPolicies = map[ConditionType]ResolutionPolicy{
	BuffCondition:            PolicyFail,
	SpellCondition:           PolicyBindNil,
	ResourceCondition:        PolicyFail,
	VariableBuiltinCondition: PolicySkip,
}

// PolicyFor returns the resolution policy of a condition kind.
func PolicyFor(t ConditionType) ResolutionPolicy {
	if p, ok := resolutionPolicies[t]; ok {
		return p
	}
	return PolicyFail
}

type buffCondition struct {
	buff       *effects.Aura
	now        func() time.Duration
	attribute  Attribute
	comparator Comparator
	value      float64
}

func (c buffCondition) Evaluate() bool {
	now := c.now()
	active := c.buff.ActiveAt(now)
	switch c.comparator {
	case IsTrue:
		return active
	case IsFalse:
		return !active
	}
	var quantity float64
	if c.attribute == AttributeStacks {
		if active {
			quantity = float64(c.buff.Stacks())
		}
	} else if active {
		if c.buff.Duration <= 0 {
			quantity = math.Inf(1)
		} else {
			quantity = c.buff.Remaining(now).Seconds()
		}
	}
	return c.comparator.compare(quantity, c.value)
}

// spellCondition may be bound to a nil spell, in which case it never holds.
type spellCondition struct {
	spell      spells.Spell
	comparator Comparator
	value      float64
}

func (c spellCondition) Evaluate() bool {
	if c.spell == nil {
		return false
	}
	switch c.comparator {
	case IsTrue:
		return c.spell.Available()
	case IsFalse:
		return !c.spell.Available()
	}
	return c.comparator.compare(c.spell.CooldownRemaining().Seconds(), c.value)
}

type resourceCondition struct {
	char       Character
	resource   character.Resource
	comparator Comparator
	value      float64
}

func (c resourceCondition) Evaluate() bool {
	level := c.char.ResourceLevel(c.resource)
	switch c.comparator {
	case IsTrue:
		return level > 0
	case IsFalse:
		return level <= 0
	}
	return c.comparator.compare(level, c.value)
}

type builtinCondition struct {
	char       Character
	builtin    Builtin
	comparator Comparator
	value      float64
}

func (c builtinCondition) Evaluate() bool {
	v := c.char.Builtin(c.builtin)
	switch c.comparator {
	case IsTrue:
		return v != 0
	case IsFalse:
		return v == 0
	}
	return c.comparator.compare(v, c.value)
}

var (
	errUnknownSpell   = errors.New("could not find spell for condition")
	errUnknownBuiltin = errors.New("unknown builtin variable")
)

// resolve binds one sentence to live state.
func resolve(char Character, s Sentence) (Condition, error) {
	switch s.Type {
	case BuffCondition:
		buff, ok := char.Buff(s.TypeValue)
		if !ok || buff == nil {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownBuff, s.TypeValue)
		}
		return buffCondition{
			buff:       buff,
			now:        char.Now,
			attribute:  s.Attribute,
			comparator: s.Comparator,
			value:      s.ComparedValue,
		}, nil
	case SpellCondition:
		spell, ok := char.Spell(s.TypeValue)
		if !ok || spell == nil {
			return nil, fmt.Errorf("%w: '%s'", errUnknownSpell, s.TypeValue)
		}
		return spellCondition{spell: spell, comparator: s.Comparator, value: s.ComparedValue}, nil
	case ResourceCondition:
		kind, err := character.ParseResource(s.TypeValue)
		if err != nil {
			return nil, err
		}
		return resourceCondition{char: char, resource: kind, comparator: s.Comparator, value: s.ComparedValue}, nil
	case VariableBuiltinCondition:
		b := ParseBuiltin(s.TypeValue)
		if b == BuiltinUndefined {
			return nil, fmt.Errorf("%w: '%s'", errUnknownBuiltin, s.TypeValue)
		}
		return builtinCondition{char: char, builtin: b, comparator: s.Comparator, value: s.ComparedValue}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCondition, s.Type)
	}
}

// bindNil builds the never-true condition of a kind bound to a missing object.
func bindNil(s Sentence) Condition {
	return spellCondition{comparator: s.Comparator, value: s.ComparedValue}
}

// buildGroups turns a sentence stream into OR-ed condition groups.
func buildGroups(char Character, sentences []Sentence) ([]ConditionGroup, error) {
	var groups []ConditionGroup
	var pending ConditionGroup
	// Sentences seen in the pending group, skipped ones included.
	pendingSentences := 0

	for i, s := range sentences {
		if s.Connective == Or {
			if pendingSentences == 0 {
				return nil, fmt.Errorf("sentence %d: %w", i, ErrLeadingOr)
			}
			groups = append(groups, pending)
			pending = nil
			pendingSentences = 0
		}
		pendingSentences++

		cond, err := resolve(char, s)
		if err != nil {
			switch PolicyFor(s.Type) {
			case PolicySkip:
				continue
			case PolicyBindNil:
				cond = bindNil(s)
			default:
				return nil, fmt.Errorf("sentence %d: %w", i, err)
			}
		}
		pending = append(pending, cond)
	}
	if pendingSentences > 0 {
		groups = append(groups, pending)
	}
	return groups, nil
}
