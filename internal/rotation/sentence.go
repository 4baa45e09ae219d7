package rotation

import (
	"fmt"
	"strings"
)

// Connective joins a sentence to the pending condition group.
type Connective int

const (
	And Connective = iota
	// Or closes the pending group and starts a new one.
	Or
)

func (c Connective) String() string {
	if c == Or {
		return "or"
	}
	return "and"
}

// ConditionType is the closed set of condition kinds.
type ConditionType int

const (
	BuffCondition ConditionType = iota
	SpellCondition
	ResourceCondition
	VariableBuiltinCondition
)

func (t ConditionType) String() string {
	switch t {
	case BuffCondition:
		return "buff"
	case SpellCondition:
		return "spell"
	case ResourceCondition:
		return "resource"
	case VariableBuiltinCondition:
		return "builtin"
	default:
		return fmt.Sprintf("condition(%d)", int(t))
	}
}

// ParseConditionType maps a file keyword to a condition kind.
func ParseConditionType(name string) (ConditionType, error) {
	switch normalizeName(name) {
	case "buff":
		return BuffCondition, nil
	case "spell":
		return SpellCondition, nil
	case "resource":
		return ResourceCondition, nil
	case "builtin", "variable_builtin", "variable":
		return VariableBuiltinCondition, nil
	default:
		return 0, fmt.Errorf("%w '%s'", ErrUnsupportedCondition, name)
	}
}

// Comparator is the mathematical symbol of a sentence.
type Comparator int

const (
	Less Comparator = iota
	LessOrEqual
	Equal
	GreaterOrEqual
	Greater
	NotEqual
	// IsTrue and IsFalse test presence instead of comparing a quantity.
	IsTrue
	IsFalse
)

var comparatorSymbols = map[Comparator]string{
	Less:           "<",
	LessOrEqual:    "<=",
	Equal:          "==",
	GreaterOrEqual: ">=",
	Greater:        ">",
	NotEqual:       "!=",
	IsTrue:         "is_true",
	IsFalse:        "is_false",
}

func (c Comparator) String() string {
	if s, ok := comparatorSymbols[c]; ok {
		return s
	}
	return fmt.Sprintf("comparator(%d)", int(c))
}

// ParseComparator accepts symbols and their word forms.
func ParseComparator(s string) (Comparator, error) {
	switch normalizeName(s) {
	case "<", "less", "lt":
		return Less, nil
	case "<=", "leq", "lte":
		return LessOrEqual, nil
	case "==", "=", "eq":
		return Equal, nil
	case ">=", "geq", "gte":
		return GreaterOrEqual, nil
	case ">", "greater", "gt":
		return Greater, nil
	case "!=", "neq", "ne":
		return NotEqual, nil
	case "is_true", "true":
		return IsTrue, nil
	case "is_false", "false":
		return IsFalse, nil
	default:
		return 0, fmt.Errorf("unknown comparator '%s'", s)
	}
}

// Presence reports whether the comparator ignores the compared value.
func (c Comparator) Presence() bool {
	return c == IsTrue || c == IsFalse
}

func (c Comparator) compare(lhs, rhs float64) bool {
	switch c {
	case Less:
		return lhs < rhs
	case LessOrEqual:
		return lhs <= rhs
	case Equal:
		return lhs == rhs
	case GreaterOrEqual:
		return lhs >= rhs
	case Greater:
		return lhs > rhs
	case NotEqual:
		return lhs != rhs
	default:
		return false
	}
}

// Attribute selects which quantity of a buff is compared.
type Attribute int

const (
	AttributeDuration Attribute = iota
	AttributeStacks
)

func (a Attribute) String() string {
	if a == AttributeStacks {
		return "stacks"
	}
	return "duration"
}

// ParseAttribute maps an attribute keyword; empty means duration.
func ParseAttribute(s string) (Attribute, error) {
	switch normalizeName(s) {
	case "", "duration", "remaining":
		return AttributeDuration, nil
	case "stacks", "charges":
		return AttributeStacks, nil
	default:
		return 0, fmt.Errorf("unknown attribute '%s'", s)
	}
}

// Sentence is one raw, unresolved condition line.
type Sentence struct {
	Connective    Connective
	Type          ConditionType
	TypeValue     string
	Attribute     Attribute
	Comparator    Comparator
	ComparedValue float64
}

func (s Sentence) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s '%s'", s.Connective, s.Type, s.TypeValue)
	if s.Type == BuffCondition && s.Attribute == AttributeStacks {
		b.WriteString(" stacks")
	}
	b.WriteString(" ")
	b.WriteString(s.Comparator.String())
	if !s.Comparator.Presence() {
		fmt.Fprintf(&b, " %g", s.ComparedValue)
	}
	return b.String()
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
