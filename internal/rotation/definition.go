package rotation

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/donggangwhy/ClassicSim/internal/character"
)

// File represents one rotation YAML file.
type File struct {
	Class         string             `yaml:"class"`
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description"`
	AttackMode    string             `yaml:"attack_mode"`
	Imports       []string           `yaml:"imports"`
	Variables     map[string]any     `yaml:"variables"`
	Prerequisites map[string]string  `yaml:"prerequisites"`
	Precombat     []string           `yaml:"precombat"`
	Precast       string             `yaml:"precast"`
	Rotation      []ActionDefinition `yaml:"rotation"`
}

// ActionDefinition describes one entry in the priority list.
type ActionDefinition struct {
	Spell string               `yaml:"spell"`
	When  []SentenceDefinition `yaml:"when,omitempty"`
}

// SentenceDefinition is one condition line as written in a file.
type SentenceDefinition struct {
	Logic     string `yaml:"logic,omitempty"`
	Type      string `yaml:"type"`
	Name      string `yaml:"name"`
	Attribute string `yaml:"attribute,omitempty"`
	Compare   string `yaml:"compare"`
	Value     any    `yaml:"value,omitempty"`
}

// Definition is the immutable, validated form of a rotation. Every replica
// builds its own Rotation from it with FromDefinition.
type Definition struct {
	Class         string
	Name          string
	Description   string
	AttackMode    string
	Variables     map[string]string
	Prerequisites map[string]string
	Precombat     []string
	Precast       string
	Executors     []ExecutorDefinition
}

// ExecutorDefinition is one priority entry with its parsed sentences. Err
// is set when the entry could not be compiled; such an executor never links.
type ExecutorDefinition struct {
	Spell     string
	Sentences []Sentence
	Err       error
}

// ParseDefinition parses a single rotation document without imports.
func ParseDefinition(data []byte) (*Definition, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rotation: %w", err)
	}
	return Compile(&file)
}

// Compile validates a parsed File and turns it into a Definition. Only
// file-level problems fail the compile; a broken entry is kept with its
// error so that it alone is excluded when the rotation is linked.
func Compile(file *File) (*Definition, error) {
	if file == nil {
		return nil, fmt.Errorf("nil rotation file")
	}
	switch file.AttackMode {
	case "", "melee", "ranged", "magic":
	default:
		return nil, fmt.Errorf("%w '%s'", ErrInvalidAttackMode, file.AttackMode)
	}
	def := &Definition{
		Class:         file.Class,
		Name:          file.Name,
		Description:   file.Description,
		AttackMode:    file.AttackMode,
		Variables:     make(map[string]string, len(file.Variables)),
		Prerequisites: make(map[string]string, len(file.Prerequisites)),
		Precombat:     append([]string(nil), file.Precombat...),
		Precast:       strings.TrimSpace(file.Precast),
	}
	for k, v := range file.Variables {
		def.Variables[k] = fmt.Sprint(v)
	}
	for k, v := range file.Prerequisites {
		def.Prerequisites[k] = v
	}
	for idx, action := range file.Rotation {
		executor := compileAction(action, file.Variables)
		if executor.Err != nil {
			executor.Err = fmt.Errorf("rotation entry %d: %w", idx, executor.Err)
		}
		def.Executors = append(def.Executors, executor)
	}
	return def, nil
}

// Problems combines the errors of every entry that failed to compile.
func (d *Definition) Problems() error {
	var errs error
	for _, e := range d.Executors {
		errs = multierr.Append(errs, e.Err)
	}
	return errs
}

func compileAction(action ActionDefinition, vars map[string]any) ExecutorDefinition {
	spell := strings.TrimSpace(action.Spell)
	executor := ExecutorDefinition{Spell: spell}
	if spell == "" {
		executor.Err = fmt.Errorf("entry requires 'spell'")
		return executor
	}
	for idx, raw := range action.When {
		sentence, err := compileSentence(raw, vars)
		if err != nil {
			executor.Sentences = nil
			executor.Err = fmt.Errorf("%s: condition %d: %w", spell, idx, err)
			return executor
		}
		if idx == 0 && sentence.Connective == Or {
			executor.Sentences = nil
			executor.Err = fmt.Errorf("%s: %w", spell, ErrLeadingOr)
			return executor
		}
		executor.Sentences = append(executor.Sentences, sentence)
	}
	return executor
}

func compileSentence(raw SentenceDefinition, vars map[string]any) (Sentence, error) {
	var s Sentence
	switch normalizeName(raw.Logic) {
	case "", "and":
		s.Connective = And
	case "or":
		s.Connective = Or
	default:
		return s, fmt.Errorf("unknown logical connective '%s'", raw.Logic)
	}

	typ, err := ParseConditionType(raw.Type)
	if err != nil {
		return s, err
	}
	s.Type = typ
	s.TypeValue = strings.TrimSpace(raw.Name)
	if s.TypeValue == "" {
		return s, fmt.Errorf("%s condition requires 'name'", typ)
	}
	if typ == ResourceCondition {
		if _, err := character.ParseResource(s.TypeValue); err != nil {
			return s, err
		}
	}
	if s.Attribute, err = ParseAttribute(raw.Attribute); err != nil {
		return s, err
	}
	if s.Comparator, err = ParseComparator(raw.Compare); err != nil {
		return s, err
	}
	if s.Comparator.Presence() {
		return s, nil
	}
	if raw.Value == nil {
		return s, fmt.Errorf("comparator '%s' requires 'value'", raw.Compare)
	}
	value, err := resolveValue(raw.Value, vars)
	if err != nil {
		return s, err
	}
	s.ComparedValue = value
	return s, nil
}

// resolveValue turns a literal or a ${variable} reference into a number.
func resolveValue(raw any, vars map[string]any) (float64, error) {
	if str, ok := raw.(string); ok {
		str = strings.TrimSpace(str)
		if strings.HasPrefix(str, "${") && strings.HasSuffix(str, "}") {
			name := strings.TrimSpace(str[2 : len(str)-1])
			val, ok := vars[name]
			if !ok {
				return 0, fmt.Errorf("variable '%s' not defined", name)
			}
			return toFloat(val)
		}
	}
	return toFloat(raw)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("value '%s' is not a number", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to a number", v)
	}
}
