package spells

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/donggangwhy/ClassicSim/internal/character"
)

// precastAbility exposes an ability through the Precaster capability.
type precastAbility struct {
	*Ability
}

// Precast performs the ability ignoring the global cooldown and cast bar;
// cost and cooldown still apply.
func (p precastAbility) Precast() CastResult {
	if !p.Enabled() || !p.cooldown.Ready(p.char.CurrentTime) {
		return CastResult{Spell: p.Name()}
	}
	if p.def.Cost > 0 && !p.char.CanAfford(p.resource, p.def.Cost) {
		return CastResult{Spell: p.Name()}
	}
	gcd := p.gcd
	p.gcd = false
	result := p.perform()
	p.gcd = gcd
	p.char.CastEndsAt = p.char.CurrentTime
	return result
}

// Registry resolves spells by name for one character.
type Registry struct {
	spells map[string]Spell
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{spells: make(map[string]Spell)}
}

// BuildRegistry binds every definition to char.
func BuildRegistry(char *character.Character, defs []Definition) (*Registry, error) {
	r := NewRegistry()
	for _, def := range defs {
		ability, err := NewAbility(def, char)
		if err != nil {
			return nil, err
		}
		var spell Spell = ability
		if def.Precast {
			spell = precastAbility{ability}
		}
		if err := r.Register(spell); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a spell. Names are unique case-insensitively.
func (r *Registry) Register(s Spell) error {
	key := normalizeName(s.Name())
	if _, dup := r.spells[key]; dup {
		return fmt.Errorf("spell '%s' registered twice", s.Name())
	}
	r.spells[key] = s
	r.order = append(r.order, s.Name())
	return nil
}

// Spell looks up a spell by name.
func (r *Registry) Spell(name string) (Spell, bool) {
	s, ok := r.spells[normalizeName(name)]
	return s, ok
}

// Names returns spell names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Kit is an ability kit file.
type Kit struct {
	Class     string       `yaml:"class"`
	Abilities []Definition `yaml:"abilities"`
}

// ParseKit parses and validates an ability kit.
func ParseKit(data []byte) (*Kit, error) {
	var kit Kit
	if err := yaml.Unmarshal(data, &kit); err != nil {
		return nil, fmt.Errorf("parse ability kit: %w", err)
	}
	seen := make(map[string]struct{}, len(kit.Abilities))
	for _, def := range kit.Abilities {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		key := normalizeName(def.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("ability '%s' defined twice", def.Name)
		}
		seen[key] = struct{}{}
	}
	return &kit, nil
}

// LoadKit reads an ability kit file.
func LoadKit(path string) (*Kit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kit, err := ParseKit(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return kit, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
