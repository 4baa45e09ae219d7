package rotation

import (
	"fmt"

	"github.com/donggangwhy/ClassicSim/internal/spells"
)

// Executor binds one spell to OR-ed condition groups.
type Executor struct {
	spellName string
	sentences []Sentence
	// compileErr keeps an entry that failed to compile from ever linking.
	compileErr error

	spell  spells.Spell
	groups []ConditionGroup
}

// NewExecutor returns an unlinked executor for spellName.
func NewExecutor(spellName string, sentences []Sentence) *Executor {
	return &Executor{
		spellName: spellName,
		sentences: append([]Sentence(nil), sentences...),
	}
}

// SpellName returns the unresolved spell name.
func (e *Executor) SpellName() string { return e.spellName }

// Sentences returns a copy of the raw sentence stream.
func (e *Executor) Sentences() []Sentence {
	return append([]Sentence(nil), e.sentences...)
}

// Spell returns the linked spell, nil before a successful link.
func (e *Executor) Spell() spells.Spell { return e.spell }

// GroupCount returns the number of built condition groups.
func (e *Executor) GroupCount() int { return len(e.groups) }

// link resolves the spell and rebuilds the condition groups against char.
// The new groups replace the old ones in a single assignment, and a failed
// link leaves the executor unbound.
func (e *Executor) link(char Character) error {
	if e.compileErr != nil {
		e.spell, e.groups = nil, nil
		return e.compileErr
	}
	spell, ok := char.Spell(e.spellName)
	if !ok || spell == nil {
		e.spell, e.groups = nil, nil
		return fmt.Errorf("spell '%s' not found", e.spellName)
	}
	if !spell.Enabled() {
		e.spell, e.groups = nil, nil
		return fmt.Errorf("spell '%s' is not enabled", e.spellName)
	}
	groups, err := buildGroups(char, e.sentences)
	if err != nil {
		e.spell, e.groups = nil, nil
		return fmt.Errorf("spell '%s': %w", e.spellName, err)
	}
	e.spell, e.groups = spell, groups
	return nil
}

// ConditionsHold reports whether at least one group holds. An executor
// without groups is unconditional.
func (e *Executor) ConditionsHold() bool {
	if len(e.groups) == 0 {
		return true
	}
	for _, g := range e.groups {
		if g.Evaluate() {
			return true
		}
	}
	return false
}

// AttemptCast performs the spell when its conditions hold and it is available.
func (e *Executor) AttemptCast() (spells.CastResult, bool) {
	if e.spell == nil || !e.ConditionsHold() || !e.spell.Available() {
		return spells.CastResult{}, false
	}
	result := e.spell.Perform()
	return result, result.Cast
}
