// Package rotation is the decision engine: a priority list of spells gated by
// condition groups, linked against one character per simulation replica.
package rotation

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/donggangwhy/ClassicSim/internal/spells"
)

// AttackMode is how the character deals its auto-attack damage.
type AttackMode int

const (
	MeleeAttack AttackMode = iota
	RangedAttack
	MagicAttack
)

func (m AttackMode) String() string {
	switch m {
	case RangedAttack:
		return "ranged"
	case MagicAttack:
		return "magic"
	default:
		return "melee"
	}
}

// ContinuePolicy decides whether a decision point keeps attempting later
// executors after a successful cast.
type ContinuePolicy int

const (
	// ContinueAll attempts every active executor at each decision point.
	ContinueAll ContinuePolicy = iota
	// StopAfterGlobalCooldown stops after a cast that triggers the global cooldown.
	StopAfterGlobalCooldown
	// StopAfterFirstCast stops after any successful cast.
	StopAfterFirstCast
)

// ParseContinuePolicy maps a config keyword to a policy.
func ParseContinuePolicy(s string) (ContinuePolicy, error) {
	switch normalizeName(s) {
	case "", "continue_all":
		return ContinueAll, nil
	case "stop_after_gcd", "stop_after_global_cooldown":
		return StopAfterGlobalCooldown, nil
	case "stop_after_first_cast":
		return StopAfterFirstCast, nil
	default:
		return 0, fmt.Errorf("unknown continue policy '%s'", s)
	}
}

func (p ContinuePolicy) String() string {
	switch p {
	case StopAfterGlobalCooldown:
		return "stop_after_gcd"
	case StopAfterFirstCast:
		return "stop_after_first_cast"
	default:
		return "continue_all"
	}
}

// Option configures a Rotation.
type Option func(*Rotation)

// WithLogger sets the logger used for link diagnostics and Dump.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Rotation) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithContinuePolicy sets the decision point policy.
func WithContinuePolicy(p ContinuePolicy) Option {
	return func(r *Rotation) { r.policy = p }
}

// Rotation is owned by exactly one character in one replica; linking
// mutates executor state against that character.
type Rotation struct {
	class       string
	name        string
	description string
	attackMode  AttackMode

	variables     map[string]string
	prerequisites map[string]string

	executors []*Executor
	active    []*Executor

	precombatNames []string
	precombat      []spells.Spell
	precastName    string
	precast        spells.Precaster

	policy ContinuePolicy
	logger *zap.Logger
	char   Character
}

// New returns an empty rotation for a class.
func New(class string, opts ...Option) *Rotation {
	r := &Rotation{
		class:         class,
		attackMode:    MeleeAttack,
		variables:     make(map[string]string),
		prerequisites: make(map[string]string),
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromDefinition builds a fresh rotation from a parsed definition.
func FromDefinition(def *Definition, opts ...Option) (*Rotation, error) {
	if def == nil {
		return nil, fmt.Errorf("nil rotation definition")
	}
	r := New(def.Class, opts...)
	r.SetName(def.Name)
	r.SetDescription(def.Description)
	if def.AttackMode != "" && !r.TrySetAttackMode(def.AttackMode) {
		return nil, fmt.Errorf("%w '%s'", ErrInvalidAttackMode, def.AttackMode)
	}
	for k, v := range def.Variables {
		r.AddVariable(k, v)
	}
	for k, v := range def.Prerequisites {
		r.AddPrerequisite(k, v)
	}
	for _, name := range def.Precombat {
		r.AddPrecombatSpell(name)
	}
	if def.Precast != "" {
		r.AddPrecastSpell(def.Precast)
	}
	for _, ed := range def.Executors {
		executor := NewExecutor(ed.Spell, ed.Sentences)
		executor.compileErr = ed.Err
		r.AddExecutor(executor)
	}
	return r, nil
}

// Link binds the rotation to char. Executors whose spell is missing or
// disabled, or whose conditions fail to resolve, stay inactive; the
// returned error lists them but linking always completes.
func (r *Rotation) Link(char Character) error {
	r.char = char
	r.active = r.active[:0]

	var errs error
	for _, executor := range r.executors {
		if err := executor.link(char); err != nil {
			r.logger.Debug("executor not linked",
				zap.String("rotation", r.name),
				zap.String("spell", executor.spellName),
				zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		r.active = append(r.active, executor)
	}

	r.linkPrecast()
	r.linkPrecombat()
	return errs
}

func (r *Rotation) linkPrecast() {
	r.precast = nil
	if r.precastName == "" {
		return
	}
	spell, ok := r.char.Spell(r.precastName)
	if !ok || spell == nil || !spell.Enabled() {
		return
	}
	if p, ok := spells.AsPrecaster(spell); ok {
		r.precast = p
	}
}

func (r *Rotation) linkPrecombat() {
	r.precombat = r.precombat[:0]
	for _, name := range r.precombatNames {
		spell, ok := r.char.Spell(name)
		if !ok || spell == nil || !spell.Enabled() {
			continue
		}
		r.precombat = append(r.precombat, spell)
	}
}

// PerformRotation attempts the active executors in definition order and
// returns the casts that happened.
func (r *Rotation) PerformRotation() []spells.CastResult {
	var casts []spells.CastResult
	for _, executor := range r.active {
		result, ok := executor.AttemptCast()
		if !ok {
			continue
		}
		casts = append(casts, result)
		switch r.policy {
		case StopAfterFirstCast:
			return casts
		case StopAfterGlobalCooldown:
			if executor.spell.TriggersGCD() {
				return casts
			}
		}
	}
	return casts
}

// RunPrecombatActions performs every available precombat spell once.
func (r *Rotation) RunPrecombatActions() []spells.CastResult {
	var casts []spells.CastResult
	for _, spell := range r.precombat {
		if !spell.Available() {
			continue
		}
		if result := spell.Perform(); result.Cast {
			casts = append(casts, result)
		}
	}
	return casts
}

// TimeRequiredToRunPrecombat is the precast's cast time, or the global
// cooldown when there is no precast.
func (r *Rotation) TimeRequiredToRunPrecombat() time.Duration {
	if r.precast != nil {
		return r.precast.CastTime()
	}
	if r.char == nil {
		return 0
	}
	return r.char.GlobalCooldownDuration()
}

// PrecastSpell returns the linked precast, or nil.
func (r *Rotation) PrecastSpell() spells.Precaster { return r.precast }

// PrecombatSpells returns the linked precombat spells.
func (r *Rotation) PrecombatSpells() []spells.Spell {
	return append([]spells.Spell(nil), r.precombat...)
}

// TrySetAttackMode accepts "melee", "ranged" or "magic". Other values are
// rejected and leave the mode unchanged.
func (r *Rotation) TrySetAttackMode(value string) bool {
	switch value {
	case "melee":
		r.attackMode = MeleeAttack
	case "ranged":
		r.attackMode = RangedAttack
	case "magic":
		r.attackMode = MagicAttack
	default:
		return false
	}
	return true
}

// SetName sets the human name.
func (r *Rotation) SetName(name string) {
	r.name = name
}

// SetDescription sets the description.
func (r *Rotation) SetDescription(description string) {
	r.description = description
}

// AddVariable records a free-form variable.
func (r *Rotation) AddVariable(name, value string) {
	r.variables[name] = value
}

// AddPrerequisite records a free-form prerequisite.
func (r *Rotation) AddPrerequisite(key, value string) {
	r.prerequisites[key] = value
}

// AddPrecombatSpell appends a spell to run before combat.
func (r *Rotation) AddPrecombatSpell(name string) {
	r.precombatNames = append(r.precombatNames, name)
}

// AddPrecastSpell sets the single precast spell.
func (r *Rotation) AddPrecastSpell(name string) {
	r.precastName = name
}

// AddExecutor appends an executor at the lowest priority.
func (r *Rotation) AddExecutor(e *Executor) {
	r.executors = append(r.executors, e)
}

func (r *Rotation) Class() string          { return r.class }
func (r *Rotation) Name() string           { return r.name }
func (r *Rotation) Description() string    { return r.description }
func (r *Rotation) AttackMode() AttackMode { return r.attackMode }
func (r *Rotation) Policy() ContinuePolicy { return r.policy }

// Variable returns a variable value, empty when unset.
func (r *Rotation) Variable(name string) string {
	return r.variables[name]
}

// Prerequisite returns a prerequisite value, empty when unset.
func (r *Rotation) Prerequisite(key string) string {
	return r.prerequisites[key]
}

// Executors returns every executor in definition order.
func (r *Rotation) Executors() []*Executor {
	return append([]*Executor(nil), r.executors...)
}

// ActiveExecutors returns the executors linked to the current character.
func (r *Rotation) ActiveExecutors() []*Executor {
	return append([]*Executor(nil), r.active...)
}

// Dump logs the rotation structure.
func (r *Rotation) Dump() {
	r.logger.Info("rotation",
		zap.String("class", r.class),
		zap.String("name", r.name),
		zap.String("description", r.description),
		zap.Stringer("attack_mode", r.attackMode),
		zap.Any("variables", r.variables),
		zap.Any("prerequisites", r.prerequisites),
		zap.Strings("precombat", r.precombatNames),
		zap.String("precast", r.precastName))
	for i, executor := range r.executors {
		sentences := make([]string, 0, len(executor.sentences))
		for _, s := range executor.sentences {
			sentences = append(sentences, s.String())
		}
		r.logger.Info("executor",
			zap.Int("index", i),
			zap.String("spell", executor.spellName),
			zap.Strings("sentences", sentences))
	}
}
