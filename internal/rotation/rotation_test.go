package rotation

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/effects"
	"github.com/donggangwhy/ClassicSim/internal/spells"
)

type fakeSpell struct {
	name      string
	disabled  bool
	available bool
	gcd       bool
	cooldown  time.Duration
	castTime  time.Duration
	casts     int
}

func (s *fakeSpell) Name() string                     { return s.name }
func (s *fakeSpell) Enabled() bool                    { return !s.disabled }
func (s *fakeSpell) Available() bool                  { return !s.disabled && s.available }
func (s *fakeSpell) CooldownRemaining() time.Duration { return s.cooldown }
func (s *fakeSpell) TriggersGCD() bool                { return s.gcd }
func (s *fakeSpell) CastTime() time.Duration          { return s.castTime }
func (s *fakeSpell) Perform() spells.CastResult {
	s.casts++
	return spells.CastResult{Spell: s.name, Cast: true}
}

type fakePrecaster struct {
	*fakeSpell
}

func (p fakePrecaster) Precast() spells.CastResult { return p.Perform() }

type fakeChar struct {
	spells    map[string]spells.Spell
	buffs     map[string]*effects.Aura
	resources map[character.Resource]float64
	builtins  map[Builtin]float64
	now       time.Duration
}

func newFakeChar(list ...spells.Spell) *fakeChar {
	c := &fakeChar{
		spells:    make(map[string]spells.Spell),
		buffs:     make(map[string]*effects.Aura),
		resources: make(map[character.Resource]float64),
		builtins:  make(map[Builtin]float64),
	}
	for _, s := range list {
		c.spells[s.Name()] = s
	}
	return c
}

func (c *fakeChar) Spell(name string) (spells.Spell, bool) {
	s, ok := c.spells[name]
	return s, ok
}

func (c *fakeChar) Buff(name string) (*effects.Aura, bool) {
	b, ok := c.buffs[name]
	return b, ok
}

func (c *fakeChar) ResourceLevel(kind character.Resource) float64 { return c.resources[kind] }
func (c *fakeChar) GlobalCooldownDuration() time.Duration         { return 1500 * time.Millisecond }
func (c *fakeChar) Builtin(b Builtin) float64                     { return c.builtins[b] }
func (c *fakeChar) Now() time.Duration                            { return c.now }

func spell(name string) *fakeSpell {
	return &fakeSpell{name: name, available: true, gcd: true}
}

func activeNames(r *Rotation) []string {
	var names []string
	for _, e := range r.ActiveExecutors() {
		names = append(names, e.SpellName())
	}
	return names
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestLinkSkipsMissingAndDisabledSpells ensures only known, enabled spells become active.
func TestLinkSkipsMissingAndDisabledSpells(t *testing.T) {
	disabled := spell("Death Wish")
	disabled.disabled = true
	char := newFakeChar(spell("Bloodthirst"), spell("Whirlwind"), disabled)

	r := New("warrior")
	r.AddExecutor(NewExecutor("Bloodthirst", nil))
	r.AddExecutor(NewExecutor("Mortal Strike", nil))
	r.AddExecutor(NewExecutor("Death Wish", nil))
	r.AddExecutor(NewExecutor("Whirlwind", nil))

	if err := r.Link(char); err == nil {
		t.Fatalf("expected link to report inactive executors")
	}
	if got, want := activeNames(r), []string{"Bloodthirst", "Whirlwind"}; !equalNames(got, want) {
		t.Fatalf("active = %v, want %v", got, want)
	}
}

func TestLeadingOrExcludesExecutor(t *testing.T) {
	char := newFakeChar(spell("Execute"), spell("Heroic Strike"))
	char.resources[character.ResourceRage] = 50

	r := New("warrior")
	r.AddExecutor(NewExecutor("Execute", []Sentence{
		{Connective: Or, Type: ResourceCondition, TypeValue: "Rage", Comparator: Greater, ComparedValue: 10},
	}))
	r.AddExecutor(NewExecutor("Heroic Strike", nil))

	err := r.Link(char)
	if !errors.Is(err, ErrLeadingOr) {
		t.Fatalf("expected ErrLeadingOr, got %v", err)
	}
	if got := activeNames(r); !equalNames(got, []string{"Heroic Strike"}) {
		t.Fatalf("active = %v", got)
	}
}

func TestUnknownBuiltinIsDroppedFromGroup(t *testing.T) {
	char := newFakeChar(spell("Execute"))
	char.builtins[BuiltinTargetHealthPercent] = 50

	r := New("warrior")
	r.AddExecutor(NewExecutor("Execute", []Sentence{
		{Type: VariableBuiltinCondition, TypeValue: "moon_phase", Comparator: Equal, ComparedValue: 1},
		{Type: VariableBuiltinCondition, TypeValue: "target_health_percent", Comparator: Less, ComparedValue: 20},
	}))
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	e := r.ActiveExecutors()[0]
	if e.GroupCount() != 1 {
		t.Fatalf("groups = %d, want 1", e.GroupCount())
	}
	if e.ConditionsHold() {
		t.Fatalf("execute should wait for 20%% health")
	}
	char.builtins[BuiltinTargetHealthPercent] = 19
	if !e.ConditionsHold() {
		t.Fatalf("execute should be allowed below 20%% health")
	}
}

func TestGroupOfOnlySkippedBuiltinsHolds(t *testing.T) {
	char := newFakeChar(spell("Slam"))
	r := New("warrior")
	r.AddExecutor(NewExecutor("Slam", []Sentence{
		{Type: VariableBuiltinCondition, TypeValue: "unknown", Comparator: Equal, ComparedValue: 1},
	}))
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if !r.ActiveExecutors()[0].ConditionsHold() {
		t.Fatalf("empty group should hold")
	}
}

func TestUnknownBuffFailsLink(t *testing.T) {
	char := newFakeChar(spell("Heroic Strike"))
	r := New("warrior")
	r.AddExecutor(NewExecutor("Heroic Strike", []Sentence{
		{Type: BuffCondition, TypeValue: "Flurry", Comparator: IsTrue},
	}))
	err := r.Link(char)
	if !errors.Is(err, ErrUnknownBuff) {
		t.Fatalf("expected ErrUnknownBuff, got %v", err)
	}
	if len(r.ActiveExecutors()) != 0 {
		t.Fatalf("executor with unknown buff was activated")
	}
}

func TestUnknownResourceFailsLink(t *testing.T) {
	char := newFakeChar(spell("Arcane Shot"))
	r := New("hunter")
	r.AddExecutor(NewExecutor("Arcane Shot", []Sentence{
		{Type: ResourceCondition, TypeValue: "Focus", Comparator: Greater, ComparedValue: 10},
	}))
	if err := r.Link(char); !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
}

func TestSpellConditionWithMissingSpellNeverHolds(t *testing.T) {
	strike := spell("Heroic Strike")
	char := newFakeChar(strike)
	r := New("warrior")
	r.AddExecutor(NewExecutor("Heroic Strike", []Sentence{
		{Type: SpellCondition, TypeValue: "Bloodthirst", Comparator: GreaterOrEqual, ComparedValue: 0},
	}))
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if len(r.ActiveExecutors()) != 1 {
		t.Fatalf("executor should stay active with a nil-bound spell condition")
	}
	if casts := r.PerformRotation(); len(casts) != 0 || strike.casts != 0 {
		t.Fatalf("nil-bound condition allowed a cast")
	}
}

func TestConditionGroupsAreOrOfAnds(t *testing.T) {
	flurry := effects.NewAura("Flurry", 15*time.Second, 3)
	char := newFakeChar(spell("Heroic Strike"))
	char.buffs["Flurry"] = flurry

	r := New("warrior")
	r.AddExecutor(NewExecutor("Heroic Strike", []Sentence{
		{Type: ResourceCondition, TypeValue: "Rage", Comparator: GreaterOrEqual, ComparedValue: 50},
		{Type: BuffCondition, TypeValue: "Flurry", Attribute: AttributeStacks, Comparator: GreaterOrEqual, ComparedValue: 2},
		{Connective: Or, Type: ResourceCondition, TypeValue: "Rage", Comparator: GreaterOrEqual, ComparedValue: 90},
	}))
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	e := r.ActiveExecutors()[0]
	if e.GroupCount() != 2 {
		t.Fatalf("groups = %d, want 2", e.GroupCount())
	}

	tests := []struct {
		rage   float64
		stacks int
		want   bool
	}{
		{rage: 40, stacks: 3, want: false},
		{rage: 60, stacks: 1, want: false},
		{rage: 60, stacks: 2, want: true},
		{rage: 95, stacks: 0, want: true},
	}
	for _, tt := range tests {
		flurry.Clear(0)
		if tt.stacks > 0 {
			flurry.AddStacks(0, tt.stacks)
		}
		char.resources[character.ResourceRage] = tt.rage
		if got := e.ConditionsHold(); got != tt.want {
			t.Errorf("rage=%v stacks=%d: got %v, want %v", tt.rage, tt.stacks, got, tt.want)
		}
	}
}

func TestBuffDurationCondition(t *testing.T) {
	aura := effects.NewAura("Battle Shout", 120*time.Second, 1)
	char := newFakeChar(spell("Battle Shout"))
	char.buffs["Battle Shout"] = aura
	r := New("warrior")
	r.AddExecutor(NewExecutor("Battle Shout", []Sentence{
		{Type: BuffCondition, TypeValue: "Battle Shout", Comparator: Less, ComparedValue: 3},
	}))
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	e := r.ActiveExecutors()[0]
	if !e.ConditionsHold() {
		t.Fatalf("missing buff should count as zero remaining")
	}
	aura.Apply(0)
	char.now = 100 * time.Second
	if e.ConditionsHold() {
		t.Fatalf("20s remaining should not trigger a refresh")
	}
	char.now = 118 * time.Second
	if !e.ConditionsHold() {
		t.Fatalf("2s remaining should trigger a refresh")
	}
}

func TestPerformRotationOrderAndPolicies(t *testing.T) {
	newRotation := func(policy ContinuePolicy) (*Rotation, []*fakeSpell) {
		bloodrage := spell("Bloodrage")
		bloodrage.gcd = false
		bt := spell("Bloodthirst")
		ww := spell("Whirlwind")
		r := New("warrior", WithContinuePolicy(policy))
		for _, s := range []*fakeSpell{bloodrage, bt, ww} {
			r.AddExecutor(NewExecutor(s.name, nil))
		}
		if err := r.Link(newFakeChar(bloodrage, bt, ww)); err != nil {
			t.Fatalf("Link returned error: %v", err)
		}
		return r, []*fakeSpell{bloodrage, bt, ww}
	}

	tests := []struct {
		policy ContinuePolicy
		want   []string
	}{
		{ContinueAll, []string{"Bloodrage", "Bloodthirst", "Whirlwind"}},
		{StopAfterGlobalCooldown, []string{"Bloodrage", "Bloodthirst"}},
		{StopAfterFirstCast, []string{"Bloodrage"}},
	}
	for _, tt := range tests {
		r, _ := newRotation(tt.policy)
		var got []string
		for _, c := range r.PerformRotation() {
			got = append(got, c.Spell)
		}
		if !equalNames(got, tt.want) {
			t.Errorf("%s: casts = %v, want %v", tt.policy, got, tt.want)
		}
	}

	r, list := newRotation(ContinueAll)
	list[0].available = false
	if casts := r.PerformRotation(); len(casts) != 2 || casts[0].Spell != "Bloodthirst" {
		t.Fatalf("unavailable spell should be skipped, got %v", casts)
	}
}

func TestPrecombatAndPrecast(t *testing.T) {
	shout := spell("Battle Shout")
	disabled := spell("Death Wish")
	disabled.disabled = true
	charge := fakePrecaster{spell("Charge")}
	charge.castTime = 500 * time.Millisecond
	char := newFakeChar(shout, disabled, charge)

	r := New("warrior")
	r.AddPrecombatSpell("Battle Shout")
	r.AddPrecombatSpell("Death Wish")
	r.AddPrecombatSpell("Sunder Armor")
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if got := len(r.PrecombatSpells()); got != 1 {
		t.Fatalf("precombat spells = %d, want 1", got)
	}
	if casts := r.RunPrecombatActions(); len(casts) != 1 || shout.casts != 1 {
		t.Fatalf("precombat casts = %v", casts)
	}
	if got := r.TimeRequiredToRunPrecombat(); got != 1500*time.Millisecond {
		t.Fatalf("time without precast = %v, want gcd", got)
	}

	r.AddPrecastSpell("Charge")
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if r.PrecastSpell() == nil {
		t.Fatalf("precast not linked")
	}
	if got := r.TimeRequiredToRunPrecombat(); got != 500*time.Millisecond {
		t.Fatalf("time with precast = %v, want 500ms", got)
	}

	r.AddPrecastSpell("Battle Shout")
	if err := r.Link(char); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if r.PrecastSpell() != nil {
		t.Fatalf("spell without the precast capability was linked as precast")
	}
}

func TestTrySetAttackMode(t *testing.T) {
	r := New("hunter")
	if !r.TrySetAttackMode("ranged") || r.AttackMode() != RangedAttack {
		t.Fatalf("ranged not accepted")
	}
	if r.TrySetAttackMode("Melee") || r.TrySetAttackMode("spell") {
		t.Fatalf("invalid mode accepted")
	}
	if r.AttackMode() != RangedAttack {
		t.Fatalf("rejected mode changed state")
	}
}

func TestRelinkRebuildsConditions(t *testing.T) {
	first := newFakeChar(spell("Heroic Strike"))
	first.resources[character.ResourceRage] = 100
	second := newFakeChar(spell("Heroic Strike"))

	r := New("warrior")
	r.AddExecutor(NewExecutor("Heroic Strike", []Sentence{
		{Type: ResourceCondition, TypeValue: "Rage", Comparator: GreaterOrEqual, ComparedValue: 50},
	}))
	if err := r.Link(first); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	if !r.ActiveExecutors()[0].ConditionsHold() {
		t.Fatalf("first character should satisfy the rage condition")
	}
	if err := r.Link(second); err != nil {
		t.Fatalf("Link returned error: %v", err)
	}
	e := r.ActiveExecutors()[0]
	if e.GroupCount() != 1 || e.ConditionsHold() {
		t.Fatalf("conditions still bound to the first character")
	}
}

func TestDumpLogsExecutors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := New("warrior", WithLogger(zap.New(core)))
	r.SetName("fury")
	r.AddVariable("execute_rage", "15")
	r.AddExecutor(NewExecutor("Bloodthirst", []Sentence{
		{Type: ResourceCondition, TypeValue: "Rage", Comparator: GreaterOrEqual, ComparedValue: 30},
	}))
	r.Dump()
	if logs.Len() != 2 {
		t.Fatalf("log entries = %d, want 2", logs.Len())
	}
	entry := logs.All()[1]
	if entry.ContextMap()["spell"] != "Bloodthirst" {
		t.Fatalf("executor entry = %v", entry.ContextMap())
	}
}
