package spells

import (
	"errors"
	"testing"
	"time"

	"github.com/donggangwhy/ClassicSim/internal/attack"
	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/equipment"
	"github.com/donggangwhy/ClassicSim/internal/random"
)

var testAxe = &equipment.Weapon{Name: "Test Axe", Type: equipment.TypeAxe, SpeedSeconds: 2.7, MinDamage: 80, MaxDamage: 150}

var testKit = []Definition{
	{Name: "Heroic Strike", Kind: KindAttack, Table: TableSpecial, Resource: "Rage", Cost: 15, WeaponDamage: true, BonusDamage: 138},
	{Name: "Bloodthirst", Kind: KindAttack, Table: TableSpecial, Resource: "Rage", Cost: 30, Cooldown: 6, APCoefficient: 0.45},
	{Name: "Bloodrage", Kind: KindResource, GainResource: "Rage", Gain: 10, Cooldown: 60, TriggersGCD: boolPtr(false)},
	{Name: "Battle Shout", Kind: KindBuff, Resource: "Rage", Cost: 10, Duration: 120, AttackPower: 185, Precast: true},
	{Name: "Death Wish", Kind: KindBuff, Duration: 30, CritPct: 10, Cooldown: 180, Disabled: true},
	{Name: "Frostbolt", Kind: KindAttack, Table: TableMagic, School: "frost", MinDamage: 400, MaxDamage: 450, CastTime: 2.5},
}

func boolPtr(b bool) *bool { return &b }

func newTestCharacter(t *testing.T) (*character.Character, *Registry) {
	t.Helper()
	char := character.NewCharacter(character.Config{
		Class:     "warrior",
		Level:     60,
		Stats:     character.Stats{AttackPower: 1000, CritPct: 20},
		Resources: map[character.Resource]float64{character.ResourceRage: 100},
		Mainhand:  testAxe,
	}, attack.NewTarget(63), random.New(42))
	reg, err := BuildRegistry(char, testKit)
	if err != nil {
		t.Fatalf("BuildRegistry returned error: %v", err)
	}
	return char, reg
}

func TestAsPrecaster(t *testing.T) {
	_, reg := newTestCharacter(t)
	shout, _ := reg.Spell("battle shout")
	if _, ok := AsPrecaster(shout); !ok {
		t.Fatalf("Battle Shout should be a precaster")
	}
	strike, _ := reg.Spell("Heroic Strike")
	if _, ok := AsPrecaster(strike); ok {
		t.Fatalf("Heroic Strike should not be a precaster")
	}
	if _, ok := AsPrecaster(nil); ok {
		t.Fatalf("nil spell reported as precaster")
	}
}

func TestAbilityCostCooldownAndGCD(t *testing.T) {
	char, reg := newTestCharacter(t)
	bt, _ := reg.Spell("Bloodthirst")
	if bt.Available() {
		t.Fatalf("Bloodthirst available without rage")
	}
	if res := bt.Perform(); res.Cast {
		t.Fatalf("Perform succeeded while unavailable")
	}
	char.GainResource(character.ResourceRage, 50)
	if !bt.Available() {
		t.Fatalf("Bloodthirst unavailable with 50 rage")
	}
	res := bt.Perform()
	if !res.Cast || res.ResourceSpent != 30 || res.GCDTime != character.DefaultGlobalCooldown {
		t.Fatalf("unexpected cast result %+v", res)
	}
	if got := char.ResourceLevel(character.ResourceRage); got != 20 {
		t.Fatalf("rage after cast = %v, want 20", got)
	}
	if got := bt.CooldownRemaining(); got != 6*time.Second {
		t.Fatalf("cooldown = %v, want 6s", got)
	}
	if char.IsGCDReady() {
		t.Fatalf("gcd not started")
	}
	if stats, ok := char.Meter.Source("Bloodthirst"); !ok || stats.Attempts != 1 {
		t.Fatalf("meter did not record the attack")
	}
}

func TestResourceAbilityIgnoresGCD(t *testing.T) {
	char, reg := newTestCharacter(t)
	char.StartGCD()
	br, _ := reg.Spell("Bloodrage")
	if br.TriggersGCD() || !br.Available() {
		t.Fatalf("Bloodrage should be off the gcd")
	}
	if res := br.Perform(); res.ResourceGained != 10 {
		t.Fatalf("gained %v rage, want 10", res.ResourceGained)
	}
}

func TestBuffAbilityModifiesStats(t *testing.T) {
	char, reg := newTestCharacter(t)
	char.GainResource(character.ResourceRage, 10)
	shout, _ := reg.Spell("Battle Shout")
	shout.Perform()
	if got := char.Stats.AttackPower; got != 1185 {
		t.Fatalf("attack power with shout = %v, want 1185", got)
	}
	aura, ok := char.Aura("Battle Shout")
	if !ok || !aura.ActiveAt(char.CurrentTime) {
		t.Fatalf("aura not active after cast")
	}
	char.AdvanceTo(120 * time.Second)
	char.ExpireAuras(char.CurrentTime)
	if got := char.Stats.AttackPower; got != 1000 {
		t.Fatalf("attack power after expiry = %v, want 1000", got)
	}
}

func TestDisabledAbility(t *testing.T) {
	char, reg := newTestCharacter(t)
	dw, _ := reg.Spell("Death Wish")
	if dw.Enabled() || dw.Available() {
		t.Fatalf("disabled ability reported usable")
	}
	aura, ok := char.Aura("Death Wish")
	if !ok || aura.Enabled {
		t.Fatalf("disabled ability aura should resolve but stay disabled")
	}
}

func TestPrecastSkipsGCDAndCastBar(t *testing.T) {
	char, reg := newTestCharacter(t)
	char.GainResource(character.ResourceRage, 10)
	shout, _ := reg.Spell("Battle Shout")
	p, _ := AsPrecaster(shout)
	if res := p.Precast(); !res.Cast {
		t.Fatalf("precast failed")
	}
	if !char.IsGCDReady() || char.IsCasting() {
		t.Fatalf("precast occupied the character")
	}
}

func TestMagicAttackStartsCast(t *testing.T) {
	char, reg := newTestCharacter(t)
	fb, _ := reg.Spell("Frostbolt")
	res := fb.Perform()
	if !res.Cast || res.CastTime != 2500*time.Millisecond {
		t.Fatalf("unexpected result %+v", res)
	}
	if !char.IsCasting() || fb.Available() {
		t.Fatalf("cast bar not started")
	}
}

func TestAutoAttackGeneratesRage(t *testing.T) {
	char, _ := newTestCharacter(t)
	if NewAutoAttack(char, character.SlotOffhand) != nil {
		t.Fatalf("empty offhand produced a swing")
	}
	swing := NewAutoAttack(char, character.SlotMainhand)
	if swing.Speed() != 2700*time.Millisecond {
		t.Fatalf("speed = %v", swing.Speed())
	}
	landed := 0
	for i := 0; i < 50; i++ {
		res := swing.Swing()
		if res.Damage > 0 {
			landed++
			if res.ResourceGained <= 0 && char.ResourceLevel(character.ResourceRage) < 100 {
				t.Fatalf("landed swing generated no rage: %+v", res)
			}
		}
	}
	if landed == 0 {
		t.Fatalf("no swing landed in 50 attempts")
	}
	stats, _ := char.Meter.Source("Auto Attack")
	if stats.Attempts != 50 {
		t.Fatalf("attempts = %d, want 50", stats.Attempts)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	char, reg := newTestCharacter(t)
	a, err := NewAbility(testKit[0], char)
	if err != nil {
		t.Fatalf("NewAbility: %v", err)
	}
	if err := reg.Register(a); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if got := reg.Names(); len(got) != len(testKit) || got[0] != "Heroic Strike" {
		t.Fatalf("Names() = %v", got)
	}
}

func TestParseKit(t *testing.T) {
	kit, err := ParseKit([]byte(`
class: warrior
abilities:
  - name: Whirlwind
    kind: attack
    table: special
    resource: Rage
    cost: 25
    cooldown: 10
    weapon_damage: true
`))
	if err != nil {
		t.Fatalf("ParseKit returned error: %v", err)
	}
	if kit.Class != "warrior" || len(kit.Abilities) != 1 || kit.Abilities[0].Cooldown != 10 {
		t.Fatalf("unexpected kit %+v", kit)
	}

	_, err = ParseKit([]byte("abilities:\n  - name: Aimed Shot\n    kind: attack\n    table: special\n    resource: Focus\n    cost: 10\n"))
	if !errors.Is(err, character.ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
	if _, err := ParseKit([]byte("abilities:\n  - name: Dance\n    kind: emote\n")); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
