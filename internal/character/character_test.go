package character

import (
	"errors"
	"testing"
	"time"

	"github.com/donggangwhy/ClassicSim/internal/attack"
	"github.com/donggangwhy/ClassicSim/internal/effects"
	"github.com/donggangwhy/ClassicSim/internal/equipment"
	"github.com/donggangwhy/ClassicSim/internal/random"
)

var testSword = &equipment.Weapon{Name: "Test Sword", Type: equipment.TypeSword, SpeedSeconds: 2.6, MinDamage: 100, MaxDamage: 150}

func newWarrior(critPct float64) *Character {
	return NewCharacter(Config{
		Class:     "warrior",
		Level:     60,
		Stats:     Stats{CritPct: critPct, AttackPower: 1000},
		Resources: map[Resource]float64{ResourceRage: 100},
		Mainhand:  testSword,
	}, attack.NewTarget(60), random.New(1))
}

// TestCritShiftsWhiteTableBoundary ensures crit changes move the critical band
// without rebuilding the cached table.
func TestCritShiftsWhiteTableBoundary(t *testing.T) {
	c := newWarrior(10)
	table := c.CombatRoll().WhiteHitTable(c.WeaponSkill(SlotMainhand))

	// miss 500, dodge 500, glancing 1000, then crit.
	if got := table.Outcome(2999, c.MeleeCritChance()); got != attack.OutcomeCritical {
		t.Fatalf("roll 2999 = %v, want CRITICAL", got)
	}
	if got := table.Outcome(3000, c.MeleeCritChance()); got != attack.OutcomeHit {
		t.Fatalf("roll 3000 = %v, want HIT", got)
	}

	c.ModifyCrit(10)
	if got := table.Outcome(3999, c.MeleeCritChance()); got != attack.OutcomeCritical {
		t.Fatalf("roll 3999 after crit increase = %v, want CRITICAL", got)
	}
	if c.CombatRoll().WhiteHitTable(c.WeaponSkill(SlotMainhand)) != table {
		t.Fatalf("crit change rebuilt the cached table")
	}
}

func TestModifyHitInvalidatesTables(t *testing.T) {
	c := newWarrior(0)
	before := c.CombatRoll().MeleeSpecialTable(300)
	c.ModifyHit(3)
	after := c.CombatRoll().MeleeSpecialTable(300)
	if before == after {
		t.Fatalf("expected a rebuilt table after hit change")
	}
	if got, want := after.Outcome(199, 0), attack.OutcomeMiss; got != want {
		t.Fatalf("roll 199 = %v, want %v", got, want)
	}
	if got, want := after.Outcome(200, 0), attack.OutcomeDodge; got != want {
		t.Fatalf("roll 200 = %v, want %v", got, want)
	}
}

func TestWeaponSkill(t *testing.T) {
	c := NewCharacter(Config{
		Level:        60,
		WeaponSkills: map[equipment.WeaponType]int{equipment.TypeSword: 5},
		Mainhand:     testSword,
	}, attack.NewTarget(63), random.New(1))

	if got := c.WeaponSkill(SlotMainhand); got != 305 {
		t.Fatalf("mainhand skill = %d, want 305", got)
	}
	if got := c.WeaponSkill(SlotOffhand); got != 300 {
		t.Fatalf("empty offhand skill = %d, want 300", got)
	}
	if c.DualWielding() {
		t.Fatalf("single weapon reported as dual wield")
	}
	c.Equip(SlotOffhand, testSword)
	if !c.DualWielding() {
		t.Fatalf("expected dual wield after equipping offhand")
	}
}

func TestResources(t *testing.T) {
	c := NewCharacter(Config{
		Level:     60,
		Stats:     Stats{MaxMana: 4000},
		Resources: map[Resource]float64{ResourceMana: 0, ResourceRage: 100},
	}, attack.NewTarget(63), random.New(1))

	if got := c.ResourceLevel(ResourceMana); got != 4000 {
		t.Fatalf("mana = %v, want 4000", got)
	}
	if got := c.ResourceLevel(ResourceRage); got != 0 {
		t.Fatalf("rage starts at %v, want 0", got)
	}
	if c.HasResource(ResourceEnergy) || c.ResourceLevel(ResourceEnergy) != 0 {
		t.Fatalf("unused energy pool reported")
	}
	if gained := c.GainResource(ResourceRage, 150); gained != 100 {
		t.Fatalf("gained = %v, want capped 100", gained)
	}
	if !c.SpendResource(ResourceRage, 30) || c.ResourceLevel(ResourceRage) != 70 {
		t.Fatalf("spend failed, rage = %v", c.ResourceLevel(ResourceRage))
	}
	if c.SpendResource(ResourceRage, 71) {
		t.Fatalf("spent more rage than available")
	}
	if c.SpendResource(ResourceEnergy, 10) {
		t.Fatalf("spent from a missing pool")
	}
}

func TestGainRageFromDamage(t *testing.T) {
	c := newWarrior(0)
	// Level 60 conversion is about 230.6, so 1000 damage yields about 32.5 rage.
	got := c.GainRageFromDamage(1000)
	if got < 32 || got > 33 {
		t.Fatalf("rage from 1000 damage = %v, want ~32.5", got)
	}
}

func TestParseResource(t *testing.T) {
	for name, want := range map[string]Resource{"Mana": ResourceMana, "rage": ResourceRage, " ENERGY ": ResourceEnergy} {
		got, err := ParseResource(name)
		if err != nil || got != want {
			t.Errorf("ParseResource(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseResource("Focus"); !errors.Is(err, ErrUnknownResource) {
		t.Fatalf("expected ErrUnknownResource, got %v", err)
	}
}

func TestAuraRegistryAndExpiry(t *testing.T) {
	c := newWarrior(0)
	flurry := effects.NewAura("Flurry", 15*time.Second, 3)
	c.RegisterAura(flurry)
	if _, ok := c.Aura("Unknown"); ok {
		t.Fatalf("unknown aura resolved")
	}
	flurry.Apply(c.CurrentTime)
	next, ok := c.NextAuraExpiry(c.CurrentTime)
	if !ok || next != 15*time.Second {
		t.Fatalf("next expiry = %v, %v", next, ok)
	}
	c.AdvanceTo(15 * time.Second)
	if expired := c.ExpireAuras(c.CurrentTime); len(expired) != 1 || expired[0] != "Flurry" {
		t.Fatalf("expired = %v", expired)
	}
}

func TestGlobalCooldown(t *testing.T) {
	c := newWarrior(0)
	if !c.IsGCDReady() || c.GlobalCooldown() != 0 {
		t.Fatalf("expected ready gcd")
	}
	c.StartGCD()
	c.AdvanceTime(500 * time.Millisecond)
	if got := c.GlobalCooldown(); got != time.Second {
		t.Fatalf("remaining gcd = %v, want 1s", got)
	}
	c.AdvanceTo(100 * time.Millisecond)
	if c.CurrentTime != 500*time.Millisecond {
		t.Fatalf("AdvanceTo moved time backwards")
	}
}

func TestMeterMerge(t *testing.T) {
	a, b := NewMeter(), NewMeter()
	a.Record("Heroic Strike", "HIT", 300)
	a.Record("Heroic Strike", "MISS", 0)
	b.Record("Heroic Strike", "CRITICAL", 600)
	b.Record("Auto Attack", "HIT", 200)
	a.Merge(b)
	if a.Total() != 1100 {
		t.Fatalf("total = %v, want 1100", a.Total())
	}
	hs, _ := a.Source("Heroic Strike")
	if hs.Attempts != 3 || hs.MinDamage != 300 || hs.MaxDamage != 600 || hs.Outcomes["MISS"] != 1 {
		t.Fatalf("merged stats = %+v", hs)
	}
	if got := a.Sources(); got[0] != "Heroic Strike" || got[1] != "Auto Attack" {
		t.Fatalf("Sources() = %v", got)
	}
}
