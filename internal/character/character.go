package character

import (
	"sort"
	"time"

	"github.com/donggangwhy/ClassicSim/internal/attack"
	"github.com/donggangwhy/ClassicSim/internal/effects"
	"github.com/donggangwhy/ClassicSim/internal/equipment"
	"github.com/donggangwhy/ClassicSim/internal/random"
)

// DefaultGlobalCooldown is the base global cooldown.
const DefaultGlobalCooldown = 1500 * time.Millisecond

// Stats represents character statistics
type Stats struct {
	AttackPower  float64
	SpellPower   float64
	CritPct      float64 // Percentage (e.g., 25.5 for 25.5%)
	SpellCritPct float64 // Percentage
	HitPct       float64 // Percentage
	SpellHitPct  float64 // Percentage
	MaxMana      float64
}

// Slot names a weapon slot.
type Slot int

const (
	SlotMainhand Slot = iota
	SlotOffhand
	SlotRanged
)

// Config describes a character before combat.
type Config struct {
	Class string
	Level int
	Stats Stats
	// Resources maps each pool the class uses to its maximum. Mana defaults
	// to Stats.MaxMana when present with a zero maximum.
	Resources      map[Resource]float64
	WeaponSkills   map[equipment.WeaponType]int
	GlobalCooldown time.Duration
	Mainhand       *equipment.Weapon
	Offhand        *equipment.Weapon
	Ranged         *equipment.Weapon
}

// Character represents the player character for one fight. It is owned by a
// single replica and never shared.
type Character struct {
	Class string
	Stats Stats

	level        int
	weapons      map[Slot]*equipment.Weapon
	weaponSkills map[equipment.WeaponType]int
	resources    map[Resource]*pool

	auras     map[string]*effects.Aura
	auraOrder []string
	gcd       *effects.Cooldown

	// Combat state
	CurrentTime time.Duration
	CastEndsAt  time.Duration
	Meter       *Meter

	random *random.Random
	roll   *attack.CombatRoll
}

// NewCharacter creates a character facing target and drawing from rng.
func NewCharacter(cfg Config, target *attack.Target, rng *random.Random) *Character {
	gcd := cfg.GlobalCooldown
	if gcd <= 0 {
		gcd = DefaultGlobalCooldown
	}
	c := &Character{
		Class:        cfg.Class,
		Stats:        cfg.Stats,
		level:        cfg.Level,
		weapons:      make(map[Slot]*equipment.Weapon),
		weaponSkills: make(map[equipment.WeaponType]int, len(cfg.WeaponSkills)),
		resources:    make(map[Resource]*pool, len(cfg.Resources)),
		auras:        make(map[string]*effects.Aura),
		gcd:          effects.NewCooldown(gcd),
		Meter:        NewMeter(),
		random:       rng,
	}
	for typ, bonus := range cfg.WeaponSkills {
		c.weaponSkills[typ] = bonus
	}
	for kind, limit := range cfg.Resources {
		if kind == ResourceMana && limit <= 0 {
			limit = cfg.Stats.MaxMana
		}
		start := limit
		if kind == ResourceRage {
			start = 0
		}
		c.resources[kind] = &pool{current: start, max: limit}
	}
	c.weapons[SlotMainhand] = cfg.Mainhand
	c.weapons[SlotOffhand] = cfg.Offhand
	c.weapons[SlotRanged] = cfg.Ranged
	c.roll = attack.NewCombatRoll(c, target, rng)
	return c
}

// Level returns the character level.
func (c *Character) Level() int { return c.level }

// MeleeHitChance returns melee hit as a fraction.
func (c *Character) MeleeHitChance() float64 { return c.Stats.HitPct / 100.0 }

// SpellHitChance returns spell hit as a fraction.
func (c *Character) SpellHitChance() float64 { return c.Stats.SpellHitPct / 100.0 }

// DualWielding reports whether both melee hands hold a weapon.
func (c *Character) DualWielding() bool {
	return c.weapons[SlotMainhand] != nil && c.weapons[SlotOffhand] != nil
}

// MeleeCritChance returns melee crit as a fraction.
func (c *Character) MeleeCritChance() float64 {
	return clampFraction(c.Stats.CritPct / 100.0)
}

// SpellCritChance returns spell crit as a fraction.
func (c *Character) SpellCritChance() float64 {
	return clampFraction(c.Stats.SpellCritPct / 100.0)
}

// CombatRoll returns the character's attack table cache.
func (c *Character) CombatRoll() *attack.CombatRoll { return c.roll }

// Random returns the replica's random source.
func (c *Character) Random() *random.Random { return c.random }

// Target returns the current target.
func (c *Character) Target() *attack.Target { return c.roll.Target() }

// Weapon returns the weapon in slot, or nil.
func (c *Character) Weapon(slot Slot) *equipment.Weapon {
	return c.weapons[slot]
}

// Equip puts w into slot and drops cached attack tables.
func (c *Character) Equip(slot Slot, w *equipment.Weapon) {
	c.weapons[slot] = w
	c.roll.Invalidate()
}

// WeaponSkill returns the attacker's skill with the weapon in slot. Unarmed
// slots use the base skill of the level.
func (c *Character) WeaponSkill(slot Slot) int {
	skill := c.level * 5
	w := c.weapons[slot]
	if w == nil {
		return skill
	}
	return skill + c.weaponSkills[w.Type] + w.SkillBonus
}

// ModifyCrit adds delta percentage points of melee crit. Crit is supplied per
// query so cached tables stay valid.
func (c *Character) ModifyCrit(deltaPct float64) {
	c.Stats.CritPct += deltaPct
}

// ModifySpellCrit adds delta percentage points of spell crit.
func (c *Character) ModifySpellCrit(deltaPct float64) {
	c.Stats.SpellCritPct += deltaPct
}

// ModifyHit adds delta percentage points of melee hit and rebuilds tables.
func (c *Character) ModifyHit(deltaPct float64) {
	c.Stats.HitPct += deltaPct
	c.roll.Invalidate()
}

// ModifySpellHit adds delta percentage points of spell hit.
func (c *Character) ModifySpellHit(deltaPct float64) {
	c.Stats.SpellHitPct += deltaPct
	c.roll.UpdateSpellHit()
}

// ModifyAttackPower adds delta attack power.
func (c *Character) ModifyAttackPower(delta float64) {
	c.Stats.AttackPower += delta
}

// HasResource reports whether the character uses the resource at all.
func (c *Character) HasResource(kind Resource) bool {
	_, ok := c.resources[kind]
	return ok
}

// ResourceLevel returns the current amount of a resource, zero when unused.
func (c *Character) ResourceLevel(kind Resource) float64 {
	if p, ok := c.resources[kind]; ok {
		return p.current
	}
	return 0
}

// MaxResource returns the pool maximum, zero when unused.
func (c *Character) MaxResource(kind Resource) float64 {
	if p, ok := c.resources[kind]; ok {
		return p.max
	}
	return 0
}

// GainResource adds amount capped at the maximum and returns what was gained.
func (c *Character) GainResource(kind Resource, amount float64) float64 {
	p, ok := c.resources[kind]
	if !ok || amount <= 0 {
		return 0
	}
	return p.gain(amount)
}

// SpendResource deducts cost when affordable.
func (c *Character) SpendResource(kind Resource, cost float64) bool {
	if cost <= 0 {
		return true
	}
	p, ok := c.resources[kind]
	if !ok {
		return false
	}
	return p.spend(cost)
}

// CanAfford reports whether cost of kind is available.
func (c *Character) CanAfford(kind Resource, cost float64) bool {
	if cost <= 0 {
		return true
	}
	return c.ResourceLevel(kind) >= cost
}

// GainRageFromDamage converts dealt melee damage into rage using the level
// based conversion value.
func (c *Character) GainRageFromDamage(damage float64) float64 {
	if damage <= 0 || !c.HasResource(ResourceRage) {
		return 0
	}
	return c.GainResource(ResourceRage, damage/rageConversion(c.level)*7.5)
}

func rageConversion(level int) float64 {
	l := float64(level)
	return 0.0091107836*l*l + 3.225598133*l + 4.2652911
}

// RegisterAura makes an aura resolvable by name. Registering the same name
// twice replaces the earlier aura.
func (c *Character) RegisterAura(a *effects.Aura) {
	if _, ok := c.auras[a.Name]; !ok {
		c.auraOrder = append(c.auraOrder, a.Name)
	}
	c.auras[a.Name] = a
}

// Aura looks up a registered aura.
func (c *Character) Aura(name string) (*effects.Aura, bool) {
	a, ok := c.auras[name]
	return a, ok
}

// AuraNames returns registered aura names sorted.
func (c *Character) AuraNames() []string {
	names := append([]string(nil), c.auraOrder...)
	sort.Strings(names)
	return names
}

// ExpireAuras clears every aura whose duration ran out by now and returns
// their names in registration order.
func (c *Character) ExpireAuras(now time.Duration) []string {
	var expired []string
	for _, name := range c.auraOrder {
		if c.auras[name].CheckExpiration(now) {
			expired = append(expired, name)
		}
	}
	return expired
}

// NextAuraExpiry returns the earliest expiry of an active aura after now.
func (c *Character) NextAuraExpiry(now time.Duration) (time.Duration, bool) {
	var next time.Duration
	found := false
	for _, name := range c.auraOrder {
		a := c.auras[name]
		if !a.ActiveAt(now) || a.Duration <= 0 {
			continue
		}
		if !found || a.ExpiresAt() < next {
			next = a.ExpiresAt()
			found = true
		}
	}
	return next, found
}

// IsGCDReady checks if GCD is ready
func (c *Character) IsGCDReady() bool {
	return c.gcd.Ready(c.CurrentTime)
}

// GlobalCooldown returns the remaining global cooldown.
func (c *Character) GlobalCooldown() time.Duration {
	return c.gcd.Remaining(c.CurrentTime)
}

// GlobalCooldownDuration returns the base global cooldown.
func (c *Character) GlobalCooldownDuration() time.Duration {
	return c.gcd.Duration
}

// StartGCD puts the character on global cooldown.
func (c *Character) StartGCD() {
	c.gcd.Start(c.CurrentTime)
}

// GCDReadyAt returns when the global cooldown ends.
func (c *Character) GCDReadyAt() time.Duration {
	return c.gcd.ReadyAt()
}

// IsCasting reports whether a cast is still in progress.
func (c *Character) IsCasting() bool {
	return c.CurrentTime < c.CastEndsAt
}

// StartCast occupies the character for castTime.
func (c *Character) StartCast(castTime time.Duration) {
	if castTime <= 0 {
		return
	}
	c.CastEndsAt = c.CurrentTime + castTime
}

// AdvanceTime moves simulation time forward
func (c *Character) AdvanceTime(duration time.Duration) {
	c.CurrentTime += duration
}

// AdvanceTo moves simulation time to t if it lies ahead.
func (c *Character) AdvanceTo(t time.Duration) {
	if t > c.CurrentTime {
		c.CurrentTime = t
	}
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
