// Package effects holds the timed state shared by characters and spells:
// buffs with stacks and expiry, and cooldown timers.
package effects

import "time"

// Aura is a named buff or debuff with optional stacks and a fixed duration.
// A zero Duration means the aura lasts until cleared.
type Aura struct {
	Name      string
	Duration  time.Duration
	MaxStacks int
	// Enabled is false for auras the character cannot gain (talent not taken,
	// item not equipped). Disabled auras are still resolvable by name.
	Enabled bool

	stacks    int
	active    bool
	expiresAt time.Duration

	OnGain   func(a *Aura, now time.Duration)
	OnExpire func(a *Aura, now time.Duration)
}

// NewAura returns an enabled, inactive aura.
func NewAura(name string, duration time.Duration, maxStacks int) *Aura {
	return &Aura{
		Name:      name,
		Duration:  duration,
		MaxStacks: maxStacks,
		Enabled:   true,
	}
}

// ActiveAt reports whether the aura is up and unexpired at now.
func (a *Aura) ActiveAt(now time.Duration) bool {
	if a == nil || !a.active {
		return false
	}
	if a.Duration <= 0 {
		return true
	}
	return now < a.expiresAt
}

// Stacks returns the current stack count.
func (a *Aura) Stacks() int {
	if a == nil {
		return 0
	}
	return a.stacks
}

// Remaining returns the time left at now, zero when inactive or permanent.
func (a *Aura) Remaining(now time.Duration) time.Duration {
	if !a.ActiveAt(now) || a.Duration <= 0 {
		return 0
	}
	return a.expiresAt - now
}

// ExpiresAt returns the expiry timestamp.
func (a *Aura) ExpiresAt() time.Duration {
	if a == nil {
		return 0
	}
	return a.expiresAt
}

// Apply gains or refreshes the aura and adds one stack.
func (a *Aura) Apply(now time.Duration) {
	a.AddStacks(now, 1)
}

// AddStacks changes the stack count by delta and refreshes the duration.
// Dropping to zero stacks removes the aura.
func (a *Aura) AddStacks(now time.Duration, delta int) {
	if a == nil || !a.Enabled || delta == 0 {
		return
	}
	stacks := a.stacks + delta
	if a.MaxStacks > 0 && stacks > a.MaxStacks {
		stacks = a.MaxStacks
	}
	if stacks <= 0 {
		a.Clear(now)
		return
	}
	if !a.active {
		a.active = true
		a.stacks = stacks
		a.refresh(now)
		if a.OnGain != nil {
			a.OnGain(a, now)
		}
		return
	}
	a.stacks = stacks
	a.refresh(now)
}

// Clear removes the aura immediately.
func (a *Aura) Clear(now time.Duration) {
	if a == nil || !a.active {
		return
	}
	a.active = false
	a.stacks = 0
	a.expiresAt = 0
	if a.OnExpire != nil {
		a.OnExpire(a, now)
	}
}

// CheckExpiration clears the aura if it expired by now and reports whether it did.
func (a *Aura) CheckExpiration(now time.Duration) bool {
	if a == nil || !a.active || a.Duration <= 0 {
		return false
	}
	if now < a.expiresAt {
		return false
	}
	a.Clear(now)
	return true
}

func (a *Aura) refresh(now time.Duration) {
	if a.Duration <= 0 {
		return
	}
	a.expiresAt = now + a.Duration
}
