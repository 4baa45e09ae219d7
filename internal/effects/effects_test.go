package effects

import (
	"testing"
	"time"
)

func TestAuraLifecycle(t *testing.T) {
	var gained, expired int
	a := NewAura("Flurry", 15*time.Second, 3)
	a.OnGain = func(*Aura, time.Duration) { gained++ }
	a.OnExpire = func(*Aura, time.Duration) { expired++ }

	a.Apply(time.Second)
	a.Apply(2 * time.Second)
	a.AddStacks(3*time.Second, 5)
	if got := a.Stacks(); got != 3 {
		t.Fatalf("Stacks() = %d, want capped 3", got)
	}
	if gained != 1 {
		t.Fatalf("OnGain fired %d times, want 1", gained)
	}
	if got := a.Remaining(4 * time.Second); got != 14*time.Second {
		t.Fatalf("Remaining() = %v, want 14s", got)
	}
	if a.CheckExpiration(17 * time.Second) {
		t.Fatalf("aura expired early")
	}
	if !a.CheckExpiration(18 * time.Second) {
		t.Fatalf("aura should have expired at 18s")
	}
	if expired != 1 || a.ActiveAt(18*time.Second) || a.Stacks() != 0 {
		t.Fatalf("aura not cleared: expired=%d stacks=%d", expired, a.Stacks())
	}
}

func TestDisabledAuraIgnoresApply(t *testing.T) {
	a := NewAura("Enrage", 12*time.Second, 0)
	a.Enabled = false
	a.Apply(0)
	if a.ActiveAt(0) {
		t.Fatalf("disabled aura became active")
	}
}

func TestCooldown(t *testing.T) {
	cd := NewCooldown(6 * time.Second)
	if !cd.Ready(0) {
		t.Fatalf("new cooldown should be ready")
	}
	cd.Start(time.Second)
	if cd.Ready(6 * time.Second) {
		t.Fatalf("cooldown ready too early")
	}
	if got := cd.Remaining(4 * time.Second); got != 3*time.Second {
		t.Fatalf("Remaining() = %v, want 3s", got)
	}
	if !cd.Ready(7 * time.Second) {
		t.Fatalf("cooldown should be ready at 7s")
	}
	cd.StartFor(7*time.Second, 1500*time.Millisecond)
	cd.Reset()
	if !cd.Ready(7 * time.Second) {
		t.Fatalf("Reset should make the cooldown ready")
	}
}
