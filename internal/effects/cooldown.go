package effects

import "time"

// Cooldown tracks when an ability or the global cooldown becomes usable.
type Cooldown struct {
	Duration time.Duration
	readyAt  time.Duration
}

// NewCooldown returns a ready cooldown with a base duration.
func NewCooldown(duration time.Duration) *Cooldown {
	return &Cooldown{Duration: duration}
}

// Ready reports whether the cooldown has elapsed at now.
func (c *Cooldown) Ready(now time.Duration) bool {
	return now >= c.readyAt
}

// Remaining returns the time left until ready.
func (c *Cooldown) Remaining(now time.Duration) time.Duration {
	if now >= c.readyAt {
		return 0
	}
	return c.readyAt - now
}

// Start puts the cooldown on its base duration.
func (c *Cooldown) Start(now time.Duration) {
	c.StartFor(now, c.Duration)
}

// StartFor puts the cooldown on an explicit duration.
func (c *Cooldown) StartFor(now, duration time.Duration) {
	c.readyAt = now + duration
}

// Reset makes the cooldown immediately ready.
func (c *Cooldown) Reset() {
	c.readyAt = 0
}

// ReadyAt returns the ready timestamp.
func (c *Cooldown) ReadyAt() time.Duration {
	return c.readyAt
}
