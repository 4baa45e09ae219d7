package engine

import (
	"time"

	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/effects"
	"github.com/donggangwhy/ClassicSim/internal/random"
	"github.com/donggangwhy/ClassicSim/internal/rotation"
	"github.com/donggangwhy/ClassicSim/internal/spells"
)

// Player is the character of one iteration as the rotation sees it.
type Player struct {
	*character.Character

	spells    *spells.Registry
	duration  time.Duration
	executeAt time.Duration
	nextSwing time.Duration
	swinging  bool
}

func newPlayer(spec *Spec, rng *random.Random) (*Player, error) {
	char := character.NewCharacter(spec.Character, spec.newTarget(), rng)
	registry, err := spells.BuildRegistry(char, spec.Abilities)
	if err != nil {
		return nil, err
	}
	execute := spec.Sim.ExecutePercent / 100
	return &Player{
		Character: char,
		spells:    registry,
		duration:  spec.Sim.Duration,
		executeAt: time.Duration(float64(spec.Sim.Duration) * (1 - execute)),
	}, nil
}

// Spell resolves a spell by name.
func (p *Player) Spell(name string) (spells.Spell, bool) { return p.spells.Spell(name) }

// Buff resolves an aura by name.
func (p *Player) Buff(name string) (*effects.Aura, bool) { return p.Aura(name) }

// Now returns the simulation clock.
func (p *Player) Now() time.Duration { return p.CurrentTime }

// Builtin reads a simulation variable. Target health falls linearly from
// 100 to 0 over the fight; times are in seconds.
func (p *Player) Builtin(b rotation.Builtin) float64 {
	now := p.CurrentTime
	switch b {
	case rotation.BuiltinTimeRemainingEncounter:
		return nonNegative(p.duration - now).Seconds()
	case rotation.BuiltinTimeRemainingExecute:
		return nonNegative(p.executeAt - now).Seconds()
	case rotation.BuiltinTimeSinceCombatStart:
		return nonNegative(now).Seconds()
	case rotation.BuiltinTargetHealthPercent:
		if p.duration <= 0 {
			return 0
		}
		pct := 100 * (1 - float64(nonNegative(now))/float64(p.duration))
		if pct < 0 {
			return 0
		}
		return pct
	case rotation.BuiltinSwingTimer:
		if !p.swinging {
			return 0
		}
		return nonNegative(p.nextSwing - now).Seconds()
	default:
		return 0
	}
}

// nextCooldownReady returns the earliest time a spell comes off cooldown.
func (p *Player) nextCooldownReady() (time.Duration, bool) {
	var next time.Duration
	found := false
	for _, name := range p.spells.Names() {
		spell, _ := p.spells.Spell(name)
		remaining := spell.CooldownRemaining()
		if remaining <= 0 {
			continue
		}
		at := p.CurrentTime + remaining
		if !found || at < next {
			next, found = at, true
		}
	}
	return next, found
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
