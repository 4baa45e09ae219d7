// Package engine runs one simulation replica: an event-driven fight between
// a character and a target, with a rotation choosing the casts.
package engine

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/random"
	"github.com/donggangwhy/ClassicSim/internal/rotation"
	"github.com/donggangwhy/ClassicSim/internal/spells"
)

const (
	energyTickInterval = 2 * time.Second
	energyPerTick      = 20
)

// SimulationResult holds simulation results
type SimulationResult struct {
	Duration    time.Duration
	Iterations  int
	TotalDamage float64
	TotalDPS    float64
	Casts       int
	Swings      int
	// InactiveExecutors counts rotation entries that failed to link.
	InactiveExecutors int
	Breakdown         *character.Meter
}

func (r *SimulationResult) aggregateResult(iter *SimulationResult) {
	r.TotalDamage += iter.TotalDamage
	r.Casts += iter.Casts
	r.Swings += iter.Swings
	if iter.InactiveExecutors > r.InactiveExecutors {
		r.InactiveExecutors = iter.InactiveExecutors
	}
	r.Breakdown.Merge(iter.Breakdown)
}

// Simulator runs the combat simulation
type Simulator struct {
	Spec       *Spec
	LogEnabled bool
	LogWriter  io.Writer
	BaseSeed   int64
	Logger     *zap.Logger
	events     eventQueue
}

// NewSimulator creates a new simulator
func NewSimulator(spec *Spec, seed int64, logEnabled bool, logWriter io.Writer) *Simulator {
	return &Simulator{
		Spec:       spec,
		LogEnabled: logEnabled,
		LogWriter:  logWriter,
		BaseSeed:   seed,
		Logger:     zap.NewNop(),
	}
}

// RunReplica simulates spec with seed and returns the average DPS.
func RunReplica(ctx context.Context, spec *Spec, seed int64) (float64, error) {
	result, err := NewSimulator(spec, seed, false, nil).Run(ctx)
	if err != nil {
		return 0, err
	}
	return result.TotalDPS, nil
}

// Run executes the simulation for configured iterations. Cancellation is
// checked at every decision point.
func (s *Simulator) Run(ctx context.Context) (*SimulationResult, error) {
	iterations := s.Spec.Sim.Iterations
	if iterations < 1 {
		iterations = 1
	}
	result := &SimulationResult{
		Duration:   s.Spec.Sim.Duration,
		Iterations: iterations,
		Breakdown:  character.NewMeter(),
	}
	if s.LogEnabled {
		s.logStaticf("=== Combat Log Start (duration %.0fs, iterations %d) ===", s.Spec.Sim.Duration.Seconds(), iterations)
	}

	// Run multiple iterations with unique seed each
	for i := 0; i < iterations; i++ {
		iterResult, err := s.runSingleIteration(ctx, i)
		if err != nil {
			return nil, err
		}
		result.aggregateResult(iterResult)
	}

	// Calculate averages
	result.TotalDamage /= float64(iterations)
	if seconds := s.Spec.Sim.Duration.Seconds(); seconds > 0 {
		result.TotalDPS = result.TotalDamage / seconds
	}
	return result, nil
}

// runSingleIteration runs one simulation iteration
func (s *Simulator) runSingleIteration(ctx context.Context, iteration int) (*SimulationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.events.reset()
	if s.LogEnabled {
		s.logStaticf("--- Iteration %d Start ---", iteration+1)
	}

	player, err := newPlayer(s.Spec, random.New(random.IterationSeed(s.BaseSeed, iteration)))
	if err != nil {
		return nil, err
	}
	rot, err := rotation.FromDefinition(s.Spec.Rotation,
		rotation.WithLogger(s.Logger),
		rotation.WithContinuePolicy(s.Spec.Policy))
	if err != nil {
		return nil, err
	}
	result := &SimulationResult{Breakdown: player.Meter}
	if err := rot.Link(player); err != nil {
		result.InactiveExecutors = len(rot.Executors()) - len(rot.ActiveExecutors())
		if iteration == 0 {
			s.Logger.Warn("rotation entries inactive",
				zap.String("rotation", rot.Name()),
				zap.Int("inactive", result.InactiveExecutors),
				zap.Error(err))
		}
	}

	s.runPrecombat(player, rot, result)
	s.startAutoAttacks(player, rot.AttackMode(), result)
	s.startResourceTicks(player)

	// Combat loop
	duration := s.Spec.Sim.Duration
	for player.CurrentTime < duration {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.runDueEvents(player.CurrentTime)
		s.expireAuras(player)

		if !player.IsCasting() {
			for _, cast := range rot.PerformRotation() {
				result.Casts++
				s.logCast(player.Character, cast)
			}
		}

		next := s.nextDecision(player)
		if next > duration {
			next = duration
		}
		player.AdvanceTo(next)
	}

	result.TotalDamage = player.Meter.Total()
	return result, nil
}

// runPrecombat rewinds the clock by the time precombat needs, performs the
// precombat spells and the precast, and lands on zero.
func (s *Simulator) runPrecombat(player *Player, rot *rotation.Rotation, result *SimulationResult) {
	player.CurrentTime = -rot.TimeRequiredToRunPrecombat()
	for _, cast := range rot.RunPrecombatActions() {
		result.Casts++
		s.logCast(player.Character, cast)
	}
	if precast := rot.PrecastSpell(); precast != nil {
		if cast := precast.Precast(); cast.Cast {
			result.Casts++
			s.logCast(player.Character, cast)
		}
	}
	player.AdvanceTo(0)
}

func (s *Simulator) startAutoAttacks(player *Player, mode rotation.AttackMode, result *SimulationResult) {
	var slots []character.Slot
	switch mode {
	case rotation.MeleeAttack:
		slots = []character.Slot{character.SlotMainhand, character.SlotOffhand}
	case rotation.RangedAttack:
		slots = []character.Slot{character.SlotRanged}
	default:
		return
	}
	for i, slot := range slots {
		swing := spells.NewAutoAttack(player.Character, slot)
		if swing == nil {
			continue
		}
		s.scheduleSwing(player, swing, player.CurrentTime, i == 0, result)
	}
}

// scheduleSwing queues a self-rescheduling swing. The primary swing feeds
// the swing_timer built-in.
func (s *Simulator) scheduleSwing(player *Player, swing *spells.AutoAttack, at time.Duration, primary bool, result *SimulationResult) {
	if primary {
		player.nextSwing = at
		player.swinging = true
	}
	s.scheduleEvent(swing.Name(), at, func() {
		cast := swing.Swing()
		result.Swings++
		if s.LogEnabled {
			s.logf(player.Character, "SWING %s %s damage=%.0f rage=+%.1f", cast.Spell, cast.Outcome, cast.Damage, cast.ResourceGained)
		}
		s.scheduleSwing(player, swing, at+swing.Speed(), primary, result)
	})
}

func (s *Simulator) startResourceTicks(player *Player) {
	if !player.HasResource(character.ResourceEnergy) {
		return
	}
	var tick func(at time.Duration)
	tick = func(at time.Duration) {
		s.scheduleEvent("energy", at, func() {
			player.GainResource(character.ResourceEnergy, energyPerTick)
			tick(at + energyTickInterval)
		})
	}
	tick(player.CurrentTime + energyTickInterval)
}

func (s *Simulator) expireAuras(player *Player) {
	for _, name := range player.ExpireAuras(player.CurrentTime) {
		if s.LogEnabled {
			s.logf(player.Character, "BUFF_EXPIRE %s", name)
		}
	}
}

// nextDecision returns the earliest moment the rotation may decide
// differently: an event, the end of a cast or the global cooldown, an aura
// expiring or a spell coming off cooldown. Without any of these the clock
// steps one global cooldown.
func (s *Simulator) nextDecision(player *Player) time.Duration {
	now := player.CurrentTime
	next := time.Duration(math.MaxInt64)
	consider := func(at time.Duration, ok bool) {
		if ok && at > now && at < next {
			next = at
		}
	}
	consider(s.events.next())
	consider(player.CastEndsAt, player.IsCasting())
	consider(player.GCDReadyAt(), !player.IsGCDReady())
	consider(player.NextAuraExpiry(now))
	consider(player.nextCooldownReady())
	if next == time.Duration(math.MaxInt64) {
		return now + player.GlobalCooldownDuration()
	}
	return next
}

func (s *Simulator) scheduleEvent(label string, at time.Duration, action func()) *scheduledEvent {
	if action == nil {
		return nil
	}
	ev := &scheduledEvent{
		label:     label,
		executeAt: at,
		action:    action,
	}
	s.events.add(ev)
	return ev
}

func (s *Simulator) runDueEvents(now time.Duration) {
	for {
		ev := s.events.popReady(now)
		if ev == nil {
			break
		}
		if ev.action != nil {
			ev.action()
		}
	}
}

func (s *Simulator) logCast(char *character.Character, cast spells.CastResult) {
	if !s.LogEnabled {
		return
	}
	if cast.CastTime > 0 {
		s.logf(char, "CAST_START %s (%.2fs)", cast.Spell, cast.CastTime.Seconds())
	} else {
		s.logf(char, "CAST %s", cast.Spell)
	}
	line := fmt.Sprintf("CAST_RESULT %s %s", cast.Spell, cast.Outcome)
	if cast.Damage > 0 {
		line += fmt.Sprintf(" damage=%.0f", cast.Damage)
	}
	if cast.ResourceSpent > 0 {
		line += fmt.Sprintf(" cost=%.0f", cast.ResourceSpent)
	}
	if cast.ResourceGained > 0 {
		line += fmt.Sprintf(" gain=%.0f", cast.ResourceGained)
	}
	s.logf(char, "%s", line)
}

func (s *Simulator) logf(char *character.Character, format string, args ...interface{}) {
	if !s.LogEnabled || s.LogWriter == nil {
		return
	}
	ts := 0.0
	if char != nil {
		ts = char.CurrentTime.Round(time.Millisecond).Seconds()
	}
	prefix := fmt.Sprintf("[%6.2fs] ", ts)
	fmt.Fprintf(s.LogWriter, prefix+format+"\n", args...)
}

func (s *Simulator) logStaticf(format string, args ...interface{}) {
	if !s.LogEnabled || s.LogWriter == nil {
		return
	}
	fmt.Fprintf(s.LogWriter, format+"\n", args...)
}
