package config

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/rotation"
)

// Validate reports every problem in the setup, not just the first.
func (s *Setup) Validate() error {
	var errs error
	errs = multierr.Append(errs, s.Simulation.validate())
	errs = multierr.Append(errs, s.Player.validate())
	errs = multierr.Append(errs, s.Target.validate())
	if strings.TrimSpace(s.Abilities) == "" {
		errs = multierr.Append(errs, fmt.Errorf("abilities: kit file required"))
	}
	if strings.TrimSpace(s.Rotation) == "" {
		errs = multierr.Append(errs, fmt.Errorf("rotation: rotation file required"))
	}
	return errs
}

func (s Simulation) validate() error {
	var errs error
	if s.DurationSeconds < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation: duration_seconds must be positive (%g)", s.DurationSeconds))
	}
	if s.Iterations < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation: iterations must be positive (%d)", s.Iterations))
	}
	if s.Replicas < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation: replicas must be positive (%d)", s.Replicas))
	}
	if s.Concurrency < 0 {
		errs = multierr.Append(errs, fmt.Errorf("simulation: concurrency must not be negative (%d)", s.Concurrency))
	}
	if s.ExecutePercent < 0 || s.ExecutePercent > 100 {
		errs = multierr.Append(errs, fmt.Errorf("simulation: execute_percent out of range (%g)", s.ExecutePercent))
	}
	if _, err := rotation.ParseContinuePolicy(s.ContinuePolicy); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("simulation: %w", err))
	}
	return errs
}

func (p Player) validate() error {
	var errs error
	if strings.TrimSpace(p.Class) == "" {
		errs = multierr.Append(errs, fmt.Errorf("player: class required"))
	}
	if p.Level < 1 {
		errs = multierr.Append(errs, fmt.Errorf("player: level must be positive (%d)", p.Level))
	}
	for name, limit := range p.Resources {
		if _, err := character.ParseResource(name); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("player: %w", err))
			continue
		}
		if limit < 0 {
			errs = multierr.Append(errs, fmt.Errorf("player: resource '%s' has negative maximum", name))
		}
	}
	if p.GlobalCooldown < 0 {
		errs = multierr.Append(errs, fmt.Errorf("player: global_cooldown must not be negative"))
	}
	if p.Offhand != "" && p.Mainhand == "" {
		errs = multierr.Append(errs, fmt.Errorf("player: offhand '%s' without a mainhand", p.Offhand))
	}
	return errs
}

func (t Target) validate() error {
	var errs error
	if t.Level < 1 {
		errs = multierr.Append(errs, fmt.Errorf("target: level must be positive (%d)", t.Level))
	}
	if t.Armor < 0 {
		errs = multierr.Append(errs, fmt.Errorf("target: armor must not be negative"))
	}
	if t.ParryPercent < 0 || t.ParryPercent > 100 {
		errs = multierr.Append(errs, fmt.Errorf("target: parry_percent out of range (%g)", t.ParryPercent))
	}
	if t.BlockPercent < 0 || t.BlockPercent > 100 {
		errs = multierr.Append(errs, fmt.Errorf("target: block_percent out of range (%g)", t.BlockPercent))
	}
	return errs
}
