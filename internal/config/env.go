package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds process-level overrides read from SIM_* variables. Pointer
// fields stay nil when the variable is unset.
type Env struct {
	Replicas     *int   `env:"SIM_REPLICAS"`
	Concurrency  *int   `env:"SIM_CONCURRENCY"`
	Seed         *int64 `env:"SIM_SEED"`
	EquipmentDB  string `env:"SIM_EQUIPMENT_DB"`
	LogLevel     string `env:"SIM_LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"SIM_LOG_FORMAT" envDefault:"json"`
	OTelEnabled  bool   `env:"SIM_OTEL_ENABLED"`
	OTelEndpoint string `env:"SIM_OTEL_ENDPOINT"`
}

// ParseEnv loads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply overlays the set variables onto the setup and revalidates it.
func (e Env) Apply(s *Setup) error {
	if e.Replicas != nil {
		s.Simulation.Replicas = *e.Replicas
	}
	if e.Concurrency != nil {
		s.Simulation.Concurrency = *e.Concurrency
	}
	if e.Seed != nil {
		s.Simulation.Seed = *e.Seed
	}
	if e.EquipmentDB != "" {
		s.EquipmentDB = e.EquipmentDB
	}
	return s.Validate()
}
