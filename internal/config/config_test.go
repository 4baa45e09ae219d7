package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

const validSetup = `
simulation:
  duration_seconds: 120
  iterations: 3
  replicas: 4
  continue_policy: stop_after_gcd
player:
  class: warrior
  level: 60
  stats:
    attack_power: 1200
    crit_percent: 25
  resources:
    rage: 100
  mainhand: Arcanite Reaper
target:
  level: 63
  armor: 3731
abilities: abilities/warrior.yaml
rotation: rotations/fury.yaml
`

func TestParseSetupDefaults(t *testing.T) {
	setup, err := ParseSetup([]byte(`
player:
  class: mage
abilities: a.yaml
rotation: r.yaml
`))
	if err != nil {
		t.Fatalf("ParseSetup: %v", err)
	}
	if got := setup.Simulation.Duration(); got != 300*time.Second {
		t.Errorf("duration = %v, want 5m0s", got)
	}
	if setup.Simulation.Iterations != 1 || setup.Simulation.Replicas != 1 {
		t.Errorf("iterations/replicas = %d/%d, want 1/1", setup.Simulation.Iterations, setup.Simulation.Replicas)
	}
	if setup.Player.Level != 60 || setup.Target.Level != 60 {
		t.Errorf("levels = %d/%d, want 60/60", setup.Player.Level, setup.Target.Level)
	}
	if setup.Simulation.ExecutePercent != 20 {
		t.Errorf("execute percent = %g, want 20", setup.Simulation.ExecutePercent)
	}
}

func TestParseSetupValues(t *testing.T) {
	setup, err := ParseSetup([]byte(validSetup))
	if err != nil {
		t.Fatalf("ParseSetup: %v", err)
	}
	if setup.Simulation.Replicas != 4 || setup.Simulation.Iterations != 3 {
		t.Fatalf("simulation = %+v", setup.Simulation)
	}
	if setup.Player.Stats.CritPercent != 25 || setup.Player.Resources["rage"] != 100 {
		t.Fatalf("player = %+v", setup.Player)
	}
	if setup.Target.Level != 63 || setup.Target.Armor != 3731 {
		t.Fatalf("target = %+v", setup.Target)
	}
}

// TestValidateCollectsEveryProblem ensures validation reports all errors at once.
func TestValidateCollectsEveryProblem(t *testing.T) {
	_, err := ParseSetup([]byte(`
simulation:
  replicas: -1
  continue_policy: sometimes
player:
  class: ""
  resources:
    focus: 100
  offhand: Dagger
target:
  block_percent: 140
`))
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs := multierr.Errors(err)
	wantFragments := []string{
		"replicas", "continue policy", "class required", "unknown resource",
		"without a mainhand", "block_percent", "abilities", "rotation",
	}
	if len(errs) != len(wantFragments) {
		t.Fatalf("got %d errors, want %d: %v", len(errs), len(wantFragments), err)
	}
	msg := err.Error()
	for _, frag := range wantFragments {
		if !strings.Contains(msg, frag) {
			t.Errorf("error %q missing %q", msg, frag)
		}
	}
}

func TestParseSetupRejectsMalformedYAML(t *testing.T) {
	if _, err := ParseSetup([]byte("simulation: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadSetupReturnsBaseDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.yaml")
	if err := os.WriteFile(path, []byte(validSetup), 0o644); err != nil {
		t.Fatal(err)
	}
	setup, base, err := LoadSetup(path)
	if err != nil {
		t.Fatalf("LoadSetup: %v", err)
	}
	if base != dir {
		t.Errorf("base = %q, want %q", base, dir)
	}
	if got, want := Resolve(base, setup.Rotation), filepath.Join(dir, "rotations", "fury.yaml"); got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
	if got := Resolve(base, "/abs/kit.yaml"); got != "/abs/kit.yaml" {
		t.Errorf("absolute Resolve = %q", got)
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("SIM_REPLICAS", "16")
	t.Setenv("SIM_SEED", "42")
	t.Setenv("SIM_EQUIPMENT_DB", "/tmp/eq.db")

	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	if e.Concurrency != nil {
		t.Errorf("unset SIM_CONCURRENCY parsed as %d", *e.Concurrency)
	}
	if e.LogLevel != "info" || e.LogFormat != "json" {
		t.Errorf("log defaults = %q/%q", e.LogLevel, e.LogFormat)
	}

	setup, err := ParseSetup([]byte(validSetup))
	if err != nil {
		t.Fatalf("ParseSetup: %v", err)
	}
	if err := e.Apply(setup); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if setup.Simulation.Replicas != 16 || setup.Simulation.Seed != 42 {
		t.Errorf("simulation = %+v", setup.Simulation)
	}
	if setup.Simulation.Iterations != 3 {
		t.Errorf("iterations overwritten: %d", setup.Simulation.Iterations)
	}
	if setup.EquipmentDB != "/tmp/eq.db" {
		t.Errorf("equipment db = %q", setup.EquipmentDB)
	}
}

func TestEnvOverlayRevalidates(t *testing.T) {
	t.Setenv("SIM_CONCURRENCY", "-2")
	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	setup, err := ParseSetup([]byte(validSetup))
	if err != nil {
		t.Fatalf("ParseSetup: %v", err)
	}
	if err := e.Apply(setup); err == nil {
		t.Fatal("expected negative concurrency to fail validation")
	}
}
