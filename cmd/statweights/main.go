package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/donggangwhy/ClassicSim/internal/character"
	"github.com/donggangwhy/ClassicSim/internal/config"
	"github.com/donggangwhy/ClassicSim/internal/engine"
	"github.com/donggangwhy/ClassicSim/internal/logging"
	"github.com/donggangwhy/ClassicSim/internal/pool"
	"github.com/donggangwhy/ClassicSim/internal/random"
)

type statDelta struct {
	name  string
	key   string
	unit  string
	delta float64
	apply func(*character.Stats, float64)
}

var statDeltas = []statDelta{
	{name: "Attack Power", key: "ap", unit: "AP", delta: 20, apply: func(s *character.Stats, d float64) { s.AttackPower += d }},
	{name: "Spell Power", key: "sp", unit: "SP", delta: 10, apply: func(s *character.Stats, d float64) { s.SpellPower += d }},
	{name: "Crit", key: "crit", unit: "% crit", delta: 1, apply: func(s *character.Stats, d float64) { s.CritPct += d }},
	{name: "Hit", key: "hit", unit: "% hit", delta: 1, apply: func(s *character.Stats, d float64) { s.HitPct += d }},
}

type weightResult struct {
	delta    statDelta
	weight   float64
	dpsPlus  float64
	dpsMinus float64
}

type sweepConfig struct {
	stat         statDelta
	start        float64
	stop         float64
	step         float64
	includeDelta bool
	outputDir    string
}

func main() {
	setupPath := flag.String("setup", "configs/setup.yaml", "Path to setup YAML")
	replicas := flag.Int("replicas", 0, "Replicas per point (0 = use setup)")
	seedBase := flag.Int64("seed-base", 0, "Base RNG seed (0 = setup seed, else random)")
	verbose := flag.Bool("verbose", false, "Show plus/minus DPS columns")
	sweepStat := flag.String("stat", "", "Stat to sweep (ap|sp|crit|hit). If set, runs sweep mode instead of central-diff weights.")
	sweepStart := flag.Float64("start", math.NaN(), "Sweep start. Defaults to the setup value.")
	sweepStop := flag.Float64("stop", math.NaN(), "Sweep stop. Defaults depend on stat.")
	sweepStep := flag.Float64("step", math.NaN(), "Sweep step. Defaults to the weight delta of the stat.")
	includeDelta := flag.Bool("deltas", true, "Include DPS-per-point delta column in sweep CSV.")
	outputDir := flag.String("output-dir", "output/stat_curves", "Directory for sweep CSV output.")
	flag.Parse()

	env, err := config.ParseEnv()
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	logger, err := logging.New(env.LogLevel, env.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	setup, baseDir, err := config.LoadSetup(*setupPath)
	if err != nil {
		log.Fatalf("Failed to load setup: %v", err)
	}
	if err := env.Apply(setup); err != nil {
		log.Fatalf("Invalid environment overrides: %v", err)
	}
	if *replicas > 0 {
		setup.Simulation.Replicas = *replicas
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := engine.LoadEquipment(ctx, setup, baseDir)
	if err != nil {
		log.Fatalf("Failed to load equipment: %v", err)
	}
	spec, err := engine.NewSpec(setup, db, baseDir)
	if err != nil {
		log.Fatalf("Failed to resolve setup: %v", err)
	}

	baseSeed := *seedBase
	if baseSeed == 0 {
		baseSeed = setup.Simulation.Seed
	}
	if baseSeed == 0 {
		if baseSeed, err = random.NewSeed(); err != nil {
			log.Fatalf("Failed to seed: %v", err)
		}
	}

	r := &runner{
		pool: pool.New(pool.WithLogger(logger), pool.WithEquipment(db)),
		spec: spec,
		batch: pool.Batch{
			Replicas:    setup.Simulation.Replicas,
			Seed:        baseSeed,
			Concurrency: setup.Simulation.Concurrency,
		},
	}

	if *sweepStat != "" {
		sweepCfg, err := buildSweepConfig(*sweepStat, *sweepStart, *sweepStop, *sweepStep, *includeDelta, *outputDir, spec.Character.Stats)
		if err != nil {
			log.Fatalf("Sweep config error: %v", err)
		}
		if err := r.sweep(ctx, sweepCfg); err != nil {
			log.Fatalf("Sweep failed: %v", err)
		}
		return
	}

	baselineDPS, err := r.dps(ctx, spec.Character.Stats)
	if err != nil {
		log.Fatalf("Baseline failed: %v", err)
	}

	out := message.NewPrinter(language.English)
	out.Printf("Stat Weights (central diff, shared seed %d)\n", baseSeed)
	out.Printf("Rotation: %s\n", spec.Rotation.Name)
	out.Printf("Replicas: %d, Iterations: %d, Duration: %.0fs\n\n", r.batch.Replicas, spec.Sim.Iterations, spec.Sim.Duration.Seconds())
	out.Printf("Baseline DPS: %.2f\n\n", baselineDPS)

	results := make([]weightResult, 0, len(statDeltas))
	for _, sd := range statDeltas {
		plus := spec.Character.Stats
		minus := spec.Character.Stats
		sd.apply(&plus, sd.delta)
		sd.apply(&minus, -sd.delta)

		dpsPlus, err := r.dps(ctx, plus)
		if err != nil {
			log.Fatalf("%s plus failed: %v", sd.name, err)
		}
		dpsMinus, err := r.dps(ctx, minus)
		if err != nil {
			log.Fatalf("%s minus failed: %v", sd.name, err)
		}
		results = append(results, weightResult{
			delta:    sd,
			weight:   (dpsPlus - dpsMinus) / (2 * sd.delta),
			dpsPlus:  dpsPlus,
			dpsMinus: dpsMinus,
		})
	}

	w := tabWriter()
	if *verbose {
		fmt.Fprintf(w, "Stat\tDelta\tDPS/Unit\tPlus DPS\tMinus DPS\n")
	} else {
		fmt.Fprintf(w, "Stat\tDelta\tDPS/Unit\n")
	}
	for _, res := range results {
		if *verbose {
			fmt.Fprintf(w, "%s\t%+.0f %s\t%.2f\t%.2f\t%.2f\n",
				res.delta.name, res.delta.delta, res.delta.unit, res.weight, res.dpsPlus, res.dpsMinus)
		} else {
			fmt.Fprintf(w, "%s\t%+.0f %s\t%.2f\n",
				res.delta.name, res.delta.delta, res.delta.unit, res.weight)
		}
	}
	w.Flush()

	apWeight := results[0].weight
	if apWeight != 0 {
		nw := tabWriter()
		fmt.Fprintf(nw, "\nNormalized (AP = 1.0)\n")
		fmt.Fprintf(nw, "Stat\tWeight vs AP\n")
		for _, res := range results {
			fmt.Fprintf(nw, "%s\t%.3f\n", res.delta.name, res.weight/apWeight)
		}
		nw.Flush()
	}
}

// runner evaluates stat variants of one spec through the pool with a
// shared seed, so every point sees the same random streams.
type runner struct {
	pool  *pool.Pool
	spec  *engine.Spec
	batch pool.Batch
}

func (r *runner) dps(ctx context.Context, stats character.Stats) (float64, error) {
	variant := *r.spec
	variant.Character.Stats = stats
	result, err := r.pool.RunSpec(ctx, &variant, r.batch)
	if err != nil {
		return 0, err
	}
	if result.Succeeded == 0 {
		return 0, result.Err()
	}
	return result.Mean, nil
}

// tabWriter creates a tab-aligned writer for consistent table output.
func tabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func buildSweepConfig(stat string, start, stop, step float64, includeDelta bool, outputDir string, base character.Stats) (sweepConfig, error) {
	cfg := sweepConfig{
		start:        start,
		stop:         stop,
		step:         step,
		includeDelta: includeDelta,
		outputDir:    outputDir,
	}
	found := false
	for _, sd := range statDeltas {
		if sd.key == strings.ToLower(strings.TrimSpace(stat)) {
			cfg.stat, found = sd, true
			break
		}
	}
	if !found {
		return sweepConfig{}, fmt.Errorf("unsupported stat %q (use ap|sp|crit|hit)", stat)
	}

	if math.IsNaN(cfg.start) {
		cfg.start = statValue(base, cfg.stat)
	}
	if math.IsNaN(cfg.step) {
		cfg.step = cfg.stat.delta
	}
	if math.IsNaN(cfg.stop) {
		cfg.stop = cfg.start + 40*cfg.step
	}
	if cfg.step <= 0 {
		return sweepConfig{}, fmt.Errorf("step must be > 0 (got %.2f)", cfg.step)
	}
	if cfg.stop <= cfg.start {
		return sweepConfig{}, fmt.Errorf("stop must be > start (start=%.2f, stop=%.2f)", cfg.start, cfg.stop)
	}
	return cfg, nil
}

// statValue returns the current value of the stat sd modifies.
func statValue(base character.Stats, sd statDelta) float64 {
	probe := base
	sd.apply(&probe, 1)
	switch {
	case probe.AttackPower != base.AttackPower:
		return base.AttackPower
	case probe.SpellPower != base.SpellPower:
		return base.SpellPower
	case probe.CritPct != base.CritPct:
		return base.CritPct
	default:
		return base.HitPct
	}
}

func (r *runner) sweep(ctx context.Context, cfg sweepConfig) error {
	var values []float64
	for v := cfg.start; v <= cfg.stop+1e-9; v += cfg.step {
		values = append(values, v)
	}

	base := r.spec.Character.Stats
	dps := make([]float64, len(values))
	for i, v := range values {
		stats := base
		cfg.stat.apply(&stats, v-statValue(base, cfg.stat))
		point, err := r.dps(ctx, stats)
		if err != nil {
			return fmt.Errorf("point %.2f: %w", v, err)
		}
		dps[i] = point
	}

	if err := os.MkdirAll(cfg.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	outPath := filepath.Join(cfg.outputDir, fmt.Sprintf("%s.csv", cfg.stat.key))
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", outPath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"stat_value", "dps"}
	if cfg.includeDelta {
		header = append(header, "dps_per_point")
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, v := range values {
		record := []string{
			fmt.Sprintf("%.4f", v),
			fmt.Sprintf("%.4f", dps[i]),
		}
		if cfg.includeDelta {
			if i == 0 {
				record = append(record, "")
			} else {
				record = append(record, fmt.Sprintf("%.6f", (dps[i]-dps[i-1])/(v-values[i-1])))
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	fmt.Printf("Sweep complete (%s): %d points, replicas/point=%d, output=%s\n", cfg.stat.key, len(values), r.batch.Replicas, outPath)
	return nil
}
