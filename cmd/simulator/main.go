package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/donggangwhy/ClassicSim/internal/config"
	"github.com/donggangwhy/ClassicSim/internal/engine"
	"github.com/donggangwhy/ClassicSim/internal/logging"
	"github.com/donggangwhy/ClassicSim/internal/pool"
	"github.com/donggangwhy/ClassicSim/internal/telemetry"
)

func main() {
	setupPath := flag.String("setup", "configs/setup.yaml", "Path to setup YAML")
	combatLog := flag.Bool("log", false, "Print the combat log and breakdown of one replica before the batch")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "classicsim", env.OTelEnabled, env.OTelEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer shutdown(context.Background())

	data, err := os.ReadFile(*setupPath)
	if err != nil {
		log.Fatalf("Failed to read setup: %v", err)
	}
	setup, baseDir, err := config.LoadSetup(*setupPath)
	if err != nil {
		log.Fatalf("Failed to load setup: %v", err)
	}
	if env.EquipmentDB != "" {
		setup.EquipmentDB = env.EquipmentDB
	}
	db, err := engine.LoadEquipment(ctx, setup, baseDir)
	if err != nil {
		log.Fatalf("Failed to load equipment: %v", err)
	}

	if *combatLog || setup.Simulation.CombatLog {
		spec, err := engine.NewSpec(setup, db, baseDir)
		if err != nil {
			log.Fatalf("Failed to resolve setup: %v", err)
		}
		sim := engine.NewSimulator(spec, setup.Simulation.Seed, true, os.Stdout)
		sim.Logger = logger
		result, err := sim.Run(ctx)
		if err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}
		result.PrintResults(os.Stdout)
	}

	opts := []pool.Option{
		pool.WithLogger(logger),
		pool.WithBaseDir(baseDir),
		pool.WithEquipment(db),
	}
	if env.Replicas != nil {
		opts = append(opts, pool.WithReplicas(*env.Replicas))
	}
	if env.Concurrency != nil {
		opts = append(opts, pool.WithConcurrency(*env.Concurrency))
	}
	if env.Seed != nil {
		opts = append(opts, pool.WithBaseSeed(*env.Seed))
	}
	p := pool.New(opts...)

	batch, err := p.RunSim(ctx, string(data))
	if err != nil {
		log.Fatalf("Batch failed: %v", err)
	}
	if err := batch.Err(); err != nil {
		logger.Warn("some replicas failed", zap.Error(err))
	}

	out := message.NewPrinter(language.English)
	out.Printf("Run %s (seed %d)\n", batch.RunID, batch.Seed)
	out.Printf("Replicas: %d succeeded, %d failed in %v\n", batch.Succeeded, batch.Failed, batch.Elapsed.Round(time.Millisecond))
	out.Printf("Mean DPS: %.2f (min %.2f, max %.2f, stddev %.2f)\n", batch.Mean, batch.Min, batch.Max, batch.StdDev)
}
