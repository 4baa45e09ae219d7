package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/donggangwhy/ClassicSim/internal/config"
	"github.com/donggangwhy/ClassicSim/internal/engine"
	"github.com/donggangwhy/ClassicSim/internal/logging"
	"github.com/donggangwhy/ClassicSim/internal/rotation"
)

func main() {
	var rotationPath, setupPath string
	var dump bool
	flag.StringVar(&rotationPath, "rotation", "configs/rotations/fury.yaml", "Path to rotation YAML")
	flag.StringVar(&setupPath, "setup", "", "Optional setup YAML; when set the rotation is linked against its character")
	flag.BoolVar(&dump, "dump", false, "Log the parsed rotation structure")
	flag.Parse()

	rotationPath = filepath.Clean(rotationPath)
	def, err := rotation.LoadDefinition(filepath.Dir(rotationPath), filepath.Base(rotationPath))
	if err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Printf("  %v\n", e)
		}
		log.Fatalf("rotation invalid: %s", rotationPath)
	}
	fmt.Printf("Rotation '%s' parsed: %d entries, precombat %d, precast %q (source: %s)\n",
		def.Name, len(def.Executors), len(def.Precombat), def.Precast, rotationPath)
	for _, e := range multierr.Errors(def.Problems()) {
		fmt.Printf("  invalid entry: %v\n", e)
	}

	logger := zap.NewNop()
	if dump {
		if logger, err = logging.New("info", "console"); err != nil {
			log.Fatalf("failed to build logger: %v", err)
		}
		defer logger.Sync()
	}

	if setupPath == "" {
		if dump {
			rot, err := rotation.FromDefinition(def, rotation.WithLogger(logger))
			if err != nil {
				log.Fatalf("rotation invalid: %v", err)
			}
			rot.Dump()
		}
		return
	}

	setup, baseDir, err := config.LoadSetup(setupPath)
	if err != nil {
		log.Fatalf("failed to load setup: %v", err)
	}
	db, err := engine.LoadEquipment(context.Background(), setup, baseDir)
	if err != nil {
		log.Fatalf("failed to load equipment: %v", err)
	}
	spec, err := engine.NewSpec(setup, db, baseDir)
	if err != nil {
		log.Fatalf("failed to resolve setup: %v", err)
	}
	spec.Rotation = def

	rot, linkErr := engine.CheckRotation(spec, logger)
	if rot == nil {
		log.Fatalf("failed to link rotation: %v", linkErr)
	}
	if dump {
		rot.Dump()
	}
	fmt.Printf("Linked against %s: %d of %d entries active\n",
		setup.Player.Class, len(rot.ActiveExecutors()), len(rot.Executors()))
	for _, e := range multierr.Errors(linkErr) {
		fmt.Printf("  inactive: %v\n", e)
	}
}
