package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/donggangwhy/ClassicSim/internal/equipment"
)

func main() {
	weaponsPath := flag.String("weapons", "configs/weapons.yaml", "Path to weapon list YAML")
	dbPath := flag.String("db", "configs/equipment.db", "Path of the SQLite database to write")
	flag.Parse()

	weapons, err := equipment.LoadYAML(*weaponsPath)
	if err != nil {
		log.Fatalf("failed to load weapons: %v", err)
	}
	ctx := context.Background()
	if err := equipment.Seed(ctx, *dbPath, weapons); err != nil {
		log.Fatalf("failed to seed database: %v", err)
	}
	db, err := equipment.Open(ctx, *dbPath)
	if err != nil {
		log.Fatalf("failed to reopen database: %v", err)
	}
	fmt.Printf("Seeded %d weapons into %s\n", db.Len(), *dbPath)
}
