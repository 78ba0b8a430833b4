// dungeongen generates one dungeon, writes its layout and prints the map.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/lawnchairsociety/dungeongen/internal/config"
	"github.com/lawnchairsociety/dungeongen/internal/database"
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
	"github.com/lawnchairsociety/dungeongen/internal/layout"
	"github.com/lawnchairsociety/dungeongen/internal/logger"
)

func main() {
	configFile := flag.String("config", "data/dungeongen.yaml", "Path to config YAML file")
	seed := flag.Int64("seed", 0, "Generation seed (0 keeps the configured seed)")
	random := flag.Bool("random", false, "Use a time-based seed")
	width := flag.Int("width", 0, "Map width (0 keeps the configured width)")
	height := flag.Int("height", 0, "Map height (0 keeps the configured height)")
	outputFile := flag.String("output", "", "Write the layout YAML to this path")
	quiet := flag.Bool("quiet", false, "Do not print the map")
	save := flag.Bool("save", false, "Save the dungeon to the configured database")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*configFile)
	if err := logger.Initialize(logConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	p := cfg.Generation
	if *seed != 0 {
		p.Seed = *seed
		p.RandomSeed = false
	}
	if *random {
		p.RandomSeed = true
	}
	if *width > 0 {
		p.MapWidth = *width
	}
	if *height > 0 {
		p.MapHeight = *height
	}

	d, err := dungeon.GenerateSeeded(p)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}
	data := layout.FromDungeon(d)

	if *outputFile != "" {
		if err := layout.Write(*outputFile, data); err != nil {
			log.Fatalf("Failed to write layout: %v", err)
		}
		logger.Info("Layout written", "path", *outputFile)
	}

	if *save || cfg.Storage.Enabled {
		db, err := database.OpenWithConfig(cfg.Storage.Config)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		id, err := db.SaveDungeon(context.Background(), d)
		db.Close()
		if err != nil {
			log.Fatalf("Failed to save dungeon: %v", err)
		}
		logger.Info("Dungeon saved", "id", id)
	}

	if !*quiet {
		fmt.Print(layout.RenderASCII(data, true))
		s := d.Stats()
		fmt.Printf("\nRooms: %d  Corridor cells: %d  Doors: %d  Hidden walls: %d  Loot: %d\n",
			s.Rooms, s.CorridorCells, s.Doors, s.HiddenWalls, s.Loot)
		fmt.Printf("Fingerprint: %s\n", data.Fingerprint)
	}
}
