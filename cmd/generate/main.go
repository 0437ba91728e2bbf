package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/unklstewy/asv-radar-sim/internal/db"
	"github.com/unklstewy/asv-radar-sim/internal/flightfile"
	"github.com/unklstewy/asv-radar-sim/internal/logging"
	"github.com/unklstewy/asv-radar-sim/pkg/config"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// Generate computes the radar track of one aircraft and stores it for the
// sender to replay.
func main() {
	args, err := parseArgs(os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, errVersion):
		fmt.Printf("generate %s\n", version)
		return
	case errors.Is(err, flag.ErrHelp):
		return
	case err != nil:
		os.Exit(2)
	}

	cfg, err := config.Load(args.configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if args.outPath == "" {
		args.outPath = cfg.Generator.OutputPath
	}
	if args.store == "" {
		args.store = cfg.Generator.Store
	}

	logFile, err := logging.Setup("generate", cfg.Logging, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	log.Println("===========================================")
	log.Println("  ASV Radar Flight Generator")
	log.Println("===========================================")
	log.Printf("Duration = %d seconds.", args.durationS)
	log.Printf("Start: range %d m, azimuth %.3f°", args.rangeM, args.azimuthDeg)
	log.Printf("Motion: %.2f m/s, heading %.3f°", args.speedMPS, args.heading)

	plan, err := args.plan()
	if err != nil {
		log.Fatalf("Invalid flight: %v", err)
	}
	track, err := trajectory.Generate(plan)
	if err != nil {
		log.Fatalf("Failed to generate flight: %v", err)
	}
	last := track.At(track.Len() - 1)
	log.Printf("✓ Generated %d records, final position: range %.1f m, azimuth %.3f°",
		track.Len(), last.Position.RangeM, last.Position.AzimuthDeg)

	if args.store == "file" || args.store == "both" {
		if err := flightfile.SaveFile(args.outPath, track.All()); err != nil {
			log.Fatalf("Failed to write flight file: %v", err)
		}
		log.Printf("✓ Flight written to %s", args.outPath)
	}

	if args.store == "db" || args.store == "both" {
		id, err := storeInDatabase(cfg.Database, track)
		if err != nil {
			log.Fatalf("Failed to store flight: %v", err)
		}
		log.Printf("✓ Flight stored with ID %s", id)
		log.Printf("  Replay with: sender -flight-id %s", id)
	}
}

func storeInDatabase(cfg config.DatabaseConfig, track *trajectory.Track) (string, error) {
	log.Println("Connecting to database...")
	database, err := db.ReconnectWithRetry(cfg, 3, time.Second)
	if err != nil {
		return "", err
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.InitSchema(ctx); err != nil {
		return "", err
	}

	repo := db.NewFlightRepository(database)
	var id fmt.Stringer
	err = db.WithRetry(func() error {
		saved, err := repo.SaveFlight(ctx, track.Plan(), track.All())
		id = saved
		return err
	}, 2)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
