package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/unklstewy/asv-radar-sim/internal/db"
	"github.com/unklstewy/asv-radar-sim/internal/flightfile"
	"github.com/unklstewy/asv-radar-sim/pkg/config"
)

const usage = `Usage: flights [options] <command> [args]

Commands:
  list                 List the most recent stored flights
  show <id>            Show one flight header
  export <id> <file>   Write a stored flight to a flight file
  delete <id>          Delete a flight and its records
  prune                Delete flights older than -older-than
  stats                Show table row counts

Options:
`

// Flights manages generated flights stored in PostgreSQL.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	limit := flag.Int("limit", 20, "Number of flights to list")
	olderThan := flag.Duration("older-than", 30*24*time.Hour, "Age of flights removed by prune")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.ReconnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if !db.HealthCheck(database) {
		database, err = db.EnsureConnection(database, cfg.Database)
		if err != nil {
			log.Fatalf("Database unavailable: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	repo := db.NewFlightRepository(database)

	args := flag.Args()
	switch args[0] {
	case "list":
		flights, err := repo.ListFlights(ctx, *limit)
		if err != nil {
			log.Fatalf("Failed to list flights: %v", err)
		}
		if len(flights) == 0 {
			fmt.Println("No flights stored")
			return
		}
		fmt.Printf("%-36s  %-19s  %8s  %10s  %8s  %8s  %8s\n",
			"ID", "CREATED", "DURATION", "RANGE", "AZIMUTH", "SPEED", "HEADING")
		for _, f := range flights {
			fmt.Printf("%-36s  %-19s  %7ds  %9.0fm  %7.2f°  %6.1f/s  %7.2f°\n",
				f.ID, f.CreatedAt.Local().Format("2006-01-02 15:04:05"), f.Plan.DurationS,
				f.Plan.Start.RangeM, f.Plan.Start.AzimuthDeg,
				f.Plan.Velocity.SpeedMPS, f.Plan.Velocity.HeadingDeg)
		}

	case "show":
		id := parseID(args, 1)
		f, err := repo.GetFlight(ctx, id)
		if err != nil {
			log.Fatalf("Failed to get flight: %v", err)
		}
		if f == nil {
			log.Fatalf("Flight %s not found", id)
		}
		fmt.Printf("Flight:   %s\n", f.ID)
		fmt.Printf("Created:  %s\n", f.CreatedAt.Local().Format(time.RFC3339))
		fmt.Printf("Duration: %d seconds (%d records)\n", f.Plan.DurationS, f.RecordCount)
		fmt.Printf("Start:    range %.1f m, azimuth %.3f°\n", f.Plan.Start.RangeM, f.Plan.Start.AzimuthDeg)
		fmt.Printf("Motion:   %.2f m/s, heading %.3f°\n", f.Plan.Velocity.SpeedMPS, f.Plan.Velocity.HeadingDeg)

	case "export":
		id := parseID(args, 1)
		if len(args) < 3 {
			log.Fatal("export needs a flight ID and an output file")
		}
		records, err := repo.LoadRecords(ctx, id)
		if err != nil {
			log.Fatalf("Failed to load records: %v", err)
		}
		if len(records) == 0 {
			log.Fatalf("Flight %s has no records", id)
		}
		if err := flightfile.SaveFile(args[2], slices.Values(records)); err != nil {
			log.Fatalf("Failed to write flight file: %v", err)
		}
		log.Printf("✓ Wrote %d records to %s", len(records), args[2])

	case "delete":
		id := parseID(args, 1)
		if err := repo.DeleteFlight(ctx, id); err != nil {
			log.Fatalf("Failed to delete flight: %v", err)
		}
		log.Printf("✓ Deleted flight %s", id)

	case "prune":
		n, err := database.DeleteFlightsOlderThan(ctx, *olderThan)
		if err != nil {
			log.Fatalf("Failed to prune flights: %v", err)
		}
		log.Printf("✓ Pruned %d flights older than %v", n, *olderThan)

	case "stats":
		stats, err := database.GetStats(ctx)
		if err != nil {
			log.Fatalf("Failed to get stats: %v", err)
		}
		fmt.Printf("Flights:        %v\n", stats["flights"])
		fmt.Printf("Flight records: %v\n", stats["flight_records"])

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}

func parseID(args []string, i int) uuid.UUID {
	if len(args) <= i {
		log.Fatalf("%s needs a flight ID", args[0])
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		log.Fatalf("Invalid flight ID %q: %v", args[i], err)
	}
	return id
}
