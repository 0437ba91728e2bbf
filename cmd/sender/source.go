package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/muesli/cancelreader"

	"github.com/unklstewy/asv-radar-sim/internal/db"
	"github.com/unklstewy/asv-radar-sim/internal/flightfile"
	"github.com/unklstewy/asv-radar-sim/internal/sink"
	"github.com/unklstewy/asv-radar-sim/pkg/config"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// openSink builds the record destination. stdout receives JSON lines for
// the json sink. The returned sink must be released with sink.Close.
func openSink(cfg config.SenderConfig, stdout io.Writer) (sink.Sink, error) {
	switch cfg.Sink.Type {
	case "", "console":
		return sink.Discard, nil
	case "json":
		return sink.NewJSONLines(stdout), nil
	case "udp":
		retry := sink.DefaultRetryConfig()
		retry.MaxRetries = cfg.Retry.MaxRetries
		retry.InitialDelay = time.Duration(cfg.Retry.InitialDelayMillis) * time.Millisecond
		retry.MaxDelay = time.Duration(cfg.Retry.MaxDelayMillis) * time.Millisecond
		return sink.DialUDP(cfg.Sink.Address, retry)
	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Sink.Type)
	}
}

// loadFlight reads the records to replay, from a flight file or, when
// flightID is set, from the database.
func loadFlight(ctx context.Context, path, flightID string, dbCfg config.DatabaseConfig) ([]trajectory.FlightRecord, error) {
	if flightID == "" {
		return flightfile.LoadFile(path)
	}

	id, err := uuid.Parse(flightID)
	if err != nil {
		return nil, fmt.Errorf("invalid flight ID %q: %w", flightID, err)
	}

	database, err := db.ReconnectWithRetry(dbCfg, 3, time.Second)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	repo := db.NewFlightRepository(database)
	flight, err := repo.GetFlight(ctx, id)
	if err != nil {
		return nil, err
	}
	if flight == nil {
		return nil, fmt.Errorf("flight %s not found", id)
	}
	return repo.LoadRecords(ctx, id)
}

// openCommandInput wraps f so a pending read can be canceled. Inputs the
// platform cannot poll, such as a redirected regular file, are read
// directly; they reach end of input on their own.
func openCommandInput(f *os.File) io.Reader {
	r, err := cancelreader.NewReader(f)
	if err != nil {
		log.Printf("Command input is not cancelable (%v), reading it directly", err)
		return f
	}
	return r
}
