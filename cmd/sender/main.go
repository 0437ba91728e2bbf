package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/muesli/cancelreader"

	"github.com/unklstewy/asv-radar-sim/internal/logging"
	"github.com/unklstewy/asv-radar-sim/internal/metrics"
	"github.com/unklstewy/asv-radar-sim/internal/session"
	"github.com/unklstewy/asv-radar-sim/internal/sink"
	"github.com/unklstewy/asv-radar-sim/pkg/cadence"
	"github.com/unklstewy/asv-radar-sim/pkg/config"
)

const version = "0.1.0"

// Sender replays a generated flight to the receiving application, one
// record per period, while accepting operator commands on stdin.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	filePath := flag.String("file", "", "Flight file to send (default: generator output path from config)")
	flightID := flag.String("flight-id", "", "Send a flight stored in the database instead of a file")
	sinkType := flag.String("sink", "", "Record destination: console, json or udp (default from config)")
	addr := flag.String("addr", "", "Receiver host:port for the udp sink (default from config)")
	period := flag.Duration("period", 0, "Time between records (default from config)")
	exitOnComplete := flag.Bool("exit-on-complete", false, "Stop after the last record instead of waiting for 'stop'")
	metricsAddr := flag.String("metrics-addr", "", "Serve /metrics and /status on this address")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sender %s\n", version)
		return
	}

	if err := run(*configPath, *filePath, *flightID, *sinkType, *addr, *period, *exitOnComplete, *metricsAddr); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, filePath, flightID, sinkType, addr string, period time.Duration, exitOnComplete bool, metricsAddr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command line overrides
	if filePath == "" {
		filePath = cfg.Generator.OutputPath
	}
	if sinkType != "" {
		cfg.Sender.Sink.Type = sinkType
	}
	if addr != "" {
		cfg.Sender.Sink.Address = addr
	}
	if period > 0 {
		cfg.Sender.PeriodMillis = int(period / time.Millisecond)
	}
	if exitOnComplete {
		cfg.Sender.ExitOnComplete = true
	}
	if metricsAddr != "" {
		cfg.Metrics.Address = metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logFile, err := logging.Setup("sender", cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// Status lines share stdout with nothing else unless records are
	// written there as JSON.
	console := os.Stdout
	if cfg.Sender.Sink.Type == "json" {
		console = os.Stderr
	}
	fmt.Fprintln(console, "[main] Sender")
	if flightID != "" {
		fmt.Fprintf(console, "[main] Flight ID set to: %s\n", flightID)
	} else {
		fmt.Fprintf(console, "[main] File path set to: %s\n", filePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := loadFlight(ctx, filePath, flightID, cfg.Database)
	if err != nil {
		return err
	}
	log.Printf("✓ Loaded %d records", len(records))

	out, err := openSink(cfg.Sender, os.Stdout)
	if err != nil {
		return err
	}
	defer sink.Close(out)
	if cfg.Sender.Sink.Type == "udp" {
		log.Printf("✓ Sending to %s", cfg.Sender.Sink.Address)
	}

	m := metrics.New()
	out = m.InstrumentSink(out)

	input := openCommandInput(os.Stdin)
	cancelable, ok := input.(cancelreader.CancelReader)
	if ok {
		defer cancelable.Close()
	}

	ctrl := session.NewController(slices.Values(records), out, session.Config{
		Period:         cfg.Sender.Period(),
		Clock:          cadence.NewPacedClock(cfg.Sender.Period()),
		Console:        console,
		ExitOnComplete: cfg.Sender.ExitOnComplete,
		OnStateChange:  m.SetSessionState,
	})

	// Signals stop the session the same way the stop command does.
	context.AfterFunc(ctx, func() {
		ctrl.Stop()
		if cancelable != nil {
			cancelable.Cancel()
		}
	})

	if cfg.Metrics.Address != "" {
		srv := metrics.NewServer(cfg.Metrics.Address, m, func() any {
			return map[string]any{
				"state":     ctrl.State().String(),
				"records":   len(records),
				"period_ms": cfg.Sender.PeriodMillis,
				"sink":      cfg.Sender.Sink.Type,
			}
		})
		go func() {
			log.Printf("✓ Metrics listening on %s", cfg.Metrics.Address)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("✗ Metrics server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Metrics server shutdown error: %v", err)
			}
		}()
	}

	outcome, err := ctrl.Run(ctx, input)
	log.Printf("Session ended: %s after %d of %d records", outcome.Status, outcome.Emitted, len(records))
	return err
}
