package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"

	"github.com/unklstewy/asv-radar-sim/pkg/coordinates"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

const (
	version = "0.1.0"
	author  = "Russ Goetz, russgoetz@gmail.com"

	maxStartingRangeM = 500000
)

// errVersion is returned by parseArgs when -version was given.
var errVersion = errors.New("version requested")

// cliArgs holds the generator command line.
type cliArgs struct {
	// Flight inputs
	durationS  uint
	rangeM     uint
	azimuthDeg float64
	speedMPS   float64
	heading    float64

	// Output; empty values fall back to the config file
	outPath    string
	store      string
	configPath string
}

// parseArgs parses and validates the command line. Errors are already
// described on stderr together with the usage text.
func parseArgs(args []string, stderr io.Writer) (cliArgs, error) {
	var a cliArgs
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "generate %s (%s)\n", version, author)
		fmt.Fprintln(stderr, "Generates a data file containing the flight of an aircraft in the airspace of an ASV.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage: generate -duration N -range M -azimuth DEG -speed MPS -direction DEG [options]")
		fs.PrintDefaults()
	}

	fs.UintVar(&a.durationS, "duration", 0, "Duration of the flight in seconds, 1 to 3600 (1 hour)")
	fs.UintVar(&a.rangeM, "range", 0, "Starting range from the radar in meters, 1 to 500000")
	fs.Float64Var(&a.azimuthDeg, "azimuth", 0, "Starting azimuth from the radar in degrees [0, 360)")
	fs.Float64Var(&a.speedMPS, "speed", 0, "Speed of the aircraft in m/s")
	fs.Float64Var(&a.heading, "direction", 0, "Direction of travel in degrees [0, 360)")
	fs.StringVar(&a.outPath, "out", "", "Output flight file (default from config)")
	fs.StringVar(&a.store, "store", "", "Where to store the flight: file, db or both (default from config)")
	fs.StringVar(&a.configPath, "config", "configs/config.json", "Path to configuration file")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliArgs{}, err
	}
	if *showVersion {
		return cliArgs{}, errVersion
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(stderr, err)
		fs.Usage()
		return cliArgs{}, err
	}

	if err := a.validate(); err != nil {
		fmt.Fprintf(stderr, "invalid input: %v\n\n", err)
		fs.Usage()
		return cliArgs{}, err
	}
	return a, nil
}

// validate checks the ranges the command line accepts. They are tighter
// than what the trajectory package allows.
func (a cliArgs) validate() error {
	switch {
	case a.durationS < 1 || a.durationS > trajectory.MaxDurationS:
		return fmt.Errorf("-duration must be between 1 and %d seconds, got %d", trajectory.MaxDurationS, a.durationS)
	case a.rangeM < 1 || a.rangeM > maxStartingRangeM:
		return fmt.Errorf("-range must be between 1 and %d meters, got %d", maxStartingRangeM, a.rangeM)
	case !isBearing(a.azimuthDeg):
		return fmt.Errorf("-azimuth must be in [0, 360), got %v", a.azimuthDeg)
	case math.IsNaN(a.speedMPS) || math.IsInf(a.speedMPS, 0) || a.speedMPS < 0:
		return fmt.Errorf("-speed must be a non-negative number, got %v", a.speedMPS)
	case !isBearing(a.heading):
		return fmt.Errorf("-direction must be in [0, 360), got %v", a.heading)
	}
	switch a.store {
	case "", "file", "db", "both":
	default:
		return fmt.Errorf("-store must be file, db or both, got %q", a.store)
	}
	return nil
}

// plan converts the arguments into a flight plan.
func (a cliArgs) plan() (trajectory.FlightPlan, error) {
	return trajectory.NewFlightPlan(
		uint32(a.durationS),
		coordinates.PolarPosition{RangeM: float64(a.rangeM), AzimuthDeg: a.azimuthDeg},
		coordinates.Velocity{SpeedMPS: a.speedMPS, HeadingDeg: a.heading},
	)
}

func isBearing(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v < coordinates.FullCircle
}
