// Package trajectory generates the radar track of a single aircraft flying
// a straight line at constant speed.
//
// A Track is a lazy, finite sequence: every record is derived directly from
// its sample index, so a track can be materialized into a file or streamed
// on demand, any number of times, with identical results.
package trajectory

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/unklstewy/asv-radar-sim/pkg/coordinates"
)

const (
	// MaxDurationS is the longest flight the generator accepts (1 hour)
	MaxDurationS = 3600

	// SampleIntervalS is the spacing between records, in seconds
	SampleIntervalS = 1
)

// ErrInvalidPlan is returned when a FlightPlan violates its invariants.
var ErrInvalidPlan = errors.New("invalid flight plan")

// FlightRecord is one sample of the simulated track.
type FlightRecord struct {
	// TSeconds is the elapsed time since the start of the flight
	TSeconds uint32 `json:"t_seconds"`

	// Position is the aircraft position in the radar frame
	Position coordinates.PolarPosition `json:"position"`
}

// FlightPlan holds the generator inputs.
// Plans are passed by value and never modified after construction.
type FlightPlan struct {
	// DurationS is the length of the flight in seconds
	DurationS uint32 `json:"duration_s"`

	// Start is the aircraft position at t=0
	Start coordinates.PolarPosition `json:"start"`

	// Velocity is held constant for the whole flight
	Velocity coordinates.Velocity `json:"velocity"`
}

// NewFlightPlan builds and validates a plan.
func NewFlightPlan(durationS uint32, start coordinates.PolarPosition, velocity coordinates.Velocity) (FlightPlan, error) {
	plan := FlightPlan{
		DurationS: durationS,
		Start:     start,
		Velocity:  velocity,
	}
	if err := plan.Validate(); err != nil {
		return FlightPlan{}, err
	}
	return plan, nil
}

// Validate checks the plan invariants. A zero duration is accepted here;
// rejecting it is left to the command line layer.
func (p FlightPlan) Validate() error {
	switch {
	case p.DurationS > MaxDurationS:
		return fmt.Errorf("%w: duration %d s exceeds %d s", ErrInvalidPlan, p.DurationS, MaxDurationS)
	case !isFinite(p.Start.RangeM) || p.Start.RangeM <= 0:
		return fmt.Errorf("%w: starting range must be positive, got %v", ErrInvalidPlan, p.Start.RangeM)
	case !isAngle(p.Start.AzimuthDeg):
		return fmt.Errorf("%w: starting azimuth must be in [0,360), got %v", ErrInvalidPlan, p.Start.AzimuthDeg)
	case !isFinite(p.Velocity.SpeedMPS) || p.Velocity.SpeedMPS < 0:
		return fmt.Errorf("%w: speed must be non-negative, got %v", ErrInvalidPlan, p.Velocity.SpeedMPS)
	case !isAngle(p.Velocity.HeadingDeg):
		return fmt.Errorf("%w: heading must be in [0,360), got %v", ErrInvalidPlan, p.Velocity.HeadingDeg)
	}
	return nil
}

// Track is the generated sequence of records for one plan.
type Track struct {
	plan   FlightPlan
	origin coordinates.Cartesian
}

// Generate validates plan and returns its track.
func Generate(plan FlightPlan) (*Track, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &Track{
		plan:   plan,
		origin: coordinates.ToCartesian(plan.Start),
	}, nil
}

// Plan returns the plan the track was generated from.
func (t *Track) Plan() FlightPlan {
	return t.plan
}

// Len returns the number of records, DurationS+1.
func (t *Track) Len() int {
	return int(t.plan.DurationS) + 1
}

// At returns the record for sample i. It panics if i is out of range,
// like a slice index.
func (t *Track) At(i int) FlightRecord {
	if i < 0 || i >= t.Len() {
		panic(fmt.Sprintf("trajectory: sample %d out of range [0,%d)", i, t.Len()))
	}
	return FlightRecord{
		TSeconds: uint32(i * SampleIntervalS),
		Position: t.positionAt(i),
	}
}

// originTolerance is the range, relative to the distances involved, below
// which a sample counts as directly over the radar.
const originTolerance = 1e-9

// positionAt advances the original start point by the full elapsed time
// rather than chaining from the previous sample, so rounding error does
// not accumulate over long flights.
func (t *Track) positionAt(i int) coordinates.PolarPosition {
	// The start position is returned untouched so that t=0 and stationary
	// tracks match the plan exactly, without a trig round trip.
	if i == 0 || t.plan.Velocity.SpeedMPS == 0 {
		return t.plan.Start
	}
	c, overhead := t.advance(i)
	if !overhead {
		return coordinates.ToPolar(c)
	}

	// Over the radar the bearing is noise: hold the azimuth of the last
	// sample that was clear of the origin.
	for j := i - 1; j > 0; j-- {
		if pc, over := t.advance(j); !over {
			return coordinates.PolarPosition{RangeM: 0, AzimuthDeg: coordinates.ToPolar(pc).AzimuthDeg}
		}
	}
	return coordinates.PolarPosition{RangeM: 0, AzimuthDeg: t.plan.Start.AzimuthDeg}
}

// advance returns the Cartesian position of sample i and whether it lies
// within rounding distance of the radar.
func (t *Track) advance(i int) (coordinates.Cartesian, bool) {
	elapsed := float64(i * SampleIntervalS)
	c := coordinates.Advance(t.origin, t.plan.Velocity, elapsed)
	scale := math.Max(t.plan.Start.RangeM, t.plan.Velocity.SpeedMPS*elapsed)
	return c, math.Hypot(c.X, c.Y) <= originTolerance*scale
}

// All returns an iterator over every record in time order.
// The iterator can be ranged over repeatedly.
func (t *Track) All() iter.Seq[FlightRecord] {
	return func(yield func(FlightRecord) bool) {
		for i := 0; i < t.Len(); i++ {
			if !yield(t.At(i)) {
				return
			}
		}
	}
}

// Records materializes the whole track.
func (t *Track) Records() []FlightRecord {
	records := make([]FlightRecord, 0, t.Len())
	for rec := range t.All() {
		records = append(records, rec)
	}
	return records
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isAngle(v float64) bool {
	return isFinite(v) && v >= 0 && v < coordinates.FullCircle
}
