// Package cadence replays a finite, ordered sequence at a fixed real-time
// pace.
//
// Stopping is cooperative: the stop condition is polled before each item,
// immediately after the scheduler wakes from its inter-item sleep. A sleep
// in progress is never interrupted, so the worst-case latency between a
// stop request and the scheduler returning is one full period.
package cadence

import (
	"fmt"
	"iter"
	"time"
)

// Status reports how a run ended.
type Status int

const (
	// Completed means every item was emitted
	Completed Status = iota

	// Stopped means the stop condition ended the run early
	Stopped

	// Faulted means the emit callback returned an error
	Faulted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result of a run.
type Outcome struct {
	Status Status

	// Emitted is the number of items successfully emitted. For a stopped
	// run it is also the index of the first item that was not emitted.
	Emitted int
}

// StoppedAt returns the index at which a stopped run ended.
func (o Outcome) StoppedAt() (int, bool) {
	return o.Emitted, o.Status == Stopped
}

// SchedulerFault is returned when the emit callback fails.
type SchedulerFault struct {
	// Index is the position of the item whose emission failed
	Index int
	Err   error
}

func (f *SchedulerFault) Error() string {
	return fmt.Sprintf("emitting item %d: %v", f.Index, f.Err)
}

func (f *SchedulerFault) Unwrap() error {
	return f.Err
}

// Pacing configures the emission cadence.
type Pacing struct {
	// Period is the time between consecutive emissions
	Period time.Duration

	// Clock performs the sleeps; nil means SystemClock
	Clock Clock
}

// Run emits each item of items, in order, once per period.
//
// Before emitting an item Run calls shouldStop; if it reports true the run
// ends without emitting that item. No sleep happens before the first item
// or after the last one. A nil shouldStop never stops.
func Run[T any](p Pacing, items iter.Seq[T], emit func(T) error, shouldStop func() bool) (Outcome, error) {
	clock := p.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	if shouldStop == nil {
		shouldStop = func() bool { return false }
	}

	emitted := 0
	for item := range items {
		if emitted > 0 {
			clock.Sleep(p.Period)
		}
		if shouldStop() {
			return Outcome{Status: Stopped, Emitted: emitted}, nil
		}
		if err := emit(item); err != nil {
			return Outcome{Status: Faulted, Emitted: emitted}, &SchedulerFault{Index: emitted, Err: err}
		}
		emitted++
	}
	return Outcome{Status: Completed, Emitted: emitted}, nil
}
