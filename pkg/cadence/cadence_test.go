package cadence

import (
	"errors"
	"slices"
	"testing"
	"time"
)

// fakeClock records sleeps without blocking.
type fakeClock struct {
	sleeps  []time.Duration
	onSleep func(n int)
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep(len(c.sleeps))
	}
}

func collect(out *[]int) func(int) error {
	return func(v int) error {
		*out = append(*out, v)
		return nil
	}
}

// TestRunCompleted tests that an unstopped run emits every item in order.
func TestRunCompleted(t *testing.T) {
	clock := &fakeClock{}
	items := []int{10, 20, 30, 40, 50}
	var got []int

	outcome, err := Run(Pacing{Period: time.Second, Clock: clock}, slices.Values(items), collect(&got), func() bool { return false })
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Status != Completed {
		t.Errorf("Expected Completed, got %v", outcome.Status)
	}
	if outcome.Emitted != len(items) {
		t.Errorf("Expected %d emitted, got %d", len(items), outcome.Emitted)
	}
	if !slices.Equal(got, items) {
		t.Errorf("Expected %v, got %v", items, got)
	}

	// One sleep between each pair of items, none before the first or after the last
	if len(clock.sleeps) != len(items)-1 {
		t.Errorf("Expected %d sleeps, got %d", len(items)-1, len(clock.sleeps))
	}
	for _, d := range clock.sleeps {
		if d != time.Second {
			t.Errorf("Expected sleep of 1s, got %v", d)
		}
	}
}

// TestRunStoppedBeforeFirstTick tests that a pre-set stop emits nothing.
func TestRunStoppedBeforeFirstTick(t *testing.T) {
	clock := &fakeClock{}
	var got []int

	outcome, err := Run(Pacing{Period: time.Second, Clock: clock}, slices.Values([]int{1, 2, 3}), collect(&got), func() bool { return true })
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	at, stopped := outcome.StoppedAt()
	if !stopped || at != 0 {
		t.Errorf("Expected Stopped(0), got %v at %d", outcome.Status, at)
	}
	if len(got) != 0 {
		t.Errorf("Expected no items emitted, got %v", got)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("Expected no sleeps, got %d", len(clock.sleeps))
	}
}

// TestRunStopObservedAfterWaking tests that a stop raised during a sleep
// is honored before the next item.
func TestRunStopObservedAfterWaking(t *testing.T) {
	stop := false
	clock := &fakeClock{
		onSleep: func(n int) {
			if n == 2 {
				stop = true
			}
		},
	}
	var got []int

	outcome, err := Run(Pacing{Period: time.Second, Clock: clock}, slices.Values([]int{1, 2, 3, 4, 5}), collect(&got), func() bool { return stop })
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	at, stopped := outcome.StoppedAt()
	if !stopped || at != 2 {
		t.Errorf("Expected Stopped(2), got %v at %d", outcome.Status, at)
	}
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("Expected [1 2], got %v", got)
	}
}

// TestRunEmitFailure tests that a failing consumer surfaces a SchedulerFault.
func TestRunEmitFailure(t *testing.T) {
	sinkErr := errors.New("sink closed")
	var got []int
	emit := func(v int) error {
		if v == 3 {
			return sinkErr
		}
		got = append(got, v)
		return nil
	}

	outcome, err := Run(Pacing{Clock: &fakeClock{}}, slices.Values([]int{1, 2, 3, 4}), emit, nil)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var fault *SchedulerFault
	if !errors.As(err, &fault) {
		t.Fatalf("Expected SchedulerFault, got %T", err)
	}
	if fault.Index != 2 {
		t.Errorf("Expected fault at index 2, got %d", fault.Index)
	}
	if !errors.Is(err, sinkErr) {
		t.Error("Expected fault to wrap the sink error")
	}
	if outcome.Status != Faulted || outcome.Emitted != 2 {
		t.Errorf("Expected Faulted with 2 emitted, got %v with %d", outcome.Status, outcome.Emitted)
	}
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("Expected [1 2], got %v", got)
	}
}

// TestRunEmpty tests an empty sequence.
func TestRunEmpty(t *testing.T) {
	outcome, err := Run(Pacing{Clock: &fakeClock{}}, slices.Values([]int(nil)), collect(new([]int)), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if outcome.Status != Completed || outcome.Emitted != 0 {
		t.Errorf("Expected Completed with 0 emitted, got %+v", outcome)
	}
}

// TestStatusString tests status names.
func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		Completed:  "completed",
		Stopped:    "stopped",
		Faulted:    "faulted",
		Status(42): "Status(42)",
	}
	for status, want := range tests {
		if got := status.String(); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

// TestPacedClock tests that the paced clock holds the cadence.
func TestPacedClock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping timing test in short mode")
	}

	period := 20 * time.Millisecond
	clock := NewPacedClock(period)

	start := time.Now()
	for i := 0; i < 5; i++ {
		// Simulated emission work shorter than the period
		time.Sleep(5 * time.Millisecond)
		clock.Sleep(period)
	}
	elapsed := time.Since(start)

	// Five periods; emission time is absorbed rather than added
	if elapsed < 4*period {
		t.Errorf("Expected at least %v, got %v", 4*period, elapsed)
	}
	if elapsed > 5*period+5*time.Millisecond+50*time.Millisecond {
		t.Errorf("Expected cadence close to %v, got %v", 5*period, elapsed)
	}
}

// TestPacedClockZeroPeriod tests that a zero period does not block.
func TestPacedClockZeroPeriod(t *testing.T) {
	clock := NewPacedClock(0)
	done := make(chan struct{})
	go func() {
		clock.Sleep(0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected zero-period sleep to return immediately")
	}
}
