package session

import "sync/atomic"

// StopSignal is the cancellation token shared by the command loop and the
// emission loop of one session. It moves from unset to set exactly once.
type StopSignal struct {
	set atomic.Bool
}

// NewStopSignal returns an unset signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{}
}

// Stop sets the signal. It reports whether this call performed the
// transition; later calls are no-ops.
func (s *StopSignal) Stop() bool {
	return s.set.CompareAndSwap(false, true)
}

// Stopped reports whether the signal has been set.
func (s *StopSignal) Stopped() bool {
	return s.set.Load()
}
