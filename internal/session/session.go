// Package session runs one sender session: a background goroutine replays a
// flight at a fixed cadence while the caller's goroutine reads operator
// commands, and both coordinate shutdown through a StopSignal.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muesli/cancelreader"
	"golang.org/x/sync/errgroup"

	"github.com/unklstewy/asv-radar-sim/internal/sink"
	"github.com/unklstewy/asv-radar-sim/pkg/cadence"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// State is the lifecycle state of a session.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrSessionReused is returned when Run is called on a controller that has
// already been started.
var ErrSessionReused = errors.New("session already started")

// SessionFault reports that the emission goroutine failed or terminated
// abnormally.
type SessionFault struct {
	Err error
}

func (f *SessionFault) Error() string {
	return "session fault: " + f.Err.Error()
}

func (f *SessionFault) Unwrap() error {
	return f.Err
}

// Config contains the session settings.
type Config struct {
	// Period is the time between transmitted records (default: 1 second)
	Period time.Duration

	// Clock paces the emission loop (default: cadence.SystemClock)
	Clock cadence.Clock

	// Console receives human-readable status lines (default: discarded)
	Console io.Writer

	// ExitOnComplete ends the session once every record has been sent,
	// provided the command reader can be canceled
	ExitOnComplete bool

	// OnStateChange is called after every state transition, from whichever
	// goroutine made it
	OnStateChange func(State)
}

// Controller owns one emission session. A controller can be run once.
type Controller struct {
	cfg     Config
	records iter.Seq[trajectory.FlightRecord]
	sink    sink.Sink
	stop    *StopSignal
	state   atomic.Int32
	console *console

	inputCanceled atomic.Bool

	// notifyMu orders OnStateChange calls made from different goroutines
	notifyMu sync.Mutex
}

// NewController creates a controller that will send records to s.
// The caller keeps ownership of s and must not close it before Run returns.
func NewController(records iter.Seq[trajectory.FlightRecord], s sink.Sink, cfg Config) *Controller {
	if cfg.Period <= 0 {
		cfg.Period = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = cadence.SystemClock{}
	}
	return &Controller{
		cfg:     cfg,
		records: records,
		sink:    s,
		stop:    NewStopSignal(),
		console: newConsole(cfg.Console),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// StopRequested reports whether the session's stop signal has been set.
func (c *Controller) StopRequested() bool {
	return c.stop.Stopped()
}

// Stop requests the session to stop, as the "stop" command does. It does
// not unblock a pending command read; cancel the reader for that.
func (c *Controller) Stop() {
	c.stop.Stop()
	if c.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		c.notify(Stopping)
	}
}

// Run starts the session and blocks until it has fully stopped.
//
// Records are emitted on a background goroutine while commands are read
// line by line on the calling goroutine. The session stops on the "stop"
// command, at the end of commands, or when ctx is canceled; in every case
// Run waits for the emission goroutine to exit before returning, so no
// record is sent after Run returns.
func (c *Controller) Run(ctx context.Context, commands io.Reader) (cadence.Outcome, error) {
	if !c.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return cadence.Outcome{}, ErrSessionReused
	}
	c.notify(Running)
	c.console.printf(tagMain, "Session started, type 'help' for commands")

	var (
		g       errgroup.Group
		outcome cadence.Outcome
	)
	g.Go(func() error {
		return c.transmit(ctx, commands, &outcome)
	})

	inputErr := c.readCommands(commands)
	c.Stop()

	// outcome is safe to read once Wait returns
	err := g.Wait()
	c.state.Store(int32(Stopped))
	c.notify(Stopped)
	c.console.printf(tagMain, "Session stopped (%s, %d records sent)", outcome.Status, outcome.Emitted)

	if inputErr != nil {
		err = errors.Join(err, fmt.Errorf("reading commands: %w", inputErr))
	}
	return outcome, err
}

// transmit runs on the background goroutine.
func (c *Controller) transmit(ctx context.Context, commands io.Reader, out *cadence.Outcome) (err error) {
	sent := 0
	defer func() {
		if r := recover(); r != nil {
			*out = cadence.Outcome{Status: cadence.Faulted, Emitted: sent}
			err = &SessionFault{Err: fmt.Errorf("transmission panicked: %v", r)}
			c.console.printf(tagBackground, "PANIC during transmission: %v", r)
			c.cancelInput(commands)
		}
	}()

	emit := func(rec trajectory.FlightRecord) error {
		c.console.printf(tagBackground, "Sending message %d (t=%ds, range=%.1fm, azimuth=%.3f°)",
			sent+1, rec.TSeconds, rec.Position.RangeM, rec.Position.AzimuthDeg)
		if err := c.sink.Send(rec); err != nil {
			return err
		}
		sent++
		return nil
	}
	shouldStop := func() bool {
		return c.stop.Stopped() || ctx.Err() != nil
	}

	pacing := cadence.Pacing{Period: c.cfg.Period, Clock: c.cfg.Clock}
	outcome, runErr := cadence.Run(pacing, c.records, emit, shouldStop)
	*out = outcome

	switch {
	case runErr != nil:
		c.console.printf(tagBackground, "Transmission failed: %v", runErr)
		if !c.cancelInput(commands) {
			c.console.printf(tagBackground, "Type 'stop' to end the session")
		}
		return &SessionFault{Err: runErr}
	case outcome.Status == cadence.Completed:
		c.console.printf(tagBackground, "All %d records sent", outcome.Emitted)
		if c.cfg.ExitOnComplete && c.cancelInput(commands) {
			return nil
		}
		c.console.printf(tagBackground, "Type 'stop' to end the session")
	default:
		c.console.printf(tagBackground, "Transmission stopped after %d records", outcome.Emitted)
	}
	return nil
}

// readCommands runs on the calling goroutine until "stop", end of input,
// or a read error.
func (c *Controller) readCommands(r io.Reader) error {
	if r == nil {
		return nil
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		switch cmd := strings.TrimSpace(scanner.Text()); cmd {
		case "help":
			c.console.printf(tagMain, "Commands: help, stop")
		case "stop":
			c.console.printf(tagMain, "Stop requested")
			return nil
		default:
			c.console.printf(tagMain, "Unhandled command: %s", cmd)
		}
	}

	err := scanner.Err()
	if err == nil || c.inputCanceled.Load() || errors.Is(err, cancelreader.ErrCanceled) {
		c.console.printf(tagMain, "Command input closed, stopping")
		return nil
	}
	return err
}

// cancelInput unblocks a pending command read if the reader supports it.
func (c *Controller) cancelInput(r io.Reader) bool {
	cr, ok := r.(interface{ Cancel() bool })
	if !ok {
		return false
	}
	c.inputCanceled.Store(true)
	return cr.Cancel()
}

// notify reports s unless the state has already moved past it, so a
// delayed Stopping never lands after Stopped.
func (c *Controller) notify(s State) {
	if c.cfg.OnStateChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if c.State() != s {
		return
	}
	c.cfg.OnStateChange(s)
}
