// Package sink delivers flight records to the downstream receiver.
package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// Sink accepts records in transmission order.
// Implementations are called from a single goroutine.
type Sink interface {
	Send(rec trajectory.FlightRecord) error
}

// Func adapts a function to the Sink interface.
type Func func(rec trajectory.FlightRecord) error

// Send calls f.
func (f Func) Send(rec trajectory.FlightRecord) error {
	return f(rec)
}

// Discard accepts and drops every record.
var Discard Sink = Func(func(trajectory.FlightRecord) error { return nil })

// JSONLines writes one JSON object per record.
type JSONLines struct {
	enc *json.Encoder
}

// NewJSONLines returns a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// Send encodes rec as a single line.
func (s *JSONLines) Send(rec trajectory.FlightRecord) error {
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Multi fans a record out to several sinks in order. The first failure
// stops the fan-out and is returned.
type Multi []Sink

// Send forwards rec to every sink.
func (m Multi) Send(rec trajectory.FlightRecord) error {
	for _, s := range m {
		if err := s.Send(rec); err != nil {
			return err
		}
	}
	return nil
}

// Recorder keeps every record it receives. It is safe to read from another
// goroutine while sending.
type Recorder struct {
	mu      sync.Mutex
	records []trajectory.FlightRecord
}

// Send appends rec.
func (r *Recorder) Send(rec trajectory.FlightRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

// Records returns a copy of the received records.
func (r *Recorder) Records() []trajectory.FlightRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trajectory.FlightRecord(nil), r.records...)
}

// Close closes s if it holds a resource. Sinks without one are left alone.
func Close(s Sink) error {
	switch v := s.(type) {
	case io.Closer:
		return v.Close()
	case Multi:
		var errs []error
		for _, inner := range v {
			errs = append(errs, Close(inner))
		}
		return errors.Join(errs...)
	}
	return nil
}
