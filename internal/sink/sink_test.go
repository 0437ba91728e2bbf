package sink

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/unklstewy/asv-radar-sim/pkg/coordinates"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

func record(t uint32, r, az float64) trajectory.FlightRecord {
	return trajectory.FlightRecord{
		TSeconds: t,
		Position: coordinates.PolarPosition{RangeM: r, AzimuthDeg: az},
	}
}

// datagramWriter records each Write as a separate datagram.
type datagramWriter struct {
	datagrams [][]byte
	failures  int
	closed    bool
}

func (w *datagramWriter) Write(b []byte) (int, error) {
	if w.failures > 0 {
		w.failures--
		return 0, errors.New("connection refused")
	}
	w.datagrams = append(w.datagrams, append([]byte(nil), b...))
	return len(b), nil
}

func (w *datagramWriter) Close() error {
	w.closed = true
	return nil
}

// TestJSONLines tests line-oriented JSON output.
func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLines(&buf)

	want := []trajectory.FlightRecord{record(0, 1000, 90), record(1, 1004.98, 84.29)}
	for _, rec := range want {
		if err := s.Send(rec); err != nil {
			t.Fatalf("Failed to send: %v", err)
		}
	}

	scanner := bufio.NewScanner(&buf)
	var got []trajectory.FlightRecord
	for scanner.Scan() {
		var rec trajectory.FlightRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("Failed to parse line %q: %v", scanner.Text(), err)
		}
		got = append(got, rec)
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Line %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

// TestPacketSink tests one datagram per record with increasing sequence numbers.
func TestPacketSink(t *testing.T) {
	w := &datagramWriter{}
	s := NewPacketSink(w, NoRetry())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	records := []trajectory.FlightRecord{record(0, 1000, 90), record(1, 1005, 84.3), record(2, 1019.8, 78.7)}
	for _, rec := range records {
		if err := s.Send(rec); err != nil {
			t.Fatalf("Failed to send: %v", err)
		}
	}

	if len(w.datagrams) != len(records) {
		t.Fatalf("Expected %d datagrams, got %d", len(records), len(w.datagrams))
	}
	for i, b := range w.datagrams {
		p, err := DecodePacket(b)
		if err != nil {
			t.Fatalf("Failed to decode datagram %d: %v", i, err)
		}
		if p.Seq != uint32(i+1) {
			t.Errorf("Expected seq %d, got %d", i+1, p.Seq)
		}
		if p.Record() != records[i] {
			t.Errorf("Expected record %+v, got %+v", records[i], p.Record())
		}
		if p.SentUnixMilli != fixed.UnixMilli() {
			t.Errorf("Expected timestamp %d, got %d", fixed.UnixMilli(), p.SentUnixMilli)
		}
	}

	if err := Close(s); err != nil {
		t.Errorf("Failed to close: %v", err)
	}
	if !w.closed {
		t.Error("Expected underlying writer to be closed")
	}
}

// TestPacketSinkRetries tests that transient write failures are retried.
func TestPacketSinkRetries(t *testing.T) {
	t.Run("Recovers within retry budget", func(t *testing.T) {
		w := &datagramWriter{failures: 2}
		s := NewPacketSink(w, RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2})
		if err := s.Send(record(0, 10, 0)); err != nil {
			t.Fatalf("Expected success after retries, got: %v", err)
		}
		if len(w.datagrams) != 1 {
			t.Errorf("Expected 1 datagram, got %d", len(w.datagrams))
		}
	})

	t.Run("Fails when budget exhausted", func(t *testing.T) {
		w := &datagramWriter{failures: 5}
		s := NewPacketSink(w, RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond, Multiplier: 2})
		if err := s.Send(record(0, 10, 0)); err == nil {
			t.Error("Expected error after exhausting retries")
		}
	})
}

// TestDialUDP tests delivery to a real UDP listener.
func TestDialUDP(t *testing.T) {
	listener, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("UDP not available: %v", err)
	}
	defer listener.Close()

	s, err := DialUDP(listener.LocalAddr().String(), NoRetry())
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer s.Close()

	want := record(7, 4321.5, 271.25)
	if err := s.Send(want); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}

	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1500)
	n, _, err := listener.ReadFrom(buf)
	if err != nil {
		t.Fatalf("Failed to receive datagram: %v", err)
	}
	p, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if p.Record() != want {
		t.Errorf("Expected %+v, got %+v", want, p.Record())
	}
}

// TestMulti tests fan-out order and failure short-circuit.
func TestMulti(t *testing.T) {
	var order []string
	named := func(name string, err error) Sink {
		return Func(func(trajectory.FlightRecord) error {
			order = append(order, name)
			return err
		})
	}

	boom := errors.New("boom")
	m := Multi{named("a", nil), named("b", boom), named("c", nil)}
	if err := m.Send(record(0, 1, 0)); !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("Expected [a b], got %v", order)
	}
}

// TestRecorder tests record capture.
func TestRecorder(t *testing.T) {
	r := &Recorder{}
	r.Send(record(0, 1, 2))
	r.Send(record(1, 3, 4))

	got := r.Records()
	if len(got) != 2 || got[1].TSeconds != 1 {
		t.Errorf("Expected 2 records ending at t=1, got %+v", got)
	}
	if err := Close(r); err != nil {
		t.Errorf("Expected no error closing recorder, got %v", err)
	}
}
