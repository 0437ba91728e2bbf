package sink

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/unklstewy/asv-radar-sim/pkg/coordinates"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// Packet is the wire format of one transmitted record.
type Packet struct {
	// Seq counts packets from 1 within a session
	Seq uint32 `msgpack:"seq"`

	// TSeconds is the flight time of the record
	TSeconds uint32 `msgpack:"t"`

	RangeM     float64 `msgpack:"range_m"`
	AzimuthDeg float64 `msgpack:"azimuth_deg"`

	// SentUnixMilli is the wall-clock transmit time
	SentUnixMilli int64 `msgpack:"sent_ms"`
}

// Record returns the flight record carried by the packet.
func (p Packet) Record() trajectory.FlightRecord {
	return trajectory.FlightRecord{
		TSeconds: p.TSeconds,
		Position: coordinates.PolarPosition{RangeM: p.RangeM, AzimuthDeg: p.AzimuthDeg},
	}
}

// EncodePacket marshals p with msgpack.
func EncodePacket(p Packet) ([]byte, error) {
	return msgpack.Marshal(&p)
}

// DecodePacket unmarshals a msgpack packet.
func DecodePacket(b []byte) (Packet, error) {
	var p Packet
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return Packet{}, fmt.Errorf("failed to decode packet: %w", err)
	}
	return p, nil
}

// PacketSink writes each record as one msgpack packet. Every Send performs
// a single Write, so over UDP each record travels in its own datagram.
type PacketSink struct {
	w     io.Writer
	retry RetryConfig
	seq   uint32
	now   func() time.Time
}

// NewPacketSink returns a sink writing packets to w, retrying failed writes
// according to retry.
func NewPacketSink(w io.Writer, retry RetryConfig) *PacketSink {
	return &PacketSink{
		w:     w,
		retry: retry,
		now:   time.Now,
	}
}

// DialUDP connects a packet sink to a UDP receiver.
func DialUDP(addr string, retry RetryConfig) (*PacketSink, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial receiver %s: %w", addr, err)
	}
	return NewPacketSink(conn, retry), nil
}

// Send encodes and writes rec.
func (s *PacketSink) Send(rec trajectory.FlightRecord) error {
	s.seq++
	b, err := EncodePacket(Packet{
		Seq:           s.seq,
		TSeconds:      rec.TSeconds,
		RangeM:        rec.Position.RangeM,
		AzimuthDeg:    rec.Position.AzimuthDeg,
		SentUnixMilli: s.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode record %d: %w", rec.TSeconds, err)
	}

	return RetryWithBackoff(s.retry, func() error {
		n, err := s.w.Write(b)
		if err != nil {
			return err
		}
		if n != len(b) {
			return io.ErrShortWrite
		}
		return nil
	})
}

// Close closes the underlying writer if it is closable.
func (s *PacketSink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
