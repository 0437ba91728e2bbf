// Package flightfile stores a generated track as a flat CSV file, one record
// per row in time order, with a header row of column names.
package flightfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/unklstewy/asv-radar-sim/pkg/coordinates"
	"github.com/unklstewy/asv-radar-sim/pkg/trajectory"
)

// Header is the first row of every flight file.
var Header = []string{"t_seconds", "range_m", "azimuth_deg"}

// ErrMalformed is returned when a flight file cannot be parsed.
var ErrMalformed = errors.New("malformed flight file")

// Write writes records as CSV. Floats use the shortest representation that
// parses back to the same value.
func Write(w io.Writer, records iter.Seq[trajectory.FlightRecord]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for rec := range records {
		row := []string{
			strconv.FormatUint(uint64(rec.TSeconds), 10),
			strconv.FormatFloat(rec.Position.RangeM, 'g', -1, 64),
			strconv.FormatFloat(rec.Position.AzimuthDeg, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record t=%d: %w", rec.TSeconds, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a flight file. Rows must be strictly increasing in time and
// carry a finite non-negative range and an azimuth in [0,360).
func Read(r io.Reader) ([]trajectory.FlightRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("%w: expected column %d to be %q, got %q", ErrMalformed, i+1, name, header[i])
		}
	}

	var records []trajectory.FlightRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line, err)
		}
		if n := len(records); n > 0 && rec.TSeconds <= records[n-1].TSeconds {
			return nil, fmt.Errorf("%w: line %d: time %d does not follow %d", ErrMalformed, line, rec.TSeconds, records[n-1].TSeconds)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (trajectory.FlightRecord, error) {
	t, err := strconv.ParseUint(row[0], 10, 32)
	if err != nil {
		return trajectory.FlightRecord{}, fmt.Errorf("invalid time %q", row[0])
	}
	rangeM, err := strconv.ParseFloat(row[1], 64)
	if err != nil || math.IsNaN(rangeM) || math.IsInf(rangeM, 0) || rangeM < 0 {
		return trajectory.FlightRecord{}, fmt.Errorf("invalid range %q", row[1])
	}
	az, err := strconv.ParseFloat(row[2], 64)
	if err != nil || math.IsNaN(az) || az < 0 || az >= coordinates.FullCircle {
		return trajectory.FlightRecord{}, fmt.Errorf("invalid azimuth %q", row[2])
	}
	return trajectory.FlightRecord{
		TSeconds: uint32(t),
		Position: coordinates.PolarPosition{RangeM: rangeM, AzimuthDeg: az},
	}, nil
}

// SaveFile writes records to path, creating parent directories. The file
// is written to a temporary name first and renamed into place.
func SaveFile(path string, records iter.Seq[trajectory.FlightRecord]) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create flight file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	// CreateTemp makes the file owner-only; flight files are shared
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set flight file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write flight file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save flight file: %w", err)
	}
	return nil
}

// LoadFile reads the flight file at path.
func LoadFile(path string) ([]trajectory.FlightRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flight file: %w", err)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
