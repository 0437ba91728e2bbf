// Package coordinates converts between the radar's polar frame and a flat
// Cartesian working frame centred on the radar.
//
// Both frames share one angular convention: angles are measured in degrees
// clockwise from the forward (north) axis. In the Cartesian frame Y points
// north/forward and X points east/right, so a target at azimuth 90° sits on
// the positive X axis.
package coordinates

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// FullCircle is one revolution in degrees
	FullCircle = 360.0
)

// PolarPosition is a target position as reported by the radar.
type PolarPosition struct {
	// RangeM is the straight-line distance from the radar in meters
	RangeM float64 `json:"range_m"`

	// AzimuthDeg is the bearing from the radar in degrees [0, 360)
	// 0 = forward/north, 90 = right/east
	AzimuthDeg float64 `json:"azimuth_deg"`
}

// Velocity is an aircraft motion vector.
type Velocity struct {
	// SpeedMPS is the ground speed in meters per second
	SpeedMPS float64 `json:"speed_mps"`

	// HeadingDeg is the direction of travel in degrees [0, 360),
	// using the same convention as azimuth
	HeadingDeg float64 `json:"heading_deg"`
}

// Cartesian is a point in the radar-centred working frame, in meters.
// X is east/right, Y is north/forward.
type Cartesian = r2.Vec

// NormalizeAzimuth ensures azimuth is in the range [0, 360).
func NormalizeAzimuth(azimuth float64) float64 {
	az := math.Mod(azimuth, FullCircle)
	if az < 0 {
		az += FullCircle
	}
	// A tiny negative input can round up to exactly 360 after the add.
	if az >= FullCircle {
		az = 0
	}
	return az
}

// ToCartesian converts a polar radar position into the Cartesian frame.
func ToCartesian(p PolarPosition) Cartesian {
	azRad := p.AzimuthDeg * DegreesToRadians
	return Cartesian{
		X: p.RangeM * math.Sin(azRad),
		Y: p.RangeM * math.Cos(azRad),
	}
}

// ToPolar converts a Cartesian point back into the radar's polar frame.
// Azimuth is undefined at the origin; it is reported as 0 there.
// Use ToPolarFrom to hold a previous azimuth instead.
func ToPolar(c Cartesian) PolarPosition {
	return ToPolarFrom(c, 0)
}

// ToPolarFrom converts a Cartesian point into the polar frame, reporting
// fallbackAzimuth when the point lies exactly on the origin.
func ToPolarFrom(c Cartesian, fallbackAzimuth float64) PolarPosition {
	r := math.Hypot(c.X, c.Y)
	if r == 0 {
		return PolarPosition{RangeM: 0, AzimuthDeg: NormalizeAzimuth(fallbackAzimuth)}
	}
	return PolarPosition{
		RangeM:     r,
		AzimuthDeg: NormalizeAzimuth(math.Atan2(c.X, c.Y) * RadiansToDegrees),
	}
}

// VelocityVector returns the Cartesian components of v in meters per second.
func VelocityVector(v Velocity) Cartesian {
	hRad := v.HeadingDeg * DegreesToRadians
	return Cartesian{
		X: v.SpeedMPS * math.Sin(hRad),
		Y: v.SpeedMPS * math.Cos(hRad),
	}
}

// Advance moves point c along velocity v for dtSeconds.
// Range is never clamped; a track may pass through the origin.
func Advance(c Cartesian, v Velocity, dtSeconds float64) Cartesian {
	return r2.Add(c, r2.Scale(dtSeconds, VelocityVector(v)))
}
