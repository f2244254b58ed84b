package geo

import (
	"fmt"
	"math"
	"strconv"
)

// Package geo holds the geographic point type that flows from the map picker
// into the imagery pipeline.

// SeedPrecision is the number of decimal places we keep when deriving an
// imagery seed from a coordinate. 4 decimals is roughly 11 meters at the
// equator, which is well below the footprint of a single facade photo.
const SeedPrecision = 4

// Point is a WGS 84 coordinate selected on the map.
// Points are immutable values. A new selection replaces the previous point,
// it never mutates it.
type Point struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label,omitempty"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.Lat, p.Lng)
}

// IsValid returns true if the point is a representable WGS 84 coordinate
func (p Point) IsValid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// Rounded returns a copy of the point with both coordinates rounded to
// SeedPrecision decimals
func (p Point) Rounded() Point {
	return Point{
		Lat:   roundTo(p.Lat, SeedPrecision),
		Lng:   roundTo(p.Lng, SeedPrecision),
		Label: p.Label,
	}
}

// Seed returns a stable identifier for the rounded coordinate pair.
// The same point (to SeedPrecision decimals) always yields the same seed,
// which keeps remote facade imagery deterministic across repeated selections
// of the same location.
func (p Point) Seed() string {
	r := p.Rounded()
	return strconv.FormatFloat(r.Lat, 'f', SeedPrecision, 64) + "_" +
		strconv.FormatFloat(r.Lng, 'f', SeedPrecision, 64)
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
