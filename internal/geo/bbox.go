package geo

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Half extents of the search box around a pin, in degrees
	BoxHalfWidth  = 1.0
	BoxHalfHeight = 1.0

	LatMin = -90.0
	LatMax = 90.0
	LonMin = -180.0
	LonMax = 180.0
)

// Coordinate is a WGS 84 position
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether the coordinate lies in the latitude/longitude domain
func (c Coordinate) Valid() bool {
	return c.Latitude >= LatMin && c.Latitude <= LatMax &&
		c.Longitude >= LonMin && c.Longitude <= LonMax
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s,%s", formatDegrees(c.Latitude), formatDegrees(c.Longitude))
}

// BoundingBox is a rectangular search filter
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// BoxAround returns the search box centred on c. Each side extends by the half
// extents and is clamped (never wrapped) to the valid domain. Out-of-range
// input is the caller's problem.
func BoxAround(c Coordinate) BoundingBox {
	return BoundingBox{
		MinLon: max(c.Longitude-BoxHalfWidth, LonMin),
		MinLat: max(c.Latitude-BoxHalfHeight, LatMin),
		MaxLon: min(c.Longitude+BoxHalfWidth, LonMax),
		MaxLat: min(c.Latitude+BoxHalfHeight, LatMax),
	}
}

// String encodes the box as min_lon,min_lat,max_lon,max_lat
func (b BoundingBox) String() string {
	parts := []string{
		formatDegrees(b.MinLon),
		formatDegrees(b.MinLat),
		formatDegrees(b.MaxLon),
		formatDegrees(b.MaxLat),
	}
	return strings.Join(parts, ",")
}

// EncodeBBox is shorthand for BoxAround(c).String()
func EncodeBBox(c Coordinate) string {
	return BoxAround(c).String()
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
