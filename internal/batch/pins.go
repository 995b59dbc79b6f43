package batch

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"codeberg.org/snonux/virtualtourist/internal/geo"
)

// PinEntry is one coordinate read from a pin file
type PinEntry struct {
	Line       int
	Coordinate geo.Coordinate
}

// ReadPinFile reads coordinates from a file, one "latitude,longitude" per
// line. Blank lines and lines starting with '#' are skipped, and anything
// after a '#' is a comment:
//
//	# Golden Gate Bridge
//	37.8199, -122.4783
//	48.8584,2.2945   # Eiffel Tower
func ReadPinFile(filename string) ([]PinEntry, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read pin file: %w", err)
	}
	defer file.Close()

	var entries []PinEntry
	scanner := bufio.NewScanner(file)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		c, err := ParseCoordinate(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
		entries = append(entries, PinEntry{Line: lineNo, Coordinate: c})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pin file: %w", err)
	}

	return entries, nil
}

// ParseCoordinate parses "latitude,longitude" and checks the ranges
func ParseCoordinate(s string) (geo.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geo.Coordinate{}, fmt.Errorf("expected latitude,longitude, got %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude %q", strings.TrimSpace(parts[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude %q", strings.TrimSpace(parts[1]))
	}

	c := geo.Coordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return geo.Coordinate{}, fmt.Errorf("coordinate out of range: %s", c)
	}
	return c, nil
}
