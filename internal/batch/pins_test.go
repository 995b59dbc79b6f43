package batch

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"codeberg.org/snonux/virtualtourist/internal/geo"
)

func TestReadPinFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		want        []PinEntry
		wantErr     string
	}{
		{
			name:        "empty file",
			fileContent: "",
			want:        nil,
		},
		{
			name:        "only whitespace and comments",
			fileContent: "   \n\t\r\n  # nothing here\n",
			want:        nil,
		},
		{
			name: "coordinates",
			fileContent: `37.8199,-122.4783
48.8584, 2.2945`,
			want: []PinEntry{
				{Line: 1, Coordinate: geo.Coordinate{Latitude: 37.8199, Longitude: -122.4783}},
				{Line: 2, Coordinate: geo.Coordinate{Latitude: 48.8584, Longitude: 2.2945}},
			},
		},
		{
			name: "comments and blank lines",
			fileContent: `# landmarks

  -33.8568, 151.2153   # Sydney Opera House

35.3606,138.7274`,
			want: []PinEntry{
				{Line: 3, Coordinate: geo.Coordinate{Latitude: -33.8568, Longitude: 151.2153}},
				{Line: 5, Coordinate: geo.Coordinate{Latitude: 35.3606, Longitude: 138.7274}},
			},
		},
		{
			name:        "windows line endings",
			fileContent: "1,2\r\n3,4\r\n",
			want: []PinEntry{
				{Line: 1, Coordinate: geo.Coordinate{Latitude: 1, Longitude: 2}},
				{Line: 2, Coordinate: geo.Coordinate{Latitude: 3, Longitude: 4}},
			},
		},
		{
			name:        "missing longitude",
			fileContent: "1,2\n45.5\n",
			wantErr:     ":2: expected latitude,longitude",
		},
		{
			name:        "not a number",
			fileContent: "north,2",
			wantErr:     `invalid latitude "north"`,
		},
		{
			name:        "out of range",
			fileContent: "95,10",
			wantErr:     "out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pins.txt")
			if err := os.WriteFile(path, []byte(tt.fileContent), 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			got, err := ReadPinFile(path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ReadPinFile() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadPinFile() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadPinFile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadPinFile_Missing(t *testing.T) {
	if _, err := ReadPinFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		input   string
		want    geo.Coordinate
		wantErr bool
	}{
		{"0,0", geo.Coordinate{}, false},
		{"-90,-180", geo.Coordinate{Latitude: -90, Longitude: -180}, false},
		{" 90 , 180 ", geo.Coordinate{Latitude: 90, Longitude: 180}, false},
		{"10,181", geo.Coordinate{}, true},
		{"1,2,3", geo.Coordinate{}, true},
		{"", geo.Coordinate{}, true},
		{"1,east", geo.Coordinate{}, true},
	}

	for _, tt := range tests {
		got, err := ParseCoordinate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCoordinate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCoordinate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
