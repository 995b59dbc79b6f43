package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// recordingRunner records the calls the commands make.
type recordingRunner struct {
	calls []string
	err   error

	lat, lon      float64
	newCollection bool
	count         int
}

func (r *recordingRunner) record(call string) error {
	r.calls = append(r.calls, call)
	return r.err
}

func (r *recordingRunner) AddPin(latitude, longitude float64) error {
	r.lat, r.lon = latitude, longitude
	return r.record("AddPin")
}

func (r *recordingRunner) ListPins() error { return r.record("ListPins") }

func (r *recordingRunner) DeletePin(pinID string) error { return r.record("DeletePin " + pinID) }

func (r *recordingRunner) ImportPins(filename string) error {
	return r.record("ImportPins " + filename)
}

func (r *recordingRunner) Album(pinID string, newCollection bool) error {
	r.newCollection = newCollection
	return r.record("Album " + pinID)
}

func (r *recordingRunner) Photos(pinID string) error { return r.record("Photos " + pinID) }

func (r *recordingRunner) Search(text string, count int) error {
	r.count = count
	return r.record("Search " + text)
}

func (r *recordingRunner) Archive() error { return r.record("Archive") }

func execute(t *testing.T, runner Runner, args ...string) (*Flags, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	flags := NewFlags()
	cmd := CreateRootCommand(flags, runner)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return flags, cmd.Execute()
}

func TestCreateRootCommand(t *testing.T) {
	flags := NewFlags()
	cmd := CreateRootCommand(flags, &recordingRunner{})

	// Test basic command properties
	if cmd.Use != "virtualtourist" {
		t.Errorf("Expected Use to be 'virtualtourist', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "Flickr") {
		t.Errorf("Expected Short description to mention Flickr")
	}

	// Test that flags are set up
	flagTests := []string{
		"config", "state-dir", "log-level", "metrics-file",
		"base-url", "timeout", "max-page", "rpm", "page-cache-ttl",
		"breaker-failures", "breaker-cooldown",
		"photos", "concurrency", "max-image-bytes",
	}

	for _, name := range flagTests {
		t.Run("flag_"+name, func(t *testing.T) {
			if cmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("Expected flag %s to exist", name)
			}
		})
	}

	// Test that subcommands are set up
	for _, name := range []string{"pin", "album", "photos", "search", "archive"} {
		t.Run("command_"+name, func(t *testing.T) {
			found, _, err := cmd.Find([]string{name})
			if err != nil || found.Name() != name {
				t.Errorf("Expected subcommand %s, got %v (%v)", name, found, err)
			}
		})
	}
}

func TestSetupFlags(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{}
	flags := NewFlags()

	setupFlags(cmd, flags)

	stateFlag := cmd.PersistentFlags().Lookup("state-dir")
	if stateFlag == nil {
		t.Fatal("state-dir flag not found")
	}

	home, _ := os.UserHomeDir()
	expectedDefault := filepath.Join(home, ".local", "state", "virtualtourist")
	if stateFlag.DefValue != expectedDefault {
		t.Errorf("Expected default state dir to be %s, got %s", expectedDefault, stateFlag.DefValue)
	}

	maxPage := cmd.PersistentFlags().Lookup("max-page")
	if maxPage == nil {
		t.Fatal("max-page flag not found")
	}
	if maxPage.DefValue != "40" {
		t.Errorf("Expected default max page to be 40, got %s", maxPage.DefValue)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"pin add", []string{"pin", "add", "48.8584,2.2945"}, "AddPin"},
		{"pin add two args", []string{"pin", "add", "--", "-33.8568", "151.2153"}, "AddPin"},
		{"pin list", []string{"pin", "list"}, "ListPins"},
		{"pin ls", []string{"pin", "ls"}, "ListPins"},
		{"pin delete", []string{"pin", "delete", "7"}, "DeletePin 7"},
		{"pin rm", []string{"pin", "rm", "7"}, "DeletePin 7"},
		{"pin import", []string{"pin", "import", "pins.txt"}, "ImportPins pins.txt"},
		{"album", []string{"album", "3"}, "Album 3"},
		{"photos", []string{"photos", "3"}, "Photos 3"},
		{"search", []string{"search", "golden", "gate"}, "Search golden gate"},
		{"archive", []string{"archive"}, "Archive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{}
			if _, err := execute(t, runner, tt.args...); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(runner.calls) != 1 || runner.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", runner.calls, tt.want)
			}
		})
	}
}

func TestPinAddCoordinate(t *testing.T) {
	runner := &recordingRunner{}
	if _, err := execute(t, runner, "pin", "add", "--", "-33.8568", "151.2153"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if runner.lat != -33.8568 || runner.lon != 151.2153 {
		t.Errorf("AddPin(%v, %v), want (-33.8568, 151.2153)", runner.lat, runner.lon)
	}
}

func TestPinAddInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"pin", "add", "91,0"},
		{"pin", "add", "north,east"},
		{"pin", "add"},
	} {
		runner := &recordingRunner{}
		if _, err := execute(t, runner, args...); err == nil {
			t.Errorf("Execute(%v) expected error", args)
		}
		if len(runner.calls) != 0 {
			t.Errorf("Execute(%v) called runner: %v", args, runner.calls)
		}
	}
}

func TestAlbumNewFlag(t *testing.T) {
	runner := &recordingRunner{}
	if _, err := execute(t, runner, "album", "--new", "3"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !runner.newCollection {
		t.Error("Expected --new to request a new collection")
	}
}

func TestSearchCountFlag(t *testing.T) {
	runner := &recordingRunner{}
	if _, err := execute(t, runner, "search", "-n", "5", "lighthouse"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if runner.count != 5 {
		t.Errorf("count = %d, want 5", runner.count)
	}
}

func TestRunnerErrorPropagates(t *testing.T) {
	runner := &recordingRunner{err: errors.New("boom")}
	if _, err := execute(t, runner, "pin", "list"); err == nil || err.Error() != "boom" {
		t.Errorf("Execute() error = %v, want boom", err)
	}
}

func TestFlagsBindToViper(t *testing.T) {
	runner := &recordingRunner{}
	_, err := execute(t, runner, "--timeout", "5s", "--photos", "12", "--state-dir", "/tmp/vt", "pin", "list")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := viper.GetDuration("flickr.timeout"); got != 5*time.Second {
		t.Errorf("flickr.timeout = %v, want 5s", got)
	}
	if got := viper.GetInt("album.photos_per_pin"); got != 12 {
		t.Errorf("album.photos_per_pin = %d, want 12", got)
	}
	if got := viper.GetString("storage.state_dir"); got != "/tmp/vt" {
		t.Errorf("storage.state_dir = %q, want /tmp/vt", got)
	}
	if got := viper.GetInt("flickr.max_page"); got != 40 {
		t.Errorf("flickr.max_page = %d, want default 40", got)
	}
}

func TestInitConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
	content := `flickr:
  api_key: test-key
  max_page: 10
album:
  photos_per_pin: 8`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}

	InitConfig(cfgPath)

	if got := viper.GetString("flickr.api_key"); got != "test-key" {
		t.Errorf("flickr.api_key = %q, want test-key", got)
	}
	if got := viper.GetInt("flickr.max_page"); got != 10 {
		t.Errorf("flickr.max_page = %d, want 10", got)
	}
	if got := viper.GetInt("album.photos_per_pin"); got != 8 {
		t.Errorf("album.photos_per_pin = %d, want 8", got)
	}
}

func TestInitConfigEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIRTUALTOURIST_FETCH_CONCURRENCY", "4")

	InitConfig("")

	if got := viper.GetInt("fetch.concurrency"); got != 4 {
		t.Errorf("fetch.concurrency = %d, want 4", got)
	}
}

func TestGetFlickrKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("FLICKR_API_KEY", "")
	viper.Set("flickr.api_key", "config-key")
	if got := GetFlickrKey(); got != "config-key" {
		t.Errorf("GetFlickrKey() = %q, want config-key", got)
	}

	t.Setenv("FLICKR_API_KEY", "env-key")
	if got := GetFlickrKey(); got != "env-key" {
		t.Errorf("GetFlickrKey() = %q, want env-key", got)
	}
}
