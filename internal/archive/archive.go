package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StateEntries are the names inside the state directory that make up one
// album set: the database with its WAL side files and the image directory
var StateEntries = []string{
	"virtualtourist.db",
	"virtualtourist.db-wal",
	"virtualtourist.db-shm",
	"images",
}

// ArchiveState moves the database and images of stateDir into
// stateDir/archive/state-<timestamp> and returns that path. The next run
// starts with no pins.
func ArchiveState(stateDir string) (string, error) {
	// Check if state directory exists
	if _, err := os.Stat(stateDir); os.IsNotExist(err) {
		return "", fmt.Errorf("state directory does not exist: %s", stateDir)
	}

	var present []string
	for _, name := range StateEntries {
		if _, err := os.Stat(filepath.Join(stateDir, name)); err == nil {
			present = append(present, name)
		}
	}
	if len(present) == 0 {
		return "", errors.New("nothing to archive")
	}

	archiveDir := filepath.Join(stateDir, "archive")

	// Generate timestamp
	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, "state-"+timestamp)

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, "state-"+timestamp)
	}

	if err := os.MkdirAll(archivePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	for _, name := range present {
		if err := os.Rename(filepath.Join(stateDir, name), filepath.Join(archivePath, name)); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", name, err)
		}
	}

	return archivePath, nil
}
