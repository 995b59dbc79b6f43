package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/virtualtourist/internal/testutil"
)

func TestArchiveState(t *testing.T) {
	stateDir := testutil.CreateTestDirectory(t)

	testutil.CreateTestFile(t, filepath.Join(stateDir, "virtualtourist.db"), []byte("db"))
	testutil.CreateTestFile(t, filepath.Join(stateDir, "images", "1_0_m.jpg"), []byte("jpeg"))
	testutil.CreateTestFile(t, filepath.Join(stateDir, "unrelated.txt"), []byte("keep"))

	archivePath, err := ArchiveState(stateDir)
	if err != nil {
		t.Fatalf("ArchiveState failed: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(archivePath), "state-") {
		t.Errorf("Archived directory name doesn't start with 'state-': %s", archivePath)
	}
	if filepath.Dir(archivePath) != filepath.Join(stateDir, "archive") {
		t.Errorf("archive created in unexpected place: %s", archivePath)
	}

	// Moved away from the state dir
	testutil.AssertFileNotExists(t, filepath.Join(stateDir, "virtualtourist.db"))
	testutil.AssertFileNotExists(t, filepath.Join(stateDir, "images"))

	// And present in the archive
	testutil.AssertFileContent(t, filepath.Join(archivePath, "virtualtourist.db"), []byte("db"))
	testutil.AssertFileContent(t, filepath.Join(archivePath, "images", "1_0_m.jpg"), []byte("jpeg"))

	// Other files stay where they are
	testutil.AssertFileExists(t, filepath.Join(stateDir, "unrelated.txt"))
}

func TestArchiveState_NonExistentDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := ArchiveState(filepath.Join(tmpDir, "nonexistent"))
	if err == nil {
		t.Fatal("Expected error for non-existent directory")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected 'does not exist' error, got: %v", err)
	}
}

func TestArchiveState_Empty(t *testing.T) {
	stateDir := t.TempDir()

	if _, err := ArchiveState(stateDir); err == nil {
		t.Error("Expected error when there is nothing to archive")
	}
}

func TestArchiveState_MultipleArchives(t *testing.T) {
	stateDir := t.TempDir()

	for i := 0; i < 2; i++ {
		testutil.CreateTestFile(t, filepath.Join(stateDir, "virtualtourist.db"), []byte{byte(i)})

		if _, err := ArchiveState(stateDir); err != nil {
			t.Fatalf("ArchiveState failed on iteration %d: %v", i, err)
		}

		// Small delay to ensure different timestamps
		if i == 0 {
			time.Sleep(1100 * time.Millisecond)
		}
	}

	entries, err := os.ReadDir(filepath.Join(stateDir, "archive"))
	if err != nil {
		t.Fatalf("Failed to read archive directory: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 archives, got %d", len(entries))
	}
}
