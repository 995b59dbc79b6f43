package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound indicates that no image is stored under the key
	ErrNotFound = errors.New("imagestore: not found")

	// ErrInvalidKey indicates a key that is empty or would escape the store
	ErrInvalidKey = errors.New("imagestore: invalid key")
)

// Store keeps image files in one directory. The storage key of an image is
// its filename.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a store rooted at it
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the images
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under filename and returns its storage key. An existing
// file with the same name is replaced. The write goes through a temporary
// file so readers never see a partial image.
func (s *Store) Save(data []byte, filename string) (string, error) {
	if err := validateKey(filename); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write image %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close image %s: %w", filename, err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set image permissions: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(s.dir, filename)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to store image %s: %w", filename, err)
	}

	return filename, nil
}

// ReadPath returns the filesystem path of the image stored under key
func (s *Store) ReadPath(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, key)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat image %s: %w", key, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	return path, nil
}

// Read returns the bytes stored under key
func (s *Store) Read(key string) ([]byte, error) {
	path, err := s.ReadPath(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Delete removes the image stored under key. Deleting a missing key is not
// an error.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if strings.ContainsAny(key, `/\`) || filepath.Base(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
