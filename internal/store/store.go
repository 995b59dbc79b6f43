package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound indicates that the requested record does not exist
var ErrNotFound = errors.New("store: not found")

// Pin is a dropped map pin
type Pin struct {
	ID        string
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}

// Photo is a stored image that belongs to a pin. Position is the slot index
// the photo had in the batch that fetched it.
type Photo struct {
	ID         string
	PinID      string
	BatchID    string
	Position   int
	StorageKey string
	CreatedAt  time.Time
}

// Store keeps pins and photos in SQLite. Deleting a pin deletes its photos.
type Store struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{conn: conn}

	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pins (
		id TEXT PRIMARY KEY,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		pin_id TEXT NOT NULL,
		batch_id TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		storage_key TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (pin_id) REFERENCES pins(id) ON DELETE CASCADE,
		UNIQUE (pin_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_photos_pin_id ON photos(pin_id);
	CREATE INDEX IF NOT EXISTS idx_photos_storage_key ON photos(storage_key);
	`

	_, err := s.conn.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// CreatePin stores a new pin at the given coordinate
func (s *Store) CreatePin(ctx context.Context, latitude, longitude float64) (Pin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pin := Pin{
		ID:        uuid.NewString(),
		Latitude:  latitude,
		Longitude: longitude,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO pins (id, latitude, longitude, created_at) VALUES (?, ?, ?, ?)`,
		pin.ID, pin.Latitude, pin.Longitude, pin.CreatedAt,
	)
	if err != nil {
		return Pin{}, fmt.Errorf("failed to create pin: %w", err)
	}

	return pin, nil
}

func (s *Store) GetPin(ctx context.Context, id string) (Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pin Pin
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, latitude, longitude, created_at FROM pins WHERE id = ?`, id,
	).Scan(&pin.ID, &pin.Latitude, &pin.Longitude, &pin.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Pin{}, fmt.Errorf("pin %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Pin{}, fmt.Errorf("failed to get pin: %w", err)
	}

	return pin, nil
}

// ListPins returns all pins, oldest first
func (s *Store) ListPins(ctx context.Context) ([]Pin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, latitude, longitude, created_at FROM pins ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer rows.Close()

	var pins []Pin
	for rows.Next() {
		var pin Pin
		if err := rows.Scan(&pin.ID, &pin.Latitude, &pin.Longitude, &pin.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pins = append(pins, pin)
	}

	return pins, rows.Err()
}

// DeletePin removes a pin and, through the foreign key, its photos
func (s *Store) DeletePin(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx, `DELETE FROM pins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("pin %s: %w", id, ErrNotFound)
	}

	return nil
}

// CreatePhoto records a stored image at position in the pin's album
func (s *Store) CreatePhoto(ctx context.Context, pinID, batchID string, position int, storageKey string) (Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	photo := Photo{
		ID:         uuid.NewString(),
		PinID:      pinID,
		BatchID:    batchID,
		Position:   position,
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO photos (id, pin_id, batch_id, position, storage_key, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		photo.ID, photo.PinID, photo.BatchID, photo.Position, photo.StorageKey, photo.CreatedAt,
	)
	if err != nil {
		return Photo{}, fmt.Errorf("failed to create photo: %w", err)
	}

	return photo, nil
}

// PhotosForPin returns the pin's photos ordered by position
func (s *Store) PhotosForPin(ctx context.Context, pinID string) ([]Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, pin_id, batch_id, position, storage_key, created_at
		FROM photos WHERE pin_id = ? ORDER BY position`, pinID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.ID, &p.PinID, &p.BatchID, &p.Position, &p.StorageKey, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}

	return photos, rows.Err()
}

// DeletePhotosForPin removes all photo records of a pin and returns how many
// were deleted
func (s *Store) DeletePhotosForPin(ctx context.Context, pinID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.conn.ExecContext(ctx, `DELETE FROM photos WHERE pin_id = ?`, pinID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete photos: %w", err)
	}
	return res.RowsAffected()
}

// StorageKeyInUse reports whether any photo record references key
func (s *Store) StorageKeyInUse(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos WHERE storage_key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count photos: %w", err)
	}
	return n > 0, nil
}
