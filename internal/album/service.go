package album

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"codeberg.org/snonux/virtualtourist/internal/fetcher"
	"codeberg.org/snonux/virtualtourist/internal/flickr"
	"codeberg.org/snonux/virtualtourist/internal/geo"
	"codeberg.org/snonux/virtualtourist/internal/imagestore"
	"codeberg.org/snonux/virtualtourist/internal/logger"
	"codeberg.org/snonux/virtualtourist/internal/store"
)

// DefaultPhotosPerPin is the size of a pin's album
const DefaultPhotosPerPin = 20

// ErrInvalidCoordinate is returned for a latitude or longitude out of range
var ErrInvalidCoordinate = errors.New("album: coordinate out of range")

// BatchFetcher starts photo batches. *fetcher.Fetcher implements it.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, albumKey string, q flickr.SearchQuery) (*fetcher.Session, error)
	InFlight(albumKey string) bool
}

// EventFunc observes every event of a batch after it was applied to the
// collection
type EventFunc func(ev fetcher.Event, c *Collection)

// Config configures a Service
type Config struct {
	PhotosPerPin int
	Logger       *logger.Logger
}

// Service ties pins to photo batches. It owns all writes to the record
// store and the image store for the batches it starts. A pin is busy from
// the moment a new collection starts clearing it until its last photo
// record is written.
type Service struct {
	records      *store.Store
	images       *imagestore.Store
	fetcher      BatchFetcher
	photosPerPin int
	log          *logger.Logger

	mu   sync.Mutex
	busy map[string]bool
}

func NewService(records *store.Store, images *imagestore.Store, f BatchFetcher, cfg Config) *Service {
	if cfg.PhotosPerPin <= 0 {
		cfg.PhotosPerPin = DefaultPhotosPerPin
	}
	return &Service{
		records:      records,
		images:       images,
		fetcher:      f,
		photosPerPin: min(cfg.PhotosPerPin, flickr.MaxPerPage),
		log:          cfg.Logger.With("album"),
		busy:         make(map[string]bool),
	}
}

// acquire marks the pin busy or fails with fetcher.ErrBatchInFlight
func (s *Service) acquire(pinID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy[pinID] || s.fetcher.InFlight(pinID) {
		return fmt.Errorf("%w: %s", fetcher.ErrBatchInFlight, pinID)
	}
	s.busy[pinID] = true
	return nil
}

func (s *Service) release(pinID string) {
	s.mu.Lock()
	delete(s.busy, pinID)
	s.mu.Unlock()
}

// AddPin drops a pin at c
func (s *Service) AddPin(ctx context.Context, c geo.Coordinate) (store.Pin, error) {
	if !c.Valid() {
		return store.Pin{}, fmt.Errorf("%w: %s", ErrInvalidCoordinate, c)
	}
	return s.records.CreatePin(ctx, c.Latitude, c.Longitude)
}

func (s *Service) Pins(ctx context.Context) ([]store.Pin, error) {
	return s.records.ListPins(ctx)
}

// Photos returns the pin's stored photos by position
func (s *Service) Photos(ctx context.Context, pinID string) ([]store.Photo, error) {
	if _, err := s.records.GetPin(ctx, pinID); err != nil {
		return nil, err
	}
	return s.records.PhotosForPin(ctx, pinID)
}

// ImagePath returns where the photo's image file lives
func (s *Service) ImagePath(p store.Photo) (string, error) {
	return s.images.ReadPath(p.StorageKey)
}

// DeletePin removes the pin, its photo records and their image files
func (s *Service) DeletePin(ctx context.Context, pinID string) error {
	if err := s.acquire(pinID); err != nil {
		return err
	}
	defer s.release(pinID)

	photos, err := s.records.PhotosForPin(ctx, pinID)
	if err != nil {
		return err
	}
	if err := s.records.DeletePin(ctx, pinID); err != nil {
		return err
	}

	s.deleteFiles(ctx, photos)
	return nil
}

// NewCollection replaces the pin's album with a fresh random page of
// photos. The old photos and their files are removed first. Every event is
// applied to the returned collection and then passed to onEvent, which may
// be nil. The error is non-nil when the batch failed.
func (s *Service) NewCollection(ctx context.Context, pinID string, onEvent EventFunc) (*Collection, error) {
	pin, err := s.records.GetPin(ctx, pinID)
	if err != nil {
		return nil, err
	}
	if err := s.acquire(pinID); err != nil {
		return nil, err
	}
	defer s.release(pinID)

	if err := s.clearPhotos(ctx, pinID); err != nil {
		return nil, err
	}

	box := geo.BoxAround(geo.Coordinate{Latitude: pin.Latitude, Longitude: pin.Longitude})
	session, err := s.fetcher.FetchBatch(ctx, pinID, flickr.BoxQuery(box, s.photosPerPin))
	if err != nil {
		return nil, err
	}

	return s.consume(session, onEvent, func(ev fetcher.Event) error {
		_, err := s.records.CreatePhoto(ctx, pinID, ev.BatchID, ev.Index, ev.StorageKey)
		return err
	})
}

// SearchText downloads one random page of photos matching text into the
// image store without recording them against a pin
func (s *Service) SearchText(ctx context.Context, text string, count int, onEvent EventFunc) (*Collection, error) {
	q, err := flickr.TextQuery(text, count)
	if err != nil {
		return nil, err
	}

	session, err := s.fetcher.FetchBatch(ctx, "text:"+q.Text(), q)
	if err != nil {
		return nil, err
	}

	return s.consume(session, onEvent, nil)
}

// consume drains the session into a collection. persist, when set, runs for
// every stored photo; a failure turns that slot into a failed one.
func (s *Service) consume(session *fetcher.Session, onEvent EventFunc, persist func(fetcher.Event) error) (*Collection, error) {
	c := &Collection{BatchID: session.ID()}

	for ev := range session.Events() {
		if ev.Kind == fetcher.ItemSucceeded && persist != nil {
			if err := persist(ev); err != nil {
				s.log.Error("failed to record photo %d of batch %s: %v", ev.Index, ev.BatchID, err)
				ev = fetcher.Event{
					BatchID: ev.BatchID,
					Kind:    fetcher.ItemFailed,
					Index:   ev.Index,
					Err:     &flickr.ItemError{Index: ev.Index, Reason: "record failed", Err: err},
				}
			}
		}

		c.Apply(ev)
		if onEvent != nil {
			onEvent(ev, c)
		}
	}

	if c.Err != nil {
		return c, c.Err
	}
	return c, nil
}

func (s *Service) clearPhotos(ctx context.Context, pinID string) error {
	photos, err := s.records.PhotosForPin(ctx, pinID)
	if err != nil {
		return err
	}
	if _, err := s.records.DeletePhotosForPin(ctx, pinID); err != nil {
		return err
	}

	s.deleteFiles(ctx, photos)
	return nil
}

// deleteFiles removes image files no longer referenced by any record. Two
// photos can share a filename, so a file still in use elsewhere is kept.
func (s *Service) deleteFiles(ctx context.Context, photos []store.Photo) {
	for _, p := range photos {
		inUse, err := s.records.StorageKeyInUse(ctx, p.StorageKey)
		if err != nil {
			s.log.Warning("failed to check image %s: %v", p.StorageKey, err)
			continue
		}
		if inUse {
			continue
		}
		if err := s.images.Delete(p.StorageKey); err != nil {
			s.log.Warning("failed to delete image %s: %v", p.StorageKey, err)
		}
	}
}
