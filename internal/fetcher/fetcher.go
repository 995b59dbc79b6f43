package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/virtualtourist/internal"
	"codeberg.org/snonux/virtualtourist/internal/flickr"
	"codeberg.org/snonux/virtualtourist/internal/logger"
	"codeberg.org/snonux/virtualtourist/internal/metrics"
)

// ErrBatchInFlight is returned when a batch is requested for an album that
// already has one running
var ErrBatchInFlight = errors.New("fetcher: a batch is already in flight for this album")

// Transport searches and downloads. *flickr.Client implements it.
type Transport interface {
	Params(q flickr.SearchQuery) map[string]string
	Search(ctx context.Context, params map[string]string) (map[string]any, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// PageResolver finds the page count of a query and picks a page.
// *flickr.Resolver implements it.
type PageResolver interface {
	ResolveTotalPages(ctx context.Context, params map[string]string) (int, error)
	PickPage(totalPages int) int
}

// ImageSaver persists photo bytes and returns the storage key.
// *imagestore.Store implements it.
type ImageSaver interface {
	Save(data []byte, filename string) (string, error)
}

// Config configures a Fetcher
type Config struct {
	// Concurrency is the number of photos downloaded at once; 0 or 1 means
	// one after the other
	Concurrency int

	Metrics *metrics.Metrics
	Logger  *logger.Logger
}

// Fetcher runs batch fetches: resolve the page count, pick a random page,
// fetch it and download every photo on it into the image store
type Fetcher struct {
	transport   Transport
	resolver    PageResolver
	images      ImageSaver
	concurrency int
	metrics     *metrics.Metrics
	log         *logger.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func New(transport Transport, resolver PageResolver, images ImageSaver, cfg Config) *Fetcher {
	return &Fetcher{
		transport:   transport,
		resolver:    resolver,
		images:      images,
		concurrency: max(cfg.Concurrency, 1),
		metrics:     cfg.Metrics,
		log:         cfg.Logger.With("fetcher"),
		inFlight:    make(map[string]bool),
	}
}

// FetchBatch starts a batch for q and returns its session at once. At most
// one batch runs per non-empty albumKey; a second request for the same key
// fails with ErrBatchInFlight until the first one has emitted its terminal
// event. An empty albumKey is never guarded.
func (f *Fetcher) FetchBatch(ctx context.Context, albumKey string, q flickr.SearchQuery) (*Session, error) {
	if albumKey != "" {
		f.mu.Lock()
		if f.inFlight[albumKey] {
			f.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrBatchInFlight, albumKey)
		}
		f.inFlight[albumKey] = true
		f.mu.Unlock()
	}

	s := newSession(uuid.NewString(), albumKey, q)
	go f.run(ctx, s)

	return s, nil
}

// InFlight reports whether albumKey has a running batch
func (f *Fetcher) InFlight(albumKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight[albumKey]
}

func (f *Fetcher) release(albumKey string) {
	if albumKey == "" {
		return
	}
	f.mu.Lock()
	delete(f.inFlight, albumKey)
	f.mu.Unlock()
}

func (f *Fetcher) run(ctx context.Context, s *Session) {
	defer close(s.events)

	totalPages, err := f.resolver.ResolveTotalPages(ctx, f.transport.Params(s.query))
	if err != nil {
		f.fail(s, fmt.Errorf("failed to get page count: %w", err))
		return
	}

	s.setState(AwaitingPageFetch)
	pageNumber := f.resolver.PickPage(totalPages)

	doc, err := f.transport.Search(ctx, f.transport.Params(s.query.WithPage(pageNumber)))
	if err != nil {
		f.fail(s, fmt.Errorf("failed to fetch page %d: %w", pageNumber, err))
		return
	}

	page, err := flickr.ParsePage(doc)
	if err != nil {
		f.fail(s, fmt.Errorf("failed to read page %d: %w", pageNumber, err))
		return
	}
	if page.Total == 0 {
		f.fail(s, &flickr.NoResultsError{Page: pageNumber})
		return
	}

	refs := page.Photos
	if len(refs) > s.query.PerPage() {
		refs = refs[:s.query.PerPage()]
	}

	f.log.Info("batch %s: page %d of %d, %d photos", s.id, pageNumber, totalPages, len(refs))

	s.setState(EmittingItems)
	s.emit(Event{Kind: BatchStarted, Total: len(refs)})

	f.emitItems(ctx, s, refs)

	s.setState(Done)
	f.release(s.albumKey)
	f.metrics.BatchFinished(metrics.OutcomeCompleted)
	s.emit(Event{Kind: BatchCompleted})
}

func (f *Fetcher) fail(s *Session, err error) {
	f.log.Warning("batch %s failed: %v", s.id, err)

	s.setState(Failed)
	f.release(s.albumKey)
	f.metrics.BatchFinished(metrics.OutcomeFailed)
	s.emit(Event{Kind: BatchFailed, Err: err})
}

// emitItems processes refs with bounded concurrency and emits their events
// in index order. Each index has a one-slot channel so a finished download
// never waits for the consumer.
func (f *Fetcher) emitItems(ctx context.Context, s *Session, refs []flickr.RemotePhotoRef) {
	results := make([]chan Event, len(refs))
	for i := range results {
		results[i] = make(chan Event, 1)
	}

	go func() {
		var g errgroup.Group
		g.SetLimit(f.concurrency)
		for i, ref := range refs {
			g.Go(func() error {
				results[i] <- f.processItem(ctx, i, ref)
				return nil
			})
		}
		g.Wait()
	}()

	for i := range refs {
		s.emit(<-results[i])
	}
}

func (f *Fetcher) processItem(ctx context.Context, index int, ref flickr.RemotePhotoRef) Event {
	key, err := f.fetchItem(ctx, index, ref)
	if err != nil {
		f.log.Debug("photo %d failed: %v", index, err)
		f.metrics.ItemFinished(metrics.OutcomeFailed)
		return Event{Kind: ItemFailed, Index: index, Err: err}
	}

	f.metrics.ItemFinished(metrics.OutcomeSucceeded)
	return Event{Kind: ItemSucceeded, Index: index, StorageKey: key}
}

func (f *Fetcher) fetchItem(ctx context.Context, index int, ref flickr.RemotePhotoRef) (string, error) {
	if ref.URL == "" {
		return "", &flickr.ItemError{Index: index, Reason: "missing url"}
	}

	filename, err := internal.PhotoFilename(ref.URL)
	if err != nil {
		return "", &flickr.ItemError{Index: index, Reason: "invalid url", Err: err}
	}

	data, err := f.transport.Download(ctx, ref.URL)
	if err != nil {
		return "", &flickr.ItemError{Index: index, Reason: "download failed", Err: err}
	}
	if len(data) == 0 {
		return "", &flickr.ItemError{Index: index, Reason: "empty body"}
	}

	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", &flickr.ItemError{Index: index, Reason: "undecodable image", Err: err}
	}

	key, err := f.images.Save(data, filename)
	if err != nil {
		return "", &flickr.ItemError{Index: index, Reason: "save failed", Err: err}
	}

	return key, nil
}
