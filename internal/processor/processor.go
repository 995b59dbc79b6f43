package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"codeberg.org/snonux/virtualtourist/internal/album"
	"codeberg.org/snonux/virtualtourist/internal/archive"
	"codeberg.org/snonux/virtualtourist/internal/batch"
	"codeberg.org/snonux/virtualtourist/internal/cli"
	"codeberg.org/snonux/virtualtourist/internal/fetcher"
	"codeberg.org/snonux/virtualtourist/internal/flickr"
	"codeberg.org/snonux/virtualtourist/internal/geo"
	"codeberg.org/snonux/virtualtourist/internal/imagestore"
	"codeberg.org/snonux/virtualtourist/internal/logger"
	"codeberg.org/snonux/virtualtourist/internal/metrics"
	"codeberg.org/snonux/virtualtourist/internal/store"
)

const (
	databaseFile = "virtualtourist.db"
	imagesDir    = "images"
)

// ErrMissingAPIKey is returned when a command needs Flickr but no key is
// configured
var ErrMissingAPIKey = errors.New("flickr API key not set: export FLICKR_API_KEY or set flickr.api_key in the config file")

// Processor runs the commands against the state directory. The stores and
// the Flickr client are opened on first use.
type Processor struct {
	ctx   context.Context
	flags *cli.Flags

	log     *logger.Logger
	metrics *metrics.Metrics
	records *store.Store
	service *album.Service
}

// NewProcessor creates a processor. ctx bounds every network request.
func NewProcessor(ctx context.Context, flags *cli.Flags) *Processor {
	return &Processor{ctx: ctx, flags: flags}
}

// stateDir returns the configured state directory
func (p *Processor) stateDir() string {
	return stringSetting("storage.state_dir", p.flags.StateDir)
}

// open creates the state directory and wires the pipeline
func (p *Processor) open() error {
	if p.service != nil {
		return nil
	}

	p.log = logger.NewStderr(logger.ParseLevel(stringSetting("log.level", p.flags.LogLevel)))
	p.metrics = metrics.New()

	stateDir := p.stateDir()
	if stateDir == "" {
		return fmt.Errorf("no state directory configured")
	}
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	records, err := store.Open(filepath.Join(stateDir, databaseFile))
	if err != nil {
		return err
	}
	images, err := imagestore.New(filepath.Join(stateDir, imagesDir))
	if err != nil {
		records.Close()
		return err
	}

	client := flickr.NewClient(flickr.Config{
		BaseURL:           stringSetting("flickr.base_url", p.flags.BaseURL),
		APIKey:            cli.GetFlickrKey(),
		Timeout:           durationSetting("flickr.timeout", p.flags.Timeout),
		RequestsPerMinute: intSetting("flickr.requests_per_minute", p.flags.RequestsPerMinute),
		BreakerFailures:   intSetting("flickr.breaker_failures", p.flags.BreakerFailures),
		BreakerCooldown:   durationSetting("flickr.breaker_cooldown", p.flags.BreakerCooldown),
		MaxImageBytes:     int64Setting("fetch.max_image_bytes", p.flags.MaxImageBytes),
		Metrics:           p.metrics,
		Logger:            p.log,
	})
	resolver := flickr.NewResolver(client, flickr.ResolverConfig{
		MaxPage:  intSetting("flickr.max_page", p.flags.MaxPage),
		CacheTTL: durationSetting("flickr.page_cache_ttl", p.flags.PageCacheTTL),
	})
	f := fetcher.New(client, resolver, images, fetcher.Config{
		Concurrency: intSetting("fetch.concurrency", p.flags.Concurrency),
		Metrics:     p.metrics,
		Logger:      p.log,
	})

	p.records = records
	p.service = album.NewService(records, images, f, album.Config{
		PhotosPerPin: intSetting("album.photos_per_pin", p.flags.PhotosPerPin),
		Logger:       p.log,
	})

	p.log.Debug("state directory %s", stateDir)
	return nil
}

// Close writes the metrics textfile, if configured, and closes the database
func (p *Processor) Close() error {
	if p.records == nil {
		return nil
	}

	var errs []error
	if path := stringSetting("metrics.textfile", p.flags.MetricsFile); path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if err := p.records.Close(); err != nil {
		errs = append(errs, err)
	}

	p.records = nil
	p.service = nil
	return errors.Join(errs...)
}

// AddPin drops a pin and prints its ID
func (p *Processor) AddPin(latitude, longitude float64) error {
	if err := p.open(); err != nil {
		return err
	}

	pin, err := p.service.AddPin(p.ctx, geo.Coordinate{Latitude: latitude, Longitude: longitude})
	if err != nil {
		return err
	}

	fmt.Printf("Added pin %s at %s\n", pin.ID, coordinate(pin))
	return nil
}

// ImportPins drops a pin for every coordinate in a pin file
func (p *Processor) ImportPins(filename string) error {
	entries, err := batch.ReadPinFile(filename)
	if err != nil {
		return err
	}
	if err := p.open(); err != nil {
		return err
	}

	for _, entry := range entries {
		pin, err := p.service.AddPin(p.ctx, entry.Coordinate)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", filename, entry.Line, err)
		}
		fmt.Printf("Added pin %s at %s\n", pin.ID, coordinate(pin))
	}

	fmt.Printf("Imported %d pins from %s\n", len(entries), filename)
	return nil
}

// ListPins prints every pin with its number of photos
func (p *Processor) ListPins() error {
	if err := p.open(); err != nil {
		return err
	}

	pins, err := p.service.Pins(p.ctx)
	if err != nil {
		return err
	}
	if len(pins) == 0 {
		fmt.Println("No pins yet. Drop one with: virtualtourist pin add <lat,lon>")
		return nil
	}

	fmt.Printf("%-36s  %-22s  %6s  %s\n", "ID", "COORDINATE", "PHOTOS", "CREATED")
	for _, pin := range pins {
		photos, err := p.service.Photos(p.ctx, pin.ID)
		if err != nil {
			return err
		}
		fmt.Printf("%-36s  %-22s  %6d  %s\n",
			pin.ID, coordinate(pin), len(photos), pin.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

// DeletePin removes a pin with its photos
func (p *Processor) DeletePin(pinID string) error {
	if err := p.open(); err != nil {
		return err
	}

	pin, err := p.resolvePin(pinID)
	if err != nil {
		return err
	}
	if err := p.service.DeletePin(p.ctx, pin.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted pin %s\n", pin.ID)
	return nil
}

// Album prints the pin's album. A pin without photos, or newCollection,
// fetches a new random collection first.
func (p *Processor) Album(pinID string, newCollection bool) error {
	if err := p.open(); err != nil {
		return err
	}

	pin, err := p.resolvePin(pinID)
	if err != nil {
		return err
	}

	photos, err := p.service.Photos(p.ctx, pin.ID)
	if err != nil {
		return err
	}
	if len(photos) > 0 && !newCollection {
		return p.printPhotos(pin, photos)
	}

	if cli.GetFlickrKey() == "" {
		return ErrMissingAPIKey
	}

	fmt.Printf("Fetching a new collection for pin %s at %s\n", pin.ID, coordinate(pin))
	c, err := p.service.NewCollection(p.ctx, pin.ID, printEvent)
	if err != nil {
		return err
	}
	printSummary(c)

	photos, err = p.service.Photos(p.ctx, pin.ID)
	if err != nil {
		return err
	}
	return p.printPhotos(pin, photos)
}

// Photos prints the stored photos of a pin
func (p *Processor) Photos(pinID string) error {
	if err := p.open(); err != nil {
		return err
	}

	pin, err := p.resolvePin(pinID)
	if err != nil {
		return err
	}
	photos, err := p.service.Photos(p.ctx, pin.ID)
	if err != nil {
		return err
	}
	return p.printPhotos(pin, photos)
}

// Search downloads a random page of photos matching text
func (p *Processor) Search(text string, count int) error {
	if cli.GetFlickrKey() == "" {
		return ErrMissingAPIKey
	}
	if err := p.open(); err != nil {
		return err
	}

	fmt.Printf("Searching photos of %q\n", text)
	c, err := p.service.SearchText(p.ctx, text, count, printEvent)
	if err != nil {
		return err
	}
	printSummary(c)

	for _, slot := range c.Slots {
		if slot.State == album.SlotLoaded {
			fmt.Println(filepath.Join(p.stateDir(), imagesDir, slot.StorageKey))
		}
	}
	return nil
}

// Archive moves the database and images aside. Nothing may be open.
func (p *Processor) Archive() error {
	if err := p.Close(); err != nil {
		return err
	}

	dest, err := archive.ArchiveState(p.stateDir())
	if err != nil {
		return fmt.Errorf("failed to archive state: %w", err)
	}

	fmt.Printf("Archived state to %s\n", dest)
	return nil
}

// resolvePin finds a pin by ID or by a unique ID prefix
func (p *Processor) resolvePin(id string) (store.Pin, error) {
	pin, err := p.records.GetPin(p.ctx, id)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return pin, err
	}

	pins, err := p.service.Pins(p.ctx)
	if err != nil {
		return store.Pin{}, err
	}

	var matches []store.Pin
	for _, candidate := range pins {
		if strings.HasPrefix(candidate.ID, id) {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return store.Pin{}, fmt.Errorf("pin %s: %w", id, store.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return store.Pin{}, fmt.Errorf("pin ID prefix %q matches %d pins", id, len(matches))
	}
}

func (p *Processor) printPhotos(pin store.Pin, photos []store.Photo) error {
	if len(photos) == 0 {
		fmt.Printf("Pin %s has no photos. Fetch some with: virtualtourist album %s\n", pin.ID, pin.ID)
		return nil
	}

	fmt.Printf("Album of pin %s at %s (%d photos)\n", pin.ID, coordinate(pin), len(photos))
	for _, photo := range photos {
		path, err := p.service.ImagePath(photo)
		if err != nil {
			fmt.Printf("  %3d  %s (missing: %v)\n", photo.Position+1, photo.StorageKey, err)
			continue
		}
		fmt.Printf("  %3d  %s\n", photo.Position+1, path)
	}
	return nil
}

func printEvent(ev fetcher.Event, c *album.Collection) {
	done, total := c.Progress()

	switch ev.Kind {
	case fetcher.BatchStarted:
		fmt.Printf("  Downloading %d photos\n", ev.Total)
	case fetcher.ItemSucceeded:
		fmt.Printf("  [%d/%d] ✓ %s\n", done, total, ev.StorageKey)
	case fetcher.ItemFailed:
		fmt.Printf("  [%d/%d] ✗ %v\n", done, total, ev.Err)
	}
}

func printSummary(c *album.Collection) {
	_, total := c.Progress()
	loaded := c.Loaded()

	fmt.Printf("\n=== Collection Summary ===\n")
	fmt.Printf("Photos: %d\n", total)
	fmt.Printf("Loaded: %d\n", loaded)
	if failed := total - loaded; failed > 0 {
		fmt.Printf("Failed: %d\n", failed)
	}
	fmt.Printf("==========================\n")
}

func coordinate(pin store.Pin) string {
	return geo.Coordinate{Latitude: pin.Latitude, Longitude: pin.Longitude}.String()
}

// Settings come from viper when a flag was changed or the config file or
// environment sets them; otherwise the flag's value applies.

func stringSetting(key, fallback string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return fallback
}

func intSetting(key string, fallback int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return fallback
}

func int64Setting(key string, fallback int64) int64 {
	if viper.IsSet(key) {
		return viper.GetInt64(key)
	}
	return fallback
}

func durationSetting(key string, fallback time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return fallback
}
