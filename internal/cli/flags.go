package cli

import (
	"time"

	"codeberg.org/snonux/virtualtourist/internal/album"
	"codeberg.org/snonux/virtualtourist/internal/flickr"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	StateDir    string
	LogLevel    string
	MetricsFile string

	// Flickr flags
	BaseURL           string
	Timeout           time.Duration
	MaxPage           int
	RequestsPerMinute int
	PageCacheTTL      time.Duration
	BreakerFailures   int
	BreakerCooldown   time.Duration

	// Fetch flags
	PhotosPerPin  int
	Concurrency   int
	MaxImageBytes int64

	// search command
	SearchCount int
	// album command
	NewCollection bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:          "info",
		BaseURL:           flickr.DefaultBaseURL,
		Timeout:           flickr.DefaultTimeout,
		MaxPage:           flickr.DefaultMaxPage,
		RequestsPerMinute: flickr.DefaultRequestsPerMinute,
		BreakerFailures:   flickr.DefaultBreakerFailures,
		BreakerCooldown:   flickr.DefaultBreakerCooldown,
		PhotosPerPin:      album.DefaultPhotosPerPin,
		Concurrency:       1,
		MaxImageBytes:     flickr.DefaultMaxImageBytes,
		SearchCount:       album.DefaultPhotosPerPin,
	}
}
