package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/virtualtourist/internal"
	"codeberg.org/snonux/virtualtourist/internal/batch"
)

// Runner executes the commands. processor.Processor implements it.
type Runner interface {
	AddPin(latitude, longitude float64) error
	ListPins() error
	DeletePin(pinID string) error
	ImportPins(filename string) error
	Album(pinID string, newCollection bool) error
	Photos(pinID string) error
	Search(text string, count int) error
	Archive() error
}

// DefaultStateDir is where the database and images live unless configured
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "virtualtourist")
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, runner Runner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "virtualtourist",
		Short: "Drop map pins and browse Flickr photo albums for them",
		Long: `virtualtourist keeps a set of map pins and fetches a photo album for
each pin from the Flickr photo search API. Every album is a random page of
the photos taken within a degree of the pin; asking for a new collection
replaces it with another random page.

Examples:
  virtualtourist pin add 48.8584,2.2945      # Drop a pin at the Eiffel Tower
  virtualtourist pin import pins.txt         # Drop a pin per line of a file
  virtualtourist album <pin-id>              # Fetch or show the pin's album
  virtualtourist album --new <pin-id>        # Replace the album
  virtualtourist search "golden gate"        # Download photos matching text`,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		createPinCommand(runner),
		createAlbumCommand(flags, runner),
		createPhotosCommand(runner),
		createSearchCommand(flags, runner),
		createArchiveCommand(runner),
	)

	return rootCmd
}

func createPinCommand(runner Runner) *cobra.Command {
	pinCmd := &cobra.Command{
		Use:   "pin",
		Short: "Manage map pins",
	}

	pinCmd.AddCommand(
		&cobra.Command{
			Use:   "add <lat,lon> | add -- <lat> <lon>",
			Short: "Drop a pin at a coordinate",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := batch.ParseCoordinate(strings.Join(args, ","))
				if err != nil {
					return err
				}
				return runner.AddPin(c.Latitude, c.Longitude)
			},
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List all pins",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.ListPins()
			},
		},
		&cobra.Command{
			Use:     "delete <pin-id>",
			Aliases: []string{"rm"},
			Short:   "Delete a pin with its photos",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.DeletePin(args[0])
			},
		},
		&cobra.Command{
			Use:   "import <file>",
			Short: "Drop a pin for every latitude,longitude line of a file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runner.ImportPins(args[0])
			},
		},
	)

	return pinCmd
}

func createAlbumCommand(flags *Flags, runner Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "album <pin-id>",
		Short: "Fetch a pin's photo album, or show it if it has one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Album(args[0], flags.NewCollection)
		},
	}
	cmd.Flags().BoolVar(&flags.NewCollection, "new", false, "Replace the album with a new random collection")
	return cmd
}

func createPhotosCommand(runner Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "photos <pin-id>",
		Short: "List the stored photos of a pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Photos(args[0])
		},
	}
}

func createSearchCommand(flags *Flags, runner Runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Download a random page of photos matching text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Search(strings.Join(args, " "), flags.SearchCount)
		},
	}
	cmd.Flags().IntVarP(&flags.SearchCount, "count", "n", flags.SearchCount, "Number of photos to request (max 500)")
	return cmd
}

func createArchiveCommand(runner Runner) *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Move the pins database and images into a timestamped archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Archive()
		},
	}
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.virtualtourist.yaml)")
	pf.StringVar(&flags.StateDir, "state-dir", DefaultStateDir(), "Directory for the pins database and images")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warning, error")
	pf.StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	// Flickr flags
	pf.StringVar(&flags.BaseURL, "base-url", flags.BaseURL, "Flickr REST endpoint")
	pf.DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout of each search and download request")
	pf.IntVar(&flags.MaxPage, "max-page", flags.MaxPage, "Highest result page a random pick may choose")
	pf.IntVar(&flags.RequestsPerMinute, "rpm", flags.RequestsPerMinute, "Maximum searches per minute (negative disables)")
	pf.DurationVar(&flags.PageCacheTTL, "page-cache-ttl", 0, "Cache page counts for this long (0 disables)")
	pf.IntVar(&flags.BreakerFailures, "breaker-failures", flags.BreakerFailures, "Consecutive failures that open the circuit breaker")
	pf.DurationVar(&flags.BreakerCooldown, "breaker-cooldown", flags.BreakerCooldown, "How long the open circuit breaker rejects requests")

	// Fetch flags
	pf.IntVarP(&flags.PhotosPerPin, "photos", "p", flags.PhotosPerPin, "Photos per album")
	pf.IntVarP(&flags.Concurrency, "concurrency", "c", flags.Concurrency, "Photos downloaded in parallel")
	pf.Int64Var(&flags.MaxImageBytes, "max-image-bytes", flags.MaxImageBytes, "Largest image accepted")

	// Bind flags to viper
	bindFlagsToViper(pf)
}

func bindFlagsToViper(pf *pflag.FlagSet) {
	viper.BindPFlag("storage.state_dir", pf.Lookup("state-dir"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("metrics.textfile", pf.Lookup("metrics-file"))
	viper.BindPFlag("flickr.base_url", pf.Lookup("base-url"))
	viper.BindPFlag("flickr.timeout", pf.Lookup("timeout"))
	viper.BindPFlag("flickr.max_page", pf.Lookup("max-page"))
	viper.BindPFlag("flickr.requests_per_minute", pf.Lookup("rpm"))
	viper.BindPFlag("flickr.page_cache_ttl", pf.Lookup("page-cache-ttl"))
	viper.BindPFlag("flickr.breaker_failures", pf.Lookup("breaker-failures"))
	viper.BindPFlag("flickr.breaker_cooldown", pf.Lookup("breaker-cooldown"))
	viper.BindPFlag("album.photos_per_pin", pf.Lookup("photos"))
	viper.BindPFlag("fetch.concurrency", pf.Lookup("concurrency"))
	viper.BindPFlag("fetch.max_image_bytes", pf.Lookup("max-image-bytes"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".virtualtourist" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".virtualtourist")
	}

	// Environment variables, e.g. VIRTUALTOURIST_FLICKR_TIMEOUT=10s
	viper.SetEnvPrefix("VIRTUALTOURIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetFlickrKey retrieves the Flickr API key from environment or config
func GetFlickrKey() string {
	// First check environment variable
	if key := os.Getenv("FLICKR_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("flickr.api_key")
}
