package cmd

import (
	"context"
	"fmt"

	"github.com/arcanaland/dexmatch/internal/catalog"
	"github.com/arcanaland/dexmatch/internal/config"
	"github.com/arcanaland/dexmatch/internal/logging"
	"github.com/arcanaland/dexmatch/internal/species"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	appConfig *config.Config
	logger    = zap.NewNop()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dexmatch",
	Short: "Memory matching game and species browser",
	Long: `Dexmatch is a timed memory matching game played with species artwork from a
PokeAPI compatible catalog, plus an infinite-scroll browser for the catalog itself.

Play in the terminal with 'dexmatch play', browse with 'dexmatch dex', or serve the
game over HTTP and WebSocket with 'dexmatch serve'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.LogLevel = level
		}
		appConfig = cfg

		format := logging.FormatConsole
		if cmd.Name() == "serve" {
			format = logging.FormatJSON
		}
		l, err := logging.New(cfg.LogLevel, format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// backend bundles the catalog client and the fetcher used for detail lookups.
type backend struct {
	client  *species.Client
	fetcher species.Fetcher
	cache   *species.CachedFetcher
}

// openBackend builds the species client, fronted by the detail cache when enabled. A cache
// that cannot be opened is logged and skipped.
func openBackend() *backend {
	client := species.NewClient(appConfig.APIBaseURL, appConfig.CatalogLimit, appConfig.HTTPTimeout(), logger)
	b := &backend{client: client, fetcher: client}

	if appConfig.DetailCache {
		cache, err := species.OpenCachedFetcher(config.GetDetailCachePath(), client, logger)
		if err != nil {
			logger.Warn("detail cache disabled", zap.Error(err))
			return b
		}
		b.cache = cache
		b.fetcher = cache
	}
	return b
}

func (b *backend) Close() {
	if b.cache != nil {
		if err := b.cache.Close(); err != nil {
			logger.Warn("closing detail cache", zap.Error(err))
		}
	}
}

// loadCatalog fetches the listing once.
func (b *backend) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	c, err := catalog.Load(ctx, b.fetcher, logger)
	if err != nil {
		return nil, fmt.Errorf("loading species catalog: %w", err)
	}
	return c, nil
}
