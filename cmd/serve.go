package cmd

import (
	"errors"

	"github.com/arcanaland/dexmatch/internal/catalog"
	"github.com/arcanaland/dexmatch/internal/deck"
	"github.com/arcanaland/dexmatch/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game over HTTP and WebSocket",
	Long: `Serve exposes the species browser under /dex and one game session per
WebSocket connection under /ws. Logs are written as JSON.

If the catalog cannot be loaded the server still starts, reports the failure on
/difficulties and refuses to start games.

Examples:
  dexmatch serve
  dexmatch serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = appConfig.ListenAddr
		}

		b := openBackend()
		defer b.Close()

		ctx := cmd.Context()
		opts := server.Options{Logger: logger}

		c, err := b.loadCatalog(ctx)
		switch {
		case err == nil:
			opts.Catalog = c
			opts.Loader = catalog.NewLoader(c, b.fetcher,
				catalog.WithConcurrency(appConfig.FetchConcurrency),
				catalog.WithLoaderLogger(logger))
			opts.Dealer = deck.NewBuilder(c, b.fetcher,
				deck.WithConcurrency(appConfig.FetchConcurrency),
				deck.WithLogger(logger))
		case errors.Is(err, catalog.ErrUnavailable), errors.Is(err, catalog.ErrEmpty):
			logger.Error("serving without a catalog", zap.Error(err))
			opts.CatalogErr = err
		default:
			return err
		}

		return server.New(opts).Run(ctx, addr)
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address; defaults to listen_addr from the config")
}
