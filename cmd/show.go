package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcanaland/dexmatch/internal/artwork"
	"github.com/arcanaland/dexmatch/internal/config"
	"github.com/arcanaland/dexmatch/internal/species"
	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var showCmd = &cobra.Command{
	Use:   "show [species]",
	Short: "Display a species with ANSI art",
	Long: `Show looks a species up in the catalog, fetches its artwork and renders it as
ANSI terminal art next to its details. Rendered art is cached under
XDG_CACHE_HOME/dexmatch/ansi_cache.

Examples:
  dexmatch show pikachu
  dexmatch show mr-mime --width 40`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.ToLower(strings.TrimSpace(args[0]))
		width, _ := cmd.Flags().GetInt("width")

		b := openBackend()
		defer b.Close()

		ctx := cmd.Context()
		c, err := b.loadCatalog(ctx)
		if err != nil {
			return err
		}

		ref, ok := c.Lookup(name)
		if !ok {
			return fmt.Errorf("species not found in catalog: %s", name)
		}

		imageURL, err := b.fetcher.Detail(ctx, ref)
		if err != nil {
			logger.Debug("no artwork", zap.String("species", name), zap.Error(err))
		}

		var art string
		if imageURL != "" {
			art, err = artCache(b).Render(ctx, imageURL, width, width/2)
			if err != nil {
				logger.Warn("rendering artwork failed", zap.String("species", name), zap.Error(err))
			}
		}

		displaySpecies(ref, imageURL, art)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)
	showCmd.Flags().IntP("width", "w", artwork.DefaultWidth, "Art width in terminal columns")
}

func artCache(b *backend) *artwork.Cache {
	return artwork.NewCache(filepath.Join(config.GetCacheDir(), "ansi_cache"), b.client, logger)
}

// terminalWidth returns the stdout width, or 80 when it cannot be determined.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// displaySpecies prints the art on the left and the species details on the right.
func displaySpecies(ref species.Ref, imageURL, art string) {
	info := []string{
		colorize.CyanString("Species: ") + colorize.HiWhiteString("%s", species.DisplayName(ref.Name)),
		colorize.CyanString("ID:      ") + colorize.HiWhiteString("%s", ref.Name),
	}
	if imageURL == "" {
		info = append(info, colorize.CyanString("Artwork: ")+colorize.YellowString("unavailable"))
	} else {
		artWidth := 0
		for _, line := range strings.Split(art, "\n") {
			artWidth = max(artWidth, artwork.VisibleWidth(line))
		}
		info = append(info, "", colorize.CyanString("Artwork:"))
		info = append(info, artwork.WrapText(imageURL, terminalWidth()-artWidth-8)...)
	}

	fmt.Println()
	fmt.Print(artwork.SideBySide(art, info, 4))
	fmt.Println()
}
