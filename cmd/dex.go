package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/arcanaland/dexmatch/internal/artwork"
	"github.com/arcanaland/dexmatch/internal/catalog"
	"github.com/arcanaland/dexmatch/internal/species"
	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dexCmd = &cobra.Command{
	Use:   "dex",
	Short: "Browse the species catalog",
	Long: `Dex lists the species catalog ten entries at a time. Press Enter to load the next
batch once the current one is shown, q to quit. With --art each entry is drawn as
ANSI art.

Examples:
  dexmatch dex
  dexmatch dex --art`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		withArt, _ := cmd.Flags().GetBool("art")

		b := openBackend()
		defer b.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		c, err := b.loadCatalog(ctx)
		if err != nil {
			return err
		}

		changed := make(chan struct{}, 1)
		loader := catalog.NewLoader(c, b.fetcher,
			catalog.WithConcurrency(appConfig.FetchConcurrency),
			catalog.WithLoaderLogger(logger),
			catalog.WithOnChange(func(catalog.State) {
				select {
				case changed <- struct{}{}:
				default:
				}
			}))

		sentinel := &keySentinel{}
		loader.Attach(ctx, sentinel)

		p := &dexPrinter{cache: artCache(b), withArt: withArt}
		// the list starts empty, so the sentinel is already in view
		sentinel.fire()

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-changed:
				p.print(ctx, loader.State())
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if strings.EqualFold(strings.TrimSpace(line), "q") {
					return nil
				}
				if sentinel.fire() {
					continue
				}
				if state := loader.State(); state.Exhausted {
					fmt.Println(colorize.HiBlackString("no more species"))
				} else {
					fmt.Println(colorize.HiBlackString("loading..."))
				}
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(dexCmd)
	dexCmd.Flags().Bool("art", false, "Draw each species as ANSI art")
}

// keySentinel stands in for the end of the list: pressing Enter brings it into view. The
// loader registers a callback after each batch; firing consumes it.
type keySentinel struct {
	mu       sync.Mutex
	callback func()
}

func (s *keySentinel) OnIntersect(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callback = callback
}

// fire runs the registered callback in the background and reports whether one was registered.
func (s *keySentinel) fire() bool {
	s.mu.Lock()
	callback := s.callback
	s.callback = nil
	s.mu.Unlock()

	if callback == nil {
		return false
	}
	go callback()
	return true
}

// dexPrinter prints entries appended since the last call.
type dexPrinter struct {
	cache   *artwork.Cache
	withArt bool
	printed int
}

func (p *dexPrinter) print(ctx context.Context, state catalog.State) {
	for _, entry := range state.Entries[p.printed:] {
		p.printed++
		name := colorize.HiWhiteString("%4d  %s", p.printed, species.DisplayName(entry.Name))
		if entry.ImageURL == "" {
			name += colorize.YellowString("  (no artwork)")
		}

		if !p.withArt || entry.ImageURL == "" {
			fmt.Println(name)
			continue
		}
		art, err := p.cache.Render(ctx, entry.ImageURL, artwork.DefaultWidth/2, artwork.DefaultHeight/2)
		if err != nil {
			logger.Debug("rendering artwork failed", zap.String("species", entry.Name), zap.Error(err))
			fmt.Println(name)
			continue
		}
		fmt.Print(artwork.SideBySide(art, []string{name}, 2))
	}

	if state.Exhausted {
		fmt.Println(colorize.HiBlackString("no more species"))
	} else {
		fmt.Println(colorize.HiBlackString("-- Enter for more, q to quit --"))
	}
}
