package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/arcanaland/dexmatch/internal/card"
	"github.com/arcanaland/dexmatch/internal/deck"
	"github.com/arcanaland/dexmatch/internal/game"
	"github.com/arcanaland/dexmatch/internal/species"
	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const cellWidth = 18

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the memory game in the terminal",
	Long: `Play deals a deck of species pairs and starts the countdown. Type a card index
and press Enter to flip it. Other commands:

  p  use the reveal power-up (once per game)
  r  restart with the same difficulty
  q  quit

Examples:
  dexmatch play
  dexmatch play --difficulty medium`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveDifficulty(cmd)
		if err != nil {
			return err
		}

		b := openBackend()
		defer b.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		c, err := b.loadCatalog(ctx)
		if err != nil {
			return fmt.Errorf("cannot start a game: %w", err)
		}

		redraw := make(chan struct{}, 1)
		builder := deck.NewBuilder(c, b.fetcher,
			deck.WithConcurrency(appConfig.FetchConcurrency),
			deck.WithLogger(logger))
		session := game.NewSession(builder,
			game.WithLogger(logger),
			game.WithNotifier(func(game.Event) {
				select {
				case redraw <- struct{}{}:
				default:
				}
			}))
		defer session.Reset()

		p := &player{session: session, cfg: cfg, ctx: ctx, redraw: redraw}
		p.start()

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
			case <-redraw:
				p.render()
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if quit := p.handle(line); quit {
					return nil
				}
				p.render()
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(playCmd)
	playCmd.Flags().StringP("difficulty", "d", "", "Difficulty (easy, medium, hard); defaults to the configured one")
}

// player drives a session from terminal input.
type player struct {
	session *game.Session
	cfg     game.Config
	ctx     context.Context
	redraw  chan struct{}

	mu     sync.Mutex
	status string
}

func (p *player) start() {
	go func() {
		err := p.session.Start(p.ctx, p.cfg)
		if err != nil && !errors.Is(err, game.ErrSuperseded) && p.ctx.Err() == nil {
			logger.Warn("deal failed", zap.Error(err))
			p.setStatus(colorize.RedString("Deal failed: %v (r to retry)", err))
			select {
			case p.redraw <- struct{}{}:
			default:
			}
		}
	}()
}

func (p *player) setStatus(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = s
}

func (p *player) currentStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// handle applies one input line and reports whether the user quit.
func (p *player) handle(line string) bool {
	p.setStatus("")
	input := strings.ToLower(strings.TrimSpace(line))
	switch input {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "r", "restart":
		p.start()
		return false
	case "p", "power":
		if err := p.session.UsePowerUp(); err != nil {
			p.setStatus(colorize.YellowString("Power-up not available"))
		}
		return false
	}

	index, err := strconv.Atoi(input)
	if err != nil {
		p.setStatus(colorize.YellowString("Unknown command %q", input))
		return false
	}
	if err := p.session.Flip(index); err != nil {
		p.setStatus(colorize.YellowString("Cannot flip %d", index))
	}
	return false
}

func (p *player) render() {
	snap := p.session.Snapshot()

	var out strings.Builder
	out.WriteString("\x1b[H\x1b[2J")
	out.WriteString(statusLine(snap))
	out.WriteString("\n\n")

	switch snap.Phase {
	case game.PhaseIdle:
		out.WriteString("  Press r to deal a new game, q to quit.\n")
	case game.PhaseDealing:
		out.WriteString("  Dealing...\n")
	default:
		out.WriteString(renderBoard(snap.Deck, terminalWidth()))
	}

	out.WriteString("\n")
	switch snap.Phase {
	case game.PhaseWon:
		out.WriteString(colorize.GreenString("  You matched every pair in %d attempts!", snap.Attempts))
		out.WriteString("  r to play again, q to quit.\n")
	case game.PhaseLost:
		out.WriteString(colorize.RedString("  Time's up! %d pairs left.", snap.PairsLeft()))
		out.WriteString("  r to try again, q to quit.\n")
	case game.PhasePlaying:
		out.WriteString("  index: flip   p: power-up   r: restart   q: quit\n")
	}
	if status := p.currentStatus(); status != "" {
		out.WriteString("  " + status + "\n")
	}
	out.WriteString("> ")
	fmt.Print(out.String())
}

func statusLine(snap game.Snapshot) string {
	if snap.Phase == game.PhaseIdle || snap.Phase == game.PhaseDealing {
		return colorize.CyanString("  dexmatch")
	}
	clock := colorize.HiWhiteString("%ds", snap.RemainingSeconds)
	if snap.RemainingSeconds <= 10 {
		clock = colorize.RedString("%ds", snap.RemainingSeconds)
	}
	power := colorize.HiBlackString("used")
	if snap.PowerUpAvailable {
		power = colorize.GreenString("ready")
	}
	return fmt.Sprintf("  %s %s   %s %s   %s %d/%d   %s %d   %s %s",
		colorize.CyanString("Difficulty:"), snap.Config.Difficulty,
		colorize.CyanString("Time:"), clock,
		colorize.CyanString("Pairs:"), snap.MatchedPairs, snap.Config.PairCount,
		colorize.CyanString("Attempts:"), snap.Attempts,
		colorize.CyanString("Power-up:"), power)
}

// renderBoard lays the deck out in as many columns as fit in width.
func renderBoard(d deck.Deck, width int) string {
	cols := max(1, (width-2)/cellWidth)
	var b strings.Builder
	for i, c := range d {
		if i%cols == 0 {
			b.WriteString("  ")
		}
		b.WriteString(cardCell(i, c))
		if i%cols == cols-1 || i == len(d)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func cardCell(index int, c card.Card) string {
	label := "??"
	if c.Visible() {
		label = species.DisplayName(c.PairKey)
		if c.ImageURL == "" {
			label += "*"
		}
	}
	text := fmt.Sprintf("%2d %s", index, label)
	if len(text) > cellWidth-2 {
		text = text[:cellWidth-2]
	}
	text = fmt.Sprintf("[%-*s]", cellWidth-2, text)

	switch {
	case c.Matched:
		return colorize.GreenString("%s", text)
	case c.FaceUp:
		return colorize.HiWhiteString("%s", text)
	default:
		return colorize.HiBlackString("%s", text)
	}
}
