package cmd

import (
	"strings"
	"testing"

	"github.com/arcanaland/dexmatch/internal/artwork"
	"github.com/arcanaland/dexmatch/internal/card"
	"github.com/arcanaland/dexmatch/internal/config"
	"github.com/arcanaland/dexmatch/internal/deck"
	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
)

func TestKeySentinelConsumesCallback(t *testing.T) {
	s := &keySentinel{}
	if s.fire() {
		t.Fatal("fired without a registered callback")
	}

	done := make(chan struct{})
	s.OnIntersect(func() { close(done) })
	if !s.fire() {
		t.Fatal("expected registered callback to fire")
	}
	<-done
	if s.fire() {
		t.Fatal("callback fired twice")
	}
}

func TestRenderBoard(t *testing.T) {
	colorize.NoColor = true

	d := deck.Deck{
		{InstanceID: "1", PairKey: "mr-mime", ImageURL: "a.png", FaceUp: true},
		{InstanceID: "2", PairKey: "pikachu", ImageURL: "b.png"},
		{InstanceID: "3", PairKey: "mr-mime", ImageURL: "a.png", Matched: true},
		{InstanceID: "4", PairKey: "pikachu", ImageURL: "b.png"},
		{InstanceID: "5", PairKey: "eevee"},
	}
	out := renderBoard(d, 2+2*cellWidth)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows of 2 columns, got %d: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "Mr Mime") || !strings.Contains(lines[0], "??") {
		t.Fatalf("unexpected first row %q", lines[0])
	}
	if strings.Contains(lines[1], "Pikachu") {
		t.Fatal("face-down card leaked its species")
	}
	if artwork.VisibleWidth(lines[0]) != 2+2*cellWidth {
		t.Fatalf("unexpected row width %d", artwork.VisibleWidth(lines[0]))
	}
}

func TestCardCellMarksBlankFaces(t *testing.T) {
	colorize.NoColor = true
	cell := cardCell(4, card.Card{PairKey: "eevee", FaceUp: true})
	if !strings.Contains(cell, "Eevee*") {
		t.Fatalf("expected blank face marker, got %q", cell)
	}
	if len(cell) != cellWidth {
		t.Fatalf("expected width %d, got %d", cellWidth, len(cell))
	}
}

func TestResolveDifficulty(t *testing.T) {
	appConfig = config.Default()

	tests := []struct {
		flag    string
		want    int
		wantErr bool
	}{
		{flag: "", want: 6},
		{flag: "hard", want: 10},
		{flag: "impossible", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().String("difficulty", tt.flag, "")
			cfg, err := resolveDifficulty(cmd)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if cfg.PairCount != tt.want {
				t.Fatalf("expected %d pairs, got %d", tt.want, cfg.PairCount)
			}
		})
	}
}
