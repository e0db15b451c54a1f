package deck_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/arcanaland/dexmatch/internal/card"
	"github.com/arcanaland/dexmatch/internal/catalog"
	"github.com/arcanaland/dexmatch/internal/deck"
	"github.com/arcanaland/dexmatch/internal/testkit/speciesfakes"
)

func newBuilder(f *speciesfakes.Fetcher, seed uint64) *deck.Builder {
	return deck.NewBuilder(catalog.New(f.Refs), f, deck.WithRNG(deck.NewRNG(seed)))
}

func TestBuildPairingInvariant(t *testing.T) {
	f := speciesfakes.NewFetcher(40)
	b := newBuilder(f, 7)

	for pairs := 1; pairs <= 12; pairs++ {
		t.Run(fmt.Sprintf("pairs=%d", pairs), func(t *testing.T) {
			d, err := b.Build(context.Background(), pairs)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if len(d) != 2*pairs {
				t.Fatalf("expected %d cards, got %d", 2*pairs, len(d))
			}

			counts := make(map[string]int)
			ids := make(map[string]bool)
			for _, c := range d {
				counts[c.PairKey]++
				if ids[c.InstanceID] {
					t.Fatalf("duplicate instance id %s", c.InstanceID)
				}
				ids[c.InstanceID] = true
				if c.FaceUp || c.Matched {
					t.Fatalf("new card should be face down and unmatched: %+v", c)
				}
				if c.ImageURL != f.Images[c.PairKey] {
					t.Fatalf("card %s has image %q", c.PairKey, c.ImageURL)
				}
			}
			if len(counts) != pairs {
				t.Fatalf("expected %d distinct pair keys, got %d", pairs, len(counts))
			}
			for key, n := range counts {
				if n != 2 {
					t.Fatalf("pair key %s appears %d times", key, n)
				}
			}
			if report := deck.Validate(d); !report.Valid() {
				t.Fatalf("unexpected validation errors: %v", report.Errors)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	f := speciesfakes.NewFetcher(4)

	if _, err := deck.NewBuilder(nil, f).Build(context.Background(), 2); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := newBuilder(f, 1).Build(context.Background(), 5); !errors.Is(err, deck.ErrNotEnoughSpecies) {
		t.Fatalf("expected ErrNotEnoughSpecies, got %v", err)
	}
	if _, err := newBuilder(f, 1).Build(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero pairs")
	}
}

func TestBuildPartialImageFailure(t *testing.T) {
	f := speciesfakes.NewFetcher(6)
	for name := range f.Images {
		if name != "species-000" {
			delete(f.Images, name)
		}
	}

	d, err := newBuilder(f, 3).Build(context.Background(), 6)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(d) != 12 {
		t.Fatalf("expected 12 cards, got %d", len(d))
	}

	report := deck.Validate(d)
	if !report.Valid() {
		t.Fatalf("blank faces must not invalidate the deck: %v", report.Errors)
	}
	if len(report.Warnings) != 5 {
		t.Fatalf("expected 5 blank pair warnings, got %v", report.Warnings)
	}
}

func TestBuildCancelled(t *testing.T) {
	f := speciesfakes.NewFetcher(6)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newBuilder(f, 3).Build(ctx, 3); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildIsDeterministicForSeed(t *testing.T) {
	f := speciesfakes.NewFetcher(30)
	build := func() deck.Deck {
		n := 0
		b := deck.NewBuilder(catalog.New(f.Refs), f,
			deck.WithRNG(deck.NewRNG(99)),
			deck.WithIDGenerator(func() string { n++; return fmt.Sprintf("id-%d", n) }))
		d, err := b.Build(context.Background(), 8)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		return d
	}

	if !slices.Equal(build(), build()) {
		t.Fatal("expected identical decks for identical seeds")
	}
}

func TestBuildSamplesUniformly(t *testing.T) {
	f := speciesfakes.NewFetcher(4)
	b := newBuilder(f, 11)
	const rounds = 2000

	seen := make(map[string]int)
	for i := 0; i < rounds; i++ {
		d, err := b.Build(context.Background(), 2)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		for _, c := range d {
			seen[c.PairKey]++
		}
	}

	// each species is picked with probability 1/2 and contributes two cards
	want := rounds
	for name, n := range seen {
		if n < want*85/100 || n > want*115/100 {
			t.Fatalf("species %s seen %d times, expected about %d", name, n, want)
		}
	}
}

func TestShufflePermutes(t *testing.T) {
	rng := deck.NewRNG(5)
	base := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	unchanged := 0

	for i := 0; i < 200; i++ {
		items := slices.Clone(base)
		deck.Shuffle(items, rng)

		sorted := slices.Clone(items)
		slices.Sort(sorted)
		if !slices.Equal(sorted, base) {
			t.Fatalf("shuffle changed the multiset: %v", items)
		}
		if slices.Equal(items, base) {
			unchanged++
		}
	}
	if unchanged > 2 {
		t.Fatalf("shuffle left order unchanged %d/200 times", unchanged)
	}
}

func TestShuffleSmallSlices(t *testing.T) {
	rng := deck.NewRNG(1)
	var empty []card.Card
	deck.Shuffle(empty, rng)
	one := []card.Card{{PairKey: "a"}}
	deck.Shuffle(one, rng)
	if one[0].PairKey != "a" {
		t.Fatal("single element shuffle changed the element")
	}
}

func TestValidate(t *testing.T) {
	pair := func(key, img string, ids ...string) deck.Deck {
		return deck.Deck{
			{InstanceID: ids[0], PairKey: key, ImageURL: img},
			{InstanceID: ids[1], PairKey: key, ImageURL: img},
		}
	}

	tests := []struct {
		name       string
		deck       deck.Deck
		wantErrors int
		wantWarns  int
	}{
		{name: "valid", deck: append(pair("a", "a.png", "1", "2"), pair("b", "b.png", "3", "4")...)},
		{name: "empty", deck: nil, wantErrors: 1},
		{name: "blank face", deck: pair("a", "", "1", "2"), wantWarns: 1},
		{name: "triple", deck: append(pair("a", "a.png", "1", "2"), card.Card{InstanceID: "3", PairKey: "a", ImageURL: "a.png"}), wantErrors: 2},
		{name: "duplicate ids", deck: pair("a", "a.png", "1", "1"), wantErrors: 1},
		{name: "mismatched images", deck: deck.Deck{{InstanceID: "1", PairKey: "a", ImageURL: "x"}, {InstanceID: "2", PairKey: "a", ImageURL: "y"}}, wantErrors: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deck.Validate(tt.deck)
			if len(got.Errors) != tt.wantErrors {
				t.Fatalf("expected %d errors, got %v", tt.wantErrors, got.Errors)
			}
			if len(got.Warnings) != tt.wantWarns {
				t.Fatalf("expected %d warnings, got %v", tt.wantWarns, got.Warnings)
			}
		})
	}
}
