package deck

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcanaland/dexmatch/internal/card"
	"github.com/arcanaland/dexmatch/internal/catalog"
	"github.com/arcanaland/dexmatch/internal/species"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// ErrNotEnoughSpecies is returned when the catalog cannot supply the requested pairs.
var ErrNotEnoughSpecies = errors.New("not enough species for deck")

// Deck is an ordered sequence of cards in which every pair key appears exactly twice.
type Deck []card.Card

// Clone returns a copy of the deck.
func (d Deck) Clone() Deck {
	if d == nil {
		return nil
	}
	out := make(Deck, len(d))
	copy(out, d)
	return out
}

// PairCount returns the number of pairs in the deck.
func (d Deck) PairCount() int {
	return len(d) / 2
}

// RNG is the randomness source used for sampling and shuffling.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// NewRNG returns a deterministic RNG for seed. It is not safe for concurrent use.
func NewRNG(seed uint64) RNG {
	return rand.New(rand.NewSource(seed))
}

type globalRNG struct{}

func (globalRNG) Intn(n int) int { return rand.Intn(n) }

// Shuffle permutes items in place with Fisher–Yates.
func Shuffle[T any](items []T, rng RNG) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Builder deals decks from a catalog.
type Builder struct {
	catalog     *catalog.Catalog
	fetcher     species.Fetcher
	rng         RNG
	newID       func() string
	concurrency int
	logger      *zap.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRNG replaces the shared random source, mainly for deterministic tests.
func WithRNG(rng RNG) BuilderOption {
	return func(b *Builder) {
		if rng != nil {
			b.rng = rng
		}
	}
}

// WithIDGenerator replaces the uuid card id generator.
func WithIDGenerator(fn func() string) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithConcurrency bounds concurrent detail fetches.
func WithConcurrency(n int) BuilderOption {
	return func(b *Builder) { b.concurrency = n }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a builder reading from c and fetching artwork through fetcher.
func NewBuilder(c *catalog.Catalog, fetcher species.Fetcher, opts ...BuilderOption) *Builder {
	b := &Builder{
		catalog: c,
		fetcher: fetcher,
		rng:     globalRNG{},
		newID:   uuid.NewString,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build samples pairCount distinct species, fetches their artwork concurrently and returns a
// shuffled deck of 2×pairCount cards. Missing artwork leaves a blank face.
func (b *Builder) Build(ctx context.Context, pairCount int) (Deck, error) {
	if b.catalog == nil || b.catalog.Len() == 0 {
		return nil, catalog.ErrUnavailable
	}
	if pairCount <= 0 {
		return nil, fmt.Errorf("pair count must be positive, got %d", pairCount)
	}
	if pairCount > b.catalog.Len() {
		return nil, fmt.Errorf("%w: need %d, catalog has %d", ErrNotEnoughSpecies, pairCount, b.catalog.Len())
	}

	pool := b.catalog.Refs()
	Shuffle(pool, b.rng)
	sample := pool[:pairCount]

	images := species.FetchImages(ctx, b.fetcher, sample, b.concurrency, b.logger)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}

	cards := make(Deck, 0, 2*pairCount)
	for i, ref := range sample {
		for range 2 {
			cards = append(cards, card.Card{
				InstanceID: b.newID(),
				PairKey:    ref.Name,
				ImageURL:   images[i],
			})
		}
	}
	Shuffle(cards, b.rng)

	report := Validate(cards)
	for _, warning := range report.Warnings {
		b.logger.Debug("deck warning", zap.String("warning", warning))
	}
	if len(report.Errors) > 0 {
		return nil, fmt.Errorf("build deck: %s", report.Errors[0])
	}

	b.logger.Info("deck built", zap.Int("pairs", pairCount), zap.Int("blank_pairs", len(report.Warnings)))
	return cards, nil
}
