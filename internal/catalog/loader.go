package catalog

import (
	"context"
	"sync"

	"github.com/arcanaland/dexmatch/internal/species"
	"go.uber.org/zap"
)

// BatchSize is the number of species appended per load.
const BatchSize = 10

// Entry is one row of the browsing view.
type Entry struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// Sentinel signals that the last rendered entry became visible.
type Sentinel interface {
	OnIntersect(callback func())
}

// State is a copy of the loader state.
type State struct {
	Cursor    int     `json:"cursor"`
	Entries   []Entry `json:"entries"`
	Loading   bool    `json:"loading"`
	Exhausted bool    `json:"exhausted"`
}

// Loader pages the catalog into a display list. At most one batch is in flight, and once
// exhausted it never loads again.
type Loader struct {
	catalog     *Catalog
	fetcher     species.Fetcher
	batchSize   int
	concurrency int
	logger      *zap.Logger
	onChange    func(State)

	mu        sync.Mutex
	cursor    int
	entries   []Entry
	loading   bool
	exhausted bool
	sentinel  Sentinel
	signalCtx context.Context
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBatchSize overrides BatchSize.
func WithBatchSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithConcurrency bounds concurrent detail fetches within a batch.
func WithConcurrency(n int) LoaderOption {
	return func(l *Loader) { l.concurrency = n }
}

// WithLoaderLogger sets the logger.
func WithLoaderLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithOnChange registers a callback invoked after every append or exhaustion.
func WithOnChange(fn func(State)) LoaderOption {
	return func(l *Loader) { l.onChange = fn }
}

// NewLoader creates an idle loader over catalog. A nil catalog behaves as an empty one.
func NewLoader(catalog *Catalog, fetcher species.Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		catalog:   catalog,
		fetcher:   fetcher,
		batchSize: BatchSize,
		logger:    zap.NewNop(),
		signalCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Attach registers the loader with sentinel. The loader re-registers each time the display
// list grows, until it is exhausted. Loads triggered by the sentinel run under ctx.
func (l *Loader) Attach(ctx context.Context, sentinel Sentinel) {
	l.mu.Lock()
	l.sentinel = sentinel
	l.signalCtx = ctx
	exhausted := l.exhausted
	l.mu.Unlock()

	if sentinel != nil && !exhausted {
		sentinel.OnIntersect(l.intersected)
	}
}

func (l *Loader) intersected() {
	l.mu.Lock()
	ctx := l.signalCtx
	l.mu.Unlock()
	l.RequestNextBatch(ctx)
}

// RequestNextBatch loads the next batch and reports whether entries were appended. It is a
// no-op while a batch is loading or after exhaustion. A cancelled ctx abandons the batch without
// moving the cursor.
func (l *Loader) RequestNextBatch(ctx context.Context) bool {
	l.mu.Lock()
	if l.loading || l.exhausted {
		l.mu.Unlock()
		return false
	}

	refs := l.catalog.Slice(l.cursor, l.batchSize)
	if len(refs) == 0 {
		l.exhausted = true
		state := l.stateLocked()
		l.mu.Unlock()
		l.logger.Debug("catalog exhausted", zap.Int("cursor", state.Cursor))
		l.notify(state)
		return false
	}
	l.loading = true
	offset := l.cursor
	l.mu.Unlock()

	images := species.FetchImages(ctx, l.fetcher, refs, l.concurrency, l.logger)

	l.mu.Lock()
	if ctx.Err() != nil {
		l.loading = false
		l.mu.Unlock()
		l.logger.Debug("catalog batch abandoned", zap.Int("offset", offset), zap.Error(ctx.Err()))
		return false
	}
	for i, ref := range refs {
		l.entries = append(l.entries, Entry{Name: ref.Name, ImageURL: images[i]})
	}
	l.cursor += len(refs)
	if l.cursor >= l.catalog.Len() {
		l.exhausted = true
	}
	l.loading = false
	state := l.stateLocked()
	sentinel := l.sentinel
	l.mu.Unlock()

	l.logger.Debug("catalog batch loaded",
		zap.Int("offset", offset),
		zap.Int("count", len(refs)),
		zap.Bool("exhausted", state.Exhausted))
	l.notify(state)

	if sentinel != nil && !state.Exhausted {
		sentinel.OnIntersect(l.intersected)
	}
	return true
}

// State returns a copy of the current loader state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

func (l *Loader) stateLocked() State {
	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return State{
		Cursor:    l.cursor,
		Entries:   entries,
		Loading:   l.loading,
		Exhausted: l.exhausted,
	}
}

func (l *Loader) notify(state State) {
	if l.onChange != nil {
		l.onChange(state)
	}
}
