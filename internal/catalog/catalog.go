// Package catalog holds the species listing loaded at startup and the incremental loader that
// pages it into the browsing view.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcanaland/dexmatch/internal/species"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable means the startup listing could not be fetched or parsed.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrEmpty means the listing was fetched but contained no species.
	ErrEmpty = errors.New("catalog empty")
)

// Catalog is the immutable ordered species listing. It is safe for concurrent readers.
type Catalog struct {
	refs []species.Ref
}

// Load fetches the listing once. Both ErrUnavailable and ErrEmpty are terminal: callers keep no
// catalog and must disable game start.
func Load(ctx context.Context, fetcher species.Fetcher, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	refs, err := fetcher.ListAll(ctx)
	if err != nil {
		logger.Error("catalog listing failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(refs) == 0 {
		logger.Warn("catalog listing is empty")
		return nil, ErrEmpty
	}

	logger.Info("catalog loaded", zap.Int("species", len(refs)))
	return New(refs), nil
}

// New builds a catalog from refs. The slice is copied.
func New(refs []species.Ref) *Catalog {
	owned := make([]species.Ref, len(refs))
	copy(owned, refs)
	return &Catalog{refs: owned}
}

// Len returns the number of species.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.refs)
}

// Refs returns a copy of the full listing.
func (c *Catalog) Refs() []species.Ref {
	if c == nil {
		return nil
	}
	out := make([]species.Ref, len(c.refs))
	copy(out, c.refs)
	return out
}

// Slice returns up to n refs starting at offset. Offsets past the end yield an empty slice.
func (c *Catalog) Slice(offset, n int) []species.Ref {
	if c == nil || offset < 0 || n <= 0 || offset >= len(c.refs) {
		return nil
	}
	end := min(offset+n, len(c.refs))
	out := make([]species.Ref, end-offset)
	copy(out, c.refs[offset:end])
	return out
}

// Lookup finds a species by name.
func (c *Catalog) Lookup(name string) (species.Ref, bool) {
	if c == nil {
		return species.Ref{}, false
	}
	for _, ref := range c.refs {
		if ref.Name == name {
			return ref, true
		}
	}
	return species.Ref{}, false
}
