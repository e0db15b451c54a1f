package species

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight detail calls when callers pass a non-positive limit.
const DefaultConcurrency = 8

// FetchImages fetches the artwork for every ref concurrently and returns the URLs aligned
// with refs. A failed item yields "" and never fails the batch. The call returns once every
// fetch has settled; if ctx is cancelled the unfinished items are left empty.
func FetchImages(ctx context.Context, fetcher Fetcher, refs []Ref, limit int, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	images := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			img, err := fetcher.Detail(gctx, ref)
			if err != nil {
				logger.Debug("species image unavailable", zap.String("species", ref.Name), zap.Error(err))
				return nil
			}
			// each goroutine owns its slot
			images[i] = img
			return nil
		})
	}
	_ = g.Wait()
	return images
}
