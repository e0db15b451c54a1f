package species

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const detailBucket = "detail"

// CachedFetcher remembers artwork URLs in a BoltDB file so repeated detail calls skip the
// network. Listing calls always go to the wrapped fetcher.
type CachedFetcher struct {
	next   Fetcher
	db     *bbolt.DB
	logger *zap.Logger
}

// OpenCachedFetcher opens (or creates) the cache at path in front of next.
func OpenCachedFetcher(path string, next Fetcher, logger *zap.Logger) (*CachedFetcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if next == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(detailBucket)); err != nil {
			return fmt.Errorf("create detail bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &CachedFetcher{next: next, db: db, logger: logger}, nil
}

// Close closes the underlying BoltDB database.
func (f *CachedFetcher) Close() error {
	if f == nil || f.db == nil {
		return nil
	}
	return f.db.Close()
}

// ListAll delegates to the wrapped fetcher.
func (f *CachedFetcher) ListAll(ctx context.Context) ([]Ref, error) {
	return f.next.ListAll(ctx)
}

// Detail returns the cached artwork URL for ref, fetching and storing it on a miss.
// Failures are not cached so a later call can recover.
func (f *CachedFetcher) Detail(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cached, err := f.lookup(ref.Name)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, errCacheMiss) {
		f.logger.Warn("detail cache read failed", zap.String("species", ref.Name), zap.Error(err))
	}

	img, err := f.next.Detail(ctx, ref)
	if err != nil {
		return "", err
	}

	if err := f.store(ref.Name, img); err != nil {
		f.logger.Warn("detail cache write failed", zap.String("species", ref.Name), zap.Error(err))
	}
	return img, nil
}

var errCacheMiss = errors.New("cache miss")

func (f *CachedFetcher) lookup(name string) (string, error) {
	var img string
	err := f.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(detailBucket))
		if bucket == nil {
			return fmt.Errorf("detail bucket is missing")
		}
		payload := bucket.Get([]byte(name))
		if payload == nil {
			return errCacheMiss
		}
		img = string(payload)
		return nil
	})
	return img, err
}

func (f *CachedFetcher) store(name, img string) error {
	return f.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(detailBucket))
		if bucket == nil {
			return fmt.Errorf("detail bucket is missing")
		}
		return bucket.Put([]byte(name), []byte(img))
	})
}
