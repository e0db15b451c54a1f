// Package speciesfakes provides in-memory species fetchers for tests.
package speciesfakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arcanaland/dexmatch/internal/species"
)

// Fetcher is an in-memory species.Fetcher fake.
type Fetcher struct {
	Refs    []species.Ref
	ListErr error

	// Images maps species name to artwork URL. Missing names fail with ErrImageUnavailable.
	Images map[string]string
	// Delays holds per-species latency, used to make completion order differ from request order.
	Delays map[string]time.Duration
	// Gate, when set, blocks every Detail call until it is closed.
	Gate chan struct{}

	mu          sync.Mutex
	listCalls   int
	detailCalls map[string]int
	inFlight    int
	maxInFlight int
}

// NewFetcher builds a fake with n species named species-000.. and matching image URLs.
func NewFetcher(n int) *Fetcher {
	f := &Fetcher{Images: make(map[string]string, n)}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("species-%03d", i)
		f.Refs = append(f.Refs, species.Ref{Name: name, DetailURL: "https://example.test/pokemon/" + name})
		f.Images[name] = "https://img.example.test/" + name + ".png"
	}
	return f
}

func (f *Fetcher) ListAll(_ context.Context) ([]species.Ref, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	if f.ListErr != nil {
		return nil, f.ListErr
	}
	out := make([]species.Ref, len(f.Refs))
	copy(out, f.Refs)
	return out, nil
}

func (f *Fetcher) Detail(ctx context.Context, ref species.Ref) (string, error) {
	f.mu.Lock()
	if f.detailCalls == nil {
		f.detailCalls = make(map[string]int)
	}
	f.detailCalls[ref.Name]++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.Delays[ref.Name]
	gate := f.Gate
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	img, ok := f.Images[ref.Name]
	if !ok {
		return "", fmt.Errorf("detail %s: %w", ref.Name, species.ErrImageUnavailable)
	}
	return img, nil
}

// ListCalls returns how many times ListAll ran.
func (f *Fetcher) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// DetailCalls returns how many times Detail ran for name.
func (f *Fetcher) DetailCalls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailCalls[name]
}

// TotalDetailCalls returns the number of Detail calls across all species.
func (f *Fetcher) TotalDetailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.detailCalls {
		total += n
	}
	return total
}

// MaxInFlight returns the highest number of concurrent Detail calls observed.
func (f *Fetcher) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}
