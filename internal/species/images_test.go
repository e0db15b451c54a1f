package species_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcanaland/dexmatch/internal/species"
	"github.com/arcanaland/dexmatch/internal/testkit/speciesfakes"
)

func TestFetchImagesKeepsRequestOrder(t *testing.T) {
	f := speciesfakes.NewFetcher(4)
	// The first request finishes last.
	f.Delays = map[string]time.Duration{
		"species-000": 30 * time.Millisecond,
		"species-001": 20 * time.Millisecond,
		"species-002": 10 * time.Millisecond,
	}

	images := species.FetchImages(context.Background(), f, f.Refs, 4, nil)

	for i, ref := range f.Refs {
		if images[i] != f.Images[ref.Name] {
			t.Fatalf("slot %d: expected %q, got %q", i, f.Images[ref.Name], images[i])
		}
	}
}

func TestFetchImagesSubstitutesFailures(t *testing.T) {
	f := speciesfakes.NewFetcher(3)
	delete(f.Images, "species-001")

	images := species.FetchImages(context.Background(), f, f.Refs, 0, nil)

	if images[1] != "" {
		t.Fatalf("expected empty image for failed item, got %q", images[1])
	}
	if images[0] == "" || images[2] == "" {
		t.Fatalf("expected other items fetched, got %v", images)
	}
}

func TestFetchImagesRespectsLimit(t *testing.T) {
	f := speciesfakes.NewFetcher(10)
	f.Delays = make(map[string]time.Duration)
	for _, ref := range f.Refs {
		f.Delays[ref.Name] = 5 * time.Millisecond
	}

	species.FetchImages(context.Background(), f, f.Refs, 2, nil)

	if got := f.MaxInFlight(); got > 2 {
		t.Fatalf("expected at most 2 concurrent fetches, got %d", got)
	}
	if got := f.TotalDetailCalls(); got != 10 {
		t.Fatalf("expected 10 detail calls, got %d", got)
	}
}

func TestCachedFetcherServesRepeatsFromCache(t *testing.T) {
	f := speciesfakes.NewFetcher(2)
	path := filepath.Join(t.TempDir(), "nested", "details.db")

	cached, err := species.OpenCachedFetcher(path, f, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	ctx := context.Background()
	ref := f.Refs[0]

	for i := 0; i < 3; i++ {
		img, err := cached.Detail(ctx, ref)
		if err != nil {
			t.Fatalf("detail: %v", err)
		}
		if img != f.Images[ref.Name] {
			t.Fatalf("expected %q, got %q", f.Images[ref.Name], img)
		}
	}
	if got := f.DetailCalls(ref.Name); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
	if err := cached.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A reopened cache still has the entry.
	reopened, err := species.OpenCachedFetcher(path, f, nil)
	if err != nil {
		t.Fatalf("reopen cache: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Detail(ctx, ref); err != nil {
		t.Fatalf("detail after reopen: %v", err)
	}
	if got := f.DetailCalls(ref.Name); got != 1 {
		t.Fatalf("expected cached entry after reopen, got %d upstream calls", got)
	}
}

func TestCachedFetcherDoesNotCacheFailures(t *testing.T) {
	f := speciesfakes.NewFetcher(1)
	delete(f.Images, "species-000")

	cached, err := species.OpenCachedFetcher(filepath.Join(t.TempDir(), "details.db"), f, nil)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cached.Close()

	ctx := context.Background()
	if _, err := cached.Detail(ctx, f.Refs[0]); err == nil {
		t.Fatal("expected error")
	}
	f.Images["species-000"] = "late.png"
	img, err := cached.Detail(ctx, f.Refs[0])
	if err != nil {
		t.Fatalf("detail after recovery: %v", err)
	}
	if img != "late.png" {
		t.Fatalf("expected late.png, got %q", img)
	}
}

func TestOpenCachedFetcherValidates(t *testing.T) {
	if _, err := species.OpenCachedFetcher(" ", speciesfakes.NewFetcher(1), nil); err == nil {
		t.Fatal("expected error for empty path")
	}
	if _, err := species.OpenCachedFetcher(filepath.Join(t.TempDir(), "x.db"), nil, nil); err == nil {
		t.Fatal("expected error for nil fetcher")
	}
}
