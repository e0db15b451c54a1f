package artwork

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"testing"
)

type fakeDownloader struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestImageToANSIDimensions(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	art := ImageToANSI(img, 6, 3)

	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if got := StripANSI(line); got != strings.Repeat("▀", 6) {
			t.Fatalf("line %d: unexpected visible text %q", i, got)
		}
		if !strings.Contains(line, "\x1b[38;2;0;0;0m") {
			t.Fatalf("line %d: transparent pixels should render black", i)
		}
	}
}

func TestCacheRendersOnce(t *testing.T) {
	dir := t.TempDir()
	dl := &fakeDownloader{data: solidPNG(t, color.RGBA{R: 200, G: 10, B: 10, A: 255})}
	cache := NewCache(dir, dl, nil)

	first, err := cache.Render(context.Background(), "https://img.example.test/a.png", 4, 2)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := cache.Render(context.Background(), "https://img.example.test/a.png", 4, 2)
	if err != nil {
		t.Fatalf("render cached: %v", err)
	}
	if first != second {
		t.Fatal("cached art differs from rendered art")
	}
	if dl.calls != 1 {
		t.Fatalf("expected one download, got %d", dl.calls)
	}

	if _, err := cache.Render(context.Background(), "https://img.example.test/a.png", 8, 4); err != nil {
		t.Fatalf("render other size: %v", err)
	}
	if dl.calls != 2 {
		t.Fatalf("expected a new render per size, got %d downloads", dl.calls)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 cache files, got %d", len(entries))
	}
}

func TestCacheErrors(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")

	tests := []struct {
		name string
		url  string
		dl   *fakeDownloader
	}{
		{name: "empty url", url: "", dl: &fakeDownloader{}},
		{name: "download failure", url: "https://img.example.test/x.png", dl: &fakeDownloader{err: boom}},
		{name: "not an image", url: "https://img.example.test/y.png", dl: &fakeDownloader{data: []byte("nope")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCache(dir, tt.dl, nil).Render(context.Background(), tt.url, 4, 2); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("failed renders must not be cached, found %d files", len(entries))
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{name: "empty", text: "", width: 20, want: []string{""}},
		{name: "fits", text: "mr mime", width: 20, want: []string{"mr mime"}},
		{name: "wraps", text: "one two three four five", width: 10, want: []string{"one two", "three four", "five"}},
		{name: "narrow width falls back", text: "a b", width: 3, want: []string{"a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapText(tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSideBySide(t *testing.T) {
	art := "\x1b[31mAB\x1b[0m\n\x1b[31mCD\x1b[0m\n"
	out := SideBySide(art, []string{"name", "id", "extra"}, 2)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := []string{"  AB  name", "  CD  id", "      extra"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if got := StripANSI(lines[i]); got != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, got, want[i])
		}
	}
	if VisibleWidth(lines[0]) != 10 {
		t.Fatalf("unexpected visible width %d", VisibleWidth(lines[0]))
	}
}
