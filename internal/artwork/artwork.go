// Package artwork renders species artwork as truecolor half-block ANSI art for the terminal.
package artwork

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

// Default art size in character cells.
const (
	DefaultWidth  = 32
	DefaultHeight = 16
)

// Downloader fetches the raw bytes of an image.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Cache renders images by URL and keeps the result on disk, keyed by the md5 of url and size.
type Cache struct {
	dir        string
	downloader Downloader
	logger     *zap.Logger
}

// NewCache returns a cache storing rendered art under dir.
func NewCache(dir string, downloader Downloader, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{dir: dir, downloader: downloader, logger: logger}
}

// Render returns ANSI art for the image at url, rendering and caching it on a miss.
func (c *Cache) Render(ctx context.Context, url string, width, height int) (string, error) {
	if url == "" {
		return "", fmt.Errorf("render: empty image url")
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create ANSI cache directory: %w", err)
	}

	key := fmt.Sprintf("%s|%dx%d", url, width, height)
	cachePath := filepath.Join(c.dir, fmt.Sprintf("%x.ansi", md5.Sum([]byte(key))))
	if data, err := os.ReadFile(cachePath); err == nil {
		c.logger.Debug("ansi cache hit", zap.String("url", url))
		return string(data), nil
	}

	raw, err := c.downloader.Download(ctx, url)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	art := ImageToANSI(img, width, height)
	if err := os.WriteFile(cachePath, []byte(art), 0644); err != nil {
		return "", fmt.Errorf("failed to write ANSI art to file: %w", err)
	}
	return art, nil
}

// ImageToANSI converts img to width x height cells using the upper half block, top pixels as
// foreground and bottom pixels as background.
func ImageToANSI(img image.Image, width, height int) string {
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			upper := averageColor(colorAt(resized, x, y), colorAt(resized, x+1, y))
			lower := averageColor(colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))
			buffer.WriteString(cell('▀', upper, lower))
		}
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// colorAt returns the pixel at x,y as a colorful.Color. Transparent and out-of-bounds pixels
// are black.
func colorAt(img image.Image, x, y int) colorful.Color {
	bounds := img.Bounds()
	var c color.Color = color.RGBA{0, 0, 0, 255}
	if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
		c = img.At(x, y)
	}
	out, ok := colorful.MakeColor(c)
	if !ok {
		return colorful.Color{}
	}
	return out
}

func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

func cell(char rune, fg, bg colorful.Color) string {
	r1, g1, b1 := fg.Clamped().RGB255()
	r2, g2, b2 := bg.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m", r1, g1, b1, r2, g2, b2, char)
}
