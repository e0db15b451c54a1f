package species

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxDownloadBytes = 8 << 20

// Client fetches species from a PokeAPI compatible endpoint.
type Client struct {
	baseURL string
	limit   int
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for baseURL that lists at most limit species.
func NewClient(baseURL string, limit int, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type listResponse struct {
	Results []Ref `json:"results"`
}

type sprites struct {
	FrontDefault *string `json:"front_default"`
	Other        map[string]struct {
		FrontDefault *string `json:"front_default"`
	} `json:"other"`
}

type detailResponse struct {
	Sprites sprites `json:"sprites"`
}

// ListAll fetches the ordered species listing.
func (c *Client) ListAll(ctx context.Context) ([]Ref, error) {
	endpoint := c.baseURL + "/pokemon"
	if c.limit > 0 {
		endpoint += "?" + url.Values{"limit": {strconv.Itoa(c.limit)}}.Encode()
	}

	var body listResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("list species: %w", err)
	}

	c.logger.Debug("species listing fetched", zap.Int("count", len(body.Results)))
	return body.Results, nil
}

// Detail fetches the artwork URL for ref, preferring the official artwork over the default sprite.
func (c *Client) Detail(ctx context.Context, ref Ref) (string, error) {
	if ref.DetailURL == "" {
		return "", fmt.Errorf("detail %s: no detail url: %w", ref.Name, ErrImageUnavailable)
	}

	var body detailResponse
	if err := c.getJSON(ctx, ref.DetailURL, &body); err != nil {
		return "", fmt.Errorf("detail %s: %v: %w", ref.Name, err, ErrImageUnavailable)
	}

	if artwork, ok := body.Sprites.Other["official-artwork"]; ok && artwork.FrontDefault != nil && *artwork.FrontDefault != "" {
		return *artwork.FrontDefault, nil
	}
	if body.Sprites.FrontDefault != nil && *body.Sprites.FrontDefault != "" {
		return *body.Sprites.FrontDefault, nil
	}
	return "", fmt.Errorf("detail %s: no sprite: %w", ref.Name, ErrImageUnavailable)
}

// Download fetches raw bytes, used for rendering artwork in the terminal.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
