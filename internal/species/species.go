// Package species talks to the external species catalog and fetches per-species artwork.
package species

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrImageUnavailable reports that a species has no usable artwork or its detail call failed.
var ErrImageUnavailable = errors.New("species image unavailable")

// Ref identifies one species in the catalog listing.
type Ref struct {
	Name      string `json:"name"`
	DetailURL string `json:"url"`
}

// Fetcher retrieves the species listing and per-species artwork.
type Fetcher interface {
	// ListAll returns the full ordered listing.
	ListAll(ctx context.Context) ([]Ref, error)
	// Detail returns the artwork URL for ref.
	Detail(ctx context.Context, ref Ref) (string, error)
}

// DisplayName turns a catalog name such as "mr-mime" into "Mr Mime".
func DisplayName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "-", " "))
}
