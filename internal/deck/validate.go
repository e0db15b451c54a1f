package deck

import (
	"fmt"
	"sort"
)

// ValidationResults collects problems found in a deck. Errors break the pairing invariant;
// warnings are playable defects such as blank faces.
type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether no errors were found.
func (r ValidationResults) Valid() bool {
	return len(r.Errors) == 0
}

// Validate checks that every pair key appears exactly twice, instance ids are unique and both
// cards of a pair share the same artwork.
func Validate(d Deck) ValidationResults {
	var results ValidationResults

	if len(d) == 0 {
		results.Errors = append(results.Errors, "deck is empty")
		return results
	}
	if len(d)%2 != 0 {
		results.Errors = append(results.Errors, fmt.Sprintf("deck has odd length %d", len(d)))
	}

	counts := make(map[string]int)
	images := make(map[string]string)
	seenIDs := make(map[string]bool)
	for i, c := range d {
		if c.PairKey == "" {
			results.Errors = append(results.Errors, fmt.Sprintf("card %d has no pair key", i))
			continue
		}
		if c.InstanceID == "" {
			results.Errors = append(results.Errors, fmt.Sprintf("card %d has no instance id", i))
		} else if seenIDs[c.InstanceID] {
			results.Errors = append(results.Errors, fmt.Sprintf("duplicate instance id: %s", c.InstanceID))
		}
		seenIDs[c.InstanceID] = true

		if counts[c.PairKey] > 0 && images[c.PairKey] != c.ImageURL {
			results.Errors = append(results.Errors, fmt.Sprintf("pair %s has mismatched images", c.PairKey))
		}
		counts[c.PairKey]++
		images[c.PairKey] = c.ImageURL
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if counts[key] != 2 {
			results.Errors = append(results.Errors,
				fmt.Sprintf("pair key %s appears %d times (expected 2)", key, counts[key]))
		}
		if images[key] == "" {
			results.Warnings = append(results.Warnings, fmt.Sprintf("pair %s has no artwork", key))
		}
	}

	return results
}
