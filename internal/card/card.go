package card

// Card represents one physical card of a memory deck
type Card struct {
	InstanceID string `json:"id"`       // Unique per physical card
	PairKey    string `json:"pairKey"`  // Species name shared by exactly two cards
	ImageURL   string `json:"imageUrl"` // Artwork reference, empty when unavailable
	FaceUp     bool   `json:"faceUp"`
	Matched    bool   `json:"matched"`
}

// Visible reports whether the card face is shown.
func (c Card) Visible() bool {
	return c.FaceUp || c.Matched
}
