package game

import "github.com/arcanaland/dexmatch/internal/deck"

// Phase is the lifecycle stage of a session.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseDealing Phase = "dealing"
	PhasePlaying Phase = "playing"
	PhaseWon     Phase = "won"
	PhaseLost    Phase = "lost"
)

// Over reports whether the phase is terminal for the current deal.
func (p Phase) Over() bool {
	return p == PhaseWon || p == PhaseLost
}

// EventKind names a session state change.
type EventKind string

const (
	EventDealing       EventKind = "dealing"
	EventDealt         EventKind = "dealt"
	EventDealFailed    EventKind = "deal_failed"
	EventFlipped       EventKind = "flipped"
	EventMatched       EventKind = "matched"
	EventMismatched    EventKind = "mismatched"
	EventReverted      EventKind = "reverted"
	EventTick          EventKind = "tick"
	EventWon           EventKind = "won"
	EventLost          EventKind = "lost"
	EventPowerRevealed EventKind = "power_revealed"
	EventPowerHidden   EventKind = "power_hidden"
	EventReset         EventKind = "reset"
)

// Snapshot is a copy of session state safe to hand to presentation code.
type Snapshot struct {
	Generation       uint64    `json:"generation"`
	Phase            Phase     `json:"phase"`
	Config           Config    `json:"config"`
	Deck             deck.Deck `json:"deck"`
	Revealed         []int     `json:"revealed"`
	Resolving        bool      `json:"resolving"`
	MatchedPairs     int       `json:"matchedPairs"`
	Attempts         int       `json:"attempts"`
	RemainingSeconds int       `json:"remainingSeconds"`
	PowerUpAvailable bool      `json:"powerUpAvailable"`
}

// PairsLeft returns the number of pairs still to match.
func (s Snapshot) PairsLeft() int {
	return s.Config.PairCount - s.MatchedPairs
}

// Event is emitted after every state change.
type Event struct {
	Kind     EventKind `json:"kind"`
	Snapshot Snapshot  `json:"state"`
}
