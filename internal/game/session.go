// Package game implements the memory game session: dealing, flip and match resolution, the
// countdown and the one-shot reveal power-up.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/arcanaland/dexmatch/internal/deck"
	"go.uber.org/zap"
)

const (
	// TickInterval is the countdown resolution.
	TickInterval = time.Second
	// MismatchDelay is how long a mismatched pair stays face up.
	MismatchDelay = 800 * time.Millisecond
	// PowerUpDuration is how long the power-up keeps the board revealed.
	PowerUpDuration = 3 * time.Second
)

var (
	// ErrInvalidTransition is returned for actions the current state forbids. State is untouched.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrSuperseded is returned by Start when a reset or another start replaced it while dealing.
	ErrSuperseded = errors.New("session superseded")
)

// Dealer builds decks for new sessions.
type Dealer interface {
	Build(ctx context.Context, pairCount int) (deck.Deck, error)
}

// Session is a single-player memory game. All operations and deferred callbacks are serialized
// by one mutex. Deferred callbacks carry the generation they were scheduled under and are
// dropped once Start or Reset has moved the generation on.
type Session struct {
	dealer Dealer
	sched  Scheduler
	notify func(Event)
	logger *zap.Logger

	mu               sync.Mutex
	generation       uint64
	phase            Phase
	config           Config
	deck             deck.Deck
	revealed         []int
	resolving        bool
	matchedPairs     int
	attempts         int
	remaining        int
	powerUpAvailable bool

	tickTimer   Timer
	revertTimer Timer
	hideTimer   Timer
}

// Option configures a Session.
type Option func(*Session)

// WithScheduler replaces the wall clock, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(sess *Session) {
		if s != nil {
			sess.sched = s
		}
	}
}

// WithNotifier registers fn to receive every state change. fn runs while the session is locked
// and must not call back into the Session.
func WithNotifier(fn func(Event)) Option {
	return func(sess *Session) { sess.notify = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(sess *Session) {
		if logger != nil {
			sess.logger = logger
		}
	}
}

// NewSession returns an idle session dealing from dealer.
func NewSession(dealer Dealer, opts ...Option) *Session {
	s := &Session{
		dealer: dealer,
		sched:  WallClock,
		logger: zap.NewNop(),
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start cancels whatever the session was doing, deals a new deck and starts the countdown.
// The deck is built without holding the session lock; if Reset or another Start runs meanwhile
// the deal is discarded and ErrSuperseded is returned.
func (s *Session) Start(ctx context.Context, cfg Config) error {
	if cfg.PairCount <= 0 || cfg.TimeLimitSeconds <= 0 {
		return fmt.Errorf("start: invalid config %+v", cfg)
	}

	s.mu.Lock()
	s.clearLocked()
	s.phase = PhaseDealing
	s.config = cfg
	gen := s.generation
	s.emitLocked(EventDealing)
	s.mu.Unlock()

	d, err := s.dealer.Build(ctx, cfg.PairCount)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.Debug("discarding superseded deal", zap.Uint64("generation", gen))
		return ErrSuperseded
	}
	if err != nil {
		s.phase = PhaseIdle
		s.config = Config{}
		s.emitLocked(EventDealFailed)
		return fmt.Errorf("deal: %w", err)
	}

	s.deck = d
	s.remaining = cfg.TimeLimitSeconds
	s.powerUpAvailable = true
	s.phase = PhasePlaying
	s.armTickLocked(gen)

	s.logger.Info("session started",
		zap.Uint64("generation", gen),
		zap.String("difficulty", cfg.Difficulty),
		zap.Int("pairs", cfg.PairCount),
		zap.Int("seconds", cfg.TimeLimitSeconds))
	s.emitLocked(EventDealt)
	return nil
}

// Tick advances the countdown by one second. It is driven by the session's own timer once
// playing and is a no-op outside PhasePlaying.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickLocked()
}

// Flip turns the card at index face up and resolves the pair once two cards are revealed.
func (s *Session) Flip(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return fmt.Errorf("flip in %s phase: %w", s.phase, ErrInvalidTransition)
	}
	if s.resolving || len(s.revealed) >= 2 {
		return fmt.Errorf("flip while a pair is resolving: %w", ErrInvalidTransition)
	}
	if index < 0 || index >= len(s.deck) {
		return fmt.Errorf("flip index %d out of range: %w", index, ErrInvalidTransition)
	}
	c := &s.deck[index]
	if c.Matched {
		return fmt.Errorf("flip matched card %d: %w", index, ErrInvalidTransition)
	}
	if c.FaceUp {
		return fmt.Errorf("flip face-up card %d: %w", index, ErrInvalidTransition)
	}

	c.FaceUp = true
	s.revealed = append(s.revealed, index)
	s.emitLocked(EventFlipped)

	if len(s.revealed) < 2 {
		return nil
	}

	s.attempts++
	first, second := s.revealed[0], s.revealed[1]
	if s.deck[first].PairKey == s.deck[second].PairKey {
		s.deck[first].Matched = true
		s.deck[second].Matched = true
		s.revealed = nil
		s.matchedPairs++
		s.emitLocked(EventMatched)

		if s.matchedPairs == s.config.PairCount {
			s.stopTimer(&s.tickTimer)
			s.phase = PhaseWon
			s.logger.Info("session won", zap.Uint64("generation", s.generation), zap.Int("attempts", s.attempts))
			s.emitLocked(EventWon)
		}
		return nil
	}

	s.resolving = true
	gen := s.generation
	s.revertTimer = s.sched.AfterFunc(MismatchDelay, func() { s.revert(gen, first, second) })
	s.emitLocked(EventMismatched)
	return nil
}

// UsePowerUp reveals every unmatched card and hides them again after PowerUpDuration. It can
// be used once per session and neither pauses the countdown nor counts as an attempt.
func (s *Session) UsePowerUp() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		return fmt.Errorf("power-up in %s phase: %w", s.phase, ErrInvalidTransition)
	}
	if !s.powerUpAvailable {
		return fmt.Errorf("power-up already used: %w", ErrInvalidTransition)
	}

	s.powerUpAvailable = false
	for i := range s.deck {
		if !s.deck[i].Matched {
			s.deck[i].FaceUp = true
		}
	}
	gen := s.generation
	s.hideTimer = s.sched.AfterFunc(PowerUpDuration, func() { s.hide(gen) })
	s.emitLocked(EventPowerRevealed)
	return nil
}

// Reset cancels pending deferred actions and the countdown, drops the deck and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.emitLocked(EventReset)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) revert(gen uint64, first, second int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.Debug("dropping stale mismatch revert", zap.Uint64("generation", gen))
		return
	}
	for _, i := range []int{first, second} {
		if !s.deck[i].Matched {
			s.deck[i].FaceUp = false
		}
	}
	s.revealed = nil
	s.resolving = false
	s.revertTimer = nil
	s.emitLocked(EventReverted)
}

func (s *Session) hide(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.logger.Debug("dropping stale power-up hide", zap.Uint64("generation", gen))
		return
	}
	for i := range s.deck {
		// pending flips stay up until they resolve
		if s.deck[i].Matched || slices.Contains(s.revealed, i) {
			continue
		}
		s.deck[i].FaceUp = false
	}
	s.hideTimer = nil
	s.emitLocked(EventPowerHidden)
}

func (s *Session) armTickLocked(gen uint64) {
	s.tickTimer = s.sched.AfterFunc(TickInterval, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen || s.phase != PhasePlaying {
			return
		}
		s.tickLocked()
		if s.phase == PhasePlaying {
			s.armTickLocked(gen)
		}
	})
}

func (s *Session) tickLocked() {
	if s.phase != PhasePlaying {
		return
	}
	s.remaining--
	if s.remaining > 0 {
		s.emitLocked(EventTick)
		return
	}

	s.remaining = 0
	s.stopTimer(&s.tickTimer)
	s.phase = PhaseLost
	s.logger.Info("session lost", zap.Uint64("generation", s.generation), zap.Int("matched_pairs", s.matchedPairs))
	s.emitLocked(EventLost)
}

// clearLocked invalidates every outstanding callback and zeroes the session.
func (s *Session) clearLocked() {
	s.generation++
	s.stopTimer(&s.tickTimer)
	s.stopTimer(&s.revertTimer)
	s.stopTimer(&s.hideTimer)

	s.phase = PhaseIdle
	s.config = Config{}
	s.deck = nil
	s.revealed = nil
	s.resolving = false
	s.matchedPairs = 0
	s.attempts = 0
	s.remaining = 0
	s.powerUpAvailable = false
}

func (s *Session) stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Generation:       s.generation,
		Phase:            s.phase,
		Config:           s.config,
		Deck:             s.deck.Clone(),
		Revealed:         slices.Clone(s.revealed),
		Resolving:        s.resolving,
		MatchedPairs:     s.matchedPairs,
		Attempts:         s.attempts,
		RemainingSeconds: s.remaining,
		PowerUpAvailable: s.powerUpAvailable,
	}
}

func (s *Session) emitLocked(kind EventKind) {
	if s.notify == nil {
		return
	}
	s.notify(Event{Kind: kind, Snapshot: s.snapshotLocked()})
}
