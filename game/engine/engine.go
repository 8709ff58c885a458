package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game lifecycle
	StartNewGame() *GameState
	Reset() *GameState
	SelectCard(index int) SelectResult

	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	IsComplete() bool
	IsLocked() bool
	GetMoves() int
	GetMatchedPairs() int
	GetTotalPairs() int
	Generation() uint64

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
}

// Option configures a GameEngine
type Option func(*GameEngine)

// WithDisplay sets the display adapter
func WithDisplay(display Display) Option {
	return func(e *GameEngine) {
		if display != nil {
			e.display = display
		}
	}
}

// WithScheduler sets the scheduler used for the mismatch flip-back
func WithScheduler(scheduler Scheduler) Option {
	return func(e *GameEngine) {
		if scheduler != nil {
			e.scheduler = scheduler
		}
	}
}

// WithRandom sets the random source of the default shuffle
func WithRandom(r Random) Option {
	return func(e *GameEngine) {
		if r != nil {
			e.random = r
		}
	}
}

// WithShuffle replaces the Fisher-Yates shuffle of the symbol sequence
func WithShuffle(shuffle func([]string)) Option {
	return func(e *GameEngine) {
		e.shuffle = shuffle
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(e *GameEngine) {
		if now != nil {
			e.now = now
		}
	}
}

// GameEngine implements the Engine interface. All state transitions happen
// under mu, so selections and timer callbacks are applied one at a time in
// arrival order.
type GameEngine struct {
	mu     sync.Mutex
	state  *GameState
	config *GameConfig

	display   Display
	scheduler Scheduler
	random    Random
	shuffle   func([]string)
	now       func() time.Time

	onFlipBack func(*GameState)
}

// NewEngine creates a new game engine with the provided configuration and
// deals the first game.
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := newGameEngine(config, opts)
	e.StartNewGame()
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e := newGameEngine(DefaultConfig(), opts)
	e.StartNewGame()
	return e
}

func newGameEngine(config *GameConfig, opts []Option) *GameEngine {
	e := &GameEngine{
		config:    config,
		display:   NopDisplay{},
		scheduler: TimerScheduler{},
		random:    globalRandom{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.shuffle == nil {
		e.shuffle = func(items []string) { Shuffle(items, e.random) }
	}
	return e
}

// AttachDisplay swaps the display adapter and replays the current board onto it
func (e *GameEngine) AttachDisplay(display Display) {
	if display == nil {
		display = NopDisplay{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.display = display
	e.syncDisplay()
}

// OnFlipBack registers fn to run after a delayed flip-back has been applied.
// fn receives a snapshot and runs outside the engine lock.
func (e *GameEngine) OnFlipBack(fn func(*GameState)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onFlipBack = fn
}

// StartNewGame discards the current game and deals a fresh shuffled board.
// Any flip-back still pending from the previous game becomes stale.
func (e *GameEngine) StartNewGame() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.startNewGame()
	return e.state.Clone()
}

// Reset re-invokes initialization, keeping the cumulative move history
func (e *GameEngine) Reset() *GameState {
	return e.StartNewGame()
}

func (e *GameEngine) startNewGame() {
	var (
		generation uint64
		history    = []MoveHistoryEntry{}
		totalMoves int
	)
	if e.state != nil {
		generation = e.state.Generation
		history = e.state.MoveHistory
		totalMoves = e.state.TotalMoves
	}

	e.state = &GameState{
		GameID:      uuid.NewString(),
		Generation:  generation + 1,
		ConfigName:  e.config.Name,
		Revealed:    []int{},
		TotalPairs:  len(e.config.Symbols),
		Message:     e.config.Messages.Idle,
		StartedAt:   e.now(),
		MoveHistory: history,
		TotalMoves:  totalMoves,
	}

	e.display.ClearBoard()
	e.display.SetMessage(e.state.Message)
	e.display.SetMoveCount(0)
	e.display.SetRestartControlVisible(false)

	e.state.Cards = NewDeck(e.config.Symbols, e.shuffle)
	e.display.RenderBoard(append([]Card(nil), e.state.Cards...))
}

// SelectCard handles a selection event for the card at index. Selections
// while the board is locked, on an unknown index, or on a card that is
// already face up are ignored without changing anything.
func (e *GameEngine) SelectCard(index int) SelectResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	result := SelectResult{Index: index}

	switch {
	case s.Locked:
		return e.ignore(result, ReasonLocked)
	case index < 0 || index >= len(s.Cards):
		return e.ignore(result, ReasonInvalidIndex)
	case s.Cards[index].Status == Revealed:
		return e.ignore(result, ReasonAlreadyRevealed)
	case s.Cards[index].Status == Matched:
		return e.ignore(result, ReasonAlreadyMatched)
	}

	s.Cards[index].Status = Revealed
	s.Revealed = append(s.Revealed, index)
	e.display.SetCardFace(index, true)

	if len(s.Revealed) < 2 {
		result.Outcome = OutcomeRevealed
		return e.fill(result)
	}

	s.Locked = true
	s.Moves++
	s.TotalMoves++
	e.display.SetMoveCount(s.Moves)

	first, second := s.Revealed[0], s.Revealed[1]
	result.Pair = []int{first, second}
	if e.evaluatePair(first, second) {
		result.Outcome = OutcomeMatch
	} else {
		result.Outcome = OutcomeMismatch
	}
	return e.fill(result)
}

func (e *GameEngine) ignore(result SelectResult, reason IgnoreReason) SelectResult {
	result.Outcome = OutcomeIgnored
	result.Reason = reason
	return e.fill(result)
}

func (e *GameEngine) fill(result SelectResult) SelectResult {
	result.Moves = e.state.Moves
	result.MatchedPairs = e.state.MatchedPairs
	result.Completed = e.state.Complete
	result.Locked = e.state.Locked

	faceUp := result.Pair
	if result.Outcome == OutcomeRevealed {
		faceUp = []int{result.Index}
	}
	for _, idx := range faceUp {
		result.Cards = append(result.Cards, e.state.Cards[idx])
	}
	return result
}

// evaluatePair resolves the two revealed cards. A match is settled at once;
// a mismatch stays face up and locked until the flip-back fires.
func (e *GameEngine) evaluatePair(a, b int) bool {
	s := e.state
	matched := s.Cards[a].Symbol == s.Cards[b].Symbol
	e.recordMove(a, b, matched)

	if !matched {
		s.PendingFlipBack = true
		generation, move := s.Generation, s.Moves
		e.scheduler.AfterFunc(e.config.FlipBackDelay(), func() {
			e.flipBack(generation, move, a, b)
		})
		return false
	}

	s.Cards[a].Status = Matched
	s.Cards[b].Status = Matched
	e.display.SetCardMatched(a)
	e.display.SetCardMatched(b)

	s.Revealed = []int{}
	s.Locked = false
	s.MatchedPairs++

	e.checkCompletion()
	return true
}

// flipBack turns a mismatched pair face down again. The callback carries the
// generation and move it was scheduled for and does nothing if either moved on.
func (e *GameEngine) flipBack(generation uint64, move, a, b int) {
	e.mu.Lock()

	s := e.state
	if s.Generation != generation || s.Moves != move || !s.PendingFlipBack {
		current := s.Generation
		e.mu.Unlock()
		log.Debug().
			Uint64("generation", generation).
			Uint64("current_generation", current).
			Int("move", move).
			Msg("discarding stale flip-back")
		return
	}

	for _, idx := range []int{a, b} {
		if s.Cards[idx].Status == Revealed {
			s.Cards[idx].Status = Hidden
			e.display.SetCardFace(idx, false)
		}
	}
	s.Revealed = []int{}
	s.Locked = false
	s.PendingFlipBack = false

	snapshot := s.Clone()
	hook := e.onFlipBack
	e.mu.Unlock()

	if hook != nil {
		hook(snapshot)
	}
}

// checkCompletion runs only right after a successful match
func (e *GameEngine) checkCompletion() {
	s := e.state
	if s.MatchedPairs != s.TotalPairs {
		return
	}

	completedAt := e.now()
	s.Complete = true
	s.CompletedAt = &completedAt
	s.Message = fmt.Sprintf(e.config.Messages.Complete, s.Moves)
	s.RestartVisible = true

	e.display.SetMessage(s.Message)
	e.display.SetRestartControlVisible(true)
}

func (e *GameEngine) recordMove(a, b int, matched bool) {
	s := e.state
	s.MoveHistory = append(s.MoveHistory, MoveHistoryEntry{
		MoveNumber:   s.Moves,
		Generation:   s.Generation,
		First:        a,
		Second:       b,
		FirstSymbol:  s.Cards[a].Symbol,
		SecondSymbol: s.Cards[b].Symbol,
		Matched:      matched,
		Timestamp:    e.now().Unix(),
	})
}

// syncDisplay replays the whole board onto the display
func (e *GameEngine) syncDisplay() {
	s := e.state
	e.display.ClearBoard()
	e.display.RenderBoard(append([]Card(nil), s.Cards...))
	for _, card := range s.Cards {
		switch card.Status {
		case Revealed:
			e.display.SetCardFace(card.Index, true)
		case Matched:
			e.display.SetCardMatched(card.Index)
		}
	}
	e.display.SetMoveCount(s.Moves)
	e.display.SetMessage(s.Message)
	e.display.SetRestartControlVisible(s.RestartVisible)
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// SetState replaces the game state (used for persistence loading). A pair
// that was waiting on a flip-back is turned face down immediately.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(state.Cards) != e.config.DeckSize() {
		return fmt.Errorf("state has %d cards, config %q deals %d", len(state.Cards), e.config.Name, e.config.DeckSize())
	}
	for _, symbol := range e.config.Symbols {
		if n := len(IndicesOf(state.Cards, symbol)); n != CardsPerSymbol {
			return fmt.Errorf("state has %d %q cards, config %q deals %d", n, symbol, e.config.Name, CardsPerSymbol)
		}
	}

	restored := state.Clone()
	if restored.PendingFlipBack || len(restored.Revealed) >= 2 {
		for _, idx := range restored.Revealed {
			if idx >= 0 && idx < len(restored.Cards) && restored.Cards[idx].Status == Revealed {
				restored.Cards[idx].Status = Hidden
			}
		}
		restored.Revealed = []int{}
		restored.PendingFlipBack = false
	}
	restored.Locked = false
	if restored.TotalPairs == 0 {
		restored.TotalPairs = len(e.config.Symbols)
	}

	e.state = restored
	e.syncDisplay()
	return nil
}

// IsComplete returns whether every pair has been matched
func (e *GameEngine) IsComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Complete
}

// IsLocked returns whether selections are currently blocked
func (e *GameEngine) IsLocked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Locked
}

// GetMoves returns the number of completed turns in the current game
func (e *GameEngine) GetMoves() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Moves
}

// GetMatchedPairs returns the number of matched pairs in the current game
func (e *GameEngine) GetMatchedPairs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.MatchedPairs
}

// GetTotalPairs returns the number of pairs on the board
func (e *GameEngine) GetTotalPairs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.TotalPairs
}

// Generation returns the generation number of the current game
func (e *GameEngine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Generation
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// SetConfig sets a new game configuration and deals a new game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.config = config
	e.startNewGame()
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]MoveHistoryEntry{}, e.state.MoveHistory...)
}
