package engine

import "time"

// CardStatus represents the visibility state of a single card
type CardStatus string

const (
	Hidden   CardStatus = "hidden"
	Revealed CardStatus = "revealed"
	Matched  CardStatus = "matched"

	// Validation constants
	MinSymbols           = 2
	MaxSymbols           = 26
	MaxFlipBackDelayMs   = 10000
	DefaultFlipBackDelay = 1000 * time.Millisecond
	CardsPerSymbol       = 2
	WebSocketBufferSize  = 256
)

// Card is a single positioned slot on the board
type Card struct {
	Index  int        `json:"index"`
	Symbol string     `json:"symbol,omitempty"`
	Status CardStatus `json:"status"`
}

// Messages holds the player-facing texts of a configuration
type Messages struct {
	Idle     string `json:"idle" validate:"required"`
	Complete string `json:"complete" validate:"required"` // must contain one %d for the move count
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name            string   `json:"name" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	Symbols         []string `json:"symbols" validate:"symbolcount,unique,dive,required,max=16"`
	FlipBackDelayMs int      `json:"flip_back_delay_ms" validate:"gte=0,lte=10000"`
	Messages        Messages `json:"messages"`
}

// FlipBackDelay returns how long a mismatched pair stays face up.
// A zero value in the config means the default delay.
func (c *GameConfig) FlipBackDelay() time.Duration {
	if c == nil || c.FlipBackDelayMs == 0 {
		return DefaultFlipBackDelay
	}
	return time.Duration(c.FlipBackDelayMs) * time.Millisecond
}

// DeckSize returns the number of cards a game built from this config holds
func (c *GameConfig) DeckSize() int {
	return len(c.Symbols) * CardsPerSymbol
}

// GameState represents the complete game state
type GameState struct {
	GameID     string `json:"game_id"`
	Generation uint64 `json:"generation"`
	ConfigName string `json:"config_name"`

	Cards []Card `json:"cards"`

	// Turn state: indices revealed but not yet resolved (0, 1 or 2) and the input lock.
	Revealed        []int `json:"revealed"`
	Locked          bool  `json:"locked"`
	PendingFlipBack bool  `json:"pending_flip_back"`

	Moves        int `json:"moves"`
	MatchedPairs int `json:"matched_pairs"`
	TotalPairs   int `json:"total_pairs"`

	Complete       bool       `json:"complete"`
	Message        string     `json:"message"`
	RestartVisible bool       `json:"restart_visible"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`

	// MoveHistory and TotalMoves are cumulative across resets.
	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`
}

// MoveHistoryEntry records one completed two-card turn
type MoveHistoryEntry struct {
	MoveNumber   int    `json:"move_number"`
	Generation   uint64 `json:"generation"`
	First        int    `json:"first"`
	Second       int    `json:"second"`
	FirstSymbol  string `json:"first_symbol"`
	SecondSymbol string `json:"second_symbol"`
	Matched      bool   `json:"matched"`
	Timestamp    int64  `json:"timestamp"`
}

// SelectOutcome describes what a selection did
type SelectOutcome string

const (
	OutcomeIgnored  SelectOutcome = "ignored"
	OutcomeRevealed SelectOutcome = "revealed"
	OutcomeMatch    SelectOutcome = "match"
	OutcomeMismatch SelectOutcome = "mismatch"
)

// IgnoreReason explains why a selection was a no-op
type IgnoreReason string

const (
	ReasonLocked          IgnoreReason = "locked"
	ReasonInvalidIndex    IgnoreReason = "invalid_index"
	ReasonAlreadyRevealed IgnoreReason = "already_revealed"
	ReasonAlreadyMatched  IgnoreReason = "already_matched"
)

// SelectResult is returned by SelectCard. Ignored selections are not errors.
type SelectResult struct {
	Index        int           `json:"index"`
	Outcome      SelectOutcome `json:"outcome"`
	Reason       IgnoreReason  `json:"reason,omitempty"`
	Pair         []int         `json:"pair,omitempty"`
	Moves        int           `json:"moves"`
	MatchedPairs int           `json:"matched_pairs"`
	Completed    bool          `json:"completed"`
	Locked       bool          `json:"locked"`
	// Cards holds the cards this selection turned face up, as they were
	// when the selection was applied.
	Cards []Card `json:"cards,omitempty"`
}
