package service

import (
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// SelectResult contains the result of a card selection
type SelectResult struct {
	Accepted     bool                 `json:"accepted"`
	Index        int                  `json:"index"`
	Outcome      engine.SelectOutcome `json:"outcome"`
	Reason       engine.IgnoreReason  `json:"reason,omitempty"`
	Pair         []int                `json:"pair,omitempty"`
	Cards        []engine.Card        `json:"cards,omitempty"` // face-up cards of this turn
	Moves        int                  `json:"moves"`
	MatchedPairs int                  `json:"matched_pairs"`
	TotalPairs   int                  `json:"total_pairs"`
	Completed    bool                 `json:"completed"`
	Locked       bool                 `json:"locked"`
	GameState    *engine.GameState    `json:"game_state"`
	Message      string               `json:"message"`
	Events       []GameEvent          `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "reveal", "match", "mismatch", "ignored", "complete", "reset"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Cards     []int     `json:"cards,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use for session creation
	Name            string `json:"name"`      // Display name
	Description     string `json:"description"`
	Pairs           int    `json:"pairs"`
	DeckSize        int    `json:"deck_size"`
	FlipBackDelayMs int    `json:"flip_back_delay_ms"`
}

// GameResult is a finished game as kept by the leaderboard
type GameResult struct {
	Rank        int       `json:"rank,omitempty"`
	GameID      string    `json:"game_id"`
	SessionID   string    `json:"session_id"`
	ConfigName  string    `json:"config_name"`
	Moves       int       `json:"moves"`
	Pairs       int       `json:"pairs"`
	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)
