package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
)

// GameService is what every transport talks to. Session lookups fail with an
// error wrapping ErrSessionNotFound; selections the engine ignores are not
// errors and come back with Accepted false.
type GameService interface {
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// SelectCard turns over the card at index in the session's board
	SelectCard(ctx context.Context, sessionID string, index int) (*SelectResult, error)
	// Reset deals a new board, keeping the cumulative move history
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// GetGameState returns the board with face-down symbols removed
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Leaderboard lists the fewest-move finished games, all boards when
	// configName is empty
	Leaderboard(ctx context.Context, configName string, limit int) ([]*GameResult, error)
}

// SessionManager owns the live sessions
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager reads and writes board configurations by name
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// ResultStore keeps finished games for the leaderboard
type ResultStore interface {
	Record(ctx context.Context, result *GameResult) error
	Leaderboard(ctx context.Context, configName string, limit int) ([]*GameResult, error)
}

// Session is one player's board. Engine serializes its own access.
// LastAccessedAt may be set directly only before the session is shared;
// afterwards use Touch and LastAccessed.
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time

	mu sync.Mutex
}

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastAccessedAt = t
}

// LastAccessed returns the time of the last recorded access
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastAccessedAt
}
