package session

import (
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/service"
)

// SessionPersistence stores sessions between restarts. Implementations must
// reject IDs that are not plain session IDs.
type SessionPersistence interface {
	Save(session *service.Session) error
	// Load rebuilds a stored session, its engine built with opts
	Load(id string, opts ...engine.Option) (*service.Session, error)
	Delete(id string) error
	// ListAll returns the IDs of every stored session
	ListAll() ([]string, error)
	Exists(id string) bool
}

// PersistedSessionData is the on-disk form of a session. GameState is the
// full state, face-down symbols included, so a reloaded board deals the same
// cards.
type PersistedSessionData struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
}
