package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/memory-match-game/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	results  ResultStore
	mu       sync.RWMutex
	now      func() time.Time
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return NewGameServiceWithResults(sessions, configs, nil)
}

// NewGameServiceWithResults creates a game service that records finished
// games in results. results may be nil.
func NewGameServiceWithResults(sessions SessionManager, configs ConfigManager, results ResultStore) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		results:  results,
		now:      time.Now,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		GameState:      sess.Engine.GetState().Redacted(),
		GameConfig:     sess.Config,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			availableConfigs, listErr := s.configs.ListConfigs()
			if listErr == nil && len(availableConfigs) > 0 {
				var configIDs []string
				for _, cfg := range availableConfigs {
					configIDs = append(configIDs, cfg.ConfigID)
				}
				return nil, fmt.Errorf("%w: '%s' (available configs: %v): %v", ErrConfigNotFound, configName, configIDs, err)
			}
			return nil, fmt.Errorf("%w: '%s': %v", ErrConfigNotFound, configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	info := s.sessionInfo(sess)
	if configName != "" {
		info.ConfigName = configName
	}
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// SelectCard forwards a selection event to the session's engine
func (s *gameServiceImpl) SelectCard(ctx context.Context, sessionID string, index int) (*SelectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	selection := sess.Engine.SelectCard(index)
	state := sess.Engine.GetState()

	result := &SelectResult{
		Accepted:     selection.Outcome != engine.OutcomeIgnored,
		Index:        selection.Index,
		Outcome:      selection.Outcome,
		Reason:       selection.Reason,
		Pair:         selection.Pair,
		Moves:        selection.Moves,
		MatchedPairs: selection.MatchedPairs,
		TotalPairs:   state.TotalPairs,
		Completed:    selection.Completed,
		Locked:       selection.Locked,
		Cards:        selection.Cards,
		GameState:    state.Redacted(),
		Message:      state.Message,
		Events:       s.selectEvents(selection, state, sess.Config.FlipBackDelay()),
	}

	if !result.Accepted {
		return result, nil
	}

	if selection.Outcome == engine.OutcomeMatch && selection.Completed {
		s.recordResult(ctx, sess, state)
	}

	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist session after select")
	}

	return result, nil
}

func (s *gameServiceImpl) selectEvents(selection engine.SelectResult, state *engine.GameState, delay time.Duration) []GameEvent {
	now := s.now()

	switch selection.Outcome {
	case engine.OutcomeIgnored:
		return []GameEvent{{
			Type:      "ignored",
			Message:   fmt.Sprintf("Selection of card %d ignored: %s", selection.Index, selection.Reason),
			Timestamp: now,
		}}
	case engine.OutcomeRevealed:
		return []GameEvent{{
			Type:      "reveal",
			Message:   fmt.Sprintf("Card %d revealed: %s", selection.Index, state.Cards[selection.Index].Symbol),
			Timestamp: now,
			Cards:     []int{selection.Index},
		}}
	}

	a, b := selection.Pair[0], selection.Pair[1]
	events := []GameEvent{{
		Type:      "reveal",
		Message:   fmt.Sprintf("Card %d revealed: %s", b, state.Cards[b].Symbol),
		Timestamp: now,
		Cards:     []int{b},
	}}

	if selection.Outcome == engine.OutcomeMismatch {
		return append(events, GameEvent{
			Type:      "mismatch",
			Message:   fmt.Sprintf("No match: %s and %s flip back in %v", state.Cards[a].Symbol, state.Cards[b].Symbol, delay),
			Timestamp: now,
			Cards:     []int{a, b},
		})
	}

	events = append(events, GameEvent{
		Type:      "match",
		Message:   fmt.Sprintf("Match! %s found (%d/%d pairs)", state.Cards[a].Symbol, selection.MatchedPairs, state.TotalPairs),
		Timestamp: now,
		Cards:     []int{a, b},
	})
	if selection.Completed {
		events = append(events, GameEvent{
			Type:      "complete",
			Message:   state.Message,
			Timestamp: now,
		})
	}
	return events
}

func (s *gameServiceImpl) recordResult(ctx context.Context, sess *Session, state *engine.GameState) {
	if s.results == nil {
		return
	}

	completedAt := s.now()
	if state.CompletedAt != nil {
		completedAt = *state.CompletedAt
	}

	result := &GameResult{
		GameID:      state.GameID,
		SessionID:   sess.ID,
		ConfigName:  s.getConfigID(sess.Config.Name),
		Moves:       state.Moves,
		Pairs:       state.TotalPairs,
		DurationMs:  state.Elapsed(completedAt).Milliseconds(),
		CompletedAt: completedAt,
	}
	if err := s.results.Record(ctx, result); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID).Str("game_id", state.GameID).Msg("failed to record game result")
		return
	}
	log.Info().
		Str("session_id", sess.ID).
		Str("config", result.ConfigName).
		Int("moves", result.Moves).
		Int64("duration_ms", result.DurationMs).
		Msg("game completed")
}

// Reset resets a game session to a freshly shuffled board
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist session after reset")
	}

	return state.Redacted(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState().Redacted(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", sessionID, err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// Leaderboard returns the best finished games, fewest moves first
func (s *gameServiceImpl) Leaderboard(ctx context.Context, configName string, limit int) ([]*GameResult, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	if s.results == nil {
		return []*GameResult{}, nil
	}

	results, err := s.results.Leaderboard(ctx, configName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	for i, r := range results {
		r.Rank = i + 1
	}
	return results, nil
}
