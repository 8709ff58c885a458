package engine

import "time"

// Clone returns a deep copy of the state
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}

	clone := *gs
	clone.Cards = append([]Card(nil), gs.Cards...)
	clone.Revealed = append([]int{}, gs.Revealed...)
	clone.MoveHistory = append([]MoveHistoryEntry{}, gs.MoveHistory...)
	if gs.CompletedAt != nil {
		completedAt := *gs.CompletedAt
		clone.CompletedAt = &completedAt
	}
	return &clone
}

// Redacted returns a copy safe to show a player: face-down cards carry no symbol
func (gs *GameState) Redacted() *GameState {
	clone := gs.Clone()
	if clone == nil {
		return nil
	}
	clone.Cards = RedactCards(clone.Cards)
	return clone
}

// RedactCards strips the symbol from every hidden card
func RedactCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, card := range cards {
		if card.Status == Hidden {
			card.Symbol = ""
		}
		out[i] = card
	}
	return out
}

// Elapsed returns the play time of the game, up to completion if it finished
func (gs *GameState) Elapsed(now time.Time) time.Duration {
	if gs.CompletedAt != nil {
		return gs.CompletedAt.Sub(gs.StartedAt)
	}
	return now.Sub(gs.StartedAt)
}

// RemainingPairs returns how many pairs are still unmatched
func (gs *GameState) RemainingPairs() int {
	return gs.TotalPairs - gs.MatchedPairs
}
