package engine

import (
	"math/rand"
	"sync"
)

// globalRandom draws from the auto-seeded, goroutine-safe math/rand source
type globalRandom struct{}

func (globalRandom) Intn(n int) int { return rand.Intn(n) }

// seededRandom is a deterministic source that many engines may share
type seededRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRandom returns a goroutine-safe Random seeded with seed
func NewSeededRandom(seed int64) Random {
	return &seededRandom{r: rand.New(rand.NewSource(seed))}
}

func (s *seededRandom) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// Shuffle permutes items in place with Fisher-Yates: for i from the last
// index down to 1, swap items[i] with items[j] where j is uniform in [0, i].
func Shuffle[T any](items []T, r Random) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// DuplicateSymbols returns every symbol CardsPerSymbol times, in order
func DuplicateSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols)*CardsPerSymbol)
	for n := 0; n < CardsPerSymbol; n++ {
		out = append(out, symbols...)
	}
	return out
}

// NewDeck builds a fresh face-down deck. shuffle reorders the symbol
// sequence before cards are bound to their positions.
func NewDeck(symbols []string, shuffle func([]string)) []Card {
	sequence := DuplicateSymbols(symbols)
	if shuffle != nil {
		shuffle(sequence)
	}

	cards := make([]Card, len(sequence))
	for i, symbol := range sequence {
		cards[i] = Card{Index: i, Symbol: symbol, Status: Hidden}
	}
	return cards
}

// CountStatus counts cards with the given status
func CountStatus(cards []Card, status CardStatus) int {
	count := 0
	for _, card := range cards {
		if card.Status == status {
			count++
		}
	}
	return count
}

// IndicesOf returns the positions holding symbol
func IndicesOf(cards []Card, symbol string) []int {
	var indices []int
	for _, card := range cards {
		if card.Symbol == symbol {
			indices = append(indices, card.Index)
		}
	}
	return indices
}
