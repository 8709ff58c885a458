package validate

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
)

// Analysis summarises how many moves a board takes
type Analysis struct {
	File          string
	Name          string
	Pairs         int
	Cards         int
	FlipBackDelay time.Duration
	MinMoves      int
	Games         int
	MeanMoves     float64
	BestMoves     int
	WorstMoves    int
}

// queueScheduler holds flip-backs until the player runs them
type queueScheduler struct {
	tasks []func()
}

func (q *queueScheduler) AfterFunc(_ time.Duration, fn func()) {
	q.tasks = append(q.tasks, fn)
}

func (q *queueScheduler) runAll() {
	tasks := q.tasks
	q.tasks = nil
	for _, fn := range tasks {
		fn()
	}
}

// PlayPerfectMemory plays one game with a player that never forgets a card it
// has seen and returns the number of moves it took.
func PlayPerfectMemory(config *engine.GameConfig, r engine.Random) (int, error) {
	scheduler := &queueScheduler{}
	eng, err := engine.NewEngine(config, engine.WithScheduler(scheduler), engine.WithRandom(r))
	if err != nil {
		return 0, err
	}

	deckSize := config.DeckSize()
	seen := make(map[int]string, deckSize)
	next := 0 // lowest index never turned over

	reveal := func(index int) string {
		eng.SelectCard(index)
		symbol := eng.GetState().Cards[index].Symbol
		seen[index] = symbol
		return symbol
	}

	knownPartner := func(symbol string, except int) (int, bool) {
		for index, s := range seen {
			if s == symbol && index != except {
				return index, true
			}
		}
		return 0, false
	}

	knownPair := func() (int, int, bool) {
		bySymbol := make(map[string]int, len(seen))
		for index := 0; index < deckSize; index++ {
			s, ok := seen[index]
			if !ok {
				continue
			}
			if first, ok := bySymbol[s]; ok {
				return first, index, true
			}
			bySymbol[s] = index
		}
		return 0, 0, false
	}

	forget := func(indices ...int) {
		for _, index := range indices {
			delete(seen, index)
		}
	}

	for !eng.IsComplete() {
		if a, b, ok := knownPair(); ok {
			eng.SelectCard(a)
			eng.SelectCard(b)
			forget(a, b)
			continue
		}

		if next >= deckSize {
			return 0, fmt.Errorf("no cards left to turn over after %d moves", eng.GetMoves())
		}
		first := next
		next++
		symbol := reveal(first)

		if partner, ok := knownPartner(symbol, first); ok {
			eng.SelectCard(partner)
			forget(first, partner)
			continue
		}

		second := next
		next++
		if reveal(second) == symbol {
			forget(first, second)
			continue
		}

		scheduler.runAll()
	}

	return eng.GetMoves(), nil
}

// Analyze plays games rounds of the config with seeds seed, seed+1, ...
func Analyze(file string, config *engine.GameConfig, games int, seed int64) (Analysis, error) {
	if games <= 0 {
		games = 1
	}

	analysis := Analysis{
		File:          file,
		Name:          config.Name,
		Pairs:         len(config.Symbols),
		Cards:         config.DeckSize(),
		FlipBackDelay: config.FlipBackDelay(),
		MinMoves:      len(config.Symbols),
		Games:         games,
		BestMoves:     math.MaxInt,
	}

	total := 0
	for i := 0; i < games; i++ {
		moves, err := PlayPerfectMemory(config, rand.New(rand.NewSource(seed+int64(i))))
		if err != nil {
			return Analysis{}, fmt.Errorf("game %d: %w", i, err)
		}
		total += moves
		analysis.BestMoves = min(analysis.BestMoves, moves)
		analysis.WorstMoves = max(analysis.WorstMoves, moves)
	}
	analysis.MeanMoves = float64(total) / float64(games)

	return analysis, nil
}

// AnalyzeDir analyzes every valid config in dir. Invalid files are skipped.
func AnalyzeDir(dir string, games int, seed int64) ([]Analysis, error) {
	results, err := Dir(dir)
	if err != nil {
		return nil, err
	}

	var analyses []Analysis
	for _, result := range results {
		if !result.Valid {
			continue
		}
		analysis, err := Analyze(result.File, result.Config, games, seed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", result.File, err)
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

// WriteAnalyses prints one block per board
func WriteAnalyses(w io.Writer, analyses []Analysis) {
	for _, a := range analyses {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", a.File)
		fmt.Fprintf(w, "Name: %s\n", a.Name)
		fmt.Fprintf(w, "Cards: %d (%d pairs)\n", a.Cards, a.Pairs)
		fmt.Fprintf(w, "Flip-back delay: %v\n", a.FlipBackDelay)
		fmt.Fprintf(w, "Minimum moves: %d\n", a.MinMoves)
		fmt.Fprintf(w, "Perfect memory over %d games: mean %.2f, best %d, worst %d\n",
			a.Games, a.MeanMoves, a.BestMoves, a.WorstMoves)
	}
}
