package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingDisplay keeps the calls it received and the resulting view
type recordingDisplay struct {
	mu             sync.Mutex
	calls          []string
	faces          map[int]bool
	matched        map[int]bool
	moveCount      int
	message        string
	restartVisible bool
	rendered       int
}

func newRecordingDisplay() *recordingDisplay {
	return &recordingDisplay{faces: map[int]bool{}, matched: map[int]bool{}}
}

func (d *recordingDisplay) record(call string) {
	d.calls = append(d.calls, call)
}

func (d *recordingDisplay) RenderBoard(cards []Card) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rendered = len(cards)
	d.record(fmt.Sprintf("render %d", len(cards)))
}

func (d *recordingDisplay) SetCardFace(index int, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces[index] = visible
	d.record(fmt.Sprintf("face %d %t", index, visible))
}

func (d *recordingDisplay) SetCardMatched(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.matched[index] = true
	d.record(fmt.Sprintf("matched %d", index))
}

func (d *recordingDisplay) SetMoveCount(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moveCount = n
	d.record(fmt.Sprintf("moves %d", n))
}

func (d *recordingDisplay) SetMessage(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.message = text
	d.record("message " + text)
}

func (d *recordingDisplay) SetRestartControlVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartVisible = visible
	d.record(fmt.Sprintf("restart %t", visible))
}

func (d *recordingDisplay) ClearBoard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faces = map[int]bool{}
	d.matched = map[int]bool{}
	d.record("clear")
}

func (d *recordingDisplay) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *recordingDisplay) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// manualScheduler holds scheduled callbacks until the test fires them
type manualScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	tasks  []func()
}

func (s *manualScheduler) AfterFunc(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, delay)
	s.tasks = append(s.tasks, fn)
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *manualScheduler) FireAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
}

// pairedShuffle lays the deck out as A A B B C C ...
func pairedShuffle(items []string) {
	sort.Strings(items)
}

func createTestConfig() *GameConfig {
	return &GameConfig{
		Name:            "Engine Test Config",
		Description:     "Configuration for engine integration tests",
		Symbols:         []string{"A", "B", "C", "D", "E", "F", "G", "H"},
		FlipBackDelayMs: 1000,
		Messages: Messages{
			Idle:     "Click a card to start!",
			Complete: "Cleared in %d moves!",
		},
	}
}

func newTestEngine(t *testing.T) (*GameEngine, *recordingDisplay, *manualScheduler) {
	t.Helper()
	display := newRecordingDisplay()
	scheduler := &manualScheduler{}
	e, err := NewEngine(createTestConfig(),
		WithDisplay(display),
		WithScheduler(scheduler),
		WithShuffle(pairedShuffle),
	)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e, display, scheduler
}

func TestNewEngine(t *testing.T) {
	e, display, _ := newTestEngine(t)

	state := e.GetState()
	if len(state.Cards) != 16 {
		t.Fatalf("Expected 16 cards, got %d", len(state.Cards))
	}
	for i, card := range state.Cards {
		if card.Index != i {
			t.Errorf("Card at position %d has index %d", i, card.Index)
		}
		if card.Status != Hidden {
			t.Errorf("Card %d should start hidden, got %s", i, card.Status)
		}
	}
	if state.Moves != 0 || state.MatchedPairs != 0 {
		t.Errorf("Expected zero counters, got moves=%d matched=%d", state.Moves, state.MatchedPairs)
	}
	if state.TotalPairs != 8 {
		t.Errorf("Expected 8 pairs, got %d", state.TotalPairs)
	}
	if state.Locked || len(state.Revealed) != 0 {
		t.Error("Turn state should start empty and unlocked")
	}
	if state.Message != "Click a card to start!" {
		t.Errorf("Expected idle message, got %q", state.Message)
	}
	if state.Generation != 1 {
		t.Errorf("Expected generation 1, got %d", state.Generation)
	}
	if state.GameID == "" {
		t.Error("Expected a game ID")
	}

	want := []string{"clear", "message Click a card to start!", "moves 0", "restart false", "render 16"}
	calls := display.Calls()
	if strings.Join(calls, "|") != strings.Join(want, "|") {
		t.Errorf("Unexpected display calls:\n got %v\nwant %v", calls, want)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Symbols = []string{"A"}

	if _, err := NewEngine(config); err == nil {
		t.Error("Expected error for a single-symbol config")
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	e := NewEngineWithDefaults(WithScheduler(&manualScheduler{}))

	state := e.GetState()
	if state.ConfigName != "classic" {
		t.Errorf("Expected classic config, got %s", state.ConfigName)
	}
	if len(state.Cards) != 16 {
		t.Errorf("Expected 16 cards, got %d", len(state.Cards))
	}
	if state.Message != ClassicIdleMessage {
		t.Errorf("Expected classic idle message, got %q", state.Message)
	}
}

func TestEngine_MatchingPair(t *testing.T) {
	e, display, scheduler := newTestEngine(t)

	first := e.SelectCard(0)
	if first.Outcome != OutcomeRevealed {
		t.Fatalf("Expected first selection to reveal, got %s", first.Outcome)
	}
	if first.Moves != 0 {
		t.Errorf("Moves should not count a single card, got %d", first.Moves)
	}

	second := e.SelectCard(1)
	if second.Outcome != OutcomeMatch {
		t.Fatalf("Expected match, got %s", second.Outcome)
	}
	if len(second.Pair) != 2 || second.Pair[0] != 0 || second.Pair[1] != 1 {
		t.Errorf("Expected pair [0 1], got %v", second.Pair)
	}

	state := e.GetState()
	if state.Cards[0].Status != Matched || state.Cards[1].Status != Matched {
		t.Errorf("Both cards should be matched, got %s and %s", state.Cards[0].Status, state.Cards[1].Status)
	}
	if state.MatchedPairs != 1 || state.Moves != 1 {
		t.Errorf("Expected matched=1 moves=1, got matched=%d moves=%d", state.MatchedPairs, state.Moves)
	}
	if len(state.Revealed) != 0 {
		t.Errorf("Turn state should be empty, got %v", state.Revealed)
	}
	if state.Locked {
		t.Error("Input should unlock immediately after a match")
	}
	if scheduler.Pending() != 0 {
		t.Error("A match must not schedule a flip-back")
	}
	if !display.matched[0] || !display.matched[1] {
		t.Error("Display should show both cards as matched")
	}
	if display.moveCount != 1 {
		t.Errorf("Display move counter should read 1, got %d", display.moveCount)
	}

	// The next turn can start right away.
	if r := e.SelectCard(2); r.Outcome != OutcomeRevealed {
		t.Errorf("Expected selection after match to reveal, got %s (%s)", r.Outcome, r.Reason)
	}
}

func TestEngine_MismatchedPair(t *testing.T) {
	e, display, scheduler := newTestEngine(t)

	e.SelectCard(0)
	result := e.SelectCard(2)
	if result.Outcome != OutcomeMismatch {
		t.Fatalf("Expected mismatch, got %s", result.Outcome)
	}

	state := e.GetState()
	if state.Cards[0].Status != Revealed || state.Cards[2].Status != Revealed {
		t.Error("Both cards should stay revealed until the delay elapses")
	}
	if !state.Locked || !state.PendingFlipBack {
		t.Error("Board should be locked while waiting for the flip-back")
	}
	if state.Moves != 1 || state.MatchedPairs != 0 {
		t.Errorf("Expected moves=1 matched=0, got moves=%d matched=%d", state.Moves, state.MatchedPairs)
	}
	if scheduler.Pending() != 1 {
		t.Fatalf("Expected one scheduled flip-back, got %d", scheduler.Pending())
	}
	if scheduler.delays[0] != 1000*time.Millisecond {
		t.Errorf("Expected 1000ms delay, got %v", scheduler.delays[0])
	}

	if r := e.SelectCard(4); r.Outcome != OutcomeIgnored || r.Reason != ReasonLocked {
		t.Errorf("Selection while locked should be ignored, got %s (%s)", r.Outcome, r.Reason)
	}
	if e.GetState().Cards[4].Status != Hidden {
		t.Error("Locked selection must not reveal the card")
	}

	scheduler.FireAll()

	state = e.GetState()
	if state.Cards[0].Status != Hidden || state.Cards[2].Status != Hidden {
		t.Error("Both cards should be hidden after the flip-back")
	}
	if state.Locked || state.PendingFlipBack {
		t.Error("Board should unlock after the flip-back")
	}
	if len(state.Revealed) != 0 {
		t.Errorf("Turn state should be empty, got %v", state.Revealed)
	}
	if state.Moves != 1 || state.MatchedPairs != 0 {
		t.Errorf("Expected moves=1 matched=0, got moves=%d matched=%d", state.Moves, state.MatchedPairs)
	}
	if display.faces[0] || display.faces[2] {
		t.Error("Display should show both cards face down")
	}
}

func TestEngine_IgnoredSelections(t *testing.T) {
	t.Run("same card twice", func(t *testing.T) {
		e, _, _ := newTestEngine(t)

		e.SelectCard(3)
		result := e.SelectCard(3)
		if result.Outcome != OutcomeIgnored || result.Reason != ReasonAlreadyRevealed {
			t.Errorf("Expected already_revealed, got %s (%s)", result.Outcome, result.Reason)
		}

		state := e.GetState()
		if state.Cards[3].Status != Revealed {
			t.Error("Card should stay revealed")
		}
		if len(state.Revealed) != 1 {
			t.Errorf("Turn state should hold one card, got %d", len(state.Revealed))
		}
		if state.Moves != 0 {
			t.Errorf("Moves should stay 0, got %d", state.Moves)
		}
	})

	t.Run("matched card", func(t *testing.T) {
		e, _, _ := newTestEngine(t)

		e.SelectCard(0)
		e.SelectCard(1)
		result := e.SelectCard(0)
		if result.Outcome != OutcomeIgnored || result.Reason != ReasonAlreadyMatched {
			t.Errorf("Expected already_matched, got %s (%s)", result.Outcome, result.Reason)
		}
		if e.GetState().Cards[0].Status != Matched {
			t.Error("Matched card must stay matched")
		}
	})

	t.Run("invalid index", func(t *testing.T) {
		e, display, _ := newTestEngine(t)
		display.Reset()

		for _, index := range []int{-1, 16, 1000} {
			result := e.SelectCard(index)
			if result.Outcome != OutcomeIgnored || result.Reason != ReasonInvalidIndex {
				t.Errorf("Index %d: expected invalid_index, got %s (%s)", index, result.Outcome, result.Reason)
			}
		}
		if len(display.Calls()) != 0 {
			t.Errorf("Ignored selections must not touch the display, got %v", display.Calls())
		}
	})
}

func TestEngine_Completion(t *testing.T) {
	e, display, scheduler := newTestEngine(t)

	// One miss first so the final count is not just the pair count.
	e.SelectCard(0)
	e.SelectCard(2)
	scheduler.FireAll()

	for pair := 0; pair < 8; pair++ {
		e.SelectCard(pair * 2)
		result := e.SelectCard(pair*2 + 1)
		if result.Outcome != OutcomeMatch {
			t.Fatalf("Pair %d: expected match, got %s", pair, result.Outcome)
		}

		if pair < 7 {
			if result.Completed || e.IsComplete() {
				t.Fatalf("Completion fired at %d matched pairs", result.MatchedPairs)
			}
			if display.restartVisible {
				t.Fatal("Restart control shown before completion")
			}
			continue
		}

		if !result.Completed {
			t.Fatal("Expected completion after the last pair")
		}
	}

	state := e.GetState()
	if !state.Complete || state.MatchedPairs != 8 {
		t.Errorf("Expected complete game with 8 pairs, got complete=%t matched=%d", state.Complete, state.MatchedPairs)
	}
	if state.Moves != 9 {
		t.Errorf("Expected 9 moves, got %d", state.Moves)
	}
	if state.Message != "Cleared in 9 moves!" {
		t.Errorf("Unexpected completion message %q", state.Message)
	}
	if display.message != "Cleared in 9 moves!" {
		t.Errorf("Display should show completion message, got %q", display.message)
	}
	if !display.restartVisible || !state.RestartVisible {
		t.Error("Restart control should be visible after completion")
	}
	if state.CompletedAt == nil {
		t.Error("Expected completion time")
	}
	if CountStatus(state.Cards, Matched) != 16 {
		t.Errorf("Expected all 16 cards matched, got %d", CountStatus(state.Cards, Matched))
	}
}

func TestEngine_ClassicCompletionMessage(t *testing.T) {
	scheduler := &manualScheduler{}
	e := NewEngineWithDefaults(WithScheduler(scheduler), WithShuffle(pairedShuffle))

	for i := 0; i < 16; i += 2 {
		e.SelectCard(i)
		e.SelectCard(i + 1)
	}

	want := " ゲームクリア！ 8回で全て一致させました！"
	if got := e.GetState().Message; got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestEngine_Reset(t *testing.T) {
	t.Run("mid game", func(t *testing.T) {
		e, display, _ := newTestEngine(t)

		e.SelectCard(0)
		e.SelectCard(1)
		e.SelectCard(4)

		state := e.Reset()
		if state.Moves != 0 || state.MatchedPairs != 0 {
			t.Errorf("Expected zero counters after reset, got moves=%d matched=%d", state.Moves, state.MatchedPairs)
		}
		if CountStatus(state.Cards, Hidden) != 16 {
			t.Error("All cards should be hidden after reset")
		}
		if state.Locked || len(state.Revealed) != 0 {
			t.Error("Turn state should be empty after reset")
		}
		if state.Generation != 2 {
			t.Errorf("Expected generation 2, got %d", state.Generation)
		}
		if display.restartVisible {
			t.Error("Restart control should be hidden on a new game")
		}
		if display.moveCount != 0 {
			t.Errorf("Display move counter should read 0, got %d", display.moveCount)
		}
	})

	t.Run("during pending flip-back", func(t *testing.T) {
		e, display, scheduler := newTestEngine(t)

		e.SelectCard(0)
		e.SelectCard(2)
		e.Reset()

		// Start a turn on the new board using one of the stale indices.
		if r := e.SelectCard(0); r.Outcome != OutcomeRevealed {
			t.Fatalf("Expected reveal on the new board, got %s (%s)", r.Outcome, r.Reason)
		}

		scheduler.FireAll()

		state := e.GetState()
		if state.Cards[0].Status != Revealed {
			t.Error("Stale flip-back must not hide a card on the new board")
		}
		if len(state.Revealed) != 1 || state.Revealed[0] != 0 {
			t.Errorf("Stale flip-back must not clear the new turn, got %v", state.Revealed)
		}
		if state.Moves != 0 {
			t.Errorf("Expected moves=0, got %d", state.Moves)
		}
		if !display.faces[0] {
			t.Error("Display should still show card 0 face up")
		}
	})

	t.Run("after completion", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		for i := 0; i < 16; i += 2 {
			e.SelectCard(i)
			e.SelectCard(i + 1)
		}

		state := e.Reset()
		if state.Complete || state.RestartVisible || state.CompletedAt != nil {
			t.Error("Reset should clear completion")
		}
		if state.Message != "Click a card to start!" {
			t.Errorf("Expected idle message after reset, got %q", state.Message)
		}
	})
}

func TestEngine_ReshufflesOnReset(t *testing.T) {
	e, err := NewEngine(createTestConfig(),
		WithScheduler(&manualScheduler{}),
		WithRandom(rand.New(rand.NewSource(7))),
	)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	layout := func(state *GameState) string {
		var b strings.Builder
		for _, card := range state.Cards {
			b.WriteString(card.Symbol)
		}
		return b.String()
	}

	first := layout(e.GetState())
	differs := false
	for i := 0; i < 10 && !differs; i++ {
		differs = layout(e.Reset()) != first
	}
	if !differs {
		t.Error("Expected a new layout after reset")
	}
}

func TestEngine_Invariants(t *testing.T) {
	scheduler := &manualScheduler{}
	e, err := NewEngine(createTestConfig(),
		WithScheduler(scheduler),
		WithRandom(rand.New(rand.NewSource(99))),
	)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	picker := rand.New(rand.NewSource(3))
	prev := e.GetState()

	for step := 0; step < 2000; step++ {
		if scheduler.Pending() > 0 && picker.Intn(3) == 0 {
			scheduler.FireAll()
		}
		if e.IsComplete() {
			prev = e.Reset()
			continue
		}

		result := e.SelectCard(picker.Intn(18) - 1)
		state := e.GetState()

		revealed := CountStatus(state.Cards, Revealed)
		if revealed > 2 {
			t.Fatalf("Step %d: %d revealed cards", step, revealed)
		}
		if revealed != len(state.Revealed) {
			t.Fatalf("Step %d: %d revealed cards but turn holds %d", step, revealed, len(state.Revealed))
		}

		switch result.Outcome {
		case OutcomeMatch:
			if state.Moves != prev.Moves+1 || state.MatchedPairs != prev.MatchedPairs+1 {
				t.Fatalf("Step %d: match changed moves %d->%d matched %d->%d",
					step, prev.Moves, state.Moves, prev.MatchedPairs, state.MatchedPairs)
			}
		case OutcomeMismatch:
			if state.Moves != prev.Moves+1 || state.MatchedPairs != prev.MatchedPairs {
				t.Fatalf("Step %d: mismatch changed moves %d->%d matched %d->%d",
					step, prev.Moves, state.Moves, prev.MatchedPairs, state.MatchedPairs)
			}
		default:
			if state.Moves != prev.Moves || state.MatchedPairs != prev.MatchedPairs {
				t.Fatalf("Step %d: %s changed counters", step, result.Outcome)
			}
		}

		for i, card := range prev.Cards {
			if card.Status == Matched && state.Cards[i].Status != Matched {
				t.Fatalf("Step %d: matched card %d left matched state", step, i)
			}
		}
		if state.Complete != (state.MatchedPairs == state.TotalPairs) {
			t.Fatalf("Step %d: complete=%t with %d/%d pairs", step, state.Complete, state.MatchedPairs, state.TotalPairs)
		}

		prev = state
	}
}

func TestEngine_MoveHistory(t *testing.T) {
	e, _, scheduler := newTestEngine(t)

	if len(e.GetMoveHistory()) != 0 {
		t.Error("Expected no history on a new game")
	}

	e.SelectCard(0)
	e.SelectCard(1)
	e.SelectCard(2)
	e.SelectCard(5)
	scheduler.FireAll()

	history := e.GetMoveHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}
	if !history[0].Matched || history[0].FirstSymbol != "A" || history[0].SecondSymbol != "A" {
		t.Errorf("Unexpected first entry %+v", history[0])
	}
	if history[1].Matched || history[1].First != 2 || history[1].Second != 5 || history[1].MoveNumber != 2 {
		t.Errorf("Unexpected second entry %+v", history[1])
	}

	state := e.Reset()
	if len(state.MoveHistory) != 2 || state.TotalMoves != 2 {
		t.Errorf("History should survive reset, got %d entries total=%d", len(state.MoveHistory), state.TotalMoves)
	}

	e.SelectCard(0)
	e.SelectCard(1)
	history = e.GetMoveHistory()
	if last := history[len(history)-1]; last.Generation != 2 || last.MoveNumber != 1 {
		t.Errorf("Unexpected last move %+v", last)
	}
	if e.GetState().TotalMoves != 3 {
		t.Errorf("Expected 3 total moves, got %d", e.GetState().TotalMoves)
	}
}

func TestEngine_SetState(t *testing.T) {
	t.Run("pending flip-back is resolved", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		e.SelectCard(0)
		e.SelectCard(2)
		saved := e.GetState()

		restored, display, _ := newTestEngine(t)
		if err := restored.SetState(saved); err != nil {
			t.Fatalf("SetState failed: %v", err)
		}

		state := restored.GetState()
		if state.Locked || state.PendingFlipBack || len(state.Revealed) != 0 {
			t.Error("Restored state should be unlocked with an empty turn")
		}
		if state.Cards[0].Status != Hidden || state.Cards[2].Status != Hidden {
			t.Error("Pending cards should be hidden on restore")
		}
		if state.Moves != 1 {
			t.Errorf("Moves should be kept, got %d", state.Moves)
		}
		if display.moveCount != 1 {
			t.Errorf("Display should be synced to the restored state, got %d moves", display.moveCount)
		}
	})

	t.Run("single revealed card is kept", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		e.SelectCard(0)
		e.SelectCard(1)
		e.SelectCard(6)
		saved := e.GetState()

		restored, display, _ := newTestEngine(t)
		if err := restored.SetState(saved); err != nil {
			t.Fatalf("SetState failed: %v", err)
		}

		state := restored.GetState()
		if state.Cards[6].Status != Revealed || len(state.Revealed) != 1 {
			t.Error("Single revealed card should survive restore")
		}
		if !display.matched[0] || !display.faces[6] {
			t.Error("Display should replay matched and revealed cards")
		}
	})

	t.Run("errors", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		if err := e.SetState(nil); err == nil {
			t.Error("Expected error for nil state")
		}
		if err := e.SetState(&GameState{Cards: make([]Card, 4)}); err == nil {
			t.Error("Expected error for a state from a different board size")
		}

		other := createTestConfig()
		other.Symbols = []string{"A", "B", "C", "D", "E", "F", "G", "Z"}
		foreign, err := NewEngine(other, WithScheduler(&manualScheduler{}))
		if err != nil {
			t.Fatalf("Failed to create engine: %v", err)
		}
		if err := e.SetState(foreign.GetState()); err == nil || !strings.Contains(err.Error(), `"H"`) {
			t.Errorf("Expected error naming the missing symbol, got %v", err)
		}
	})
}

func TestEngine_OnFlipBack(t *testing.T) {
	e, _, scheduler := newTestEngine(t)

	var got *GameState
	e.OnFlipBack(func(state *GameState) {
		got = state
	})

	e.SelectCard(0)
	e.SelectCard(3)
	scheduler.FireAll()

	if got == nil {
		t.Fatal("Expected flip-back hook to run")
	}
	if got.Locked || got.Cards[0].Status != Hidden {
		t.Error("Hook should receive the post flip-back state")
	}

	got = nil
	e.SelectCard(0)
	e.SelectCard(3)
	e.Reset()
	scheduler.FireAll()
	if got != nil {
		t.Error("Hook must not run for a stale flip-back")
	}
}

func TestEngine_AttachDisplay(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SelectCard(0)
	e.SelectCard(1)

	display := newRecordingDisplay()
	e.AttachDisplay(display)

	if display.rendered != 16 {
		t.Errorf("Expected board render of 16 cards, got %d", display.rendered)
	}
	if !display.matched[0] || !display.matched[1] {
		t.Error("Expected matched cards to be replayed")
	}
	if display.moveCount != 1 {
		t.Errorf("Expected move count 1, got %d", display.moveCount)
	}
}

func TestEngine_SetConfig(t *testing.T) {
	e, _, _ := newTestEngine(t)

	small := createTestConfig()
	small.Name = "small"
	small.Symbols = []string{"X", "Y"}
	if err := e.SetConfig(small); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}

	state := e.GetState()
	if len(state.Cards) != 4 || state.TotalPairs != 2 || state.ConfigName != "small" {
		t.Errorf("Expected a 4-card board for 'small', got %d cards, %d pairs, %s", len(state.Cards), state.TotalPairs, state.ConfigName)
	}

	bad := createTestConfig()
	bad.Symbols = []string{"X", "X"}
	if err := e.SetConfig(bad); err == nil {
		t.Error("Expected error for duplicate symbols")
	}
	if e.GetConfig().Name != "small" {
		t.Error("Invalid config must not replace the current one")
	}
}

func TestEngine_TimerScheduler(t *testing.T) {
	config := createTestConfig()
	config.FlipBackDelayMs = 10

	e, err := NewEngine(config, WithShuffle(pairedShuffle))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	e.SelectCard(0)
	e.SelectCard(2)
	if !e.IsLocked() {
		t.Fatal("Expected board to be locked after a mismatch")
	}

	deadline := time.Now().Add(2 * time.Second)
	for e.IsLocked() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if e.IsLocked() {
		t.Fatal("Flip-back did not fire")
	}
	if e.GetState().Cards[2].Status != Hidden {
		t.Error("Expected card 2 to be hidden after the flip-back")
	}
}

// goScheduler runs callbacks on a new goroutine straight away, the way a
// very short delay behaves.
type goScheduler struct {
	wg sync.WaitGroup
}

func (s *goScheduler) AfterFunc(delay time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func TestEngine_SelectResultSnapshot(t *testing.T) {
	scheduler := &goScheduler{}
	e, err := NewEngine(createTestConfig(), WithScheduler(scheduler), WithShuffle(pairedShuffle))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	first := e.SelectCard(0)
	if first.Locked || len(first.Cards) != 1 || first.Cards[0].Status != Revealed {
		t.Errorf("Expected card 0 revealed and unlocked, got %+v", first)
	}

	result := e.SelectCard(2)
	scheduler.wg.Wait()

	if result.Outcome != OutcomeMismatch || !result.Locked {
		t.Fatalf("Expected locked mismatch, got %s locked=%t", result.Outcome, result.Locked)
	}
	if len(result.Cards) != 2 {
		t.Fatalf("Expected both mismatched cards, got %+v", result.Cards)
	}
	for _, card := range result.Cards {
		if card.Status != Revealed {
			t.Errorf("Card %d should be reported face up, got %s", card.Index, card.Status)
		}
	}

	if e.IsLocked() || e.GetState().Cards[2].Status != Hidden {
		t.Error("Expected the flip-back to have run")
	}

	result.Cards[0].Symbol = "changed"
	if e.GetState().Cards[0].Symbol == "changed" {
		t.Error("Result cards must not alias engine state")
	}

	ignored := e.SelectCard(99)
	if len(ignored.Cards) != 0 {
		t.Errorf("Ignored selections should carry no cards, got %+v", ignored.Cards)
	}
}

func TestNewSeededRandom(t *testing.T) {
	deal := func(r Random) []Card {
		e, err := NewEngine(createTestConfig(), WithRandom(r), WithScheduler(&manualScheduler{}))
		if err != nil {
			t.Fatalf("Failed to create engine: %v", err)
		}
		return e.GetState().Cards
	}

	a, b := deal(NewSeededRandom(42)), deal(NewSeededRandom(42))
	for i := range a {
		if a[i].Symbol != b[i].Symbol {
			t.Fatalf("Expected equal seeds to deal the same deck, differ at %d: %s vs %s", i, a[i].Symbol, b[i].Symbol)
		}
	}

	shared := NewSeededRandom(7)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if cards := deal(shared); len(cards) != 16 {
					t.Errorf("Expected 16 cards, got %d", len(cards))
				}
			}
		}()
	}
	wg.Wait()
}
