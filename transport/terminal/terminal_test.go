package terminal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
)

func fruitConfig() *engine.GameConfig {
	return &engine.GameConfig{
		Name:            "fruit",
		Description:     "Two pairs of fruit",
		Symbols:         []string{"🍎", "🍌"},
		FlipBackDelayMs: 100,
		Messages: engine.Messages{
			Idle:     "Pick a card",
			Complete: "Done in %d moves",
		},
	}
}

// newTestEngine deals 🍎 🍌 🍎 🍌 and never fires flip-backs
func newTestEngine(t *testing.T, display engine.Display) *engine.GameEngine {
	t.Helper()
	eng, err := engine.NewEngine(fruitConfig(),
		engine.WithDisplay(display),
		engine.WithShuffle(func([]string) {}),
		engine.WithScheduler(heldScheduler{}),
	)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return eng
}

type heldScheduler struct{}

func (heldScheduler) AfterFunc(time.Duration, func()) {}

func TestRun(t *testing.T) {
	t.Run("plays to completion", func(t *testing.T) {
		var out bytes.Buffer
		eng := newTestEngine(t, NewDisplay(&out))

		if err := Run(context.Background(), eng, strings.NewReader("0\n2\n1\n3\n")); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !eng.IsComplete() || eng.GetMoves() != 2 {
			t.Errorf("Expected completed game in 2 moves, got complete=%v moves=%d", eng.IsComplete(), eng.GetMoves())
		}
		frame := out.String()
		for _, want := range []string{"Done in 2 moves", "Moves: 2", "[r] Play again"} {
			if !strings.Contains(frame, want) {
				t.Errorf("Expected %q in output:\n%s", want, frame)
			}
		}
	})

	t.Run("q stops reading", func(t *testing.T) {
		eng := newTestEngine(t, engine.NopDisplay{})

		if err := Run(context.Background(), eng, strings.NewReader("0\nq\n2\n")); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if eng.GetMoves() != 0 {
			t.Errorf("Expected input after q to be ignored, got %d moves", eng.GetMoves())
		}
		if revealed := eng.GetState().Revealed; len(revealed) != 1 || revealed[0] != 0 {
			t.Errorf("Expected only card 0 revealed, got %v", revealed)
		}
	})

	t.Run("r deals a new game", func(t *testing.T) {
		eng := newTestEngine(t, engine.NopDisplay{})

		if err := Run(context.Background(), eng, strings.NewReader("0\n2\nr\n")); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if eng.Generation() != 2 {
			t.Errorf("Expected generation 2, got %d", eng.Generation())
		}
		if eng.GetMatchedPairs() != 0 || eng.GetMoves() != 0 {
			t.Errorf("Expected fresh game, got %d pairs and %d moves", eng.GetMatchedPairs(), eng.GetMoves())
		}
	})

	t.Run("bad input is skipped", func(t *testing.T) {
		eng := newTestEngine(t, engine.NopDisplay{})

		if err := Run(context.Background(), eng, strings.NewReader("hello\n99\n-1\n\n0\n")); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if revealed := eng.GetState().Revealed; len(revealed) != 1 || revealed[0] != 0 {
			t.Errorf("Expected only card 0 revealed, got %v", revealed)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		eng := newTestEngine(t, engine.NopDisplay{})
		pr, pw := io.Pipe()
		t.Cleanup(func() { pw.Close() })

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- Run(ctx, eng, pr) }()

		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}

func TestDisplay(t *testing.T) {
	var out bytes.Buffer
	display := NewDisplay(&out)
	cards := []engine.Card{
		{Index: 0, Symbol: "🍎", Status: engine.Hidden},
		{Index: 1, Symbol: "🍌", Status: engine.Hidden},
	}

	display.RenderBoard(cards)
	if strings.Contains(out.String(), "🍎") || strings.Contains(out.String(), "🍌") {
		t.Errorf("Face-down cards must not show their symbol:\n%s", out.String())
	}

	out.Reset()
	display.SetCardFace(0, true)
	if !strings.Contains(out.String(), "🍎") || strings.Contains(out.String(), "🍌") {
		t.Errorf("Expected only the face-up symbol:\n%s", out.String())
	}

	out.Reset()
	display.SetCardFace(0, false)
	if strings.Contains(out.String(), "🍎") {
		t.Errorf("Expected card 0 face down again:\n%s", out.String())
	}

	out.Reset()
	display.SetCardMatched(1)
	if !strings.Contains(out.String(), "🍌") {
		t.Errorf("Expected matched card to stay visible:\n%s", out.String())
	}

	out.Reset()
	display.ClearBoard()
	display.SetMessage("idle")
	if out.Len() != 0 {
		t.Errorf("Expected nothing drawn without a board, got:\n%s", out.String())
	}

	out.Reset()
	display.ClearScreen = true
	display.RenderBoard(cards)
	if !strings.HasPrefix(out.String(), clearScreen) {
		t.Error("Expected frame to start with a clear-screen sequence")
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		cards int
		want  int
	}{
		{0, 1},
		{4, 2},
		{6, 3},
		{16, 4},
		{24, 5},
		{52, 8},
	}
	for _, tt := range tests {
		if got := Columns(tt.cards); got != tt.want {
			t.Errorf("Columns(%d) = %d, want %d", tt.cards, got, tt.want)
		}
	}
}
