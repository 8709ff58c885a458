package terminal

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/memory-match-game/game/engine"
)

// Run reads commands from in, one per line, and feeds them to eng until in
// is exhausted, q is entered or ctx is cancelled. A number selects the card
// at that index and r deals a new game. Ignored selections leave the board
// untouched.
func Run(ctx context.Context, eng *engine.GameEngine, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if quit := handleLine(eng, line); quit {
				return nil
			}
		}
	}
}

func handleLine(eng *engine.GameEngine, line string) bool {
	command := strings.ToLower(strings.TrimSpace(line))
	switch command {
	case "":
		return false
	case "q", "quit", "exit":
		return true
	case "r", "reset", "restart":
		eng.Reset()
		return false
	}

	index, err := strconv.Atoi(command)
	if err != nil {
		log.Debug().Str("input", line).Msg("Unrecognised terminal input")
		return false
	}

	result := eng.SelectCard(index)
	if result.Outcome == engine.OutcomeIgnored {
		log.Debug().Int("index", index).Str("reason", string(result.Reason)).Msg("Selection ignored")
	}
	return false
}
