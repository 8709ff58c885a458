// Package terminal lets one player play the memory game in a terminal.
//
// Display implements engine.Display by redrawing the whole board with
// lipgloss on every update. Run is the input source: it reads one command per
// line, where a number selects the card at that index, r deals a new game and
// q quits.
//
// Usage:
//
//	display := terminal.NewDisplay(os.Stdout)
//	eng, err := engine.NewEngine(config, engine.WithDisplay(display))
//	if err != nil {
//		return err
//	}
//	return terminal.Run(ctx, eng, os.Stdin)
package terminal
