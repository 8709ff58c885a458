// Package engine provides the core game logic for the memory matching game.
//
// The engine package implements the game mechanics including:
//   - Deck construction: every symbol twice, Fisher-Yates shuffled
//   - The turn state machine (select, evaluate, flip back)
//   - Move and matched-pair counters and completion detection
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds the board, the turn state and
// the counters, while GameConfig defines the symbol set, the flip-back delay
// and the player-facing messages.
//
// Rendering is delegated to a Display. The engine never depends on a UI
// toolkit; the websocket hub, the terminal renderer and the tests each
// provide their own Display.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultConfig(),
//		engine.WithDisplay(display))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := gameEngine.SelectCard(0)
//	result = gameEngine.SelectCard(5)
//	state := gameEngine.GetState()
//
// Turn Lifecycle:
//
// A turn starts empty, reveals one card, then a second. The second
// selection locks input, counts a move and evaluates the pair. A match
// marks both cards matched and unlocks at once. A mismatch keeps both cards
// face up until the flip-back delay elapses, then hides them and unlocks.
// Each game has a generation number; a flip-back scheduled for an older
// generation is discarded when it fires, so resetting mid-delay is safe.
package engine
