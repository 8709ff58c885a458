package websocket

import (
	"sync"

	"github.com/wricardo/memory-match-game/game/engine"
)

// Display commands, sent as the data of a "display" event
const (
	OpRenderBoard       = "render_board"
	OpSetCardFace       = "set_card_face"
	OpSetCardMatched    = "set_card_matched"
	OpSetMoveCount      = "set_move_count"
	OpSetMessage        = "set_message"
	OpSetRestartVisible = "set_restart_visible"
	OpClearBoard        = "clear_board"
)

// DisplayCommand is one display update for browser clients. Symbols are only
// included for cards that are face up or matched.
type DisplayCommand struct {
	Op      string        `json:"op"`
	Index   int           `json:"index"`
	FaceUp  bool          `json:"face_up,omitempty"`
	Symbol  string        `json:"symbol,omitempty"`
	Cards   []engine.Card `json:"cards,omitempty"`
	Moves   int           `json:"moves,omitempty"`
	Message string        `json:"message,omitempty"`
	Visible bool          `json:"visible,omitempty"`
}

// SessionDisplay is an engine.Display that broadcasts every update to the
// clients of one session. It keeps the last rendered board so it can reveal a
// symbol when its card turns face up.
type SessionDisplay struct {
	hub       *Hub
	sessionID string

	mu    sync.Mutex
	cards []engine.Card
}

var _ engine.Display = (*SessionDisplay)(nil)

// SessionDisplay returns a display bound to sessionID. It has the signature of
// a session display factory.
func (h *Hub) SessionDisplay(sessionID string) engine.Display {
	return &SessionDisplay{hub: h, sessionID: sessionID}
}

func (d *SessionDisplay) send(cmd DisplayCommand) {
	d.hub.BroadcastEvent(d.sessionID, EventDisplay, cmd)
}

func (d *SessionDisplay) symbol(index int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.cards) {
		return ""
	}
	return d.cards[index].Symbol
}

func (d *SessionDisplay) RenderBoard(cards []engine.Card) {
	d.mu.Lock()
	d.cards = append([]engine.Card(nil), cards...)
	d.mu.Unlock()

	d.send(DisplayCommand{Op: OpRenderBoard, Cards: engine.RedactCards(cards)})
}

func (d *SessionDisplay) SetCardFace(index int, faceUp bool) {
	cmd := DisplayCommand{Op: OpSetCardFace, Index: index, FaceUp: faceUp}
	if faceUp {
		cmd.Symbol = d.symbol(index)
	}
	d.send(cmd)
}

func (d *SessionDisplay) SetCardMatched(index int) {
	d.send(DisplayCommand{Op: OpSetCardMatched, Index: index, Symbol: d.symbol(index)})
}

func (d *SessionDisplay) SetMoveCount(moves int) {
	d.send(DisplayCommand{Op: OpSetMoveCount, Moves: moves})
}

func (d *SessionDisplay) SetMessage(message string) {
	d.send(DisplayCommand{Op: OpSetMessage, Message: message})
}

func (d *SessionDisplay) SetRestartControlVisible(visible bool) {
	d.send(DisplayCommand{Op: OpSetRestartVisible, Visible: visible})
}

func (d *SessionDisplay) ClearBoard() {
	d.mu.Lock()
	d.cards = nil
	d.mu.Unlock()

	d.send(DisplayCommand{Op: OpClearBoard})
}
