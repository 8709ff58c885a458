package terminal

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/wricardo/memory-match-game/game/engine"
)

const clearScreen = "\x1b[H\x1b[2J"

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Width(5).
			Align(lipgloss.Center)

	hiddenStyle = cardStyle.
			BorderForeground(lipgloss.Color("#555555")).
			Foreground(lipgloss.Color("#888888"))

	faceUpStyle = cardStyle.
			BorderForeground(lipgloss.Color("#FFD700")).
			Bold(true)

	matchedStyle = cardStyle.
			BorderForeground(lipgloss.Color("#00AA00")).
			Foreground(lipgloss.Color("#00FF00"))

	statusStyle  = lipgloss.NewStyle().Bold(true)
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4500"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
)

// Display draws the board on a terminal. Every update redraws the whole
// frame; updates from the flip-back timer and from the input loop are
// serialized.
type Display struct {
	// ClearScreen moves the cursor home and clears the screen before each frame
	ClearScreen bool

	mu             sync.Mutex
	w              io.Writer
	cards          []engine.Card
	faceUp         map[int]bool
	moves          int
	message        string
	restartVisible bool
}

var _ engine.Display = (*Display)(nil)

// NewDisplay creates a display writing frames to w
func NewDisplay(w io.Writer) *Display {
	return &Display{w: w, faceUp: make(map[int]bool)}
}

func (d *Display) RenderBoard(cards []engine.Card) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards = append([]engine.Card(nil), cards...)
	d.faceUp = make(map[int]bool)
	for _, card := range cards {
		if card.Status != engine.Hidden {
			d.faceUp[card.Index] = true
		}
	}
	d.draw()
}

func (d *Display) SetCardFace(index int, visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if visible {
		d.faceUp[index] = true
	} else {
		delete(d.faceUp, index)
	}
	d.draw()
}

func (d *Display) SetCardMatched(index int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index >= 0 && index < len(d.cards) {
		d.cards[index].Status = engine.Matched
		d.faceUp[index] = true
	}
	d.draw()
}

func (d *Display) SetMoveCount(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.moves = n
	d.draw()
}

func (d *Display) SetMessage(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.message = text
	d.draw()
}

func (d *Display) SetRestartControlVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restartVisible = visible
	d.draw()
}

func (d *Display) ClearBoard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cards = nil
	d.faceUp = make(map[int]bool)
}

// Notice prints a line below the current frame
func (d *Display) Notice(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, hintStyle.Render(text))
}

// draw writes the current frame. Callers hold d.mu.
func (d *Display) draw() {
	if len(d.cards) == 0 {
		return
	}
	if d.ClearScreen {
		io.WriteString(d.w, clearScreen)
	}
	fmt.Fprintln(d.w, d.frame())
}

func (d *Display) frame() string {
	columns := Columns(len(d.cards))
	var rows []string
	for start := 0; start < len(d.cards); start += columns {
		end := min(start+columns, len(d.cards))
		row := make([]string, 0, end-start)
		for _, card := range d.cards[start:end] {
			row = append(row, d.renderCard(card))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	lines := []string{
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		statusStyle.Render(fmt.Sprintf("Moves: %d", d.moves)),
	}
	if d.message != "" {
		lines = append(lines, messageStyle.Render(d.message))
	}
	hint := "Enter a card number, r to restart, q to quit"
	if d.restartVisible {
		hint = "[r] Play again | q to quit"
	}
	lines = append(lines, hintStyle.Render(hint))

	return strings.Join(lines, "\n")
}

func (d *Display) renderCard(card engine.Card) string {
	label := fmt.Sprintf("%d", card.Index)
	switch {
	case card.Status == engine.Matched:
		return matchedStyle.Render(label + "\n" + card.Symbol)
	case d.faceUp[card.Index]:
		return faceUpStyle.Render(label + "\n" + card.Symbol)
	default:
		return hiddenStyle.Render(label + "\n?")
	}
}

// Columns returns the board width for a deck: the smallest square that fits
func Columns(cards int) int {
	if cards <= 0 {
		return 1
	}
	return int(math.Ceil(math.Sqrt(float64(cards))))
}
