package engine

import (
	"time"
)

// Display receives rendering instructions from the engine. Implementations
// must not call back into the engine; they are invoked while the engine
// holds its lock.
type Display interface {
	RenderBoard(cards []Card)
	SetCardFace(index int, visible bool)
	SetCardMatched(index int)
	SetMoveCount(n int)
	SetMessage(text string)
	SetRestartControlVisible(visible bool)
	ClearBoard()
}

// NopDisplay discards every instruction. Used for headless sessions.
type NopDisplay struct{}

func (NopDisplay) RenderBoard([]Card) {}
func (NopDisplay) SetCardFace(int, bool) {}
func (NopDisplay) SetCardMatched(int) {}
func (NopDisplay) SetMoveCount(int) {}
func (NopDisplay) SetMessage(string) {}
func (NopDisplay) SetRestartControlVisible(bool) {}
func (NopDisplay) ClearBoard() {}

// Scheduler runs fn once after delay, on another goroutine. Scheduled work is
// never cancelled; the engine discards stale callbacks itself.
type Scheduler interface {
	AfterFunc(delay time.Duration, fn func())
}

// TimerScheduler schedules on the runtime timer heap
type TimerScheduler struct{}

// AfterFunc implements Scheduler
func (TimerScheduler) AfterFunc(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// Random is the source of the shuffle. *rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
}
