// Package loginscreen keeps the server-side state of open login screens: each
// screen owns its own lockout tracker and the messages shown to the user.
package loginscreen

import (
	"sync"
	"time"

	"github.com/BradenHooton/drivewatch/internal/services"
	"github.com/jonboulle/clockwork"
)

// DefaultMessageClearDelay is how long an inline message stays visible.
const DefaultMessageClearDelay = 5 * time.Second

// Snapshot is what a screen currently displays.
type Snapshot struct {
	Message string           `json:"message"`
	Notice  *services.Notice `json:"notice,omitempty"`
}

// MessageBoard implements services.Presenter for one screen.
type MessageBoard struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	clearDelay time.Duration

	message    string
	notice     *services.Notice
	clearTimer clockwork.Timer
	generation uint64
}

// NewMessageBoard creates an empty board. A non-positive clearDelay keeps
// messages until they are replaced or cleared.
func NewMessageBoard(clock clockwork.Clock, clearDelay time.Duration) *MessageBoard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MessageBoard{
		clock:      clock,
		clearDelay: clearDelay,
	}
}

// ShowMessage replaces the inline message and schedules its removal.
func (b *MessageBoard) ShowMessage(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopTimerLocked()
	b.message = message

	if b.clearDelay <= 0 {
		return
	}
	gen := b.generation
	b.clearTimer = b.clock.AfterFunc(b.clearDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		// a newer message or an explicit clear superseded this timer
		if b.generation != gen {
			return
		}
		b.message = ""
		b.clearTimer = nil
	})
}

// ShowNotice sets the modal notice, replacing any previous one.
func (b *MessageBoard) ShowNotice(notice services.Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = &notice
}

// ClearMessage removes the inline message immediately.
func (b *MessageBoard) ClearMessage() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
	b.message = ""
}

// DismissNotice removes the modal notice.
func (b *MessageBoard) DismissNotice() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = nil
}

// Snapshot returns a copy of the displayed state.
func (b *MessageBoard) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{Message: b.message}
	if b.notice != nil {
		notice := *b.notice
		s.Notice = &notice
	}
	return s
}

// Stop cancels the pending clear and empties the board.
func (b *MessageBoard) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
	b.message = ""
	b.notice = nil
}

func (b *MessageBoard) stopTimerLocked() {
	b.generation++
	if b.clearTimer != nil {
		b.clearTimer.Stop()
		b.clearTimer = nil
	}
}
