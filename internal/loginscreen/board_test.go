package loginscreen_test

import (
	"testing"
	"time"

	"github.com/BradenHooton/drivewatch/internal/loginscreen"
	"github.com/BradenHooton/drivewatch/internal/services"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func boardMessage(b *loginscreen.MessageBoard) func() bool {
	return func() bool { return b.Snapshot().Message == "" }
}

func TestMessageBoard_AutoClear(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := loginscreen.NewMessageBoard(clock, 5*time.Second)

	board.ShowMessage("Email format is not valid.")
	assert.Equal(t, "Email format is not valid.", board.Snapshot().Message)

	clock.Advance(4 * time.Second)
	assert.Equal(t, "Email format is not valid.", board.Snapshot().Message)

	clock.Advance(time.Second)
	assert.Eventually(t, boardMessage(board), time.Second, 5*time.Millisecond)
}

func TestMessageBoard_NewerMessageRestartsClear(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := loginscreen.NewMessageBoard(clock, 5*time.Second)

	board.ShowMessage("first")
	clock.Advance(3 * time.Second)
	board.ShowMessage("second")
	clock.Advance(3 * time.Second)

	assert.Equal(t, "second", board.Snapshot().Message)

	clock.Advance(2 * time.Second)
	assert.Eventually(t, boardMessage(board), time.Second, 5*time.Millisecond)
}

func TestMessageBoard_ClearMessage(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := loginscreen.NewMessageBoard(clock, 5*time.Second)

	board.ShowMessage("Password is required.")
	board.ClearMessage()
	assert.Empty(t, board.Snapshot().Message)

	board.ShowMessage("later")
	clock.Advance(time.Second)
	assert.Equal(t, "later", board.Snapshot().Message)
}

func TestMessageBoard_NoDelayKeepsMessage(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := loginscreen.NewMessageBoard(clock, 0)

	board.ShowMessage("sticky")
	clock.Advance(time.Hour)

	assert.Equal(t, "sticky", board.Snapshot().Message)
}

func TestMessageBoard_NoticePersists(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := loginscreen.NewMessageBoard(clock, 5*time.Second)

	board.ShowNotice(services.Notice{Title: services.NoticeTitleLocked, Message: "locked"})
	clock.Advance(time.Minute)

	snap := board.Snapshot()
	if assert.NotNil(t, snap.Notice) {
		assert.Equal(t, services.NoticeTitleLocked, snap.Notice.Title)
	}

	board.DismissNotice()
	assert.Nil(t, board.Snapshot().Notice)
}

func TestMessageBoard_Stop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	board := loginscreen.NewMessageBoard(clock, 5*time.Second)

	board.ShowMessage("msg")
	board.ShowNotice(services.Notice{Title: services.NoticeTitleError, Message: "err"})
	board.Stop()

	snap := board.Snapshot()
	assert.Empty(t, snap.Message)
	assert.Nil(t, snap.Notice)
}
