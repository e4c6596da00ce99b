package bots

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	room    string
	started chan struct{}
	exit    chan error
	stopped chan struct{}
}

func (b *fakeBot) Run(ctx context.Context) error {
	close(b.started)
	defer close(b.stopped)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-b.exit:
		return err
	}
}

type fakeFactory struct {
	mu   sync.Mutex
	bots []*fakeBot
}

func (f *fakeFactory) build(room string) Bot {
	b := &fakeBot{
		room:    room,
		started: make(chan struct{}),
		exit:    make(chan error, 1),
		stopped: make(chan struct{}),
	}
	f.mu.Lock()
	f.bots = append(f.bots, b)
	f.mu.Unlock()
	return b
}

func (f *fakeFactory) last() *fakeBot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bots[len(f.bots)-1]
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestManager_StartIsIdempotentPerRoom(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(f.build, nil)
	defer m.Close()

	started, err := m.Start("R1")
	require.NoError(t, err)
	require.True(t, started)

	started, err = m.Start("R1")
	require.NoError(t, err)
	require.False(t, started)

	require.Len(t, f.bots, 1)
	require.Equal(t, []string{"R1"}, m.Active())
}

func TestManager_StopCancelsBot(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(f.build, nil)
	defer m.Close()

	_, err := m.Start("R1")
	require.NoError(t, err)
	bot := f.last()
	waitClosed(t, bot.started)

	require.True(t, m.Stop("R1"))
	waitClosed(t, bot.stopped)
	require.False(t, m.Stop("R1"))
	require.Empty(t, m.Active())
}

func TestManager_RoomClosedStopsBot(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(f.build, nil)
	defer m.Close()

	_, err := m.Start("R1")
	require.NoError(t, err)
	_, err = m.Start("R2")
	require.NoError(t, err)
	r2 := f.last()

	m.RoomClosed("R2")
	waitClosed(t, r2.stopped)
	require.Equal(t, []string{"R1"}, m.Active())

	// Unknown rooms are ignored.
	m.RoomClosed("nope")
}

func TestManager_BotExitRemovesEntry(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(f.build, nil)
	defer m.Close()

	_, err := m.Start("R1")
	require.NoError(t, err)
	bot := f.last()
	bot.exit <- errors.New("peer left")
	waitClosed(t, bot.stopped)

	require.Eventually(t, func() bool { return len(m.Active()) == 0 }, 2*time.Second, 10*time.Millisecond)

	started, err := m.Start("R1")
	require.NoError(t, err)
	require.True(t, started)
}

func TestManager_RestartDoesNotLoseNewBot(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(f.build, nil)
	defer m.Close()

	_, err := m.Start("R1")
	require.NoError(t, err)
	first := f.last()
	require.True(t, m.Stop("R1"))

	_, err = m.Start("R1")
	require.NoError(t, err)
	waitClosed(t, first.stopped)

	// The first bot's exit must not remove the second one.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, []string{"R1"}, m.Active())
}

func TestManager_CloseStopsEverything(t *testing.T) {
	f := &fakeFactory{}
	m := NewManager(f.build, nil)

	for _, room := range []string{"A", "B", "C"} {
		_, err := m.Start(room)
		require.NoError(t, err)
	}
	m.Close()

	for _, b := range f.bots {
		waitClosed(t, b.stopped)
	}
	require.Empty(t, m.Active())

	_, err := m.Start("D")
	require.ErrorIs(t, err, ErrManagerClosed)
}

func TestReply(t *testing.T) {
	require.Equal(t, "Hello! How are you?", reply("Hello there", 0))
	require.Equal(t, "Hello! How are you?", reply("hi", 0))
	require.Equal(t, "You're welcome!", reply("Thanks a lot", 0))
	require.Equal(t, "Bye! See you.", reply("ok bye", 0))
	require.Equal(t, cannedReplies[0], reply("the weather is nice", 0))
	require.Equal(t, cannedReplies[1], reply("the weather is nice", 1))
	require.Equal(t, cannedReplies[0], reply("this", len(cannedReplies)))
}
