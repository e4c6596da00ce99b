package bots

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
)

var ErrManagerClosed = errors.New("bot manager closed")

// Bot is an automated participant bound to one room. Run blocks until the
// bot leaves or ctx is cancelled.
type Bot interface {
	Run(ctx context.Context) error
}

// Factory creates the bot for a room.
type Factory func(roomID string) Bot

type handle struct {
	cancel context.CancelFunc
}

// Manager starts and stops at most one bot per room. It also observes the
// relay's registry: a deleted room takes its bot down with it.
type Manager struct {
	factory Factory
	logger  *slog.Logger

	mu     sync.Mutex
	bots   map[string]*handle
	closed bool
	wg     sync.WaitGroup
}

// NewManager creates a manager building bots with factory.
func NewManager(factory Factory, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		factory: factory,
		logger:  logger,
		bots:    make(map[string]*handle),
	}
}

// Start launches a bot for roomID. It reports false when one is already
// active there.
func (m *Manager) Start(roomID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrManagerClosed
	}
	if _, ok := m.bots[roomID]; ok {
		return false, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{cancel: cancel}
	m.bots[roomID] = h
	bot := m.factory(roomID)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		err := bot.Run(ctx)
		m.logger.Info("bot finished", "room", roomID, "reason", err)

		m.mu.Lock()
		if m.bots[roomID] == h {
			delete(m.bots, roomID)
		}
		m.mu.Unlock()
	}()

	m.logger.Info("bot started", "room", roomID)
	return true, nil
}

// Stop disconnects the bot in roomID. It reports false when none is active.
// Stop does not wait for the bot to finish.
func (m *Manager) Stop(roomID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.bots[roomID]
	if !ok {
		return false
	}
	delete(m.bots, roomID)
	h.cancel()
	m.logger.Info("bot stopped", "room", roomID)
	return true
}

// RoomClosed tears down the bot of a deleted room.
func (m *Manager) RoomClosed(roomID string) {
	m.Stop(roomID)
}

// Active lists the rooms with a running bot.
func (m *Manager) Active() []string {
	m.mu.Lock()
	rooms := lo.Keys(m.bots)
	m.mu.Unlock()

	slices.Sort(rooms)
	return rooms
}

// Close stops every bot and waits for them to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	for roomID, h := range m.bots {
		h.cancel()
		delete(m.bots, roomID)
	}
	m.mu.Unlock()

	m.wg.Wait()
}
