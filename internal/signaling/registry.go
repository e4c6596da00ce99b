package signaling

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// ErrRoomFull is returned by Join when the room already holds MaxMembers.
var ErrRoomFull = errors.New("room is full")

// RoomObserver is notified when a room loses its last member and is deleted.
// It is called from the goroutine that owns the registry and must not block.
type RoomObserver interface {
	RoomClosed(roomID string)
}

// RoomObserverFunc adapts a function to RoomObserver.
type RoomObserverFunc func(roomID string)

func (f RoomObserverFunc) RoomClosed(roomID string) { f(roomID) }

// Registry maps room ids to rooms. It is not safe for concurrent use; the Hub
// owns one and mutates it from a single goroutine.
type Registry struct {
	rooms    map[string]*Room
	observer RoomObserver
	logger   *slog.Logger
}

type RegistryOption func(*Registry)

// WithObserver registers the collaborator told about deleted rooms.
func WithObserver(o RoomObserver) RegistryOption {
	return func(r *Registry) {
		r.observer = o
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		rooms:  make(map[string]*Room),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Join admits the peer to the room, creating the room on first use.
//
// The first member is told to wait. The second is told to initiate the offer
// and the first learns who arrived. A join against a paired room is answered
// with "full" and ErrRoomFull is returned; the room is left untouched.
func (r *Registry) Join(p Peer, roomID string, bot bool, name string) error {
	room, ok := r.rooms[roomID]
	if ok && room.Full() {
		p.Deliver(fullFrame)
		return ErrRoomFull
	}
	if !ok {
		room = &Room{ID: roomID}
		r.rooms[roomID] = room
		r.logger.Info("room created", "room", roomID)
	}

	room.Members = append(room.Members, &Member{Peer: p, Bot: bot, Name: name})
	r.logger.Info("member joined", "room", roomID, "conn", p.ID(), "bot", bot, "members", len(room.Members))

	if len(room.Members) == 1 {
		p.Deliver(waitingFrame)
		return nil
	}

	p.Deliver(initiateFrame)
	if other, ok := room.Other(p.ID()); ok {
		other.Peer.Deliver(peerJoinedFrame(bot, name))
	}
	return nil
}

// Relay forwards frame to the other member of the sender's room. It reports
// whether the frame was queued; a missing peer or a full queue drops it.
func (r *Registry) Relay(p Peer, roomID string, frame []byte) bool {
	room, ok := r.rooms[roomID]
	if !ok || !room.Has(p.ID()) {
		return false
	}
	other, ok := room.Other(p.ID())
	if !ok {
		return false
	}
	return other.Peer.Deliver(frame)
}

// Leave removes the peer from the room. The remaining member, if any, is told
// its peer left; an emptied room is deleted and reported to the observer.
func (r *Registry) Leave(p Peer, roomID string) {
	room, ok := r.rooms[roomID]
	if !ok || !room.remove(p.ID()) {
		return
	}
	r.logger.Info("member left", "room", roomID, "conn", p.ID(), "members", len(room.Members))

	switch len(room.Members) {
	case 0:
		delete(r.rooms, roomID)
		r.logger.Info("room deleted", "room", roomID)
		if r.observer != nil {
			r.observer.RoomClosed(roomID)
		}
	case 1:
		room.Members[0].Peer.Deliver(peerLeftFrame)
	}
}

// Room looks up a room by id.
func (r *Registry) Room(id string) (*Room, bool) {
	room, ok := r.rooms[id]
	return room, ok
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// RoomInfo is a read-only view of a room.
type RoomInfo struct {
	ID      string       `json:"id"`
	State   string       `json:"state"`
	Members []MemberInfo `json:"members"`
}

// MemberInfo is a read-only view of a member.
type MemberInfo struct {
	ID   string `json:"id"`
	Bot  bool   `json:"bot"`
	Name string `json:"name"`
}

// Snapshot copies the registry, ordered by room id.
func (r *Registry) Snapshot() []RoomInfo {
	infos := lo.MapToSlice(r.rooms, func(id string, room *Room) RoomInfo {
		return RoomInfo{
			ID:    id,
			State: room.State().String(),
			Members: lo.Map(room.Members, func(m *Member, _ int) MemberInfo {
				return MemberInfo{ID: m.ID(), Bot: m.Bot, Name: m.Name}
			}),
		}
	})
	slices.SortFunc(infos, func(a, b RoomInfo) int {
		return strings.Compare(a.ID, b.ID)
	})
	return infos
}
