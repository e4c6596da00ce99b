package signaling

import "github.com/samber/lo"

// MaxMembers is the room capacity: one peer-to-peer session per room.
const MaxMembers = 2

// RoomState describes where a room is in its lifecycle.
type RoomState int

const (
	RoomEmpty RoomState = iota
	RoomWaiting
	RoomPaired
)

func (s RoomState) String() string {
	switch s {
	case RoomWaiting:
		return "waiting"
	case RoomPaired:
		return "paired"
	default:
		return "empty"
	}
}

// Peer is the relay's view of a connection: a stable id and a non-blocking
// outbound queue. Deliver reports false when the frame could not be queued.
type Peer interface {
	ID() string
	Deliver(frame []byte) bool
}

// Member is a connection that has successfully joined a room.
type Member struct {
	Peer Peer
	Bot  bool
	Name string
}

// ID returns the member's connection id.
func (m *Member) ID() string {
	return m.Peer.ID()
}

// Room is a named grouping of up to two members, in join order.
type Room struct {
	ID      string
	Members []*Member
}

// State derives the lifecycle state from the member count.
func (r *Room) State() RoomState {
	switch len(r.Members) {
	case 0:
		return RoomEmpty
	case 1:
		return RoomWaiting
	default:
		return RoomPaired
	}
}

// Full reports whether another member can be admitted.
func (r *Room) Full() bool {
	return len(r.Members) >= MaxMembers
}

// Other returns the member that is not the given connection.
func (r *Room) Other(id string) (*Member, bool) {
	return lo.Find(r.Members, func(m *Member) bool {
		return m.ID() != id
	})
}

// Has reports whether the connection is a member of the room.
func (r *Room) Has(id string) bool {
	return lo.ContainsBy(r.Members, func(m *Member) bool {
		return m.ID() == id
	})
}

func (r *Room) remove(id string) bool {
	before := len(r.Members)
	r.Members = lo.Reject(r.Members, func(m *Member, _ int) bool {
		return m.ID() == id
	})
	return len(r.Members) != before
}
