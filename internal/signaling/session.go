package signaling

import (
	"errors"
	"fmt"
)

var (
	ErrNotJoined     = errors.New("not in a room")
	ErrAlreadyJoined = errors.New("already in a room")
	ErrSessionClosed = errors.New("session closed")

	// ErrLeave is returned by Handle after a leave request; the caller
	// should close the connection.
	ErrLeave = errors.New("leave requested")
)

// SessionState is the per-connection state.
type SessionState int

const (
	Unjoined SessionState = iota
	Joined
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Joined:
		return "joined"
	case Closed:
		return "closed"
	default:
		return "unjoined"
	}
}

// Session tracks which room a connection belongs to and funnels every
// inbound message into the registry. A connection joins at most one room.
type Session struct {
	peer  Peer
	state SessionState
	room  string
}

// NewSession creates an unjoined session for the peer.
func NewSession(p Peer) *Session {
	return &Session{peer: p}
}

func (s *Session) State() SessionState { return s.state }

// Room returns the joined room id, or "" before a successful join.
func (s *Session) Room() string { return s.room }

// Handle applies one inbound message.
//
// Non-join messages are always bound to the room recorded at join time; any
// room field they carry is ignored. Relaying with no peer present is not an
// error. The returned error describes why a message was dropped (or ErrLeave).
func (s *Session) Handle(reg *Registry, msg *Message) error {
	if s.state == Closed {
		return ErrSessionClosed
	}

	switch msg.Type {
	case TypeJoin:
		if s.state == Joined {
			return ErrAlreadyJoined
		}
		req, err := msg.Join()
		if err != nil {
			return err
		}
		if err := reg.Join(s.peer, req.Room, req.Bot, req.Name); err != nil {
			return err
		}
		s.state = Joined
		s.room = req.Room
		return nil

	case TypeOffer, TypeAnswer, TypeCandidate, TypeChat:
		if s.state != Joined {
			return ErrNotJoined
		}
		reg.Relay(s.peer, s.room, msg.Raw)
		return nil

	case TypeLeave:
		s.Close(reg)
		return ErrLeave

	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}
}

// Close leaves the joined room, if any. It is safe to call more than once.
func (s *Session) Close(reg *Registry) {
	if s.state == Joined {
		reg.Leave(s.peer, s.room)
	}
	s.state = Closed
}
