package signaling

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Client to server message types.
const (
	TypeJoin  = "join"
	TypeLeave = "leave"
)

// Message types relayed verbatim between the two members of a room.
const (
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
	TypeChat      = "chat"
)

// Server to client notifications.
const (
	TypeWaiting    = "waiting"
	TypeInitiate   = "initiate"
	TypePeerJoined = "peer-joined"
	TypeFull       = "full"
	TypePeerLeft   = "peer-left"
)

// DefaultName is the display name given to members that join without one.
const DefaultName = "User"

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// Message is an inbound frame. Only the discriminator is decoded up front;
// Raw keeps the exact bytes received so relayed frames reach the peer untouched.
type Message struct {
	Type string
	Raw  []byte

	// client is the connection that sent the message.
	// It's used internally by the Hub.
	client *Client
}

// JoinRequest carries the fields of a join message.
type JoinRequest struct {
	Room string `json:"room"`
	Bot  bool   `json:"bot,omitempty"`
	Name string `json:"name,omitempty"`
}

// Decode parses a raw websocket frame into a Message.
func Decode(frame []byte) (*Message, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return &Message{Type: envelope.Type, Raw: frame}, nil
}

// Join decodes the message as a join request and applies defaults.
func (m *Message) Join() (JoinRequest, error) {
	var req JoinRequest
	if err := json.Unmarshal(m.Raw, &req); err != nil {
		return JoinRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if req.Room == "" {
		return JoinRequest{}, fmt.Errorf("%w: join without room", ErrMalformed)
	}
	if req.Name == "" {
		req.Name = DefaultName
	}
	return req, nil
}

// PeerJoined is sent to the existing member when a second one arrives.
type PeerJoined struct {
	Type string `json:"type"`
	Bot  bool   `json:"bot"`
	Name string `json:"name"`
}

func notice(t string) []byte {
	return []byte(`{"type":"` + t + `"}`)
}

var (
	waitingFrame  = notice(TypeWaiting)
	initiateFrame = notice(TypeInitiate)
	fullFrame     = notice(TypeFull)
	peerLeftFrame = notice(TypePeerLeft)
)

func peerJoinedFrame(bot bool, name string) []byte {
	b, _ := json.Marshal(PeerJoined{Type: TypePeerJoined, Bot: bot, Name: name})
	return b
}
