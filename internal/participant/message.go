package participant

import "encoding/json"

// Message is the participant's view of a relay frame.
type Message struct {
	Type      string          `json:"type"`
	Room      string          `json:"room,omitempty"`
	Bot       bool            `json:"bot"`
	Name      string          `json:"name,omitempty"`
	Text      string          `json:"text,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	SDP       string          `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Message type constants.
const (
	TypeJoin      = "join"
	TypeLeave     = "leave"
	TypeOffer     = "offer"
	TypeAnswer    = "answer"
	TypeCandidate = "candidate"
	TypeChat      = "chat"

	TypeWaiting    = "waiting"
	TypeInitiate   = "initiate"
	TypePeerJoined = "peer-joined"
	TypeFull       = "full"
	TypePeerLeft   = "peer-left"
)

// Join asks the relay to enter room.
func Join(room, name string, bot bool) Message {
	return Message{Type: TypeJoin, Room: room, Name: name, Bot: bot}
}

// Chat builds a chat message.
func Chat(text, name string, bot bool, timestamp string) Message {
	return Message{Type: TypeChat, Text: text, Name: name, Bot: bot, Timestamp: timestamp}
}

func Offer(sdp string) Message {
	return Message{Type: TypeOffer, SDP: sdp}
}

func Answer(sdp string) Message {
	return Message{Type: TypeAnswer, SDP: sdp}
}

// Candidate wraps an ICE candidate already encoded as JSON.
func Candidate(candidate json.RawMessage) Message {
	return Message{Type: TypeCandidate, Candidate: candidate}
}

func Leave() Message {
	return Message{Type: TypeLeave}
}
