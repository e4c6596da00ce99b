package rtc

import "github.com/vmihailenco/msgpack/v5"

// Data channel frame types.
const (
	FrameChat = "chat"
)

// ChatLabel is the label of the data channel opened by the initiating side.
const ChatLabel = "chat"

// Frame is a message on the peer-to-peer data channel.
type Frame struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// ChatPayload is the payload of a chat frame.
type ChatPayload struct {
	Text      string `msgpack:"text"`
	Name      string `msgpack:"name"`
	Bot       bool   `msgpack:"bot"`
	Timestamp string `msgpack:"timestamp"`
}

// NewFrame creates a Frame with the given type and payload.
func NewFrame(t string, payload any) (Frame, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: t, Payload: b}, nil
}

// DecodePayload decodes the frame payload into v.
func (f Frame) DecodePayload(v any) error {
	return msgpack.Unmarshal(f.Payload, v)
}

// EncodeFrame serialises a frame for the wire.
func EncodeFrame(f Frame) ([]byte, error) {
	return msgpack.Marshal(f)
}

// DecodeFrame parses a frame from the wire.
func DecodeFrame(b []byte) (Frame, error) {
	var f Frame
	err := msgpack.Unmarshal(b, &f)
	return f, err
}
