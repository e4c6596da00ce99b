package rtc

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BioHazard786/pairline/internal/participant"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type recorder struct {
	mu   sync.Mutex
	msgs []participant.Message
}

func (r *recorder) Send(msg participant.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) first(t *testing.T, typ string) participant.Message {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.Type == typ {
			return m
		}
	}
	t.Fatalf("no %s message sent", typ)
	return participant.Message{}
}

func TestFrame_ChatPayload(t *testing.T) {
	frame, err := NewFrame(FrameChat, ChatPayload{Text: "hi", Name: "Alice"})
	require.NoError(t, err)

	b, err := EncodeFrame(frame)
	require.NoError(t, err)

	decoded, err := DecodeFrame(b)
	require.NoError(t, err)
	require.Equal(t, FrameChat, decoded.Type)

	var p ChatPayload
	require.NoError(t, decoded.DecodePayload(&p))
	require.Equal(t, "hi", p.Text)
	require.Equal(t, "Alice", p.Name)
}

func TestNegotiator_OfferAnswer(t *testing.T) {
	offerSide, answerSide := &recorder{}, &recorder{}

	a, err := NewNegotiator(nil, offerSide, nil)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewNegotiator(nil, answerSide, nil)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Initiate())
	offer := offerSide.first(t, participant.TypeOffer)
	require.Contains(t, offer.SDP, "m=application")

	require.NoError(t, b.HandleOffer(offer.SDP))
	answer := answerSide.first(t, participant.TypeAnswer)
	require.True(t, strings.HasPrefix(answer.SDP, "v=0"))

	require.NoError(t, a.HandleAnswer(answer.SDP))
}

func TestNegotiator_HoldsEarlyCandidates(t *testing.T) {
	n, err := NewNegotiator(nil, &recorder{}, nil)
	require.NoError(t, err)
	defer n.Close()

	raw, err := json.Marshal(map[string]any{
		"candidate":     "candidate:1 1 udp 2130706431 127.0.0.1 50000 typ host",
		"sdpMid":        "0",
		"sdpMLineIndex": 0,
	})
	require.NoError(t, err)

	require.NoError(t, n.HandleCandidate(raw))
	require.Equal(t, 1, n.Pending())

	require.Error(t, n.HandleCandidate(json.RawMessage(`"nope"`)))
	require.NoError(t, n.HandleCandidate(nil))
	require.Equal(t, 1, n.Pending())
}

func TestNegotiator_SendChatBeforeOpen(t *testing.T) {
	n, err := NewNegotiator(nil, &recorder{}, nil)
	require.NoError(t, err)
	defer n.Close()

	require.ErrorIs(t, n.SendChat(ChatPayload{Text: "x"}), ErrChannelNotOpen)
}
