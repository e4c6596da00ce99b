package signaling

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSession_PairingScenario(t *testing.T) {
	reg := NewRegistry()
	p1, p2 := newFakePeer("c1"), newFakePeer("c2")
	s1, s2 := NewSession(p1), NewSession(p2)

	require.NoError(t, s1.Handle(reg, msg(t, `{"type":"join","room":"R1","name":"Alice"}`)))
	require.Equal(t, []string{TypeWaiting}, p1.types(t))

	require.NoError(t, s2.Handle(reg, msg(t, `{"type":"join","room":"R1","name":"Bob","bot":true}`)))
	require.Equal(t, []string{TypeInitiate}, p2.types(t))
	require.Equal(t, []string{TypeWaiting, TypePeerJoined}, p1.types(t))
	require.JSONEq(t, `{"type":"peer-joined","bot":true,"name":"Bob"}`, string(p1.last(t)))
	p1.reset()
	p2.reset()

	offer := `{"type":"offer","sdp":"X"}`
	require.NoError(t, s1.Handle(reg, msg(t, offer)))
	require.Equal(t, []byte(offer), p2.last(t))
	require.Empty(t, p1.frames)

	chat := `{"type":"chat","text":"hi","bot":false,"name":"Bob"}`
	require.NoError(t, s2.Handle(reg, msg(t, chat)))
	require.Equal(t, []byte(chat), p1.last(t))
	require.Len(t, p2.frames, 1)

	s1.Close(reg)
	require.Equal(t, []string{TypeOffer, TypePeerLeft}, p2.types(t))
	_, ok := reg.Room("R1")
	require.True(t, ok)

	s2.Close(reg)
	_, ok = reg.Room("R1")
	require.False(t, ok)
}

func TestSession_ChatBeforePeerIsSilentlyDropped(t *testing.T) {
	reg := NewRegistry()
	p3 := newFakePeer("c3")
	s3 := NewSession(p3)

	require.NoError(t, s3.Handle(reg, msg(t, `{"type":"join","room":"R2"}`)))
	p3.reset()

	require.NoError(t, s3.Handle(reg, msg(t, `{"type":"chat","text":"hello?"}`)))
	require.Empty(t, p3.frames)
}

func TestSession_DefaultName(t *testing.T) {
	reg := NewRegistry()
	p1, p2 := newFakePeer("c1"), newFakePeer("c2")

	require.NoError(t, NewSession(p1).Handle(reg, msg(t, `{"type":"join","room":"R"}`)))
	require.NoError(t, NewSession(p2).Handle(reg, msg(t, `{"type":"join","room":"R"}`)))

	require.JSONEq(t, `{"type":"peer-joined","bot":false,"name":"User"}`, string(p1.last(t)))
}

func TestSession_RelayBeforeJoinIsDropped(t *testing.T) {
	reg := NewRegistry()
	s := NewSession(newFakePeer("c1"))

	err := s.Handle(reg, msg(t, `{"type":"offer","room":"R1","sdp":"X"}`))
	require.ErrorIs(t, err, ErrNotJoined)
	require.Equal(t, Unjoined, s.State())
}

func TestSession_FullJoinLeavesConnectionUnjoined(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, NewSession(newFakePeer("c1")).Handle(reg, msg(t, `{"type":"join","room":"R1"}`)))
	require.NoError(t, NewSession(newFakePeer("c2")).Handle(reg, msg(t, `{"type":"join","room":"R1"}`)))

	p3 := newFakePeer("c3")
	s3 := NewSession(p3)
	err := s3.Handle(reg, msg(t, `{"type":"join","room":"R1"}`))
	require.ErrorIs(t, err, ErrRoomFull)
	require.Equal(t, Unjoined, s3.State())
	require.Equal(t, []string{TypeFull}, p3.types(t))

	// A rejected connection may still join elsewhere.
	require.NoError(t, s3.Handle(reg, msg(t, `{"type":"join","room":"R9"}`)))
	require.Equal(t, Joined, s3.State())
	require.Equal(t, "R9", s3.Room())
}

func TestSession_SecondJoinIsIgnored(t *testing.T) {
	reg := NewRegistry()
	p1 := newFakePeer("c1")
	s1 := NewSession(p1)
	require.NoError(t, s1.Handle(reg, msg(t, `{"type":"join","room":"A"}`)))

	err := s1.Handle(reg, msg(t, `{"type":"join","room":"B"}`))
	require.ErrorIs(t, err, ErrAlreadyJoined)
	require.Equal(t, "A", s1.Room())
	_, ok := reg.Room("B")
	require.False(t, ok)
}

func TestSession_RoomFieldOnRelayedMessagesIsIgnored(t *testing.T) {
	reg := NewRegistry()
	a1, a2 := newFakePeer("a1"), newFakePeer("a2")
	b1, b2 := newFakePeer("b1"), newFakePeer("b2")
	sa1 := NewSession(a1)
	require.NoError(t, sa1.Handle(reg, msg(t, `{"type":"join","room":"A"}`)))
	require.NoError(t, NewSession(a2).Handle(reg, msg(t, `{"type":"join","room":"A"}`)))
	require.NoError(t, NewSession(b1).Handle(reg, msg(t, `{"type":"join","room":"B"}`)))
	require.NoError(t, NewSession(b2).Handle(reg, msg(t, `{"type":"join","room":"B"}`)))
	a2.reset()
	b1.reset()
	b2.reset()

	require.NoError(t, sa1.Handle(reg, msg(t, `{"type":"candidate","room":"B","candidate":{}}`)))

	require.Len(t, a2.frames, 1)
	require.Empty(t, b1.frames)
	require.Empty(t, b2.frames)
}

func TestSession_LeaveClosesSession(t *testing.T) {
	reg := NewRegistry()
	p1, p2 := newFakePeer("c1"), newFakePeer("c2")
	s1 := NewSession(p1)
	require.NoError(t, s1.Handle(reg, msg(t, `{"type":"join","room":"R"}`)))
	require.NoError(t, NewSession(p2).Handle(reg, msg(t, `{"type":"join","room":"R"}`)))
	p2.reset()

	require.ErrorIs(t, s1.Handle(reg, msg(t, `{"type":"leave"}`)), ErrLeave)
	require.Equal(t, Closed, s1.State())
	require.Equal(t, []string{TypePeerLeft}, p2.types(t))

	require.ErrorIs(t, s1.Handle(reg, msg(t, `{"type":"join","room":"R"}`)), ErrSessionClosed)

	// Transport close after leave must not notify twice.
	s1.Close(reg)
	require.Equal(t, []string{TypePeerLeft}, p2.types(t))
}

func TestSession_MalformedAndUnknownMessages(t *testing.T) {
	reg := NewRegistry()
	s := NewSession(newFakePeer("c1"))

	require.ErrorIs(t, s.Handle(reg, msg(t, `{"type":"join"}`)), ErrMalformed)
	require.ErrorIs(t, s.Handle(reg, msg(t, `{"type":"join","room":"R","bot":"yes"}`)), ErrMalformed)
	require.ErrorIs(t, s.Handle(reg, msg(t, `{"type":"dance"}`)), ErrUnknownType)
	require.Equal(t, Unjoined, s.State())
	require.Zero(t, reg.Len())
}

func TestDecode(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Decode([]byte(`{"sdp":"X"}`))
	require.ErrorIs(t, err, ErrMalformed)

	raw := []byte(`{"type":"answer","sdp":"Y"}`)
	m, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, TypeAnswer, m.Type)
	require.Equal(t, raw, m.Raw)
}
