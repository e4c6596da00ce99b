package signaling

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakePeer struct {
	id      string
	frames  [][]byte
	blocked bool
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Deliver(frame []byte) bool {
	if p.blocked {
		return false
	}
	p.frames = append(p.frames, frame)
	return true
}

func (p *fakePeer) types(t *testing.T) []string {
	t.Helper()
	types := make([]string, 0, len(p.frames))
	for _, f := range p.frames {
		var env struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(f, &env))
		types = append(types, env.Type)
	}
	return types
}

func (p *fakePeer) last(t *testing.T) []byte {
	t.Helper()
	require.NotEmpty(t, p.frames)
	return p.frames[len(p.frames)-1]
}

func (p *fakePeer) reset() {
	p.frames = nil
}

func msg(t *testing.T, raw string) *Message {
	t.Helper()
	m, err := Decode([]byte(raw))
	require.NoError(t, err)
	return m
}
