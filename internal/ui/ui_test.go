package ui

import (
	"errors"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func typeText(m ChatModel, text string) ChatModel {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(ChatModel)
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(ChatModel)
}

func TestChatModel_SendsTypedText(t *testing.T) {
	var sent []string
	m := NewChatModel("r1", "Alice", func(text string) error {
		sent = append(sent, text)
		return nil
	})

	m = typeText(m, "hello")
	require.Equal(t, []string{"hello"}, sent)
	require.Len(t, m.Lines(), 1)
	require.True(t, m.Lines()[0].Self)
	require.Equal(t, "Alice", m.Lines()[0].Name)

	// Blank input is ignored.
	m = typeText(m, "   ")
	require.Len(t, sent, 1)
}

func TestChatModel_SendFailureIsShown(t *testing.T) {
	m := NewChatModel("r1", "Alice", func(string) error { return errors.New("no peer") })

	m = typeText(m, "hello")
	require.Len(t, m.Lines(), 1)
	require.True(t, m.Lines()[0].System)
	require.Contains(t, m.Lines()[0].Text, "no peer")
}

func TestChatModel_IncomingAndEnd(t *testing.T) {
	m := NewChatModel("r1", "Alice", func(string) error { return nil })

	next, _ := m.Update(LineMsg{Name: "Assistant", Bot: true, Text: "Hi!"})
	m = next.(ChatModel)
	next, _ = m.Update(StatusMsg("Peer connected"))
	m = next.(ChatModel)
	require.Contains(t, m.View(), "Peer connected")
	require.Contains(t, m.View(), "Hi!")

	next, cmd := m.Update(EndMsg{Reason: "room closed"})
	m = next.(ChatModel)
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
	require.Equal(t, "room closed", m.Lines()[len(m.Lines())-1].Text)
}

func TestChatModel_QuitCommand(t *testing.T) {
	m := NewChatModel("r1", "Alice", func(string) error {
		t.Fatal("quit must not be sent")
		return nil
	})
	for _, r := range "/quit" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(ChatModel)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

func TestRoomTableView(t *testing.T) {
	require.Contains(t, RoomTableView(nil), "No active rooms")

	view := RoomTableView([]RoomRow{{
		ID:    "lobby",
		State: "paired",
		Members: []MemberCell{
			{Name: "Alice"},
			{Name: "Assistant", Bot: true},
		},
	}})
	require.Contains(t, view, "lobby")
	require.Contains(t, view, "paired")
	require.True(t, strings.Contains(view, "Alice, Assistant"))
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestPrintHelpers(t *testing.T) {
	var buf strings.Builder
	Out = &buf
	t.Cleanup(func() { Out = os.Stdout })

	PrintInfof("%d active room(s)", 2)
	PrintWarning("No bot active in this room")

	out := buf.String()
	require.Contains(t, out, IconInfo+" 2 active room(s)")
	require.Contains(t, out, IconWarning)
	require.Contains(t, out, "No bot active in this room")
}
