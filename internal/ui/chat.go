package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const maxVisibleLines = 200

// ChatLine is one entry in the conversation.
type ChatLine struct {
	Name   string
	Bot    bool
	Text   string
	Self   bool
	System bool
	Time   time.Time
}

// LineMsg appends a line to the conversation.
type LineMsg ChatLine

// StatusMsg replaces the status bar text.
type StatusMsg string

// EndMsg ends the chat, showing reason as the last line.
type EndMsg struct{ Reason string }

// SendFunc delivers text typed by the user.
type SendFunc func(text string) error

// ChatModel is the bubbletea model of the interactive chat.
type ChatModel struct {
	room   string
	self   string
	send   SendFunc
	input  textinput.Model
	lines  []ChatLine
	status string
	height int
	done   bool
}

// NewChatModel creates the chat for room, with self as the local user's name.
func NewChatModel(room, self string, send SendFunc) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message, /quit to leave"
	ti.Prompt = "› "
	ti.PromptStyle = SelfNameStyle
	ti.CharLimit = 2000
	ti.Focus()

	return ChatModel{
		room:   room,
		self:   self,
		send:   send,
		input:  ti,
		status: "Connected",
	}
}

func (m ChatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.done = true
			return m, tea.Quit

		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if text == "" {
				return m, nil
			}
			if text == "/quit" {
				m.done = true
				return m, tea.Quit
			}
			if err := m.send(text); err != nil {
				m.lines = appendLine(m.lines, ChatLine{System: true, Text: "not sent: " + err.Error(), Time: time.Now()})
				return m, nil
			}
			m.lines = appendLine(m.lines, ChatLine{Name: m.self, Self: true, Text: text, Time: time.Now()})
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		return m, nil

	case LineMsg:
		line := ChatLine(msg)
		if line.Time.IsZero() {
			line.Time = time.Now()
		}
		m.lines = appendLine(m.lines, line)
		return m, nil

	case StatusMsg:
		m.status = string(msg)
		return m, nil

	case EndMsg:
		m.lines = appendLine(m.lines, ChatLine{System: true, Text: msg.Reason, Time: time.Now()})
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func appendLine(lines []ChatLine, l ChatLine) []ChatLine {
	lines = append(lines, l)
	if len(lines) > maxVisibleLines {
		lines = lines[len(lines)-maxVisibleLines:]
	}
	return lines
}

// Lines returns the conversation so far.
func (m ChatModel) Lines() []ChatLine {
	return m.lines
}

func (m ChatModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s %s", IconRoom, m.room)))
	b.WriteString("  ")
	b.WriteString(MutedStyle.Render(m.status))
	b.WriteString("\n\n")

	lines := m.lines
	if m.height > 6 && len(lines) > m.height-6 {
		lines = lines[len(lines)-(m.height-6):]
	}
	for _, l := range lines {
		b.WriteString(FormatLine(l))
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	return b.String()
}

// FormatLine renders a single conversation line.
func FormatLine(l ChatLine) string {
	ts := MutedStyle.Render(l.Time.Format("15:04"))
	if l.System {
		return fmt.Sprintf("%s %s", ts, SystemStyle.Render(l.Text))
	}

	name := PeerNameStyle
	if l.Self {
		name = SelfNameStyle
	}
	label := name.Render(l.Name)
	if l.Bot {
		label += " " + BotTagStyle.Render("bot")
	}
	return fmt.Sprintf("%s %s: %s", ts, label, l.Text)
}
