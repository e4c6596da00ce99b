package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/pairline/internal/participant"
	"github.com/BioHazard786/pairline/internal/rtc"
	"github.com/BioHazard786/pairline/internal/ui"
)

// chatSession ties the relay connection, the peer connection and the chat UI
// together for one room.
type chatSession struct {
	name       string
	bot        bool
	iceServers []string
	client     *participant.Client
	logger     *slog.Logger

	mu       sync.Mutex
	emit     func(tea.Msg) // forwards events to the UI
	peer     *rtc.Negotiator
	peerName string
}

func newChatSession(name string, bot bool, iceServers []string, client *participant.Client, logger *slog.Logger) *chatSession {
	return &chatSession{
		name:       name,
		bot:        bot,
		iceServers: iceServers,
		client:     client,
		logger:     logger,
		emit:       func(tea.Msg) {},
	}
}

// resetPeer replaces the peer connection. A new participant needs a fresh one.
func (s *chatSession) resetPeer() error {
	n, err := rtc.NewNegotiator(s.iceServers, s.client, s.logger)
	if err != nil {
		return err
	}
	n.OnFrame(func(f rtc.Frame) {
		if f.Type != rtc.FrameChat {
			return
		}
		var p rtc.ChatPayload
		if err := f.DecodePayload(&p); err != nil {
			return
		}
		s.notify(ui.LineMsg(chatLine(p.Name, p.Bot, p.Text, p.Timestamp)))
	})
	n.OnStateChange(func(state pion.PeerConnectionState) {
		s.notify(ui.StatusMsg("Peer connection " + state.String()))
	})

	s.mu.Lock()
	old := s.peer
	s.peer = n
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (s *chatSession) setEmit(fn func(tea.Msg)) {
	s.mu.Lock()
	s.emit = fn
	s.mu.Unlock()
}

func (s *chatSession) notify(m tea.Msg) {
	s.mu.Lock()
	fn := s.emit
	s.mu.Unlock()
	fn(m)
}

func (s *chatSession) currentPeer() *rtc.Negotiator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// send delivers text over the data channel, falling back to the relay while
// the channel is not open.
func (s *chatSession) send(text string) error {
	ts := time.Now().Format(time.RFC3339)

	if peer := s.currentPeer(); peer != nil {
		err := peer.SendChat(rtc.ChatPayload{Text: text, Name: s.name, Bot: s.bot, Timestamp: ts})
		if err == nil {
			return nil
		}
		if !errors.Is(err, rtc.ErrChannelNotOpen) {
			s.logger.Debug("data channel send failed", "err", err)
		}
	}
	return s.client.Send(participant.Chat(text, s.name, s.bot, ts))
}

// handle applies one relay message. It reports false once the session is over.
func (s *chatSession) handle(msg *participant.Message) bool {
	switch msg.Type {
	case participant.TypeWaiting:
		s.notify(ui.StatusMsg("Waiting for someone to join"))

	case participant.TypePeerJoined:
		s.mu.Lock()
		s.peerName = msg.Name
		s.mu.Unlock()
		s.notify(ui.LineMsg(systemLine(joinedText(msg.Name, msg.Bot))))
		s.notify(ui.StatusMsg("Paired with " + msg.Name))

	case participant.TypeInitiate:
		s.notify(ui.StatusMsg("Negotiating"))
		if err := s.currentPeer().Initiate(); err != nil {
			s.notify(ui.LineMsg(systemLine("could not start peer connection: " + err.Error())))
		}

	case participant.TypeOffer:
		if err := s.currentPeer().HandleOffer(msg.SDP); err != nil {
			s.logger.Warn("answer failed", "err", err)
		}

	case participant.TypeAnswer:
		if err := s.currentPeer().HandleAnswer(msg.SDP); err != nil {
			s.logger.Warn("applying answer failed", "err", err)
		}

	case participant.TypeCandidate:
		if err := s.currentPeer().HandleCandidate(msg.Candidate); err != nil {
			s.logger.Debug("candidate rejected", "err", err)
		}

	case participant.TypeChat:
		s.notify(ui.LineMsg(chatLine(msg.Name, msg.Bot, msg.Text, msg.Timestamp)))

	case participant.TypePeerLeft:
		s.mu.Lock()
		who := s.peerName
		s.peerName = ""
		s.mu.Unlock()
		if who == "" {
			who = "The other participant"
		}
		s.notify(ui.LineMsg(systemLine(who + " left")))
		s.notify(ui.StatusMsg("Waiting for someone to join"))
		if err := s.resetPeer(); err != nil {
			s.notify(ui.EndMsg{Reason: err.Error()})
			return false
		}

	case participant.TypeFull:
		s.notify(ui.EndMsg{Reason: "Room is full"})
		return false
	}
	return true
}

func (s *chatSession) close() {
	if peer := s.currentPeer(); peer != nil {
		_ = peer.Close()
	}
}

func joinedText(name string, bot bool) string {
	if bot {
		return fmt.Sprintf("%s joined %s", name, ui.IconBot)
	}
	return name + " joined"
}

func systemLine(text string) ui.ChatLine {
	return ui.ChatLine{System: true, Text: text, Time: time.Now()}
}

func chatLine(name string, bot bool, text, timestamp string) ui.ChatLine {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		t = time.Now()
	}
	return ui.ChatLine{Name: name, Bot: bot, Text: text, Time: t}
}
