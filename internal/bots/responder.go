package bots

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/pairline/internal/participant"
	"github.com/BioHazard786/pairline/internal/rtc"
)

// Options configure responder bots.
type Options struct {
	// ServerURL is the relay websocket the bot dials.
	ServerURL  string
	Name       string
	ReplyDelay time.Duration
	ICEServers []string
	Logger     *slog.Logger
}

// Responder joins a room as a bot, negotiates a peer connection with the
// other member and answers its chat messages.
type Responder struct {
	room    string
	opts    Options
	logger  *slog.Logger
	client  *participant.Client
	peer    *rtc.Negotiator
	replies atomic.Int64
}

// NewResponder creates a responder for room.
func NewResponder(room string, opts Options) *Responder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		room:   room,
		opts:   opts,
		logger: logger.With("bot", opts.Name, "room", room),
	}
}

// NewFactory returns a Factory building responders.
func NewFactory(opts Options) Factory {
	return func(roomID string) Bot {
		return NewResponder(roomID, opts)
	}
}

// Run connects, joins and serves the room until the peer leaves, the room is
// full or ctx is cancelled.
func (r *Responder) Run(ctx context.Context) error {
	r.client = participant.NewClient(r.opts.ServerURL, r.logger)
	if err := r.client.Connect(ctx); err != nil {
		return err
	}
	defer r.client.Close()

	peer, err := rtc.NewNegotiator(r.opts.ICEServers, r.client, r.logger)
	if err != nil {
		return err
	}
	defer peer.Close()
	r.peer = peer

	peer.OnFrame(r.handleFrame)
	peer.OnStateChange(func(state pion.PeerConnectionState) {
		r.logger.Info("peer connection", "state", state.String())
	})

	if err := r.client.Send(participant.Join(r.room, r.opts.Name, true)); err != nil {
		return participant.NewError("join", err)
	}

	greet := time.NewTimer(r.opts.ReplyDelay)
	defer greet.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = r.client.Send(participant.Leave())
			return ctx.Err()

		case <-greet.C:
			r.say(Greeting)

		case msg, ok := <-r.client.Incoming():
			if !ok {
				return participant.ErrClosed
			}
			if err := r.handle(msg); err != nil {
				return err
			}
		}
	}
}

func (r *Responder) handle(msg *participant.Message) error {
	r.logger.Debug("message received", "type", msg.Type)

	switch msg.Type {
	case participant.TypeWaiting:
		r.logger.Info("waiting for a participant")

	case participant.TypePeerJoined:
		r.logger.Info("participant joined", "name", msg.Name, "peer_bot", msg.Bot)

	case participant.TypeInitiate:
		if err := r.peer.Initiate(); err != nil {
			r.logger.Warn("offer failed", "err", err)
		}

	case participant.TypeOffer:
		if err := r.peer.HandleOffer(msg.SDP); err != nil {
			r.logger.Warn("answer failed", "err", err)
		}

	case participant.TypeAnswer:
		if err := r.peer.HandleAnswer(msg.SDP); err != nil {
			r.logger.Warn("applying answer failed", "err", err)
		}

	case participant.TypeCandidate:
		if err := r.peer.HandleCandidate(msg.Candidate); err != nil {
			r.logger.Debug("candidate rejected", "err", err)
		}

	case participant.TypeChat:
		if msg.Bot || msg.Text == "" {
			return nil
		}
		text := r.nextReply(msg.Text)
		time.AfterFunc(r.opts.ReplyDelay, func() { r.say(text) })

	case participant.TypeFull:
		return participant.ErrRoomFull

	case participant.TypePeerLeft:
		return participant.ErrPeerLeft
	}
	return nil
}

// handleFrame answers chat arriving on the data channel over the same channel.
func (r *Responder) handleFrame(f rtc.Frame) {
	if f.Type != rtc.FrameChat {
		return
	}
	var p rtc.ChatPayload
	if err := f.DecodePayload(&p); err != nil || p.Bot || p.Text == "" {
		return
	}
	text := r.nextReply(p.Text)
	time.AfterFunc(r.opts.ReplyDelay, func() {
		err := r.peer.SendChat(rtc.ChatPayload{
			Text:      text,
			Name:      r.opts.Name,
			Bot:       true,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		if err != nil {
			r.logger.Debug("data channel reply failed", "err", err)
		}
	})
}

func (r *Responder) nextReply(text string) string {
	n := r.replies.Add(1) - 1
	return reply(text, int(n))
}

func (r *Responder) say(text string) {
	msg := participant.Chat(text, r.opts.Name, true, time.Now().Format(time.RFC3339))
	if err := r.client.Send(msg); err != nil {
		r.logger.Debug("chat not sent", "err", err)
	}
}
