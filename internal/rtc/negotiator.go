package rtc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/BioHazard786/pairline/internal/participant"
)

var ErrChannelNotOpen = errors.New("data channel not open")

// Signaler carries negotiation messages to the other member of the room.
type Signaler interface {
	Send(msg participant.Message) error
}

// Negotiator drives one side of a peer connection over the relay: the side
// told to initiate creates the offer and the chat data channel, the other
// answers. Remote candidates that arrive before the remote description are
// held until it is set.
type Negotiator struct {
	pc       *pion.PeerConnection
	signaler Signaler
	logger   *slog.Logger

	mu        sync.Mutex
	channel   *pion.DataChannel
	pending   []pion.ICECandidateInit
	remoteSet bool // remote description applied
	onFrame   func(Frame)
	onState   func(pion.PeerConnectionState)
}

// Option configures a Negotiator.
type Option func(*options)

type options struct {
	api *pion.API
}

// WithAPI builds the peer connection from api instead of the default one.
func WithAPI(api *pion.API) Option {
	return func(o *options) { o.api = api }
}

// NewAPI returns a pion API for data-channel peers that logs through logger.
func NewAPI(logger *slog.Logger) *pion.API {
	se := pion.SettingEngine{LoggerFactory: NewLoggerFactory(logger)}
	return pion.NewAPI(pion.WithSettingEngine(se))
}

func configuration(iceServers []string) pion.Configuration {
	var servers []pion.ICEServer
	if len(iceServers) > 0 {
		servers = []pion.ICEServer{{URLs: iceServers}}
	}
	return pion.Configuration{ICEServers: servers}
}

// NewNegotiator creates a peer connection using the given STUN servers, wired
// to signaler.
func NewNegotiator(iceServers []string, signaler Signaler, logger *slog.Logger, opts ...Option) (*Negotiator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.api == nil {
		o.api = NewAPI(logger)
	}

	pc, err := o.api.NewPeerConnection(configuration(iceServers))
	if err != nil {
		return nil, participant.NewError("create peer connection", err)
	}

	n := &Negotiator{pc: pc, signaler: signaler, logger: logger}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		if err := signaler.Send(participant.Candidate(raw)); err != nil {
			n.logger.Debug("candidate not sent", "err", err)
		}
	})

	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		n.logger.Debug("peer connection state", "state", state.String())
		n.mu.Lock()
		fn := n.onState
		n.mu.Unlock()
		if fn != nil {
			fn(state)
		}
	})

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		if dc.Label() == ChatLabel {
			n.attach(dc)
		}
	})

	return n, nil
}

// OnFrame registers the handler for frames arriving on the chat channel.
func (n *Negotiator) OnFrame(fn func(Frame)) {
	n.mu.Lock()
	n.onFrame = fn
	n.mu.Unlock()
}

// OnStateChange registers the handler for peer connection state changes.
func (n *Negotiator) OnStateChange(fn func(pion.PeerConnectionState)) {
	n.mu.Lock()
	n.onState = fn
	n.mu.Unlock()
}

func (n *Negotiator) attach(dc *pion.DataChannel) {
	n.mu.Lock()
	n.channel = dc
	n.mu.Unlock()

	dc.OnMessage(func(msg pion.DataChannelMessage) {
		frame, err := DecodeFrame(msg.Data)
		if err != nil {
			n.logger.Debug("ignoring undecodable frame", "err", err)
			return
		}
		n.mu.Lock()
		fn := n.onFrame
		n.mu.Unlock()
		if fn != nil {
			fn(frame)
		}
	})
}

// Initiate opens the chat channel and sends an offer.
func (n *Negotiator) Initiate() error {
	ordered := true
	dc, err := n.pc.CreateDataChannel(ChatLabel, &pion.DataChannelInit{Ordered: &ordered})
	if err != nil {
		return participant.NewError("create data channel", err)
	}
	n.attach(dc)

	offer, err := n.pc.CreateOffer(nil)
	if err != nil {
		return participant.NewError("create offer", err)
	}
	if err := n.pc.SetLocalDescription(offer); err != nil {
		return participant.NewError("set local description", err)
	}
	return n.signaler.Send(participant.Offer(offer.SDP))
}

// HandleOffer answers a remote offer.
func (n *Negotiator) HandleOffer(sdp string) error {
	offer := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: sdp}
	if err := n.pc.SetRemoteDescription(offer); err != nil {
		return participant.NewError("set remote description", err)
	}
	n.flushCandidates()

	answer, err := n.pc.CreateAnswer(nil)
	if err != nil {
		return participant.NewError("create answer", err)
	}
	if err := n.pc.SetLocalDescription(answer); err != nil {
		return participant.NewError("set local description", err)
	}
	return n.signaler.Send(participant.Answer(answer.SDP))
}

// HandleAnswer applies the remote answer to our offer.
func (n *Negotiator) HandleAnswer(sdp string) error {
	answer := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: sdp}
	if err := n.pc.SetRemoteDescription(answer); err != nil {
		return participant.NewError("set remote description", err)
	}
	n.flushCandidates()
	return nil
}

// HandleCandidate adds a remote ICE candidate, or holds it until the remote
// description is known.
func (n *Negotiator) HandleCandidate(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var candidate pion.ICECandidateInit
	if err := json.Unmarshal(raw, &candidate); err != nil {
		return participant.NewError("parse ICE candidate", err)
	}

	n.mu.Lock()
	if !n.remoteSet {
		n.pending = append(n.pending, candidate)
		n.mu.Unlock()
		return nil
	}
	n.mu.Unlock()

	if err := n.pc.AddICECandidate(candidate); err != nil {
		return participant.NewError("add ICE candidate", err)
	}
	return nil
}

func (n *Negotiator) flushCandidates() {
	n.mu.Lock()
	n.remoteSet = true
	pending := n.pending
	n.pending = nil
	n.mu.Unlock()

	for _, c := range pending {
		if err := n.pc.AddICECandidate(c); err != nil {
			n.logger.Debug("dropping held candidate", "err", err)
		}
	}
}

// Pending returns the number of held remote candidates.
func (n *Negotiator) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

// SendChat sends a chat frame over the data channel.
func (n *Negotiator) SendChat(p ChatPayload) error {
	n.mu.Lock()
	dc := n.channel
	n.mu.Unlock()
	if dc == nil || dc.ReadyState() != pion.DataChannelStateOpen {
		return ErrChannelNotOpen
	}

	frame, err := NewFrame(FrameChat, p)
	if err != nil {
		return err
	}
	b, err := EncodeFrame(frame)
	if err != nil {
		return err
	}
	return dc.Send(b)
}

// Close tears down the peer connection.
func (n *Negotiator) Close() error {
	return n.pc.Close()
}
