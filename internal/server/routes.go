package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/BioHazard786/pairline/internal/signaling"
)

// BotController starts and stops bots per room.
type BotController interface {
	Start(roomID string) (bool, error)
	Stop(roomID string) bool
	Active() []string
}

// Options configure the HTTP surface.
type Options struct {
	Limits signaling.Limits

	// AllowedOrigins restricts browser origins; empty allows all.
	AllowedOrigins []string
}

// Server exposes the relay websocket and its companion HTTP endpoints.
type Server struct {
	hub      *signaling.Hub
	bots     BotController
	opts     Options
	logger   *slog.Logger
	upgrader websocket.Upgrader
	validate *validator.Validate
}

// New creates the server. bots may be nil, which disables the bot endpoints.
func New(hub *signaling.Hub, bots BotController, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		hub:      hub,
		bots:     bots,
		opts:     opts,
		logger:   logger,
		validate: validator.New(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.ServeWs)
	mux.HandleFunc("GET /health", healthCheckHandler)
	mux.HandleFunc("GET /rooms", s.handleRooms)
	if s.bots != nil {
		mux.HandleFunc("POST /start-bot", s.handleStartBot)
		mux.HandleFunc("POST /stop-bot", s.handleStopBot)
		mux.HandleFunc("GET /bots", s.handleListBots)
	}
	return mux
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	// Non-browser clients (bots, the CLI) send no Origin.
	return origin == "" || slices.Contains(s.opts.AllowedOrigins, origin)
}

// ServeWs upgrades the request and hands the connection to the hub.
func (s *Server) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade connection", "err", err)
		return
	}

	client := signaling.NewClient(s.hub, conn, s.opts.Limits)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	// These methods will handle the client's lifecycle
	go client.WritePump()
	go client.ReadPump()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.hub.Rooms(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if rooms == nil {
		rooms = []signaling.RoomInfo{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

// BotRequest is the body of the bot endpoints.
type BotRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// BotResponse is the body returned by the bot endpoints.
type BotResponse struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId,omitempty"`
	// Changed reports whether a bot was actually started or stopped.
	Changed bool `json:"changed"`
}

func (s *Server) decodeBotRequest(w http.ResponseWriter, r *http.Request) (BotRequest, bool) {
	var req BotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return req, false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Room ID is required")
		return req, false
	}
	return req, true
}

func (s *Server) handleStartBot(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBotRequest(w, r)
	if !ok {
		return
	}

	started, err := s.bots.Start(req.RoomID)
	if err != nil {
		s.logger.Error("failed to start bot", "room", req.RoomID, "err", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !started {
		writeJSON(w, http.StatusOK, BotResponse{Message: "Bot is already active in this room", RoomID: req.RoomID})
		return
	}
	writeJSON(w, http.StatusOK, BotResponse{Message: "Bot started successfully", RoomID: req.RoomID, Changed: true})
}

func (s *Server) handleStopBot(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeBotRequest(w, r)
	if !ok {
		return
	}

	if s.bots.Stop(req.RoomID) {
		writeJSON(w, http.StatusOK, BotResponse{Message: "Bot stopped successfully", RoomID: req.RoomID, Changed: true})
		return
	}
	writeJSON(w, http.StatusOK, BotResponse{Message: "No bot active in this room", RoomID: req.RoomID})
}

func (s *Server) handleListBots(w http.ResponseWriter, r *http.Request) {
	rooms := s.bots.Active()
	if rooms == nil {
		rooms = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"rooms": rooms})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Debug("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
