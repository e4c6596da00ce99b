package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BioHazard786/pairline/internal/participant"
	"github.com/BioHazard786/pairline/internal/signaling"
)

// API talks to the relay's HTTP endpoints.
type API struct {
	base string
	http *http.Client
}

// NewAPI creates a client for the relay at base, e.g. http://localhost:3000.
func NewAPI(base string) *API {
	return &API{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// BotReply is the relay's answer to a bot request.
type BotReply struct {
	Message string `json:"message"`
	RoomID  string `json:"roomId"`
	Changed bool   `json:"changed"`
	Error   string `json:"error"`
}

func (a *API) StartBot(ctx context.Context, room string) (*BotReply, error) {
	return a.botRequest(ctx, "/start-bot", room)
}

func (a *API) StopBot(ctx context.Context, room string) (*BotReply, error) {
	return a.botRequest(ctx, "/stop-bot", room)
}

func (a *API) botRequest(ctx context.Context, path, room string) (*BotReply, error) {
	body, err := json.Marshal(map[string]string{"roomId": room})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var reply BotReply
	if err := a.do(req, &reply); err != nil {
		return nil, participant.NewError(path[1:], err)
	}
	return &reply, nil
}

// Bots lists the rooms that currently host a bot.
func (a *API) Bots(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/bots", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Rooms []string `json:"rooms"`
	}
	if err := a.do(req, &out); err != nil {
		return nil, participant.NewError("list bots", err)
	}
	return out.Rooms, nil
}

// Rooms lists the relay's rooms.
func (a *API) Rooms(ctx context.Context) ([]signaling.RoomInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/rooms", nil)
	if err != nil {
		return nil, err
	}
	var rooms []signaling.RoomInfo
	if err := a.do(req, &rooms); err != nil {
		return nil, participant.NewError("list rooms", err)
	}
	return rooms, nil
}

func (a *API) do(req *http.Request, v any) error {
	res, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(res.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s (%d)", e.Error, res.StatusCode)
		}
		return fmt.Errorf("unexpected status %s", res.Status)
	}
	return json.NewDecoder(res.Body).Decode(v)
}
