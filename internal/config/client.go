package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Default client configuration values.
const (
	DefaultServer = "http://localhost:3000"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
)

// Client holds the CLI configuration.
type Client struct {
	// BaseURL is the relay's HTTP base, e.g. http://localhost:3000
	BaseURL string

	// WebSocketURL is derived from BaseURL.
	WebSocketURL string

	STUNServer string
}

// ClientOptions carry CLI flag overrides.
type ClientOptions struct {
	Server     string
	STUNServer string
}

// LoadClient reads configuration with the following priority:
// 1. CLI flags (passed via ClientOptions) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func LoadClient(opts ClientOptions) (*Client, error) {
	server := opts.Server
	if server == "" {
		server = os.Getenv("PAIRLINE_SERVER")
	}
	if server == "" {
		server = DefaultServer
	}

	stunServer := opts.STUNServer
	if stunServer == "" {
		stunServer = os.Getenv("STUN_SERVER")
	}
	if stunServer == "" {
		stunServer = DefaultSTUN
	}

	base, wsURL, err := serverURLs(server)
	if err != nil {
		return nil, err
	}

	return &Client{
		BaseURL:      base,
		WebSocketURL: wsURL,
		STUNServer:   stunServer,
	}, nil
}

// serverURLs accepts "host:port" or a full http(s)/ws(s) URL.
func serverURLs(server string) (string, string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid server URL %q: missing host", server)
	}

	var httpScheme, wsScheme string
	switch u.Scheme {
	case "http", "ws":
		httpScheme, wsScheme = "http", "ws"
	case "https", "wss":
		httpScheme, wsScheme = "https", "wss"
	default:
		return "", "", fmt.Errorf("invalid server URL %q: unsupported scheme %q", server, u.Scheme)
	}

	base := fmt.Sprintf("%s://%s", httpScheme, u.Host)
	return base, fmt.Sprintf("%s://%s/ws", wsScheme, u.Host), nil
}

// Endpoint joins path onto the relay's HTTP base.
func (c *Client) Endpoint(path string) string {
	return c.BaseURL + "/" + strings.TrimPrefix(path, "/")
}

// ICEServers returns the STUN server list for peer connections.
func (c *Client) ICEServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}
