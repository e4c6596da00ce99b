package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Server holds the relay server configuration.
type Server struct {
	Host      string `env:"HOST,default=0.0.0.0"`
	Port      int    `env:"PORT,default=3000" validate:"min=1,max=65535"`
	LogLevel  string `env:"LOG_LEVEL,default=info" validate:"oneof=dev development debug info warn warning error production prod"`
	LogFormat string `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`

	// Per-connection transport limits.
	SendBufferSize int           `env:"SEND_BUFFER_SIZE,default=256" validate:"min=1"`
	MaxMessageSize int64         `env:"MAX_MESSAGE_SIZE,default=65536" validate:"min=1024"`
	PongWait       time.Duration `env:"PONG_WAIT,default=60s" validate:"min=1s"`
	WriteWait      time.Duration `env:"WRITE_WAIT,default=10s" validate:"min=100ms"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`

	// AllowedOrigins is a comma separated list of origins allowed to open the
	// websocket, or "*" for any.
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	// Bots dial the relay like any other participant.
	BotServerURL  string        `env:"BOT_SERVER_URL" validate:"omitempty,url"`
	BotName       string        `env:"BOT_NAME,default=Assistant" validate:"required"`
	BotReplyDelay time.Duration `env:"BOT_REPLY_DELAY,default=1s"`
	STUNServer    string        `env:"STUN_SERVER,default=stun:stun.l.google.com:19302"`
}

// ServerOptions are command line overrides. Zero values are ignored.
type ServerOptions struct {
	EnvFile  string
	Host     string
	Port     int
	LogLevel string
}

// LoadServer reads configuration with the following priority:
// 1. CLI flags (passed via ServerOptions) - highest priority
// 2. Environment variables, including those from the .env file
// 3. Defaults from the struct tags - lowest priority
func LoadServer(opts ServerOptions) (*Server, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return ServerFromEnv(es, opts)
}

// ServerFromEnv builds the configuration from an explicit environment.
func ServerFromEnv(es env.EnvSet, opts ServerOptions) (*Server, error) {
	var cfg Server
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if opts.Host != "" {
		cfg.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address.
func (c *Server) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// BotURL is the websocket URL bots dial to reach this relay.
func (c *Server) BotURL() string {
	if c.BotServerURL != "" {
		return c.BotServerURL
	}
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("ws://%s/ws", net.JoinHostPort(host, strconv.Itoa(c.Port)))
}

// Origins returns the allowed origins, or nil when any origin is accepted.
func (c *Server) Origins() []string {
	if strings.TrimSpace(c.AllowedOrigins) == "*" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
