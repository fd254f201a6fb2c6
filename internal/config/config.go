// Package config loads settings for the server and the terminal client.
//
// Values are layered, lowest precedence first: built-in defaults, an optional
// YAML file named by CONFIG_FILE, then environment variables. Environment
// names are the upper-case form of the koanf keys (PORT, DATABASE_URL, ...).
package config

import (
	"fmt"
	"strings"

	"github.com/VanXodus305/Reaction-Time-Game/internal/difficulty"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLitePath = "reaction-time.db"
)

type Server struct {
	Port        string `koanf:"port"`
	DatabaseURL string `koanf:"database_url"`
	// DatabaseDriver is postgres or sqlite. Empty picks one from DatabaseURL.
	DatabaseDriver string `koanf:"database_driver"`
	LogLevel       string `koanf:"log_level"`

	// NATSURL enables relaying leaderboard updates between instances.
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// CORSOrigins is a comma separated list; "*" allows any origin.
	CORSOrigins string `koanf:"cors_origins"`

	LeaderboardLimit int `koanf:"leaderboard_limit"`
	SubmissionBuffer int `koanf:"submission_buffer"`
}

var serverKeys = []string{
	"port", "database_url", "database_driver", "log_level",
	"nats_url", "nats_subject", "cors_origins",
	"leaderboard_limit", "submission_buffer",
}

func defaultServer() Server {
	return Server{
		Port:             "8080",
		LogLevel:         "info",
		NATSSubject:      "leaderboard.times",
		CORSOrigins:      "*",
		LeaderboardLimit: 100,
		SubmissionBuffer: 1000,
	}
}

// LoadServer reads the server configuration.
func LoadServer() (*Server, error) {
	cfg := defaultServer()
	if err := load(&cfg, serverKeys); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Server) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port must not be empty", ErrInvalidConfig)
	}
	switch c.Driver() {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.DatabaseDriver)
	}
	if c.Driver() == DriverPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("%w: postgres needs database_url", ErrInvalidConfig)
	}
	if c.LeaderboardLimit <= 0 {
		return fmt.Errorf("%w: leaderboard_limit must be positive", ErrInvalidConfig)
	}
	if c.SubmissionBuffer <= 0 {
		return fmt.Errorf("%w: submission_buffer must be positive", ErrInvalidConfig)
	}
	return nil
}

// Driver returns the database driver, inferring it from the URL scheme when
// none is configured.
func (c *Server) Driver() string {
	if c.DatabaseDriver != "" {
		return strings.ToLower(c.DatabaseDriver)
	}
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// DSN is the data source name for Driver. SQLite falls back to a file in the
// working directory.
func (c *Server) DSN() string {
	if c.DatabaseURL == "" && c.Driver() == DriverSQLite {
		return defaultSQLitePath
	}
	return c.DatabaseURL
}

func (c *Server) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type Client struct {
	ServerURL  string `koanf:"server_url"`
	PlayerName string `koanf:"player_name"`
	RollNo     int64  `koanf:"roll_no"`
	Difficulty string `koanf:"difficulty"`
	// LogFile receives client logs; empty discards them.
	LogFile  string `koanf:"log_file"`
	LogLevel string `koanf:"log_level"`
}

var clientKeys = []string{
	"server_url", "player_name", "roll_no", "difficulty", "log_file", "log_level",
}

func defaultClient() Client {
	return Client{
		ServerURL:  "http://localhost:8080",
		RollNo:     -1,
		Difficulty: string(difficulty.Medium),
		LogLevel:   "info",
	}
}

// LoadClient reads the client configuration. Identity fields may still be
// empty; the command fills them from flags.
func LoadClient() (*Client, error) {
	cfg := defaultClient()
	if err := load(&cfg, clientKeys); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields needed to play online.
func (c *Client) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("%w: server_url must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.PlayerName) == "" {
		return fmt.Errorf("%w: player name is required", ErrInvalidConfig)
	}
	if c.RollNo < 0 {
		return fmt.Errorf("%w: roll number must be zero or positive", ErrInvalidConfig)
	}
	return nil
}
