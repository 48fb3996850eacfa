package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the bridge service.
type Config struct {
	Server   Server   `yaml:"server"`
	Terminal Terminal `yaml:"terminal"`
	Logging  Logging  `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Terminal configures the connection to the MT5 terminal. Mode selects the
// client implementation: "socket" talks to the terminal bridge EA over a
// websocket, "simulator" runs the in-process simulator.
type Terminal struct {
	Mode           string `yaml:"mode"`
	URL            string `yaml:"url"`
	DialTimeoutSec int    `yaml:"dial_timeout_sec"`
	CallTimeoutSec int    `yaml:"call_timeout_sec"`
}

// DialTimeout returns the websocket handshake timeout.
func (t Terminal) DialTimeout() time.Duration {
	return time.Duration(t.DialTimeoutSec) * time.Second
}

// CallTimeout returns the per-exchange deadline for terminal calls.
func (t Terminal) CallTimeout() time.Duration {
	return time.Duration(t.CallTimeoutSec) * time.Second
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Terminal: Terminal{
			Mode:           "socket",
			URL:            "ws://127.0.0.1:8765",
			DialTimeoutSec: 10,
			CallTimeoutSec: 30,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML configuration file at the given path, parses it over
// the defaults, and then applies environment variable overrides. A missing
// file is not an error; the defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BRIDGE_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BRIDGE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	if v := os.Getenv("MT5_TERMINAL_MODE"); v != "" {
		cfg.Terminal.Mode = v
	}
	if v := os.Getenv("MT5_TERMINAL_URL"); v != "" {
		cfg.Terminal.URL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
