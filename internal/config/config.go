// Package config loads greensim settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"greensim/internal/photosynthesis"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "greensim.yaml"

// Config contains all greensim settings.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Advisor    AdvisorConfig    `json:"advisor" yaml:"advisor"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `json:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout"`

	// AllowedOrigin is echoed in Access-Control-Allow-Origin and checked on
	// WebSocket upgrades. "*" accepts any origin.
	AllowedOrigin string `json:"allowed_origin" yaml:"allowed_origin"`
}

// SimulationConfig configures session engines.
type SimulationConfig struct {
	// TickInterval is the delay between the end of one tick and the next.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`

	// MaxSessions bounds the number of concurrently live sessions.
	MaxSessions int `json:"max_sessions" yaml:"max_sessions"`

	// Initial inputs for new sessions that do not supply their own.
	Initial photosynthesis.Inputs `json:"initial" yaml:"initial"`
}

// AdvisorConfig configures the optional LLM phrasing of research tips.
type AdvisorConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey supports ${VAR} expansion.
	APIKey  string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Model   string        `json:"model" yaml:"model"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// String keeps the API key out of logs.
func (c AdvisorConfig) String() string {
	key := ""
	if c.APIKey != "" {
		key = "(set)"
	}
	return fmt.Sprintf("AdvisorConfig{Enabled:%t, BaseURL:%s, Model:%s, APIKey:%s}", c.Enabled, c.BaseURL, c.Model, key)
}

// LoggingConfig sets the log verbosity: "info", "debug" or "trace".
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			AllowedOrigin:     "*",
		},
		Simulation: SimulationConfig{
			TickInterval: 450 * time.Millisecond,
			MaxSessions:  64,
			Initial:      photosynthesis.Inputs{CO2PPM: 400, TemperatureC: 24, LightPct: 70},
		},
		Advisor: AdvisorConfig{
			Enabled: true,
			BaseURL: "https://api.cerebras.ai/v1",
			Model:   "llama3.1-8b",
			Timeout: 20 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. An empty path falls back to DefaultFile
// in the working directory when present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Advisor.APIKey = os.ExpandEnv(cfg.Advisor.APIKey)
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("simulation.tick_interval must be positive, got %v", c.Simulation.TickInterval)
	}
	if c.Simulation.MaxSessions < 1 {
		return fmt.Errorf("simulation.max_sessions must be at least 1, got %d", c.Simulation.MaxSessions)
	}
	if c.Advisor.Timeout < 0 {
		return fmt.Errorf("advisor.timeout must be non-negative, got %v", c.Advisor.Timeout)
	}

	validLevels := map[string]bool{"": true, "info": true, "debug": true, "trace": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, warn, error)", c.Logging.Level)
	}
	return nil
}

// YAML renders the configuration, with the API key redacted.
func (c *Config) YAML() ([]byte, error) {
	redacted := *c
	if redacted.Advisor.APIKey != "" {
		redacted.Advisor.APIKey = "(set)"
	}
	return yaml.Marshal(&redacted)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GREENSIM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("GREENSIM_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Simulation.TickInterval = d
		}
	}
	if v := os.Getenv("GREENSIM_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.MaxSessions = n
		}
	}
	if v := os.Getenv("GREENSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CEREBRAS_API_KEY"); v != "" {
		cfg.Advisor.APIKey = v
	}
	if v := os.Getenv("CEREBRAS_API_BASE"); v != "" {
		cfg.Advisor.BaseURL = v
	}
	if v := os.Getenv("CEREBRAS_MODEL"); v != "" {
		cfg.Advisor.Model = v
	}
}
