package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultProxyPrefix    = "/api"
	DefaultRequestTimeout = 10 * time.Second
	DefaultHealthInterval = 30 * time.Second
	DefaultConversationID = "default"
	DefaultTemperature    = 0.7
	DefaultMaxTokens      = 1000
	DefaultDashboardPort  = 8080
)

// Config is the top-level configuration for the agentlink client.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Health    HealthConfig    `yaml:"health"`
	Chat      ChatConfig      `yaml:"chat"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// BackendConfig describes the remote AI backend and the network paths
// that may reach it.
type BackendConfig struct {
	// URL is the backend's absolute base URL, used for direct cross-origin
	// requests and CORS preflights.
	URL string `yaml:"url"`

	// ProxyURL is the same-origin base that relays requests to the backend
	// (e.g. a static-hosting platform's routing rule). Empty means no proxy
	// path is available and the proxy probe reports failure.
	ProxyURL string `yaml:"proxy_url"`

	// ProxyPrefix is the path prefix the proxy strips before forwarding,
	// typically "/api". Only used on the proxy path.
	ProxyPrefix string `yaml:"proxy_prefix"`

	// Origin is the value sent in the Origin header of probe requests.
	// Defaults to ProxyURL when set.
	Origin string `yaml:"origin"`

	// RequestTimeout bounds every outbound request. A timed-out request is
	// surfaced as a network fault with a "timed out" detail.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Auth configures how the client authenticates to the backend.
	Auth AuthConfig `yaml:"auth"`

	// TLS holds optional TLS dial options.
	TLS TLSConfig `yaml:"tls"`
}

// AuthConfig specifies the authentication mode for the backend.
// Secrets are resolved from the environment, never stored in the file.
type AuthConfig struct {
	// Mode is one of: apikey | bearer | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header name the API key is sent in.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable that holds the key value.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv is the name of the environment variable that holds the
	// bearer token.
	TokenEnv string `yaml:"token_env"`
}

// Key returns the API key value resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// Token returns the bearer token value resolved from the environment.
func (a AuthConfig) Token() string {
	if a.TokenEnv == "" {
		return ""
	}
	return os.Getenv(a.TokenEnv)
}

// TLSConfig holds TLS dial options for the backend connection.
type TLSConfig struct {
	// InsecureSkipVerify disables TLS certificate verification.
	// Only use this for internal CAs in development environments.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// HealthConfig controls the periodic health monitor.
type HealthConfig struct {
	// Interval controls how often the backend's health endpoint is polled.
	Interval time.Duration `yaml:"interval"`
}

// ChatConfig holds the defaults applied to chat sends when the caller
// leaves an option unset.
type ChatConfig struct {
	ConversationID string  `yaml:"conversation_id"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	Stream         bool    `yaml:"stream"`
}

// DashboardConfig holds settings for the local status dashboard server.
type DashboardConfig struct {
	// Port is the port the JSON API, WebSocket stream, and metrics
	// endpoint listen on.
	Port int `yaml:"port"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with no backend URL set.
// Callers that skip the config file fill in Backend.URL themselves.
func Default() *Config {
	return defaults()
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Backend: BackendConfig{
			ProxyPrefix:    DefaultProxyPrefix,
			RequestTimeout: DefaultRequestTimeout,
		},
		Health: HealthConfig{
			Interval: DefaultHealthInterval,
		},
		Chat: ChatConfig{
			ConversationID: DefaultConversationID,
			Temperature:    DefaultTemperature,
			MaxTokens:      DefaultMaxTokens,
		},
		Dashboard: DashboardConfig{
			Port: DefaultDashboardPort,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if _, err := url.ParseRequestURI(cfg.Backend.URL); err != nil {
		return fmt.Errorf("backend.url: %w", err)
	}
	if cfg.Backend.ProxyURL != "" {
		if _, err := url.ParseRequestURI(cfg.Backend.ProxyURL); err != nil {
			return fmt.Errorf("backend.proxy_url: %w", err)
		}
	}
	if !strings.HasPrefix(cfg.Backend.ProxyPrefix, "/") {
		return fmt.Errorf("backend.proxy_prefix must start with /")
	}
	if cfg.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("backend.request_timeout must be positive")
	}
	switch cfg.Backend.Auth.Mode {
	case "apikey", "bearer", "none", "":
	default:
		return fmt.Errorf("backend.auth: unknown mode %q", cfg.Backend.Auth.Mode)
	}
	if cfg.Backend.Auth.Mode == "apikey" && cfg.Backend.Auth.Header == "" {
		return fmt.Errorf("backend.auth: header is required for apikey mode")
	}
	if cfg.Health.Interval <= 0 {
		return fmt.Errorf("health.interval must be positive")
	}
	if cfg.Chat.Temperature < 0 || cfg.Chat.Temperature > 2 {
		return fmt.Errorf("chat.temperature must be in [0, 2]")
	}
	if cfg.Chat.MaxTokens < 1 || cfg.Chat.MaxTokens > 4000 {
		return fmt.Errorf("chat.max_tokens must be in [1, 4000]")
	}
	if cfg.Dashboard.Port <= 0 || cfg.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port must be a valid port")
	}
	return nil
}
