package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	AI          AIConfig          `toml:"ai"`
	Render      RenderConfig      `toml:"render"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify    SpotifyConfig `toml:"spotify"`
	OpenRouter APIKeyConfig  `toml:"openrouter"`
	Gemini     APIKeyConfig  `toml:"gemini"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// APIKeyConfig holds a key for a completion provider and an optional endpoint override.
type APIKeyConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
}

// AIConfig controls the critique generator and its completion provider.
type AIConfig struct {
	Provider          string `toml:"provider"` // openrouter or gemini
	Model             string `toml:"model"`
	MaxRetries        int    `toml:"max_retries"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	MinWords          int    `toml:"min_words"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// RetryDelay returns the configured base backoff as a [time.Duration].
func (c AIConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// Timeout returns the per-request completion timeout as a [time.Duration].
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RenderConfig contains image compositor settings.
//
// An empty FontPath selects the embedded Go Mono font.
type RenderConfig struct {
	FontPath string `toml:"font_path"`
	TrackCap int    `toml:"track_cap"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string  `toml:"host"`
	Port              int     `toml:"port"`
	PublicURL         string  `toml:"public_url"`
	AllowedOrigin     string  `toml:"allowed_origin"`
	SessionTTLSeconds int     `toml:"session_ttl_seconds"`
	RateLimit         float64 `toml:"rate_limit"`
	RateBurst         int     `toml:"rate_burst"`
}

// SessionTTL returns the session cookie lifetime as a [time.Duration].
func (c ServerConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials with values from the environment when set.
//
// OPENAI_API_KEY is honoured for the OpenRouter key because the OpenRouter endpoint speaks the OpenAI protocol.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	set(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	set(&c.Credentials.Spotify.RedirectURI, "SPOTIFY_REDIRECT_URI")
	set(&c.Credentials.OpenRouter.APIKey, "OPENROUTER_API_KEY", "OPENAI_API_KEY")
	set(&c.Credentials.Gemini.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
}
