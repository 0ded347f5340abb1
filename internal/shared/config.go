package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Enrich      EnrichConfig      `toml:"enrich"`
	Gate        GateConfig        `toml:"gate"`
	Assembler   AssemblerConfig   `toml:"assembler"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains OAuth client credentials for each platform.
type CredentialsConfig struct {
	Spotify OAuthClientConfig `toml:"spotify"`
	Google  OAuthClientConfig `toml:"google"`
}

// OAuthClientConfig contains an OAuth2 client registration.
type OAuthClientConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string        `toml:"host"`
	Port          int           `toml:"port"`
	Env           string        `toml:"env"`
	SessionSecret string        `toml:"session_secret"`
	SessionTTL    time.Duration `toml:"session_ttl"`
	ReadTimeout   time.Duration `toml:"read_timeout"`
	WriteTimeout  time.Duration `toml:"write_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether internal error details must be hidden from clients.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// EnrichConfig configures the generative text service used for enrichment.
type EnrichConfig struct {
	APIKey             string        `toml:"api_key"`
	BaseURL            string        `toml:"base_url"`
	Model              string        `toml:"model"`
	CorrectTemperature float32       `toml:"correct_temperature"`
	AnalyzeTemperature float32       `toml:"analyze_temperature"`
	OrderTemperature   float32       `toml:"order_temperature"`
	Timeout            time.Duration `toml:"timeout"`
}

// GateConfig configures admission control for the YouTube path.
type GateConfig struct {
	MaxRequests int           `toml:"max_requests"`
	Window      time.Duration `toml:"window"`
	MaxSongs    int           `toml:"max_songs"`
	Store       string        `toml:"store"` // memory or sqlite
}

// AssemblerConfig configures how platform calls are paced during playlist assembly.
type AssemblerConfig struct {
	RequestsPerSecond float64       `toml:"requests_per_second"`
	SearchConcurrency int           `toml:"search_concurrency"`
	Timeout           time.Duration `toml:"timeout"` // per platform HTTP call
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
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

// LoadDotEnv loads a .env file into the process environment.
//
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on top of file values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}

	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Enrich.APIKey, "OPENAI_API_KEY")
	set(&c.Enrich.BaseURL, "OPENAI_BASE_URL")
	set(&c.Server.Env, "SETLIST_ENV")
	set(&c.Server.SessionSecret, "SETLIST_SESSION_SECRET")
	set(&c.Credentials.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	set(&c.Credentials.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")
	set(&c.Credentials.Google.ClientID, "GOOGLE_CLIENT_ID")
	set(&c.Credentials.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	set(&c.Database.Path, "SETLIST_DB_PATH")

	if v := getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// Validate checks the values that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Gate.MaxRequests <= 0 || c.Gate.MaxSongs <= 0 || c.Gate.Window <= 0 {
		return fmt.Errorf("%w: gate limits must be positive", ErrInvalidConfig)
	}
	switch c.Gate.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("%w: unknown gate store %q", ErrInvalidConfig, c.Gate.Store)
	}
	if c.Server.SessionSecret == "" {
		return fmt.Errorf("%w: server.session_secret", ErrMissingCredentials)
	}
	return nil
}
