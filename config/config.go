package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values applied when the matching environment variable is unset.
const (
	DefaultDataSource   = "data/earthquakes.csv"
	DefaultMapStyle     = "mapbox://styles/mapbox/dark-v11"
	DefaultRedisTTL     = time.Hour
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 720
)

// Config holds every value injected into the overlay at construction time.
// Nothing in the engine reads the environment directly; main loads a Config once and passes fields down.
type Config struct {
	// DataSource is a file path or an http(s) URL of the earthquake CSV.
	DataSource string
	// AccessToken is the map service credential. Empty means anonymous access.
	AccessToken string
	// MapStyle is the style reference handed to the map host.
	MapStyle string

	// RedisAddr enables the source body cache when non-empty.
	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration

	// MetricsAddr enables the Prometheus endpoint when non-empty, e.g. ":9090".
	MetricsAddr string

	WindowWidth  int
	WindowHeight int
	VSync        bool
	Profile      bool

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file from the working directory and then builds a Config from the environment.
//
// Returns:
//   - Config: the resolved configuration
//   - error: an error if a numeric, boolean or duration variable cannot be parsed
func Load() (Config, error) {
	_ = godotenv.Load(".env")
	return FromLookup(os.Getenv)
}

// FromLookup builds a Config using getenv to resolve variables.
//
// Parameters:
//   - getenv: variable lookup, os.Getenv in production
//
// Returns:
//   - Config: the resolved configuration
//   - error: an error naming the first variable that failed to parse
func FromLookup(getenv func(string) string) (Config, error) {
	c := Config{
		DataSource:    stringOr(getenv("QUAKE_DATA_SOURCE"), DefaultDataSource),
		AccessToken:   strings.TrimSpace(getenv("MAPBOX_ACCESS_TOKEN")),
		MapStyle:      stringOr(getenv("QUAKE_MAP_STYLE"), DefaultMapStyle),
		RedisAddr:     strings.TrimSpace(getenv("QUAKE_REDIS_ADDR")),
		RedisPassword: getenv("QUAKE_REDIS_PASSWORD"),
		MetricsAddr:   strings.TrimSpace(getenv("QUAKE_METRICS_ADDR")),
		LogLevel:      stringOr(getenv("LOG_LEVEL"), "info"),
		LogFormat:     stringOr(getenv("LOG_FORMAT"), "text"),
	}

	var err error
	if c.RedisTTL, err = durationOr(getenv, "QUAKE_REDIS_TTL", DefaultRedisTTL); err != nil {
		return Config{}, err
	}
	if c.WindowWidth, err = intOr(getenv, "QUAKE_WINDOW_WIDTH", DefaultWindowWidth); err != nil {
		return Config{}, err
	}
	if c.WindowHeight, err = intOr(getenv, "QUAKE_WINDOW_HEIGHT", DefaultWindowHeight); err != nil {
		return Config{}, err
	}
	if c.VSync, err = boolOr(getenv, "QUAKE_VSYNC", true); err != nil {
		return Config{}, err
	}
	if c.Profile, err = boolOr(getenv, "QUAKE_PROFILE", false); err != nil {
		return Config{}, err
	}

	return c, nil
}

// IsRemoteSource reports whether DataSource should be fetched over HTTP.
func (c Config) IsRemoteSource() bool {
	s := strings.ToLower(c.DataSource)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// MaskedToken returns the access token with all but the last four characters hidden, for logging.
func (c Config) MaskedToken() string {
	if len(c.AccessToken) <= 4 {
		return strings.Repeat("*", len(c.AccessToken))
	}
	return strings.Repeat("*", len(c.AccessToken)-4) + c.AccessToken[len(c.AccessToken)-4:]
}

func stringOr(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func intOr(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

func boolOr(getenv func(string) string, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func durationOr(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
