package config

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCacheTTL is the cache lifetime when none is configured.
const DefaultCacheTTL = 300 * time.Second

// ErrMissingToken is returned by Validate when no API token is configured.
var ErrMissingToken = errors.New("TIMECAMP_API_TOKEN environment variable not set")

// Config holds runtime settings. An empty BaseURL keeps the client default;
// a zero RateLimit disables client-side throttling.
type Config struct {
	APIToken  string  `yaml:"api_token"`
	BaseURL   string  `yaml:"base_url"`
	CacheTTL  int     `yaml:"cache_ttl"` // seconds
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
	LogLevel  string  `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CacheTTL: int(DefaultCacheTTL / time.Second),
		LogLevel: "info",
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TIMECAMP_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("TIMECAMP_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("TIMECAMP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		ttl, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("CACHE_TTL %q: must be a whole number of seconds", v)
		}
		c.CacheTTL = ttl
	}
	if v := os.Getenv("TIMECAMP_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("TIMECAMP_RATE_LIMIT %q: must be requests per second", v)
		}
		c.RateLimit = limit
	}
	return nil
}

// Validate reports missing or out-of-range settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIToken) == "" {
		return ErrMissingToken
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %d", c.CacheTTL)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}
	if c.RateBurst < 0 {
		return fmt.Errorf("rate_burst must not be negative, got %d", c.RateBurst)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// TTL returns the cache lifetime.
func (c Config) TTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Burst returns the throttle burst, at least one request.
func (c Config) Burst() int {
	return max(c.RateBurst, 1)
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmp.Or(strings.TrimSpace(c.LogLevel), "info"))); err != nil {
		return 0, fmt.Errorf("log_level %q: use debug, info, warn or error", c.LogLevel)
	}
	return level, nil
}
