package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config holds feed + crypto + router settings.
// Precedence: env vars > config file > defaults. Call LoadEnvFile(".env")
// before Load() to use a .env file.
type Config struct {
	// Feed (metadata API)
	FeedBaseURL string // e.g. https://external.api.example.com/v1
	AppID       string
	AppKey      string
	ServiceType string // services listing filter, e.g. "tv"
	FeedTimeout time.Duration
	FeedRPS     float64 // request rate cap against the API

	// Playout decryption
	StreamSecret string // raw AES key bytes (16/24/32)

	// Locale fallback for titles/descriptions
	PrimaryLocale   string
	SecondaryLocale string

	// Observability
	MetricsAddr string // e.g. :9465; empty disables /metrics
}

// Load reads config from a YAML file (path may be empty or missing) and then
// overlays environment variables.
func Load(path string) (*Config, error) {
	c := &Config{
		ServiceType:     "tv",
		FeedTimeout:     15 * time.Second,
		FeedRPS:         5,
		PrimaryLocale:   "fi",
		SecondaryLocale: "sv",
	}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.loadEnv()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// fileConfig is the YAML-facing shape; durations are strings ("15s") so the
// file reads the way operators expect.
type fileConfig struct {
	FeedBaseURL     string  `yaml:"feed_base_url"`
	AppID           string  `yaml:"app_id"`
	AppKey          string  `yaml:"app_key"`
	ServiceType     string  `yaml:"service_type"`
	FeedTimeout     string  `yaml:"feed_timeout"`
	FeedRPS         float64 `yaml:"feed_rps"`
	StreamSecret    string  `yaml:"stream_secret"`
	PrimaryLocale   string  `yaml:"primary_locale"`
	SecondaryLocale string  `yaml:"secondary_locale"`
	MetricsAddr     string  `yaml:"metrics_addr"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	setIf(&c.FeedBaseURL, f.FeedBaseURL)
	setIf(&c.AppID, f.AppID)
	setIf(&c.AppKey, f.AppKey)
	setIf(&c.ServiceType, f.ServiceType)
	setIf(&c.StreamSecret, f.StreamSecret)
	setIf(&c.PrimaryLocale, f.PrimaryLocale)
	setIf(&c.SecondaryLocale, f.SecondaryLocale)
	setIf(&c.MetricsAddr, f.MetricsAddr)
	if f.FeedTimeout != "" {
		d, err := time.ParseDuration(f.FeedTimeout)
		if err != nil {
			return fmt.Errorf("config: parse %s: feed_timeout: %w", path, err)
		}
		c.FeedTimeout = d
	}
	if f.FeedRPS > 0 {
		c.FeedRPS = f.FeedRPS
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) loadEnv() {
	c.FeedBaseURL = getEnv("LIVE_TUNER_FEED_URL", c.FeedBaseURL)
	c.AppID = getEnv("LIVE_TUNER_APP_ID", c.AppID)
	c.AppKey = getEnv("LIVE_TUNER_APP_KEY", c.AppKey)
	c.ServiceType = getEnv("LIVE_TUNER_SERVICE_TYPE", c.ServiceType)
	c.FeedTimeout = getEnvDuration("LIVE_TUNER_FEED_TIMEOUT", c.FeedTimeout)
	c.FeedRPS = getEnvFloat("LIVE_TUNER_FEED_RPS", c.FeedRPS)
	c.StreamSecret = getEnv("LIVE_TUNER_STREAM_SECRET", c.StreamSecret)
	c.PrimaryLocale = getEnv("LIVE_TUNER_PRIMARY_LOCALE", c.PrimaryLocale)
	c.SecondaryLocale = getEnv("LIVE_TUNER_SECONDARY_LOCALE", c.SecondaryLocale)
	c.MetricsAddr = getEnv("LIVE_TUNER_METRICS_ADDR", c.MetricsAddr)
}

func (c *Config) validate() error {
	if c.FeedBaseURL == "" {
		return fmt.Errorf("config: feed base URL is required (LIVE_TUNER_FEED_URL)")
	}
	switch len(c.StreamSecret) {
	case 0:
		return fmt.Errorf("config: stream secret is required (LIVE_TUNER_STREAM_SECRET)")
	case 16, 24, 32:
	default:
		return fmt.Errorf("config: stream secret must be 16, 24 or 32 bytes, got %d", len(c.StreamSecret))
	}
	var err error
	if c.PrimaryLocale, err = normalizeLocale(c.PrimaryLocale); err != nil {
		return fmt.Errorf("config: primary locale: %w", err)
	}
	if c.SecondaryLocale, err = normalizeLocale(c.SecondaryLocale); err != nil {
		return fmt.Errorf("config: secondary locale: %w", err)
	}
	if c.FeedTimeout <= 0 {
		c.FeedTimeout = 15 * time.Second
	}
	return nil
}

// normalizeLocale parses tag and returns the canonical base language
// ("FI" -> "fi", "sv-SE" -> "sv") so config spellings match the feed's
// locale keys.
func normalizeLocale(tag string) (string, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return "", fmt.Errorf("bad locale tag %q: %w", tag, err)
	}
	base, _ := t.Base()
	return base.String(), nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
