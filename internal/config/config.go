// Package config loads settings for the anbima binaries from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/arvarik/anbima-go/anbima"
)

// Config holds the settings shared by the binaries. It is read once at
// startup; command-line flags may override individual fields before
// Validate is called.
type Config struct {
	// Credentials
	ClientID     string
	ClientSecret string

	// Endpoints, empty means the library default
	AuthURL       string
	DebenturesURL string
	FundsURL      string

	// Resilience
	MaxRetryTime time.Duration
	RateLimitRPM int
	HTTPTimeout  time.Duration

	// Observability
	LogLevel    string
	MetricsAddr string
}

// Load reads Config from the environment. Missing optional values fall
// back to defaults; credentials are checked by Validate.
func Load() *Config {
	return &Config{
		ClientID:      os.Getenv("ANBIMA_CLIENT_ID"),
		ClientSecret:  os.Getenv("ANBIMA_CLIENT_SECRET"),
		AuthURL:       os.Getenv("ANBIMA_AUTH_URL"),
		DebenturesURL: os.Getenv("ANBIMA_DEBENTURES_URL"),
		FundsURL:      os.Getenv("ANBIMA_FUNDS_URL"),
		MaxRetryTime:  getEnvDuration("ANBIMA_MAX_RETRY_TIME", 300*time.Second),
		RateLimitRPM:  getEnvInt("ANBIMA_RATE_LIMIT_RPM", 0),
		HTTPTimeout:   getEnvDuration("ANBIMA_HTTP_TIMEOUT", 30*time.Second),
		LogLevel:      getEnvString("ANBIMA_LOG_LEVEL", "info"),
		MetricsAddr:   os.Getenv("ANBIMA_METRICS_ADDR"),
	}
}

// Validate reports every required setting that is still empty.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "ANBIMA_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "ANBIMA_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required settings are not set: %v", missing)
	}
	return nil
}

// ClientOptions translates the endpoint and resilience settings into
// client options.
func (c *Config) ClientOptions() []anbima.Option {
	opts := []anbima.Option{
		anbima.WithMaxRetryTime(c.MaxRetryTime),
		anbima.WithHTTPTimeout(c.HTTPTimeout),
		anbima.WithRateLimit(c.RateLimitRPM),
	}
	if c.AuthURL != "" {
		opts = append(opts, anbima.WithAuthURL(c.AuthURL))
	}
	if c.DebenturesURL != "" {
		opts = append(opts, anbima.WithDebenturesURL(c.DebenturesURL))
	}
	if c.FundsURL != "" {
		opts = append(opts, anbima.WithFundsURL(c.FundsURL))
	}
	return opts
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
