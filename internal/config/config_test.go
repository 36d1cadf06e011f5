package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANBIMA_CLIENT_ID", "")
	t.Setenv("ANBIMA_CLIENT_SECRET", "")
	t.Setenv("ANBIMA_MAX_RETRY_TIME", "")
	t.Setenv("ANBIMA_LOG_LEVEL", "")
	t.Setenv("ANBIMA_AUTH_URL", "")
	t.Setenv("ANBIMA_HTTP_TIMEOUT", "")
	t.Setenv("ANBIMA_RATE_LIMIT_RPM", "")

	cfg := Load()
	require.Equal(t, 300*time.Second, cfg.MaxRetryTime)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 0, cfg.RateLimitRPM)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.AuthURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ANBIMA_CLIENT_ID", "id")
	t.Setenv("ANBIMA_CLIENT_SECRET", "secret")
	t.Setenv("ANBIMA_AUTH_URL", "http://localhost/oauth/access-token")
	t.Setenv("ANBIMA_MAX_RETRY_TIME", "90s")
	t.Setenv("ANBIMA_RATE_LIMIT_RPM", "120")
	t.Setenv("ANBIMA_LOG_LEVEL", "debug")
	t.Setenv("ANBIMA_METRICS_ADDR", ":9102")

	cfg := Load()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "id", cfg.ClientID)
	require.Equal(t, "secret", cfg.ClientSecret)
	require.Equal(t, "http://localhost/oauth/access-token", cfg.AuthURL)
	require.Equal(t, 90*time.Second, cfg.MaxRetryTime)
	require.Equal(t, 120, cfg.RateLimitRPM)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, ":9102", cfg.MetricsAddr)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ANBIMA_MAX_RETRY_TIME", "five minutes")
	t.Setenv("ANBIMA_RATE_LIMIT_RPM", "lots")

	cfg := Load()
	require.Equal(t, 300*time.Second, cfg.MaxRetryTime)
	require.Equal(t, 0, cfg.RateLimitRPM)
}

func TestValidate_ReportsMissing(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "ANBIMA_CLIENT_ID")
	require.Contains(t, err.Error(), "ANBIMA_CLIENT_SECRET")

	err = (&Config{ClientID: "id"}).Validate()
	require.Error(t, err)
	require.NotContains(t, err.Error(), "ANBIMA_CLIENT_ID")
}

func TestClientOptions(t *testing.T) {
	cfg := &Config{MaxRetryTime: time.Minute}
	require.Len(t, cfg.ClientOptions(), 3)

	cfg.AuthURL = "a"
	cfg.DebenturesURL = "d"
	cfg.FundsURL = "f"
	require.Len(t, cfg.ClientOptions(), 6)
}
