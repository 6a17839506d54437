// Package config loads the portal client configuration from
// ~/.portal/config.toml with PORTAL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// APIBaseURL is the REST backend, WSBaseURL the realtime channel host.
	APIBaseURL string
	WSBaseURL  string

	LogLevel string

	// RefreshInterval is the proactive token refresh cadence;
	// TokenExpirySkew pulls it forward of the token's own expiry.
	RefreshInterval time.Duration
	TokenExpirySkew time.Duration

	// WarnAfter and GracePeriod drive the inactivity monitor.
	WarnAfter        time.Duration
	GracePeriod      time.Duration
	ActivityThrottle time.Duration

	HTTPTimeout time.Duration

	// Reconnect enables realtime reconnection with backoff after a drop.
	Reconnect bool
}

func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(homeDir, ".portal"))

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("ws.base_url", "ws://localhost:8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("refresh.interval", 15*time.Minute)
	v.SetDefault("refresh.expiry_skew", time.Minute)
	v.SetDefault("inactivity.warn_after", 18*time.Minute)
	v.SetDefault("inactivity.grace_period", 2*time.Minute)
	v.SetDefault("inactivity.activity_throttle", time.Second)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("realtime.reconnect", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		APIBaseURL:       v.GetString("api.base_url"),
		WSBaseURL:        v.GetString("ws.base_url"),
		LogLevel:         v.GetString("log.level"),
		RefreshInterval:  v.GetDuration("refresh.interval"),
		TokenExpirySkew:  v.GetDuration("refresh.expiry_skew"),
		WarnAfter:        v.GetDuration("inactivity.warn_after"),
		GracePeriod:      v.GetDuration("inactivity.grace_period"),
		ActivityThrottle: v.GetDuration("inactivity.activity_throttle"),
		HTTPTimeout:      v.GetDuration("http.timeout"),
		Reconnect:        v.GetBool("realtime.reconnect"),
	}

	if cfg.APIBaseURL == "" {
		return Config{}, errors.New("api base url is empty")
	}

	return cfg, nil
}
