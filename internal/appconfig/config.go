package appconfig

import (
	"fmt"
	"net/url"
	"strings"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Server        ServerConfig  `mapstructure:"server" yaml:"server"`
	Channel       ChannelConfig `mapstructure:"channel" yaml:"channel"`
	Buffers       BufferConfig  `mapstructure:"buffers" yaml:"buffers"`
	Health        HealthConfig  `mapstructure:"health" yaml:"health"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ServerConfig locates the training controller.
type ServerConfig struct {
	// BaseURL is the controller's HTTP root.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// WSURL overrides the derived websocket endpoint.
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`
	// RequestTimeoutSeconds bounds every request/response call.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// ChannelConfig tunes the live channel's reconnect behavior.
type ChannelConfig struct {
	DialTimeoutSeconds      int `mapstructure:"dial_timeout_seconds" yaml:"dial_timeout_seconds"`
	ReconnectInitialSeconds int `mapstructure:"reconnect_initial_seconds" yaml:"reconnect_initial_seconds"`
	ReconnectMaxSeconds     int `mapstructure:"reconnect_max_seconds" yaml:"reconnect_max_seconds"`
}

// BufferConfig bounds the session buffers.
type BufferConfig struct {
	AlertMax   int `mapstructure:"alert_max" yaml:"alert_max"`
	ConsoleMax int `mapstructure:"console_max" yaml:"console_max"`
}

// HealthConfig carries the loss classification thresholds. They are
// domain-calibrated constants exposed here so a deployment can adjust
// them without a rebuild.
type HealthConfig struct {
	WarningLoss  float64 `mapstructure:"warning_loss" yaml:"warning_loss"`
	CriticalLoss float64 `mapstructure:"critical_loss" yaml:"critical_loss"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Server: ServerConfig{
			BaseURL:               "http://127.0.0.1:8000",
			RequestTimeoutSeconds: 15,
		},
		Channel: ChannelConfig{
			DialTimeoutSeconds:      10,
			ReconnectInitialSeconds: 1,
			ReconnectMaxSeconds:     30,
		},
		Buffers: BufferConfig{
			AlertMax:   5,
			ConsoleMax: 50,
		},
		Health: HealthConfig{
			WarningLoss:  100,
			CriticalLoss: 500,
		},
	}
}

// WebsocketURL returns the configured websocket endpoint, deriving it
// from the base URL when no override is set.
func (c Config) WebsocketURL() (string, error) {
	if strings.TrimSpace(c.Server.WSURL) != "" {
		return c.Server.WSURL, nil
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse server.base_url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("server.base_url has unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Validate checks configured values are usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be positive")
	}
	if c.Health.WarningLoss <= 0 || c.Health.CriticalLoss <= c.Health.WarningLoss {
		return fmt.Errorf("health thresholds must satisfy 0 < warning_loss < critical_loss")
	}
	if _, err := c.WebsocketURL(); err != nil {
		return err
	}
	return nil
}
