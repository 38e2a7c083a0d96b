// internal/generation/client/config.go
package client

import (
	"time"

	appconfig "contentgen-engine/internal/common/config"
)

type Config struct {
	BaseURL       string
	APIKey        string
	SubmitTimeout time.Duration
	PollInterval  time.Duration
	PollTimeout   time.Duration
	MaxRetries    int
}

func LoadConfig() *Config {
	return &Config{
		SubmitTimeout: 30 * time.Second,
		PollInterval:  2 * time.Second,
		PollTimeout:   5 * time.Minute,
		MaxRetries:    2,
	}
}

// FromAppConfig maps the application configuration onto the client config.
func FromAppConfig(cfg *appconfig.Config) *Config {
	return &Config{
		BaseURL:       cfg.Generation.BaseURL,
		APIKey:        cfg.Generation.APIKey,
		SubmitTimeout: appconfig.GetDuration(cfg.Generation.SubmitTimeout),
		PollInterval:  appconfig.GetDuration(cfg.Generation.PollInterval),
		PollTimeout:   appconfig.GetDuration(cfg.Generation.PollTimeout),
		MaxRetries:    cfg.Generation.MaxRetries,
	}
}
