// Package config loads the process-wide configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ZenSolar/zensolar-sub004/internal/errs"
)

// Config is the full configuration surface of the push subsystem. The VAPID
// key pair and contact URI are loaded once; their absence halts startup.
type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	// VAPIDSubject is the operator contact URI, e.g. "mailto:ops@zensolar.io".
	VAPIDSubject string        `env:"VAPID_SUBJECT"`
	TokenTTL     time.Duration `env:"VAPID_TOKEN_TTL" envDefault:"12h"`

	PushTimeout time.Duration `env:"PUSH_TIMEOUT" envDefault:"10s"`
	PushTTL     int           `env:"PUSH_TTL" envDefault:"43200"`
	PushUrgency string        `env:"PUSH_URGENCY" envDefault:"normal"`
	Concurrency int           `env:"PUSH_CONCURRENCY" envDefault:"8"`

	// Eligibility window: accounts created in the WindowSpan-long interval
	// ending WindowLead before now. Policy, not a constant.
	WindowLead   time.Duration `env:"ELIGIBILITY_WINDOW_LEAD" envDefault:"24h"`
	WindowSpan   time.Duration `env:"ELIGIBILITY_WINDOW_SPAN" envDefault:"1h"`
	CampaignType string        `env:"CAMPAIGN_TYPE" envDefault:"connect-reminder"`
}

// Load parses the environment and validates startup-fatal fields.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
		return fmt.Errorf("VAPID_PUBLIC_KEY/VAPID_PRIVATE_KEY: %w", errs.ErrConfigurationMissing)
	}
	if c.VAPIDSubject == "" {
		return fmt.Errorf("VAPID_SUBJECT: %w", errs.ErrConfigurationMissing)
	}
	return nil
}
