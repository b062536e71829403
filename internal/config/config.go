package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// DefaultSiteKey is the hCaptcha site key used when HCAPTCHA_SITEKEY is unset.
const DefaultSiteKey = "50b2fe65-b00b-4b9e-ad62-3ba471098be2"

// Config holds all configuration for the site
type Config struct {
	// Server Configuration
	Environment string `env:"ENV" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`

	// Proxy IPs or CIDRs whose X-Forwarded-For is believed. Empty means the
	// socket address is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// Contact relay
	AccessKey      string        `env:"WEB3FORMS_ACCESS_KEY"`
	RelayURL       string        `env:"RELAY_URL" envDefault:"https://api.web3forms.com/submit"`
	Subject        string        `env:"CONTACT_SUBJECT" envDefault:"Portfolio - New Form Submission"`
	SiteKey        string        `env:"HCAPTCHA_SITEKEY"`
	SubmitTimeout  time.Duration `env:"SUBMIT_TIMEOUT" envDefault:"15s"`
	ContactRPS     int           `env:"CONTACT_RATE_RPS" envDefault:"1"`
	ContactBurst   int           `env:"CONTACT_RATE_BURST" envDefault:"5"`
	ViewTTL        time.Duration `env:"VIEW_TTL" envDefault:"1h"`
	MaxViews       int           `env:"MAX_VIEWS" envDefault:"10000"`
	VisitRetention time.Duration `env:"RETENTION" envDefault:"8760h"`

	// Storage
	DBPath string `env:"DB_PATH" envDefault:"./data/portfolio.db"`

	// Admin
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Logging
	LogFile     string `env:"LOG_FILE"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogRequests bool   `env:"LOG_REQUESTS" envDefault:"false"`
}

// Load parses the configuration from the environment. The .env file is
// picked up by godotenv/autoload in main before this runs.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.SiteKey == "" {
		cfg.SiteKey = DefaultSiteKey
	}

	// Set default log file if not set
	if cfg.LogFile == "" {
		if cfg.IsProduction() {
			cfg.LogFile = "/app/logs/portfolio.log"
		} else {
			cfg.LogFile = "./logs/portfolio.log"
		}
	}

	// Default credentials for development only
	if !cfg.IsProduction() {
		if cfg.AdminUsername == "" {
			cfg.AdminUsername = "admin"
		}
		if cfg.AdminPassword == "" {
			cfg.AdminPassword = "admin123"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime. A
// missing access key is deliberately not an error here: the contact form
// reports it to the visitor instead.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("SUBMIT_TIMEOUT must be positive")
	}
	if c.ContactRPS <= 0 || c.ContactBurst <= 0 {
		return fmt.Errorf("contact rate limit must be positive (rps=%d burst=%d)", c.ContactRPS, c.ContactBurst)
	}
	if c.ViewTTL <= 0 {
		return fmt.Errorf("VIEW_TTL must be positive")
	}
	if c.MaxViews <= 0 {
		return fmt.Errorf("MAX_VIEWS must be positive")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.IsProduction() && (c.AdminUsername == "" || c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required in production")
	}
	return nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsingDefaultAdmin reports whether the development fallback credentials are active.
func (c *Config) UsingDefaultAdmin() bool {
	return c.AdminUsername == "admin" && c.AdminPassword == "admin123"
}
