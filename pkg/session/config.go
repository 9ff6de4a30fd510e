package session

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Defaults applied by Config.Validate.
const (
	DefaultMaxAge           = 30 * 24 * time.Hour
	DefaultUpdateAge        = 24 * time.Hour
	DefaultRefreshThreshold = 5 * time.Minute
	DefaultCookieName       = "authkit.session-token"
)

// CookieConfig controls how the session value is written to the
// transport.
type CookieConfig struct {
	Name     string `env:"COOKIE_NAME"`
	Path     string `env:"COOKIE_PATH"`
	Secure   bool   `env:"COOKIE_SECURE"`
	SameSite string `env:"COOKIE_SAME_SITE"`
}

// Config contains the session lifecycle configuration.
type Config struct {
	// Secret signs token-encoded session payloads. Required for the
	// token-encoded strategy.
	Secret string `env:"SECRET"`

	// MaxAge is the session lifetime.
	MaxAge time.Duration `env:"MAX_AGE"`

	// UpdateAge is the sliding-window threshold: a session is renewed on
	// update only when its remaining lifetime is below UpdateAge.
	UpdateAge time.Duration `env:"UPDATE_AGE"`

	// RefreshThreshold is how close to expiry a session must be before
	// an upstream token refresh is attempted.
	RefreshThreshold time.Duration `env:"REFRESH_THRESHOLD"`

	Cookie CookieConfig `envPrefix:""`
}

// Validate applies defaults and checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return configurationError("config is nil")
	}

	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.UpdateAge <= 0 {
		c.UpdateAge = DefaultUpdateAge
	}
	if c.UpdateAge > c.MaxAge {
		return configurationError("update age exceeds max age")
	}
	if c.RefreshThreshold <= 0 {
		c.RefreshThreshold = DefaultRefreshThreshold
	}

	if c.Cookie.Name == "" {
		c.Cookie.Name = DefaultCookieName
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = "/"
	}
	if c.Cookie.SameSite == "" {
		c.Cookie.SameSite = "lax"
	}

	return nil
}

// FromEnv loads a Config from AUTHKIT_-prefixed environment variables
// (AUTHKIT_SECRET, AUTHKIT_MAX_AGE, AUTHKIT_COOKIE_NAME, ...) and applies
// defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "AUTHKIT_"}); err != nil {
		return nil, configurationError("parsing environment: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// cookieOptions renders the configured cookie attributes for a value that
// should live for maxAge.
func (c *Config) cookieOptions(maxAge time.Duration) CookieOptions {
	return CookieOptions{
		Path:     c.Cookie.Path,
		MaxAge:   int(maxAge / time.Second),
		HTTPOnly: true,
		Secure:   c.Cookie.Secure,
		SameSite: c.Cookie.SameSite,
	}
}
