package appstore

import (
	"fmt"
	"strings"
	"time"
)

// Environment selects a deployment of the appstore API.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
)

var baseURLs = map[Environment]string{
	Production:  "https://angel.co/appstore/api/",
	Development: "https://angel.dev/appstore/api/",
}

// Config is the immutable client configuration.
// BaseURL, when set, takes precedence over Environment.
type Config struct {
	APIKey      string
	AppSlug     string
	UserID      string
	BaseURL     string
	Environment Environment
	HTTPTimeout time.Duration
}

// Endpoint returns the absolute base URL, always ending in "/".
func (c Config) Endpoint() (string, error) {
	base := c.BaseURL
	if base == "" {
		env := c.Environment
		if env == "" {
			env = Production
		}
		u, ok := baseURLs[env]
		if !ok {
			return "", fmt.Errorf("%w: unknown environment %q", ErrInvalidConfig, env)
		}
		base = u
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base, nil
}

// Validate checks that all fields required to authenticate are present.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: missing api key", ErrInvalidConfig)
	}
	if c.AppSlug == "" {
		return fmt.Errorf("%w: missing app slug", ErrInvalidConfig)
	}
	if c.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidConfig)
	}
	_, err := c.Endpoint()
	return err
}

// ParseEnvironment maps common spellings ("prod", "dev") onto an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "prod", "production":
		return Production, nil
	case "dev", "development":
		return Development, nil
	default:
		return "", fmt.Errorf("%w: unknown environment %q", ErrInvalidConfig, s)
	}
}
