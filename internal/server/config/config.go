// Package config handles configuration for the server component: defaults,
// a JSON file overlay, environment variables and command-line flags, applied
// in that order.
package config

import "time"

// Config holds runtime settings for the gatekeeper server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - DatabaseDriver / DatabaseDSN: credential store backend ("postgres" or "sqlite") and its DSN.
//   - AuthType: strategy kind; empty disables request gating.
//   - SessionCookieName: cookie carrying the registry session id.
//   - SessionDuration: lifetime for session_exp_auth; zero or negative never expires.
//   - ExcludedPaths: glob patterns that skip authentication.
//   - HashAlgorithm / BcryptCost: password hasher selection.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	HTTPAddr          string
	DatabaseDriver    string
	DatabaseDSN       string
	AuthType          string
	SessionCookieName string
	SessionDuration   time.Duration
	ExcludedPaths     []string
	HashAlgorithm     string
	BcryptCost        int
	LogLevel          string
}

// DefaultExcludedPaths are reachable without credentials.
func DefaultExcludedPaths() []string {
	return []string{
		"/api/v1/status/",
		"/api/v1/unauthorized/",
		"/api/v1/forbidden/",
		"/api/v1/auth_session/login/",
	}
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = "0.0.0.0:5000"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:gatekeeper.db"
	c.AuthType = "session_auth"
	c.SessionCookieName = "_my_session_id"
	c.SessionDuration = 0
	c.ExcludedPaths = DefaultExcludedPaths()
	c.HashAlgorithm = "bcrypt"
	c.BcryptCost = 12
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the optional JSON file, the
// environment and finally os.Args.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
