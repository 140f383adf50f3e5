package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gatekeeper/internal/flagx"
	"github.com/dmitrijs2005/gatekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so "30m" and 1800 both work.
type JsonConfig struct {
	HTTPAddr          string         `json:"http_addr"`
	DatabaseDriver    string         `json:"database_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	AuthType          *string        `json:"auth_type"`
	SessionCookieName string         `json:"session_cookie_name"`
	SessionDuration   timex.Duration `json:"session_duration"`
	ExcludedPaths     []string       `json:"excluded_paths"`
	HashAlgorithm     string         `json:"hash_algorithm"`
	BcryptCost        int            `json:"bcrypt_cost"`
	LogLevel          string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config onto config. Keys absent
// from the file keep their current values. An auth_type of "" or null turns
// gating off.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	authType := config.AuthType
	c := &JsonConfig{
		HTTPAddr:          config.HTTPAddr,
		DatabaseDriver:    config.DatabaseDriver,
		DatabaseDSN:       config.DatabaseDSN,
		AuthType:          &authType,
		SessionCookieName: config.SessionCookieName,
		SessionDuration:   timex.Duration{Duration: config.SessionDuration},
		ExcludedPaths:     config.ExcludedPaths,
		HashAlgorithm:     config.HashAlgorithm,
		BcryptCost:        config.BcryptCost,
		LogLevel:          config.LogLevel,
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.DatabaseDriver = c.DatabaseDriver
	config.DatabaseDSN = c.DatabaseDSN
	if c.AuthType != nil {
		config.AuthType = *c.AuthType
	} else {
		config.AuthType = ""
	}
	config.SessionCookieName = c.SessionCookieName
	config.SessionDuration = c.SessionDuration.Duration
	config.ExcludedPaths = c.ExcludedPaths
	config.HashAlgorithm = c.HashAlgorithm
	config.BcryptCost = c.BcryptCost
	config.LogLevel = c.LogLevel
	return nil
}
