package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// parseEnv applies the environment variables the deployment scripts set:
// AUTH_TYPE, SESSION_NAME, SESSION_DURATION (seconds), API_HOST and API_PORT.
// A set-but-empty AUTH_TYPE disables gating.
func parseEnv(config *Config) error {
	if v, ok := os.LookupEnv("AUTH_TYPE"); ok {
		config.AuthType = v
	}
	if v, ok := os.LookupEnv("SESSION_NAME"); ok && v != "" {
		config.SessionCookieName = v
	}
	if v, ok := os.LookupEnv("SESSION_DURATION"); ok && v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_DURATION %q: %w", v, err)
		}
		config.SessionDuration = time.Duration(seconds) * time.Second
	}

	host, port, err := net.SplitHostPort(config.HTTPAddr)
	if err != nil {
		host, port = config.HTTPAddr, ""
	}
	hostSet, portSet := false, false
	if v, ok := os.LookupEnv("API_HOST"); ok && v != "" {
		host, hostSet = v, true
	}
	if v, ok := os.LookupEnv("API_PORT"); ok && v != "" {
		if _, err := strconv.ParseUint(v, 10, 16); err != nil {
			return fmt.Errorf("invalid API_PORT %q: %w", v, err)
		}
		port, portSet = v, true
	}
	if hostSet || portSet {
		config.HTTPAddr = net.JoinHostPort(host, port)
	}
	return nil
}
