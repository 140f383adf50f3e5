package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-r", "-d", "-t", "-n", "-s", "-x", "-H", "-b", "-l"}

// ValueFlags lists every flag LoadConfig reads, including -c/-config. All of
// them take a value.
func ValueFlags() []string {
	return append([]string{"-c", "-config"}, serverFlags...)
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. "0.0.0.0:5000")
//	-r string   database driver: postgres or sqlite
//	-d string   database DSN
//	-t string   auth type: auth, basic_auth, session_auth, session_exp_auth
//	-n string   session cookie name
//	-s int      session duration, seconds
//	-x string   comma-separated excluded path patterns
//	-H string   password hash algorithm: bcrypt or argon2id
//	-b int      bcrypt cost
//	-l string   log level
//
// os.Args is first filtered with flagx.FilterArgs so that -c/-config and
// flags owned by other components do not cause parse errors.
func parseFlags(config *Config) error {
	return parseArgs(config, os.Args[1:])
}

func parseArgs(config *Config, argv []string) error {
	args := flagx.FilterArgs(argv, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "r", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AuthType, "t", config.AuthType, "auth type")
	fs.StringVar(&config.SessionCookieName, "n", config.SessionCookieName, "session cookie name")
	sessionDuration := fs.Int("s", int(config.SessionDuration/time.Second), "session duration (in seconds)")
	excluded := fs.String("x", strings.Join(config.ExcludedPaths, ","), "excluded path patterns, comma-separated")
	fs.StringVar(&config.HashAlgorithm, "H", config.HashAlgorithm, "password hash algorithm")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			config.SessionDuration = time.Duration(*sessionDuration) * time.Second
		case "x":
			config.ExcludedPaths = splitPatterns(*excluded)
		}
	})
	return nil
}

func splitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
