// Package config loads the client configuration from the environment.
//
// A .env file in the working directory is honored when present, matching
// how the other quizzap tooling is configured; explicit environment
// variables take precedence over it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Defaults point at a local development server.
const (
	DefaultSocketURL = "ws://localhost:8000/api/latest/sockets"
	DefaultAPIURL    = "http://localhost:8000/api/latest"
)

// Config carries everything a client needs to talk to a quizzap server.
type Config struct {
	// SocketURL is the base of the session endpoints, up to but excluding
	// the /quizCreate and /quizJoin entry points.
	SocketURL string

	// APIURL is the base of the REST quiz API.
	APIURL string

	// AccessToken authenticates host operations. Acquiring it is out of
	// scope here; it is assumed already available.
	AccessToken string

	// ClientTokenPath is where the stable client identifier is persisted.
	ClientTokenPath string

	// AwaitTimeout bounds correlated request/response exchanges. Zero means
	// the transport default.
	AwaitTimeout time.Duration
}

// Load builds a Config from the environment. A missing .env file is not an
// error; a present but malformed one is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		SocketURL:       getEnv("QUIZZAP_SOCKET_URL", DefaultSocketURL),
		APIURL:          getEnv("QUIZZAP_API_URL", DefaultAPIURL),
		AccessToken:     os.Getenv("QUIZZAP_ACCESS_TOKEN"),
		ClientTokenPath: getEnv("QUIZZAP_CLIENT_TOKEN_FILE", defaultTokenPath()),
	}

	if raw := os.Getenv("QUIZZAP_AWAIT_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse QUIZZAP_AWAIT_TIMEOUT: %w", err)
		}
		cfg.AwaitTimeout = d
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// defaultTokenPath keeps the client token under the user config directory,
// falling back to the working directory when none is resolvable.
func defaultTokenPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "quizzap", "client_token")
	}
	return ".quizzap_client_token"
}
