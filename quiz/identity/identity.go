// Package identity provides the stable client identifier embedded in every
// session connection URL.
//
// The identifier lets the server recognize a returning participant across
// sessions. It is opaque to the engine: session creation takes a Provider
// and only ever reads the token, so nothing in the core depends on where or
// how the token is stored.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Provider yields the client token for this installation. Implementations
// must return the same token on every call.
type Provider interface {
	GetOrCreate() (string, error)
}

// FileProvider persists a generated token to a file so it survives
// restarts, the moral equivalent of the browser's local storage entry.
type FileProvider struct {
	path string

	mu    sync.Mutex
	token string
}

// NewFileProvider returns a provider backed by the file at path. The file
// and any missing parent directories are created on first use.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// GetOrCreate reads the persisted token, generating and persisting a fresh
// one if none exists yet. The token is cached after the first call.
func (p *FileProvider) GetOrCreate() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" {
		return p.token, nil
	}

	data, err := os.ReadFile(p.path)
	if err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			p.token = token
			return token, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("read client token: %w", err)
	}

	token := uuid.NewString()

	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create client token dir: %w", err)
		}
	}
	if err := os.WriteFile(p.path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("persist client token: %w", err)
	}

	p.token = token
	return token, nil
}

// Static returns a provider that always yields token. Useful in tests and
// for environments that manage identity externally.
func Static(token string) Provider {
	return staticProvider(token)
}

type staticProvider string

func (s staticProvider) GetOrCreate() (string, error) {
	return string(s), nil
}
