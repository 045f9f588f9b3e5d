package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrTokenNotFound is returned when no stored token exists
	ErrTokenNotFound = errors.New("token not found")

	// ErrEmptyToken is returned when a token record has no token value
	ErrEmptyToken = errors.New("token is empty")
)

// Token represents a bearer token extracted from the H2HGGL website's local
// storage, together with where and when it was acquired. Tokens are replaced
// wholesale on refresh, never mutated.
type Token struct {
	Token       string    `json:"token"`
	ExtractedAt time.Time `json:"extracted_at"`
	Source      string    `json:"source"`
	Key         string    `json:"key"`
}

// Age returns how long ago the token was extracted.
func (t *Token) Age() time.Duration {
	return time.Since(t.ExtractedAt)
}

// Provider acquires a fresh bearer token. Implementations may launch a
// browser, call out to another service, or return a canned value in tests.
type Provider interface {
	Acquire(ctx context.Context) (*Token, error)
}

// Store persists tokens across process invocations
type Store interface {
	Save(token *Token) error
	Load() (*Token, error)
}

// FileStore persists the token as a JSON file, matching the auth_token.json
// layout the fetch commands read back.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed token store at the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the token file, creating parent directories as needed.
// The file is written 0600 since it holds a credential.
func (s *FileStore) Save(token *Token) error {
	if token == nil || token.Token == "" {
		return ErrEmptyToken
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// Load reads the token file. ErrTokenNotFound is returned if the file does
// not exist or holds no token value.
func (s *FileStore) Load() (*Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	if token.Token == "" {
		return nil, ErrTokenNotFound
	}

	return &token, nil
}

// Path returns the token file path
func (s *FileStore) Path() string {
	return s.path
}
