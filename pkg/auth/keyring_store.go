package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "h2hfetcher"
	keyringKey     = "hudstats_token"
)

// KeyringStore persists the token in the system keychain instead of a
// plain-text file.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed token store, verifying that a
// keychain backend is available on this system.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Save stores the token record in the system keychain
func (k *KeyringStore) Save(token *Token) error {
	if token == nil || token.Token == "" {
		return ErrEmptyToken
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := keyring.Set(keyringService, keyringKey, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return nil
}

// Load retrieves the token record from the system keychain
func (k *KeyringStore) Load() (*Token, error) {
	data, err := keyring.Get(keyringService, keyringKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var token Token
	if err := json.Unmarshal([]byte(data), &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	if token.Token == "" {
		return nil, ErrTokenNotFound
	}

	return &token, nil
}
