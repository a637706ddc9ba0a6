package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const TOKEN_FILE = ".secrets/twitch_tokens.json"

// FileTokenStore сохраняет токен в JSON файле.
type FileTokenStore struct {
	Path string
}

type fileToken struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Seed      string `json:"seed"`
}

func (store FileTokenStore) tokenPath() string {
	if strings.TrimSpace(store.Path) == "" {
		return TOKEN_FILE
	}
	return store.Path
}

// LoadUserToken загружает токен из JSON файла.
func (store FileTokenStore) LoadUserToken() (*Token, error) {
	data, err := os.ReadFile(store.tokenPath())
	if err != nil {
		return nil, fmt.Errorf("load user token: read file: %w", err)
	}

	var payload fileToken
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("load user token: decode json: %w", err)
	}

	token := &Token{
		Access:  payload.Access,
		Refresh: payload.Refresh,
		Seed:    payload.Seed,
	}
	if payload.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, payload.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("load user token: parse expires_at: %w", err)
		}
		token.ExpiresAt = expiresAt
	}

	return token, nil
}

// SaveUserToken сохраняет токен в JSON файл с правами 0600.
func (store FileTokenStore) SaveUserToken(token Token) error {
	path := store.tokenPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("save user token: create dir: %w", err)
	}

	payload := fileToken{
		Access:  token.Access,
		Refresh: token.Refresh,
		Seed:    token.Seed,
	}
	if !token.ExpiresAt.IsZero() {
		payload.ExpiresAt = token.ExpiresAt.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("save user token: encode json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("save user token: write file: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("save user token: chmod file: %w", err)
	}

	return nil
}
