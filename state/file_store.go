package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SETTINGS_FILE — путь к файлу настроек по умолчанию.
const SETTINGS_FILE = "config.json"

// FileStore сохраняет настройки в JSON файле.
type FileStore struct {
	Path string
}

func (store FileStore) settingsPath() string {
	if strings.TrimSpace(store.Path) == "" {
		return SETTINGS_FILE
	}
	return store.Path
}

// Load читает настройки из JSON файла. Несовпадение версии возвращает
// ErrVersionMismatch.
func (store FileStore) Load() (*Settings, error) {
	path := store.settingsPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: read file: %w", err)
	}

	var payload Settings
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("load settings: decode json: %w", err)
	}

	if payload.Version != SettingsVersion {
		return nil, fmt.Errorf("load settings: got version %d, want %d: %w", payload.Version, SettingsVersion, ErrVersionMismatch)
	}

	return &payload, nil
}

// Save записывает настройки в JSON файл через временный файл.
func (store FileStore) Save(settings Settings) error {
	path := store.settingsPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save settings: create dir: %w", err)
	}

	settings.Version = SettingsVersion
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("save settings: encode json: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("save settings: write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("save settings: rename file: %w", err)
	}

	return nil
}
