package state

import (
	"context"

	"go.uber.org/zap"
)

// Restore загружает настройки из store. Если файла нет, он повреждён или
// версия не совпадает, используются defaults, которые сразу сохраняются.
func Restore(ctx context.Context, store Store, defaults Settings, logger *zap.Logger) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}

	settings, err := store.Load()
	if err == nil && settings != nil {
		fill(settings, defaults)
		return *settings, nil
	}

	logger.Warn("настройки не загружены, используются значения по умолчанию", zap.Error(err))

	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}

	if err := store.Save(defaults); err != nil {
		return Settings{}, err
	}

	return defaults, nil
}

// fill дополняет загруженные настройки недостающими полями.
func fill(s *Settings, defaults Settings) {
	if s.Nick == "" {
		s.Nick = defaults.Nick
	}
	if s.Modes == nil {
		s.Modes = defaults.Modes
	}
	if s.Users == nil {
		s.Users = defaults.Users
	}
	if len(s.Channels) == 0 {
		s.Channels = defaults.Channels
	}
}
