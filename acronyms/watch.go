package acronyms

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch перечитывает JSONStore при изменении его файла и блокируется до
// отмены контекста. Следит за каталогом, чтобы переживать атомарную
// замену файла редакторами.
func Watch(ctx context.Context, store *JSONStore, debounce time.Duration, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("acronyms: create watcher: %w", err)
	}
	defer watcher.Close()

	path, err := filepath.Abs(store.Path())
	if err != nil {
		return fmt.Errorf("acronyms: resolve path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("acronyms: watch dir: %w", err)
	}

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			reload = timer.C
		case <-reload:
			reload = nil
			if err := store.Refresh(ctx); err != nil {
				logger.Warn("акронимы: не удалось перечитать файл", zap.String("path", path), zap.Error(err))
				continue
			}
			all, _ := store.All(ctx)
			logger.Info("акронимы: файл перечитан", zap.String("path", path), zap.Int("records", len(all)))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("акронимы: ошибка наблюдателя", zap.Error(err))
		}
	}
}
