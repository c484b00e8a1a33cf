package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls fn with the reloaded configuration each time the file at path
// is written or replaced, until ctx is done. A file that fails to load is
// logged and skipped. The parent directory is watched, so a file renamed
// onto path is picked up too.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger := slog.Default().With(slog.String("path", path))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			c, err := Load(abs)
			if err != nil {
				logger.Warn("config: reload failed", slog.Any("error", err))
				continue
			}
			logger.Debug("config: reloaded")
			fn(c)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config: watch error", slog.Any("error", err))
		}
	}
}
