package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the manifest at path whenever it is written or recreated and
// passes the result to onChange. The manifest is loaded once before watching
// starts. The containing directory is watched so that editors replacing the
// file by rename are seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Manifest, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("manifest: watch %s: %w", path, err)
	}
	if _, err := formatOf(abs); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("manifest: watch %s: %w", path, err)
	}
	defer func() {
		_ = w.Close()
	}()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("manifest: watch %s: %w", path, err)
	}

	onChange(LoadFile(abs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			slog.DebugContext(ctx, "manifest.reload", slog.String("path", abs), slog.String("op", ev.Op.String()))
			onChange(LoadFile(abs))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.DebugContext(ctx, "manifest.watch.error", slog.String("err", err.Error()))
		}
	}
}
