package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-instancing/common"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last write before reloading.
const DefaultDebounce = 100 * time.Millisecond

// watcher reloads one config file when it changes.
type watcher struct {
	fs       *fsnotify.Watcher
	path     string
	debounce time.Duration
}

// newWatcher starts watching the directory holding path, so editors that replace the file on save are
// still seen.
func newWatcher(path string, debounce time.Duration) (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	return &watcher{fs: fs, path: abs, debounce: debounce}, nil
}

// run delivers reloaded configurations to onChange until ctx is done. Invalid files are logged and skipped.
func (w *watcher) run(ctx context.Context, onChange func(Config)) {
	defer w.fs.Close()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		c, err := Load(w.path)
		if err != nil {
			common.Logger().Warn("config reload ignored", "path", w.path, "err", err)
			return
		}
		common.Logger().Info("config reloaded", "path", w.path)
		onChange(c)
	}

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create)) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, reload)
			mu.Unlock()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("config watcher error", "path", w.path, "err", err)
		}
	}
}

// Watch calls onChange with the reloaded configuration whenever path is written, debounced by
// DefaultDebounce. Reloads that fail to decode or validate are logged and ignored. Watch blocks until ctx
// is done.
//
// Parameters:
//   - ctx: stops watching when done
//   - path: the config file
//   - onChange: receives every valid reload
//
// Returns:
//   - error: an error if the file's directory cannot be watched
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	w, err := newWatcher(path, DefaultDebounce)
	if err != nil {
		return err
	}
	w.run(ctx, onChange)
	return nil
}
