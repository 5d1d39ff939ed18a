package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces bursts of write events from editors that save
// in multiple steps.
const debounceWindow = 100 * time.Millisecond

// Watch reloads the config file on change and delivers each successfully
// loaded configuration to onChange until ctx is cancelled. Reload applies
// presentation options only; in-flight gestures keep the thresholds they
// started with.
func Watch(ctx context.Context, path string, onChange func(Config)) error {
	if path == "" {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}

	// Watch the directory: editors commonly replace the file on save,
	// which drops a watch set on the file itself.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounceWindow)
					timerC = timer.C
				} else {
					timer.Reset(debounceWindow)
				}
			case <-timerC:
				timer = nil
				timerC = nil
				cfg, err := Load(path)
				if err != nil {
					continue
				}
				onChange(cfg)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}
