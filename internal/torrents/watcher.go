// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torrents

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/crossseed/pkg/debounce"
)

// DefaultWatchDelay is how long the tree has to be quiet before onChange runs.
const DefaultWatchDelay = 5 * time.Second

// Watcher calls onChange when .torrent files under root are created, written
// or renamed. Bursts of events collapse into one call.
type Watcher struct {
	root      string
	onChange  func()
	fsw       *fsnotify.Watcher
	debouncer *debounce.Debouncer
	log       zerolog.Logger
}

// NewWatcher registers root and all of its subdirectories.
func NewWatcher(root string, delay time.Duration, onChange func()) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultWatchDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		root:      root,
		onChange:  onChange,
		fsw:       fsw,
		debouncer: debounce.New(delay),
		log:       log.With().Str("component", "torrent-watcher").Logger(),
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// fsnotify is not recursive, so every directory is added on its own.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run blocks until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("Torrent watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn().Err(err).Msg("Failed to watch new directory")
				return
			}
			// the directory may already hold torrents
			w.debouncer.Do(w.onChange)
			return
		}
	}

	if !IsTorrentFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}

	w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Torrent file changed")
	w.debouncer.Do(w.onChange)
}
