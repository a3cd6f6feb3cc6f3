// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/MKhiriev/flashsync/internal/logger"
)

// MediaRecorder receives file mutations observed in the media directory.
type MediaRecorder interface {
	AddFile(ctx context.Context, name string) error
	RemoveFile(ctx context.Context, name string) error
}

// MediaWatcher records changes made to the media directory by other
// programs, so the media index stays current without rescanning.
type MediaWatcher struct {
	dir      string
	recorder MediaRecorder

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}

	logger *logger.Logger
}

// NewMediaWatcher constructs a watcher for dir. It is idle until Start.
func NewMediaWatcher(dir string, recorder MediaRecorder, log *logger.Logger) *MediaWatcher {
	return &MediaWatcher{dir: dir, recorder: recorder, logger: log}
}

// Start begins watching. Events are processed until ctx is cancelled or
// Stop is called.
func (w *MediaWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create media watcher: %w", err)
	}
	if err = fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch media dir %s: %w", w.dir, err)
	}

	w.watcher = fw
	w.done = make(chan struct{})
	go w.loop(ctx, fw, w.done)

	w.logger.Info().Str("func", "MediaWatcher.Start").Str("dir", w.dir).Msg("watching media directory")
	return nil
}

// Stop closes the watcher and waits for the event loop to exit.
func (w *MediaWatcher) Stop() {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher, w.done = nil, nil
	w.mu.Unlock()

	if fw == nil {
		return
	}
	_ = fw.Close()
	<-done
}

func (w *MediaWatcher) loop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			_ = fw.Close()
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handle(ctx, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Err(err).Str("func", "MediaWatcher.loop").Msg("media watcher error")
		}
	}
}

func (w *MediaWatcher) handle(ctx context.Context, ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	var err error
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		err = w.recorder.RemoveFile(ctx, name)
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		err = w.recorder.AddFile(ctx, name)
		// the file may be gone again before we get to hash it
		if errors.Is(err, os.ErrNotExist) {
			err = w.recorder.RemoveFile(ctx, name)
		}
	default:
		return
	}

	if err != nil {
		w.logger.Err(err).Str("func", "MediaWatcher.handle").Str("file", name).Msg("failed to record media change")
		return
	}
	w.logger.Debug().Str("func", "MediaWatcher.handle").Str("file", name).Str("op", ev.Op.String()).Msg("media change recorded")
}
