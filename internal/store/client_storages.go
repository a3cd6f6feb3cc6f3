// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/MKhiriev/flashsync/internal/config"
	"github.com/MKhiriev/flashsync/internal/logger"
)

// ClientStorages groups the local stores the sync services work on.
type ClientStorages struct {
	// Collection is the flashcard database.
	Collection *Collection

	// Media is the media index, nil when media sync is disabled.
	Media *MediaStore

	// Watcher keeps Media current, nil unless enabled in the config.
	Watcher *MediaWatcher
}

// NewClientStorages opens the collection and, when withMedia is set, the
// media index over the OS filesystem.
func NewClientStorages(ctx context.Context, cfg config.Storage, withMedia bool, clock clockwork.Clock, log *logger.Logger) (*ClientStorages, error) {
	log.Info().Str("func", "NewClientStorages").Msg("opening local storages...")

	col, err := OpenCollection(ctx, cfg.CollectionPath, clock, log)
	if err != nil {
		return nil, fmt.Errorf("collection: %w", err)
	}

	s := &ClientStorages{Collection: col}
	if !withMedia {
		return s, nil
	}

	s.Media, err = OpenMediaStore(ctx, cfg.MediaDBPath, cfg.MediaDir, afero.NewOsFs(), clock, log)
	if err != nil {
		_ = col.Close()
		return nil, fmt.Errorf("media: %w", err)
	}
	if cfg.MediaWatch {
		s.Watcher = NewMediaWatcher(cfg.MediaDir, s.Media, log)
	}
	return s, nil
}

// Close stops the watcher and closes every store.
func (s *ClientStorages) Close() error {
	if s.Watcher != nil {
		s.Watcher.Stop()
	}

	var errs []error
	if s.Media != nil {
		errs = append(errs, s.Media.Close())
	}
	errs = append(errs, s.Collection.Close())
	return errors.Join(errs...)
}
