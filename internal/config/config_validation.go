// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"net/url"
)

// Conflict resolution modes accepted by App.ConflictResolution.
const (
	ConflictResolutionNone     = ""
	ConflictResolutionUpload   = "upload"
	ConflictResolutionDownload = "download"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// client invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.Adapter.SyncURL == "" || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}
	if _, err := url.ParseRequestURI(cfg.Adapter.SyncURL); err != nil {
		return fmt.Errorf("%w: sync url: %w", ErrInvalidAdapterConfigs, err)
	}
	if cfg.Adapter.CompressionLevel < 0 || cfg.Adapter.CompressionLevel > 9 {
		return fmt.Errorf("%w: compression level %d", ErrInvalidAdapterConfigs, cfg.Adapter.CompressionLevel)
	}

	if cfg.Storage.CollectionPath == "" {
		return ErrInvalidStorageConfigs
	}

	switch cfg.App.ConflictResolution {
	case ConflictResolutionNone, ConflictResolutionUpload, ConflictResolutionDownload:
	default:
		return fmt.Errorf("%w: conflict resolution %q", ErrInvalidAppConfigs, cfg.App.ConflictResolution)
	}

	if cfg.Workers.SyncInterval < 0 || cfg.Workers.TaskWaitTimeout <= 0 || cfg.Workers.MediaMaxRestarts < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
