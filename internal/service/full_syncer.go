// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/models"
)

// upgradeRequiredBody is what the server sends instead of a collection
// file when the client is too old.
const upgradeRequiredBody = "upgradeRequired"

// uploadOK is the server reply to a successful upload.
const uploadOK = "OK"

type fullSyncer struct {
	col    store.CollectionStore
	server adapter.FullSyncServer

	progress models.ProgressFunc
	logger   *logger.Logger
}

// NewFullSyncer creates a FullSyncer for col against server.
func NewFullSyncer(col store.CollectionStore, server adapter.FullSyncServer, progress models.ProgressFunc, log *logger.Logger) FullSyncer {
	return &fullSyncer{col: col, server: server, progress: progress, logger: log}
}

// Upload implements [FullSyncer].
func (f *fullSyncer) Upload(ctx context.Context) (out Outcome, err error) {
	if err = f.col.IntegrityCheck(ctx); err != nil {
		if errors.Is(err, store.ErrCorrupt) {
			f.logger.Err(err).Str("func", "fullSyncer.Upload").Msg("refusing to upload a corrupt collection")
			return Outcome{Result: models.DBError, Detail: err.Error()}, nil
		}
		return Outcome{}, fmt.Errorf("integrity check before upload: %w", err)
	}

	problem, err := f.col.BasicCheck(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("basic check before upload: %w", err)
	}
	if problem != "" {
		f.logger.Warn().Str("func", "fullSyncer.Upload").Str("problem", problem).Msg("refusing to upload, basic check failed")
		return Outcome{Result: models.BasicCheckFailed, Detail: problem}, nil
	}

	if err = f.col.BeforeUpload(ctx); err != nil {
		return Outcome{}, fmt.Errorf("prepare upload: %w", err)
	}

	if err = f.col.Close(); err != nil {
		return Outcome{}, fmt.Errorf("close collection for upload: %w", err)
	}
	defer func() {
		if reopenErr := f.col.Reopen(ctx); reopenErr != nil {
			err = errors.Join(err, fmt.Errorf("reopen collection after upload: %w", reopenErr))
		}
	}()

	f.progress.Report(models.Progress{Token: models.StatusUpload})
	body, err := f.server.Upload(ctx, f.col.Path())
	if err != nil {
		return Outcome{}, fmt.Errorf("upload: %w", err)
	}
	if body != uploadOK {
		f.logger.Warn().Str("func", "fullSyncer.Upload").Str("body", body).Msg("server rejected upload")
		return Outcome{Result: models.GenericError, Detail: body}, nil
	}

	f.logger.Info().Str("func", "fullSyncer.Upload").Msg("collection uploaded")
	return outcome(models.Success), nil
}

// Download implements [FullSyncer].
func (f *fullSyncer) Download(ctx context.Context) (out Outcome, err error) {
	live := f.col.Path()
	tmp := live + ".tmp"
	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			f.logger.Warn().Str("func", "fullSyncer.Download").Err(rmErr).Msg("failed to remove temporary download")
		}
	}()

	f.progress.Report(models.Progress{Token: models.StatusDownload})
	if err = f.server.Download(ctx, tmp); err != nil {
		return Outcome{}, fmt.Errorf("download: %w", err)
	}

	upgrade, err := hasPrefix(tmp, []byte(upgradeRequiredBody))
	if err != nil {
		return Outcome{}, fmt.Errorf("inspect download: %w", err)
	}
	if upgrade {
		f.logger.Warn().Str("func", "fullSyncer.Download").Msg("server requires a newer client")
		return outcome(models.UpgradeRequired), nil
	}

	f.progress.Report(models.Progress{Token: models.StatusCheckDownload})
	if err = store.IntegrityCheck(ctx, tmp); err != nil {
		f.logger.Err(err).Str("func", "fullSyncer.Download").Msg("downloaded collection is corrupt")
		return Outcome{Result: models.RemoteDBError, Detail: err.Error()}, nil
	}

	if err = f.col.Close(); err != nil {
		return Outcome{}, fmt.Errorf("close collection for overwrite: %w", err)
	}
	defer func() {
		if reopenErr := f.col.Reopen(ctx); reopenErr != nil {
			err = errors.Join(err, fmt.Errorf("reopen collection after download: %w", reopenErr))
		}
	}()

	if err = os.Rename(tmp, live); err != nil {
		f.logger.Err(err).Str("func", "fullSyncer.Download").Msg("failed to replace collection")
		return Outcome{Result: models.OverwriteError, Detail: err.Error()}, nil
	}

	f.logger.Info().Str("func", "fullSyncer.Download").Msg("collection replaced by server copy")
	return outcome(models.Success), nil
}

// hasPrefix reports whether the file at path starts with prefix.
func hasPrefix(path string, prefix []byte) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	head := make([]byte, len(prefix))
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return bytes.Equal(head[:n], prefix), nil
}
