// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/models"
)

// DefaultMediaMaxRestarts is the restart ceiling used when none is
// configured.
const DefaultMediaMaxRestarts = 3

// restartError asks the retry loop to run the media sync again.
type restartError struct {
	cause error
}

func (e *restartError) Error() string { return "media sync restart: " + e.cause.Error() }
func (e *restartError) Unwrap() error { return e.cause }

type mediaSyncer struct {
	media   store.MediaIndex
	server  adapter.MediaServer
	tempDir string

	maxRestarts int
	newBackOff  func() backoff.BackOff

	progress models.ProgressFunc
	logger   *logger.Logger
}

// NewMediaSyncer creates a MediaSyncer. Upload zips are staged in tempDir.
// A non-positive maxRestarts falls back to [DefaultMediaMaxRestarts].
func NewMediaSyncer(media store.MediaIndex, server adapter.MediaServer, tempDir string, maxRestarts int, progress models.ProgressFunc, log *logger.Logger) MediaSyncer {
	if maxRestarts <= 0 {
		maxRestarts = DefaultMediaMaxRestarts
	}
	return &mediaSyncer{
		media:       media,
		server:      server,
		tempDir:     tempDir,
		maxRestarts: maxRestarts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 0
			return b
		},
		progress: progress,
		logger:   log,
	}
}

// Sync implements [MediaSyncer].
func (m *mediaSyncer) Sync(ctx context.Context, cancel *CancelToken) (Outcome, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), uint64(m.maxRestarts)), ctx)

	attempt := 0
	out, err := backoff.RetryNotifyWithData(func() (Outcome, error) {
		attempt++
		out, err := m.syncOnce(ctx, cancel)
		var restart *restartError
		if err != nil && !errors.As(err, &restart) {
			return Outcome{}, backoff.Permanent(err)
		}
		return out, err
	}, b, func(err error, _ time.Duration) {
		m.logger.Warn().Str("func", "mediaSyncer.Sync").Int("attempt", attempt).Err(err).Msg("restarting media sync")
	})

	var restart *restartError
	if errors.As(err, &restart) {
		return Outcome{}, fmt.Errorf("%w after %d attempts: %w", ErrMediaRestartsExhausted, attempt, restart.cause)
	}
	return out, err
}

func (m *mediaSyncer) syncOnce(ctx context.Context, cancel *CancelToken) (Outcome, error) {
	m.progress.Report(models.Progress{Token: models.StatusMedia})

	if err := m.scanIfNeeded(ctx); err != nil {
		return Outcome{}, err
	}

	begin, err := m.server.Begin(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("media begin: %w", err)
	}

	lastUsn, err := m.media.LastUsn(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("media last usn: %w", err)
	}
	dirty, err := m.media.HaveDirty(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("media dirty state: %w", err)
	}
	if begin.Usn == lastUsn && !dirty {
		m.logger.Info().Str("func", "mediaSyncer.syncOnce").Int("usn", lastUsn).Msg("media already in sync")
		return outcome(models.NoChanges), nil
	}

	if lastUsn, err = m.downloadChanges(ctx, cancel, lastUsn); err != nil {
		return Outcome{}, err
	}
	if cancel.Cancelled() {
		return outcome(models.UserAborted), nil
	}

	conflict, err := m.uploadChanges(ctx, cancel, lastUsn)
	if err != nil {
		return Outcome{}, err
	}
	if cancel.Cancelled() {
		return outcome(models.UserAborted), nil
	}
	if conflict {
		return Outcome{}, &restartError{cause: ErrMediaConcurrentUpdate}
	}

	count, err := m.media.MediaCount(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("media count: %w", err)
	}
	status, err := m.server.MediaSanity(ctx, count)
	if err != nil {
		return Outcome{}, fmt.Errorf("media sanity: %w", err)
	}
	if status != models.MediaSanityOK {
		m.logger.Warn().Str("func", "mediaSyncer.syncOnce").Str("status", status).Int("local", count).Msg("media sanity check failed")
		if err = m.media.ForceResync(ctx); err != nil {
			return Outcome{}, fmt.Errorf("media force resync: %w", err)
		}
		return Outcome{}, &restartError{cause: fmt.Errorf("%w: %s", ErrMediaSanity, status)}
	}

	m.logger.Info().Str("func", "mediaSyncer.syncOnce").Int("files", count).Msg("media sync completed")
	return outcome(models.Success), nil
}

// scanIfNeeded builds the index on the first run. Later changes are
// recorded as they happen, so the directory is not scanned again.
func (m *mediaSyncer) scanIfNeeded(ctx context.Context) error {
	need, err := m.media.NeedScan(ctx)
	if err == nil && !need {
		return nil
	}
	if err == nil {
		err = m.media.FindChanges(ctx)
	}
	if err == nil {
		return nil
	}

	m.logger.Err(err).Str("func", "mediaSyncer.scanIfNeeded").Msg("media index unusable, resetting")
	if resetErr := m.media.ForceResync(ctx); resetErr != nil {
		return errors.Join(fmt.Errorf("%w: %w", ErrCorruptMediaDB, err), resetErr)
	}
	return fmt.Errorf("%w: %w", ErrCorruptMediaDB, err)
}

// downloadChanges pages through the server changes after lastUsn and
// returns the new cursor. The cursor is stored only once the files of a
// page are written.
func (m *mediaSyncer) downloadChanges(ctx context.Context, cancel *CancelToken, lastUsn int) (int, error) {
	for {
		if cancel.Cancelled() {
			return lastUsn, nil
		}

		changes, err := m.server.MediaChanges(ctx, lastUsn)
		if err != nil {
			return lastUsn, fmt.Errorf("media changes: %w", err)
		}
		if len(changes) == 0 {
			return lastUsn, nil
		}

		need, maxUsn, err := m.classify(ctx, changes, lastUsn)
		if err != nil {
			return lastUsn, err
		}
		if err = m.fetch(ctx, need); err != nil {
			return lastUsn, err
		}

		if err = m.media.SetLastUsn(ctx, maxUsn); err != nil {
			return lastUsn, fmt.Errorf("store media usn: %w", err)
		}
		m.logger.Debug().Str("func", "mediaSyncer.downloadChanges").Int("changes", len(changes)).Int("fetched", len(need)).Int("usn", maxUsn).Msg("media changes applied")
		lastUsn = maxUsn
	}
}

// classify decides what to do with each server change and returns the
// files to fetch together with the highest usn seen.
func (m *mediaSyncer) classify(ctx context.Context, changes []models.MediaChange, lastUsn int) ([]string, int, error) {
	var need []string
	maxUsn := lastUsn

	for _, c := range changes {
		maxUsn = max(maxUsn, c.Usn)

		localSum, localDirty, err := m.media.SyncInfo(ctx, c.Name)
		if err != nil {
			return nil, 0, fmt.Errorf("media sync info %s: %w", c.Name, err)
		}

		switch {
		case !c.Deleted() && localSum != *c.Checksum:
			need = append(need, c.Name)
		case !c.Deleted():
			if err = m.media.MarkClean(ctx, []string{c.Name}); err != nil {
				return nil, 0, fmt.Errorf("media mark clean %s: %w", c.Name, err)
			}
		case localSum != "" && !localDirty:
			if err = m.media.SyncDelete(ctx, c.Name); err != nil {
				return nil, 0, fmt.Errorf("media delete %s: %w", c.Name, err)
			}
		case localSum != "":
			// local change wins over a remote deletion and is uploaded later
		default:
			if err = m.media.SyncDelete(ctx, c.Name); err != nil {
				return nil, 0, fmt.Errorf("media delete %s: %w", c.Name, err)
			}
		}
	}
	return need, maxUsn, nil
}

// fetch downloads need in batches. The server may return fewer files than
// requested; the rest are asked for again.
func (m *mediaSyncer) fetch(ctx context.Context, need []string) error {
	for len(need) > 0 {
		batch := need[:min(len(need), models.MediaBatchFiles)]

		m.progress.Report(models.Progress{Token: models.StatusDownload})
		zb, err := m.server.DownloadFiles(ctx, batch)
		if err != nil {
			return fmt.Errorf("download media: %w", err)
		}
		n, err := m.media.AddFilesFromZip(ctx, &zb.Reader)
		closeErr := zb.Close()
		if err != nil {
			return fmt.Errorf("store downloaded media: %w", err)
		}
		if closeErr != nil {
			m.logger.Warn().Str("func", "mediaSyncer.fetch").Err(closeErr).Msg("failed to remove media batch")
		}
		if n == 0 {
			return ErrEmptyMediaBatch
		}
		need = need[min(n, len(need)):]
	}
	return nil
}

// uploadChanges sends the dirty files in batches. It reports a conflict
// when the server usn moved by more than the files just uploaded; the
// cursor is then left alone.
func (m *mediaSyncer) uploadChanges(ctx context.Context, cancel *CancelToken, lastUsn int) (bool, error) {
	conflict := false
	for {
		if cancel.Cancelled() {
			return conflict, nil
		}

		names, path, err := m.writeChangesZip(ctx)
		if err != nil {
			return conflict, err
		}
		if len(names) == 0 {
			_ = os.Remove(path)
			return conflict, nil
		}

		m.progress.Report(models.Progress{Token: models.StatusUpload})
		res, err := m.server.UploadChanges(ctx, path)
		_ = os.Remove(path)
		if err != nil {
			return conflict, fmt.Errorf("upload media: %w", err)
		}

		processed := min(max(res.Processed, 0), len(names))
		if err = m.media.MarkClean(ctx, names[:processed]); err != nil {
			return conflict, fmt.Errorf("media mark clean: %w", err)
		}

		if res.LastUsn-res.Processed == lastUsn {
			if err = m.media.SetLastUsn(ctx, res.LastUsn); err != nil {
				return conflict, fmt.Errorf("store media usn: %w", err)
			}
			lastUsn = res.LastUsn
		} else {
			m.logger.Warn().Str("func", "mediaSyncer.uploadChanges").
				Int("server_usn", res.LastUsn).Int("processed", res.Processed).Int("local_usn", lastUsn).
				Msg("media usn mismatch, another client is syncing")
			conflict = true
		}

		if processed == 0 {
			return conflict, nil
		}
	}
}

func (m *mediaSyncer) writeChangesZip(ctx context.Context) ([]string, string, error) {
	f, err := os.CreateTemp(m.tempDir, "media-upload-*.zip")
	if err != nil {
		return nil, "", fmt.Errorf("create media zip: %w", err)
	}

	names, err := m.media.ChangesZip(ctx, f)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return nil, "", fmt.Errorf("build media zip: %w", err)
	}
	return names, f.Name(), nil
}
