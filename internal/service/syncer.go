// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/internal/validators"
	"github.com/MKhiriev/flashsync/models"
)

// MaxClockSkew is the largest tolerated difference, in seconds, between the
// local clock and the server's.
const MaxClockSkew = 300

type syncer struct {
	col    store.CollectionStore
	server adapter.SyncServer
	clock  clockwork.Clock

	clientVersion string
	progress      models.ProgressFunc
	validator     validators.Validator

	logger *logger.Logger
}

// NewSyncer creates a Syncer for one session against server.
func NewSyncer(col store.CollectionStore, server adapter.SyncServer, clock clockwork.Clock, clientVersion string, progress models.ProgressFunc, log *logger.Logger) Syncer {
	return &syncer{
		col:           col,
		server:        server,
		clock:         clock,
		clientVersion: clientVersion,
		progress:      progress,
		validator:     validators.NewRemoteDataValidator(),
		logger:        log,
	}
}

// Sync implements [Syncer].
func (s *syncer) Sync(ctx context.Context, cancel *CancelToken) (Outcome, error) {
	s.progress.Report(models.Progress{Token: models.StatusPrepare})

	remote, err := s.server.Meta(ctx, models.MetaRequest{Version: models.SyncVersion, ClientVersion: s.clientVersion})
	if err != nil {
		if errors.Is(err, adapter.ErrBadAuth) {
			return outcome(models.BadAuth), nil
		}
		return Outcome{}, fmt.Errorf("meta: %w", err)
	}
	if !remote.Cont {
		s.logger.Warn().Str("func", "syncer.Sync").Str("msg", remote.Msg).Msg("server refused to sync")
		return Outcome{Result: models.ServerAbort, Detail: remote.Msg}, nil
	}

	local, err := s.col.Meta(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("local meta: %w", err)
	}

	done := func(result models.ConnectionResultType) (Outcome, error) {
		return Outcome{Result: result, Detail: remote.Msg, MediaUsn: remote.MediaUsn}, nil
	}

	if skew := remote.TS - s.clock.Now().Unix(); skew > MaxClockSkew || skew < -MaxClockSkew {
		s.logger.Warn().Str("func", "syncer.Sync").Int64("skew", skew).Msg("clock off")
		return done(models.ClockOff)
	}
	if local.Mod == remote.Mod {
		s.logger.Info().Str("func", "syncer.Sync").Msg("no changes")
		return done(models.NoChanges)
	}
	if local.Scm != remote.Scm {
		s.logger.Info().Str("func", "syncer.Sync").Int64("local_scm", local.Scm).Int64("remote_scm", remote.Scm).Msg("schema differs, full sync required")
		return done(models.FullSyncRequired)
	}

	sess := &models.SyncSession{
		MinUsn:       local.Usn,
		MaxUsn:       remote.Usn,
		LocalIsNewer: local.Mod > remote.Mod,
		SyncMessage:  remote.Msg,
		MediaUsn:     remote.MediaUsn,
	}
	s.logger.Info().Str("func", "syncer.Sync").
		Int("min_usn", sess.MinUsn).Int("max_usn", sess.MaxUsn).Bool("local_newer", sess.LocalIsNewer).
		Msg("starting incremental sync")

	result, err := s.syncInTransaction(ctx, sess, cancel)
	if err != nil {
		s.abort(ctx)
		if errors.Is(err, ErrSchemaChanged) {
			if markErr := s.col.MarkSchemaChanged(ctx); markErr != nil {
				return Outcome{}, errors.Join(err, markErr)
			}
			s.logger.Warn().Str("func", "syncer.Sync").Err(err).Msg("falling back to full sync")
			return done(models.FullSyncRequired)
		}
		s.logger.Err(err).Str("func", "syncer.Sync").Msg("sync failed")
		return Outcome{}, err
	}

	switch result.Result {
	case models.Success:
	case models.SanityCheckError:
		s.abort(ctx)
		if err = s.col.MarkSchemaChanged(ctx); err != nil {
			return Outcome{}, fmt.Errorf("mark schema changed after sanity failure: %w", err)
		}
	default:
		s.abort(ctx)
	}

	if result.Detail == "" {
		result.Detail = sess.SyncMessage
	}
	result.MediaUsn = sess.MediaUsn
	return result, nil
}

// syncInTransaction runs the phases after meta inside one transaction. It
// commits only on success; every other exit rolls back before returning so
// that the caller may use the collection again.
func (s *syncer) syncInTransaction(ctx context.Context, sess *models.SyncSession, cancel *CancelToken) (out Outcome, err error) {
	tx, err := s.col.BeginSync(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("begin sync transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Err(rbErr).Str("func", "syncer.syncInTransaction").Msg("rollback failed")
		}
	}()

	phases := []struct {
		token string
		run   func(ctx context.Context, tx store.SyncTransaction, sess *models.SyncSession, cancel *CancelToken) (Outcome, error)
	}{
		{models.StatusPrepare, s.basicCheck},
		{models.StatusDeletions, s.deletions},
		{models.StatusSmallObjects, s.smallObjects},
		{models.StatusDownloadChunk, s.downloadChunks},
		{models.StatusUploadChunk, s.uploadChunks},
		{models.StatusSanity, s.sanity},
		{models.StatusFinish, s.finish},
	}

	for _, phase := range phases {
		if cancel.Cancelled() {
			s.logger.Info().Str("func", "syncer.syncInTransaction").Str("phase", phase.token).Msg("sync cancelled")
			return outcome(models.UserAborted), nil
		}

		s.progress.Report(models.Progress{Token: phase.token})
		out, err = phase.run(ctx, tx, sess, cancel)
		if err != nil {
			return Outcome{}, err
		}
		if out.Result != models.Success {
			return out, nil
		}
	}

	if err = tx.Commit(); err != nil {
		return Outcome{}, fmt.Errorf("commit sync: %w", err)
	}
	committed = true

	s.logger.Info().Str("func", "syncer.syncInTransaction").Msg("sync completed")
	return outcome(models.Success), nil
}

func (s *syncer) basicCheck(ctx context.Context, tx store.SyncTransaction, _ *models.SyncSession, _ *CancelToken) (Outcome, error) {
	problem, err := tx.BasicCheck(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("basic check: %w", err)
	}
	if problem != "" {
		s.logger.Warn().Str("func", "syncer.basicCheck").Str("problem", problem).Msg("basic check failed")
		return Outcome{Result: models.BasicCheckFailed, Detail: problem}, nil
	}
	return outcome(models.Success), nil
}

func (s *syncer) deletions(ctx context.Context, tx store.SyncTransaction, sess *models.SyncSession, _ *CancelToken) (Outcome, error) {
	local, err := tx.Graves(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("local graves: %w", err)
	}

	remote, err := s.server.Start(ctx, models.StartRequest{MinUsn: sess.MinUsn, LNewer: sess.LocalIsNewer, Graves: local})
	if err != nil {
		return Outcome{}, fmt.Errorf("start: %w", err)
	}
	if err = s.validator.Validate(ctx, remote); err != nil {
		return Outcome{}, fmt.Errorf("start: %w", err)
	}

	if err = tx.ApplyGraves(ctx, remote); err != nil {
		return Outcome{}, fmt.Errorf("apply remote graves: %w", err)
	}
	if err = tx.StampGraves(ctx, sess.MaxUsn); err != nil {
		return Outcome{}, fmt.Errorf("stamp graves: %w", err)
	}
	purged, err := tx.PurgeGraves(ctx, sess.MinUsn)
	if err != nil {
		return Outcome{}, fmt.Errorf("purge graves: %w", err)
	}

	s.logger.Info().Str("func", "syncer.deletions").
		Int("sent", local.Len()).Int("received", remote.Len()).Int64("purged", purged).
		Msg("graves exchanged")
	return outcome(models.Success), nil
}

func (s *syncer) smallObjects(ctx context.Context, tx store.SyncTransaction, sess *models.SyncSession, _ *CancelToken) (Outcome, error) {
	local, err := localChanges(ctx, tx, sess)
	if err != nil {
		return Outcome{}, err
	}

	remote, err := s.server.ApplyChanges(ctx, local)
	if err != nil {
		return Outcome{}, fmt.Errorf("apply changes: %w", err)
	}
	if err = s.validator.Validate(ctx, remote); err != nil {
		return Outcome{}, fmt.Errorf("apply changes: %w", err)
	}

	stats, err := mergeChanges(ctx, tx, remote, sess)
	if err != nil {
		return Outcome{}, err
	}

	s.logger.Info().Str("func", "syncer.smallObjects").
		Int("models", stats.Models).Int("decks", stats.Decks).Int("deck_configs", stats.DeckConfigs).Int("tags", stats.Tags).
		Msg("small objects merged")
	return outcome(models.Success), nil
}

func (s *syncer) downloadChunks(ctx context.Context, tx store.SyncTransaction, _ *models.SyncSession, cancel *CancelToken) (Outcome, error) {
	rounds := 0
	for {
		if cancel.Cancelled() {
			return outcome(models.UserAborted), nil
		}

		chunk, err := s.server.Chunk(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("chunk: %w", err)
		}
		if err = s.validator.Validate(ctx, chunk); err != nil {
			return Outcome{}, fmt.Errorf("chunk: %w", err)
		}
		if err = applyChunk(ctx, tx, chunk); err != nil {
			return Outcome{}, err
		}
		rounds++

		s.logger.Debug().Str("func", "syncer.downloadChunks").Int("rows", chunk.Len()).Bool("done", chunk.Done).Msg("chunk applied")
		if chunk.Done {
			break
		}
	}

	s.logger.Info().Str("func", "syncer.downloadChunks").Int("rounds", rounds).Msg("server chunks applied")
	return outcome(models.Success), nil
}

func (s *syncer) uploadChunks(ctx context.Context, tx store.SyncTransaction, sess *models.SyncSession, cancel *CancelToken) (Outcome, error) {
	c := newChunker(tx, sess.MaxUsn)
	rounds := 0
	for {
		if cancel.Cancelled() {
			return outcome(models.UserAborted), nil
		}

		chunk, err := c.next(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if err = s.server.ApplyChunk(ctx, chunk); err != nil {
			return Outcome{}, fmt.Errorf("apply chunk: %w", err)
		}
		rounds++

		s.logger.Debug().Str("func", "syncer.uploadChunks").Int("rows", chunk.Len()).Bool("done", chunk.Done).Msg("chunk sent")
		if chunk.Done {
			break
		}
	}

	s.logger.Info().Str("func", "syncer.uploadChunks").Int("rounds", rounds).Msg("local chunks sent")
	return outcome(models.Success), nil
}

func (s *syncer) sanity(ctx context.Context, tx store.SyncTransaction, _ *models.SyncSession, _ *CancelToken) (Outcome, error) {
	problem, err := tx.LocalSanityProblem(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("local sanity: %w", err)
	}
	if problem != "" {
		s.logger.Warn().Str("func", "syncer.sanity").Str("problem", problem).Msg("local sanity check failed")
		return Outcome{Result: models.SanityCheckError, Detail: problem}, nil
	}

	check, err := tx.SanityCheck(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("sanity summary: %w", err)
	}

	resp, err := s.server.SanityCheck2(ctx, check)
	if err != nil {
		return Outcome{}, fmt.Errorf("sanity check: %w", err)
	}
	if !resp.OK() {
		s.logger.Warn().Str("func", "syncer.sanity").
			Str("status", resp.Status).RawJSON("client", nonEmptyJSON(resp.Client)).RawJSON("server", nonEmptyJSON(resp.Server)).
			Msg("server sanity check failed")
		return outcome(models.SanityCheckError), nil
	}
	return outcome(models.Success), nil
}

func (s *syncer) finish(ctx context.Context, tx store.SyncTransaction, sess *models.SyncSession, _ *CancelToken) (Outcome, error) {
	mod, err := s.server.Finish(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("finish: %w", err)
	}
	if mod == 0 {
		return outcome(models.FinishError), nil
	}

	if err = tx.FinishSync(ctx, mod, sess.MaxUsn+1); err != nil {
		return Outcome{}, fmt.Errorf("record finish: %w", err)
	}
	return outcome(models.Success), nil
}

// abort asks the server to discard the session. Its failure is logged and
// otherwise ignored.
func (s *syncer) abort(ctx context.Context) {
	if err := s.server.Abort(ctx); err != nil {
		s.logger.Warn().Str("func", "syncer.abort").Err(err).Msg("abort failed")
	}
}

func nonEmptyJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
