// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

// DefaultSyncInterval is used when the job is given no interval.
const DefaultSyncInterval = 5 * time.Minute

// SyncJob calls Sync on a ticker. It implements workers.Worker.
type SyncJob struct {
	conn     Synchronizer
	req      models.SyncRequest
	interval time.Duration
	onResult func(models.Payload)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *logger.Logger
}

// NewSyncJob creates a SyncJob that syncs req every interval. If interval
// is zero or negative it defaults to [DefaultSyncInterval]. onResult, if not
// nil, receives every payload. The job is idle until Start is called.
func NewSyncJob(conn Synchronizer, req models.SyncRequest, interval time.Duration, onResult func(models.Payload), log *logger.Logger) *SyncJob {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &SyncJob{conn: conn, req: req, interval: interval, onResult: onResult, logger: log}
}

// Start stops any previously running job, then launches a background
// goroutine that syncs every interval. The goroutine exits when ctx is
// cancelled or Stop is called.
func (j *SyncJob) Start(ctx context.Context) error {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.runOnce(jobCtx)
			}
		}
	}()

	j.logger.Info().Str("func", "SyncJob.Start").Dur("interval", j.interval).Msg("periodic sync started")
	return nil
}

func (j *SyncJob) runOnce(ctx context.Context) {
	p := <-j.conn.Sync(ctx, j.req)
	if p.Result == models.FullSyncRequired {
		j.logger.Warn().Str("func", "SyncJob.runOnce").Msg("full sync required, periodic sync cannot resolve it")
	}
	if j.onResult != nil {
		j.onResult(p)
	}
}

// Stop cancels the background goroutine's context and blocks until the
// goroutine has fully exited. Safe to call when the job is not running.
func (j *SyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
