// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/workers"
	"github.com/MKhiriev/flashsync/models"
)

// spySynchronizer counts Sync calls and answers with a fixed result.
type spySynchronizer struct {
	calls  atomic.Int64
	result models.ConnectionResultType
	last   atomic.Value
}

func (s *spySynchronizer) Sync(_ context.Context, req models.SyncRequest) <-chan models.Payload {
	s.calls.Add(1)
	s.last.Store(req)
	ch := make(chan models.Payload, 1)
	ch <- models.Payload{Result: s.result}
	return ch
}

func TestNewSyncJob_IsWorker(t *testing.T) {
	job := NewSyncJob(&spySynchronizer{}, models.SyncRequest{}, time.Second, nil, logger.Nop())
	require.NotNil(t, job)

	var _ workers.Worker = job
}

func TestNewSyncJob_DefaultInterval(t *testing.T) {
	job := NewSyncJob(&spySynchronizer{}, models.SyncRequest{}, 0, nil, logger.Nop())
	assert.Equal(t, DefaultSyncInterval, job.interval)
}

func TestSyncJob_Start_CallsSync(t *testing.T) {
	spy := &spySynchronizer{}
	var results atomic.Int64
	req := models.SyncRequest{HostKey: "hk", IncludeMedia: true}
	job := NewSyncJob(spy, req, 10*time.Millisecond, func(models.Payload) { results.Add(1) }, logger.Nop())

	require.NoError(t, job.Start(context.Background()))
	require.Eventually(t, func() bool { return spy.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()

	assert.Equal(t, req, spy.last.Load())
	assert.Equal(t, spy.calls.Load(), results.Load())
}

func TestSyncJob_Stop_StopsGoroutine(t *testing.T) {
	spy := &spySynchronizer{}
	job := NewSyncJob(spy, models.SyncRequest{}, 10*time.Millisecond, nil, logger.Nop())

	require.NoError(t, job.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	job.Stop()

	callsAfterStop := spy.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, callsAfterStop, spy.calls.Load(), "no calls after Stop")
}

func TestSyncJob_Stop_BeforeStart_NoPanic(t *testing.T) {
	job := NewSyncJob(&spySynchronizer{}, models.SyncRequest{}, time.Second, nil, logger.Nop())
	assert.NotPanics(t, job.Stop)
}

func TestSyncJob_ContextCancelStopsJob(t *testing.T) {
	spy := &spySynchronizer{}
	job := NewSyncJob(spy, models.SyncRequest{}, 10*time.Millisecond, nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, job.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}

func TestSyncJob_Restart(t *testing.T) {
	spy := &spySynchronizer{}
	job := NewSyncJob(spy, models.SyncRequest{}, 10*time.Millisecond, nil, logger.Nop())

	require.NoError(t, job.Start(context.Background()))
	require.NoError(t, job.Start(context.Background()))
	require.Eventually(t, func() bool { return spy.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	job.Stop()
}
