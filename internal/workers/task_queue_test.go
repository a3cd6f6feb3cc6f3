// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/flashsync/internal/logger"
)

func TestTaskQueue_RunsOneAtATime(t *testing.T) {
	q := NewTaskQueue(time.Second, logger.Nop())
	ctx := context.Background()

	var active, maxActive atomic.Int32
	task := func(context.Context) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
	}

	for range 5 {
		require.NoError(t, q.Submit(ctx, "task", task))
	}
	require.NoError(t, q.Wait(ctx))

	assert.Equal(t, int32(1), maxActive.Load())
}

func TestTaskQueue_BusyAfterTimeout(t *testing.T) {
	q := NewTaskQueue(20*time.Millisecond, logger.Nop())
	ctx := context.Background()

	release := make(chan struct{})
	require.NoError(t, q.Submit(ctx, "slow", func(context.Context) { <-release }))
	assert.Equal(t, "slow", q.Running())

	err := q.Submit(ctx, "second", func(context.Context) {})
	assert.ErrorIs(t, err, ErrQueueBusy)

	close(release)
	require.NoError(t, q.Wait(ctx))
	assert.Empty(t, q.Running())
}

func TestTaskQueue_SubmitCancelled(t *testing.T) {
	q := NewTaskQueue(time.Minute, logger.Nop())

	release := make(chan struct{})
	defer close(release)
	require.NoError(t, q.Submit(context.Background(), "slow", func(context.Context) { <-release }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Submit(ctx, "second", func(context.Context) {})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrQueueBusy)
}

func TestTaskQueue_Run_Blocks(t *testing.T) {
	q := NewTaskQueue(time.Second, logger.Nop())

	var ran atomic.Bool
	require.NoError(t, q.Run(context.Background(), "task", func(context.Context) {
		time.Sleep(5 * time.Millisecond)
		ran.Store(true)
	}))
	assert.True(t, ran.Load())
}

func TestTaskQueue_Wait_Timeout(t *testing.T) {
	q := NewTaskQueue(time.Second, logger.Nop())

	release := make(chan struct{})
	defer close(release)
	require.NoError(t, q.Submit(context.Background(), "slow", func(context.Context) { <-release }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Wait(ctx), context.DeadlineExceeded)
}

func TestNewTaskQueue_DefaultTimeout(t *testing.T) {
	q := NewTaskQueue(0, logger.Nop())
	assert.Equal(t, DefaultTaskWaitTimeout, q.waitTimeout)
}
