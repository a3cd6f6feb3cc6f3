// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MKhiriev/flashsync/internal/logger"
)

// DefaultTaskWaitTimeout bounds how long Submit waits for a running task.
const DefaultTaskWaitTimeout = 30 * time.Second

// ErrQueueBusy is returned by Submit when the running task did not finish
// within the wait timeout.
var ErrQueueBusy = errors.New("another task is still running")

// Task is a unit of work run by a [TaskQueue].
type Task func(ctx context.Context)

// TaskQueue runs at most one task at a time. A new task waits, bounded by
// the queue's timeout, for the running one to finish.
type TaskQueue struct {
	slot        *semaphore.Weighted
	waitTimeout time.Duration

	mu      sync.Mutex
	running string

	logger *logger.Logger
}

// NewTaskQueue constructs an idle queue. A non-positive waitTimeout falls
// back to [DefaultTaskWaitTimeout].
func NewTaskQueue(waitTimeout time.Duration, log *logger.Logger) *TaskQueue {
	if waitTimeout <= 0 {
		waitTimeout = DefaultTaskWaitTimeout
	}
	return &TaskQueue{
		slot:        semaphore.NewWeighted(1),
		waitTimeout: waitTimeout,
		logger:      log,
	}
}

// Submit waits for the slot and runs task on its own goroutine. It returns
// once the task has started; ctx only bounds the wait and is handed to the
// task.
//
// Returns [ErrQueueBusy] when the slot stays taken for the whole wait
// timeout, or ctx's error when ctx ends first.
func (q *TaskQueue) Submit(ctx context.Context, name string, task Task) error {
	waitCtx, cancel := context.WithTimeout(ctx, q.waitTimeout)
	defer cancel()

	if err := q.slot.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("submit %s: %w", name, ctx.Err())
		}
		q.logger.Warn().Str("func", "TaskQueue.Submit").Str("task", name).Str("running", q.Running()).Msg("task queue busy")
		return fmt.Errorf("submit %s: %w", name, ErrQueueBusy)
	}

	q.mu.Lock()
	q.running = name
	q.mu.Unlock()

	go func() {
		defer func() {
			q.mu.Lock()
			q.running = ""
			q.mu.Unlock()
			q.slot.Release(1)
		}()

		start := time.Now()
		task(ctx)
		q.logger.Debug().Str("func", "TaskQueue.Submit").Str("task", name).Dur("took", time.Since(start)).Msg("task finished")
	}()
	return nil
}

// Run submits task and blocks until it has finished.
func (q *TaskQueue) Run(ctx context.Context, name string, task Task) error {
	done := make(chan struct{})
	err := q.Submit(ctx, name, func(ctx context.Context) {
		defer close(done)
		task(ctx)
	})
	if err != nil {
		return err
	}
	<-done
	return nil
}

// Running returns the name of the running task, or "" when idle.
func (q *TaskQueue) Running() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Wait blocks until no task is running or ctx ends.
func (q *TaskQueue) Wait(ctx context.Context) error {
	if err := q.slot.Acquire(ctx, 1); err != nil {
		return err
	}
	q.slot.Release(1)
	return nil
}
