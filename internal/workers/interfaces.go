// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers provides the background machinery of the sync client.
//
// [TaskQueue] is the serialized single-slot executor every sync and login
// runs on, so that at most one task touches the collection at a time. The
// [Workers] aggregate starts and stops long-running helpers such as the
// periodic sync job and the media directory watcher as one unit.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Start must not block: implementations spawn their own goroutines and
// return. Stop blocks until those goroutines have exited and is safe to call
// on a worker that was never started.
//
// Example implementation:
//
//	type MyWorker struct{ cancel context.CancelFunc }
//
//	func (w *MyWorker) Start(ctx context.Context) error {
//	    ctx, w.cancel = context.WithCancel(ctx)
//	    go w.loop(ctx)
//	    return nil
//	}
//
//	func (w *MyWorker) Stop() { w.cancel() }
type Worker interface {
	Start(ctx context.Context) error
	Stop()
}
