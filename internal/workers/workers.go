// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"fmt"
)

// Workers starts and stops a fixed set of workers together.
type Workers struct {
	workers []Worker
}

// NewWorkers groups ws. Nil entries are skipped.
func NewWorkers(ws ...Worker) *Workers {
	out := &Workers{}
	for _, w := range ws {
		if w != nil {
			out.workers = append(out.workers, w)
		}
	}
	return out
}

// Start starts every worker in order. If one fails, the workers started
// before it are stopped again and the error is returned.
func (w *Workers) Start(ctx context.Context) error {
	for i, worker := range w.workers {
		if err := worker.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				w.workers[j].Stop()
			}
			return fmt.Errorf("start worker %d: %w", i, err)
		}
	}
	return nil
}

// Stop stops every worker in reverse start order.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}
