// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWorker is a test implementation of the Worker interface
// that records start and stop calls into a shared log.
type mockWorker struct {
	id       int
	log      *[]string
	startErr error
	starts   int
	stops    int
}

func (m *mockWorker) Start(context.Context) error {
	m.starts++
	if m.log != nil {
		*m.log = append(*m.log, "start", string(rune('0'+m.id)))
	}
	return m.startErr
}

func (m *mockWorker) Stop() {
	m.stops++
	if m.log != nil {
		*m.log = append(*m.log, "stop", string(rune('0'+m.id)))
	}
}

func TestWorkers_StartStop_Order(t *testing.T) {
	var log []string
	w1 := &mockWorker{id: 1, log: &log}
	w2 := &mockWorker{id: 2, log: &log}
	w3 := &mockWorker{id: 3, log: &log}

	ws := NewWorkers(w1, w2, w3)
	require.NoError(t, ws.Start(context.Background()))
	ws.Stop()

	assert.Equal(t, []string{
		"start", "1", "start", "2", "start", "3",
		"stop", "3", "stop", "2", "stop", "1",
	}, log)
}

func TestWorkers_Start_FailureStopsStarted(t *testing.T) {
	w1 := &mockWorker{id: 1}
	w2 := &mockWorker{id: 2, startErr: errors.New("boom")}
	w3 := &mockWorker{id: 3}

	ws := NewWorkers(w1, w2, w3)
	err := ws.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.Equal(t, 1, w1.stops, "already started worker is stopped")
	assert.Equal(t, 0, w2.stops)
	assert.Equal(t, 0, w3.starts, "later workers are never started")
}

func TestWorkers_SkipsNil(t *testing.T) {
	w := &mockWorker{id: 1}
	ws := NewWorkers(nil, w, nil)

	require.NoError(t, ws.Start(context.Background()))
	ws.Stop()
	assert.Equal(t, 1, w.starts)
	assert.Equal(t, 1, w.stops)
}

func TestWorkers_Empty(t *testing.T) {
	ws := NewWorkers()

	// Should not panic on empty workers list
	assert.NoError(t, ws.Start(context.Background()))
	ws.Stop()
}

func TestWorkers_ZeroValue(t *testing.T) {
	ws := &Workers{}

	// Should not panic when workers field is nil
	assert.NoError(t, ws.Start(context.Background()))
	ws.Stop()
}
