// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"sync/atomic"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

// Syncer is the part of the sync coordinator driven by the control API.
type Syncer interface {
	Sync(ctx context.Context, req models.SyncRequest) <-chan models.Payload
	Cancel()
	Running() string
}

// Handler serves the control API over a [Syncer].
type Handler struct {
	syncer  Syncer
	request models.SyncRequest
	version string

	last atomic.Pointer[models.Payload]

	logger *logger.Logger
}

// NewHandler creates a handler. req is the base request of every sync
// triggered through the API; callers may override its media flag and
// conflict resolution per call.
func NewHandler(syncer Syncer, req models.SyncRequest, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		syncer:  syncer,
		request: req,
		version: version,
		logger:  logger,
	}
}

// Record stores p as the latest sync result. It is also used as the result
// callback of the periodic sync job.
func (h *Handler) Record(p models.Payload) {
	h.last.Store(&p)
}

// Last returns the latest recorded result.
func (h *Handler) Last() (models.Payload, bool) {
	p := h.last.Load()
	if p == nil {
		return models.Payload{}, false
	}
	return *p, true
}
