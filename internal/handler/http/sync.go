// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

// syncBody is the optional body of POST /api/sync.
type syncBody struct {
	Media      *bool  `json:"media,omitempty"`
	Resolution string `json:"resolution,omitempty"`
}

type statusResponse struct {
	Running string       `json:"running"`
	Last    *payloadView `json:"last"`
}

func (h *Handler) startSync(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	req, err := h.syncRequest(r.Body)
	if err != nil {
		log.Err(err).Str("func", "*Handler.startSync").Msg("invalid sync request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The sync outlives the HTTP request; cancellation goes through
	// POST /api/cancel.
	ctx := context.WithoutCancel(r.Context())

	// Sync may wait for the task slot, so it is not called on the request
	// goroutine when the caller does not wait.
	if r.URL.Query().Get("wait") == "false" {
		go func() { h.Record(<-h.syncer.Sync(ctx, req)) }()
		w.WriteHeader(http.StatusAccepted)
		return
	}

	p := <-h.syncer.Sync(ctx, req)
	h.Record(p)
	log.Info().Str("func", "*Handler.startSync").Stringer("result", p.Result).Msg("sync finished")

	writeJSON(w, newPayloadView(p), statusFromResult(p.Result))
}

func (h *Handler) cancelSync(w http.ResponseWriter, r *http.Request) {
	h.syncer.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Running: h.syncer.Running()}
	if p, ok := h.Last(); ok {
		resp.Last = newPayloadView(p)
	}
	writeJSON(w, resp, http.StatusOK)
}

func (h *Handler) syncRequest(body io.Reader) (models.SyncRequest, error) {
	req := h.request

	var b syncBody
	if err := json.NewDecoder(body).Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return req, ErrInvalidSyncBody
	}

	if b.Media != nil {
		req.IncludeMedia = *b.Media
	}
	switch res := models.ConflictResolution(b.Resolution); res {
	case models.ResolveNone:
	case models.ResolveUpload, models.ResolveDownload:
		req.Resolution = res
	default:
		return req, ErrUnknownResolution
	}
	return req, nil
}
