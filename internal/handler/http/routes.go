// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Init builds the control API router.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	router.Get("/api/status", h.getStatus)
	router.Post("/api/sync", h.startSync)
	router.Post("/api/cancel", h.cancelSync)
	router.Get("/api/version", h.getVersion)

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
