// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MKhiriev/flashsync/internal/logger"
)

// DefaultShutdownTimeout bounds graceful shutdown in Stop.
const DefaultShutdownTimeout = 5 * time.Second

// HTTPServer serves a handler on a TCP address.
type HTTPServer struct {
	address string
	server  *http.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}

	logger *logger.Logger
}

// NewHTTPServer creates a server for handler on address. Nothing is bound
// until Start.
func NewHTTPServer(handler http.Handler, address string, logger *logger.Logger) *HTTPServer {
	logger.Info().Str("address", address).Msg("creating control server...")
	return &HTTPServer{
		address: address,
		server: &http.Server{
			Addr:              address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the listener and serves in the background. Bind errors are
// returned directly.
func (s *HTTPServer) Start(ctx context.Context) error {
	if s.address == "" {
		return ErrNoAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return ErrAlreadyStarted
	}

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.address, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	s.logger.Info().Str("address", ln.Addr().String()).Msg("Launching HTTP server")
	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Err(err).Str("func", "*HTTPServer.Start").Msg("HTTP server stopped")
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to DefaultShutdownTimeout for
// requests in flight.
func (s *HTTPServer) Stop() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Err(err).Str("func", "*HTTPServer.Stop").Msg("HTTP server shutdown")
	}
	<-done
	s.logger.Info().Msg("server Shutdown gracefully")
}
