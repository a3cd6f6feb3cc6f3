// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/MKhiriev/flashsync/internal/config"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

// Remotes builds the per-session protocol clients over a shared Transport.
type Remotes struct {
	transport *Transport

	syncURL       string
	mediaURL      string
	compression   int
	clientVersion string

	logger *logger.Logger
}

// NewRemotes normalises the configured endpoints and returns a factory for
// protocol clients. clientVersion is sent as "cv" and media "v".
//
// Returns an error if the sync or media URL cannot be parsed.
func NewRemotes(cfg config.Adapter, transport *Transport, clientVersion string, log *logger.Logger) (*Remotes, error) {
	syncURL, err := normalizeBaseURL(cfg.SyncURL)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter sync url: %w", err)
	}

	mediaRaw := cfg.MediaURL
	if mediaRaw == "" {
		mediaRaw = syncURL + "/msync"
	}
	mediaURL, err := normalizeBaseURL(mediaRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter media url: %w", err)
	}

	return &Remotes{
		transport:     transport,
		syncURL:       syncURL + "/sync/",
		mediaURL:      mediaURL + "/",
		compression:   cfg.CompressionLevel,
		clientVersion: clientVersion,
		logger:        log,
	}, nil
}

// Transport returns the shared transport.
func (r *Remotes) Transport() *Transport { return r.transport }

// ClientVersion returns the version string sent to the servers.
func (r *Remotes) ClientVersion() string { return r.clientVersion }

// SyncServer returns a command client authenticated with hostKey and bound
// to sessionKey.
func (r *Remotes) SyncServer(hostKey, sessionKey string) SyncServer {
	return &httpSyncServer{
		transport:   r.transport,
		baseURL:     r.syncURL,
		hostKey:     hostKey,
		sessionKey:  sessionKey,
		compression: r.compression,
		logger:      r.logger,
	}
}

// FullSyncServer returns a whole-collection transfer client.
func (r *Remotes) FullSyncServer(hostKey, sessionKey string) FullSyncServer {
	return &httpFullSyncServer{
		transport:   r.transport,
		baseURL:     r.syncURL,
		hostKey:     hostKey,
		sessionKey:  sessionKey,
		compression: r.compression,
		logger:      r.logger,
	}
}

// MediaServer returns a media protocol client. Zip batches are staged in
// tempDir.
func (r *Remotes) MediaServer(hostKey, tempDir string) MediaServer {
	return &httpMediaServer{
		transport:     r.transport,
		baseURL:       r.mediaURL,
		hostKey:       hostKey,
		clientVersion: r.clientVersion,
		compression:   r.compression,
		tempDir:       tempDir,
		logger:        r.logger,
	}
}

type httpSyncServer struct {
	transport *Transport
	baseURL   string

	hostKey     string
	sessionKey  string
	compression int

	logger *logger.Logger
}

// HostKey implements [SyncServer]. It posts {u, p} to "hostKey" without
// session fields and returns the key. An empty key maps to ErrBadAuth.
func (s *httpSyncServer) HostKey(ctx context.Context, creds models.Credentials) (string, error) {
	var resp models.HostKeyResponse
	req := models.HostKeyRequest{Username: creds.Username, Password: creds.Password}
	if err := s.run(ctx, "hostKey", nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", ErrBadAuth
	}
	return resp.Key, nil
}

// Meta implements [SyncServer].
func (s *httpSyncServer) Meta(ctx context.Context, req models.MetaRequest) (models.Meta, error) {
	var meta models.Meta
	if err := s.run(ctx, "meta", s.sessionFields(), req, &meta); err != nil {
		return models.Meta{}, err
	}
	return meta, nil
}

// Start implements [SyncServer].
func (s *httpSyncServer) Start(ctx context.Context, req models.StartRequest) (models.Graves, error) {
	var graves models.Graves
	if err := s.run(ctx, "start", s.sessionFields(), req, &graves); err != nil {
		return models.Graves{}, err
	}
	return graves, nil
}

// ApplyChanges implements [SyncServer].
func (s *httpSyncServer) ApplyChanges(ctx context.Context, changes models.ChangeSet) (models.ChangeSet, error) {
	var remote models.ChangeSet
	req := models.ApplyChangesRequest{Changes: changes}
	if err := s.run(ctx, "applyChanges", s.sessionFields(), req, &remote); err != nil {
		return models.ChangeSet{}, err
	}
	return remote, nil
}

// Chunk implements [SyncServer].
func (s *httpSyncServer) Chunk(ctx context.Context) (models.Chunk, error) {
	var chunk models.Chunk
	if err := s.run(ctx, "chunk", s.sessionFields(), struct{}{}, &chunk); err != nil {
		return models.Chunk{}, err
	}
	return chunk, nil
}

// ApplyChunk implements [SyncServer].
func (s *httpSyncServer) ApplyChunk(ctx context.Context, chunk models.Chunk) error {
	return s.run(ctx, "applyChunk", s.sessionFields(), models.ApplyChunkRequest{Chunk: chunk}, nil)
}

// SanityCheck2 implements [SyncServer].
func (s *httpSyncServer) SanityCheck2(ctx context.Context, check models.SanityCheck) (models.SanityCheckResponse, error) {
	var resp models.SanityCheckResponse
	if err := s.run(ctx, "sanityCheck2", s.sessionFields(), models.SanityCheckRequest{Client: check}, &resp); err != nil {
		return models.SanityCheckResponse{}, err
	}
	return resp, nil
}

// Finish implements [SyncServer].
func (s *httpSyncServer) Finish(ctx context.Context) (int64, error) {
	var mod int64
	if err := s.run(ctx, "finish", s.sessionFields(), struct{}{}, &mod); err != nil {
		return 0, err
	}
	return mod, nil
}

// Abort implements [SyncServer].
func (s *httpSyncServer) Abort(ctx context.Context) error {
	return s.run(ctx, "abort", s.sessionFields(), struct{}{}, nil)
}

func (s *httpSyncServer) sessionFields() []Field {
	return []Field{{Name: "k", Value: s.hostKey}, {Name: "s", Value: s.sessionKey}}
}

func (s *httpSyncServer) run(ctx context.Context, cmd string, fields []Field, req, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", cmd, err)
	}

	s.logger.Debug().Str("func", "httpSyncServer.run").Str("cmd", cmd).Int("bytes", len(payload)).Msg("sync request")

	rc, err := s.transport.Request(ctx, s.baseURL+cmd, fields, bytes.NewReader(payload), s.compression)
	if err != nil {
		return fmt.Errorf("%s request: %w", cmd, err)
	}
	defer rc.Close()

	if out == nil {
		_, err = io.Copy(io.Discard, rc)
		if err != nil {
			return fmt.Errorf("%s response: %w", cmd, err)
		}
		return nil
	}

	if err = json.NewDecoder(rc).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, cmd, err)
	}
	return nil
}
