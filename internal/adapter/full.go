// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/flashsync/internal/logger"
)

type httpFullSyncServer struct {
	transport *Transport
	baseURL   string

	hostKey     string
	sessionKey  string
	compression int

	logger *logger.Logger
}

// Download implements [FullSyncServer]. It posts "download" and streams the
// reply into dest.
func (s *httpFullSyncServer) Download(ctx context.Context, dest string) error {
	rc, err := s.transport.Request(ctx, s.baseURL+"download", s.fields(), nil, 0)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}

	if err = s.transport.WriteToFile(rc, dest); err != nil {
		return fmt.Errorf("download write: %w", err)
	}

	s.logger.Info().Str("func", "httpFullSyncServer.Download").Int64("received", s.transport.Received()).Msg("collection downloaded")
	return nil
}

// Upload implements [FullSyncServer]. It posts the file at src as the
// payload of "upload" and returns the reply body.
func (s *httpFullSyncServer) Upload(ctx context.Context, src string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open collection for upload: %w", err)
	}
	defer f.Close()

	rc, err := s.transport.Request(ctx, s.baseURL+"upload", s.fields(), f, s.compression)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}

	body, err := s.transport.ReadString(rc)
	if err != nil {
		return "", fmt.Errorf("upload response: %w", err)
	}

	s.logger.Info().Str("func", "httpFullSyncServer.Upload").Int64("sent", s.transport.Sent()).Msg("collection uploaded")
	return body, nil
}

func (s *httpFullSyncServer) fields() []Field {
	return []Field{{Name: "k", Value: s.hostKey}, {Name: "s", Value: s.sessionKey}}
}
