// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

// ZipBatch is a downloaded media batch. Close removes the backing file.
type ZipBatch struct {
	*zip.ReadCloser
	path string
}

// OpenZipBatch opens the zip at path as a batch that deletes path on Close.
func OpenZipBatch(path string) (*ZipBatch, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("open media zip: %w", err)
	}
	return &ZipBatch{ReadCloser: rc, path: path}, nil
}

// Close closes the archive and removes its file.
func (z *ZipBatch) Close() error {
	err := z.ReadCloser.Close()
	if rerr := os.Remove(z.path); rerr != nil && !os.IsNotExist(rerr) && err == nil {
		err = rerr
	}
	return err
}

type httpMediaServer struct {
	transport *Transport
	baseURL   string

	hostKey       string
	clientVersion string
	sessionKey    string
	compression   int
	tempDir       string

	logger *logger.Logger
}

// Begin implements [MediaServer]. It authenticates with the host key and
// remembers the returned session key for later calls.
func (s *httpMediaServer) Begin(ctx context.Context) (models.MediaBeginResponse, error) {
	fields := []Field{{Name: "k", Value: s.hostKey}, {Name: "v", Value: s.clientVersion}}

	var resp models.MediaBeginResponse
	if err := s.runJSON(ctx, "begin", fields, struct{}{}, s.compression, &resp); err != nil {
		return models.MediaBeginResponse{}, err
	}
	s.sessionKey = resp.SessionKey
	return resp, nil
}

// MediaChanges implements [MediaServer].
func (s *httpMediaServer) MediaChanges(ctx context.Context, lastUsn int) ([]models.MediaChange, error) {
	var changes []models.MediaChange
	req := models.MediaChangesRequest{LastUsn: lastUsn}
	if err := s.runJSON(ctx, "mediaChanges", s.sessionFields(), req, s.compression, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// DownloadFiles implements [MediaServer]. The zip is written to a temporary
// file first.
func (s *httpMediaServer) DownloadFiles(ctx context.Context, names []string) (*ZipBatch, error) {
	payload, err := json.Marshal(models.DownloadFilesRequest{Files: names})
	if err != nil {
		return nil, fmt.Errorf("encode downloadFiles request: %w", err)
	}

	rc, err := s.transport.Request(ctx, s.baseURL+"downloadFiles", s.sessionFields(), bytes.NewReader(payload), s.compression)
	if err != nil {
		return nil, fmt.Errorf("downloadFiles request: %w", err)
	}

	tmp, err := os.CreateTemp(s.tempDir, "flashsync-media-*.zip")
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("create media zip: %w", err)
	}
	path := tmp.Name()
	_ = tmp.Close()

	if err = s.transport.WriteToFile(rc, path); err != nil {
		return nil, fmt.Errorf("downloadFiles write: %w", err)
	}

	return OpenZipBatch(path)
}

// UploadChanges implements [MediaServer]. The zip is sent uncompressed.
func (s *httpMediaServer) UploadChanges(ctx context.Context, zipPath string) (models.MediaUploadResult, error) {
	f, err := os.Open(zipPath)
	if err != nil {
		return models.MediaUploadResult{}, fmt.Errorf("open media zip: %w", err)
	}
	defer f.Close()

	var result models.MediaUploadResult
	if err = s.run(ctx, "uploadChanges", s.sessionFields(), f, 0, &result); err != nil {
		return models.MediaUploadResult{}, err
	}
	return result, nil
}

// MediaSanity implements [MediaServer].
func (s *httpMediaServer) MediaSanity(ctx context.Context, localCount int) (string, error) {
	var status string
	req := models.MediaSanityRequest{Local: localCount}
	if err := s.runJSON(ctx, "mediaSanity", s.sessionFields(), req, s.compression, &status); err != nil {
		return "", err
	}
	return status, nil
}

func (s *httpMediaServer) sessionFields() []Field {
	return []Field{{Name: "sk", Value: s.sessionKey}}
}

func (s *httpMediaServer) runJSON(ctx context.Context, cmd string, fields []Field, req any, level int, out any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", cmd, err)
	}
	return s.run(ctx, cmd, fields, bytes.NewReader(payload), level, out)
}

// run posts a media command and unwraps the {data, err} envelope into out.
func (s *httpMediaServer) run(ctx context.Context, cmd string, fields []Field, payload io.Reader, level int, out any) error {
	s.logger.Debug().Str("func", "httpMediaServer.run").Str("cmd", cmd).Msg("media request")

	rc, err := s.transport.Request(ctx, s.baseURL+cmd, fields, payload, level)
	if err != nil {
		return fmt.Errorf("%s request: %w", cmd, err)
	}
	defer rc.Close()

	var envelope models.MediaResponse
	if err = json.NewDecoder(rc).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedResponse, cmd, err)
	}
	if envelope.Err != "" {
		return &MediaServerError{Message: envelope.Err}
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("%w: %s: missing data", ErrMalformedResponse, cmd)
	}
	if err = json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: %s data: %w", ErrMalformedResponse, cmd, err)
	}
	return nil
}
