// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/utils"
	"github.com/MKhiriev/flashsync/models"
)

// capturedRequest is what a fake server saw in one multipart request.
type capturedRequest struct {
	Path          string
	ContentType   string
	ContentLength int64
	Fields        map[string]string
	Data          []byte
	DataHeader    map[string]string
}

// readMultipart разбирает multipart-тело и распаковывает data-часть при c=1.
func readMultipart(t *testing.T, r *http.Request) capturedRequest {
	t.Helper()

	got := capturedRequest{
		Path:          r.URL.Path,
		ContentType:   r.Header.Get("Content-Type"),
		ContentLength: r.ContentLength,
		Fields:        map[string]string{},
	}

	mr, err := r.MultipartReader()
	require.NoError(t, err)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)

		b, err := io.ReadAll(part)
		require.NoError(t, err)
		if part.FormName() == "data" {
			got.Data = b
			got.DataHeader = map[string]string{
				"Content-Disposition": part.Header.Get("Content-Disposition"),
				"Content-Type":        part.Header.Get("Content-Type"),
			}
			continue
		}
		got.Fields[part.FormName()] = string(b)
	}

	if got.Fields["c"] == "1" && got.Data != nil {
		zr, err := gzip.NewReader(bytes.NewReader(got.Data))
		require.NoError(t, err)
		got.Data, err = io.ReadAll(zr)
		require.NoError(t, err)
	}
	return got
}

func newTestTransport(t *testing.T) (*Transport, string) {
	t.Helper()
	dir := t.TempDir()
	return NewTransport(utils.NewHTTPClient(0), dir, logger.Nop()), dir
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

// ── Request ──────────────────────────────────────────────────────────────────

func TestTransport_Request_CompressedPayload(t *testing.T) {
	var got capturedRequest
	r := chi.NewRouter()
	r.Post("/sync/{command}", func(w http.ResponseWriter, req *http.Request) {
		got = readMultipart(t, req)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	tr, dir := newTestTransport(t)
	rc, err := tr.Request(context.Background(), srv.URL+"/sync/meta",
		[]Field{{Name: "k", Value: "hk"}, {Name: "s", Value: "sess"}},
		strings.NewReader(`{"v":10}`), 6)
	require.NoError(t, err)

	body, err := tr.ReadString(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, body)

	assert.Equal(t, "/sync/meta", got.Path)
	assert.Equal(t, "multipart/form-data; boundary="+MultipartBoundary, got.ContentType)
	assert.Positive(t, got.ContentLength, "body length must be announced")
	assert.Equal(t, map[string]string{"c": "1", "k": "hk", "s": "sess"}, got.Fields)
	assert.Equal(t, `{"v":10}`, string(got.Data))
	assert.Equal(t, `form-data; name="data"; filename="data"`, got.DataHeader["Content-Disposition"])
	assert.Equal(t, "application/octet-stream", got.DataHeader["Content-Type"])

	assert.Zero(t, dirEntries(t, dir), "temporary body file must be removed")
	assert.Equal(t, got.ContentLength, tr.Sent())
	assert.Equal(t, int64(len(body)), tr.Received())
}

func TestTransport_Request_UncompressedWhenLevelZero(t *testing.T) {
	var got capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = readMultipart(t, req)
	}))
	defer srv.Close()

	tr, _ := newTestTransport(t)
	rc, err := tr.Request(context.Background(), srv.URL, nil, strings.NewReader("PK-zip-bytes"), 0)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, "0", got.Fields["c"])
	assert.Equal(t, "PK-zip-bytes", string(got.Data))
}

func TestTransport_Request_NoPayloadNoDataPart(t *testing.T) {
	var got capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = readMultipart(t, req)
	}))
	defer srv.Close()

	tr, _ := newTestTransport(t)
	rc, err := tr.Request(context.Background(), srv.URL, []Field{{Name: "k", Value: "hk"}}, nil, 6)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, "0", got.Fields["c"], "nothing to compress without a payload")
	assert.Nil(t, got.Data)
}

func TestTransport_Request_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "forbidden is bad auth",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrBadAuth)
			},
		},
		{
			name:   "server error carries body",
			status: http.StatusInternalServerError,
			body:   "database locked",
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
				assert.Equal(t, "database locked", httpErr.Message)
			},
		},
		{
			name:   "empty body falls back to status text",
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				require.ErrorAs(t, err, &httpErr)
				assert.Contains(t, httpErr.Message, "503")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tr, dir := newTestTransport(t)
			_, err := tr.Request(context.Background(), srv.URL, nil, strings.NewReader("{}"), 6)
			require.Error(t, err)
			tt.check(t, err)
			assert.Zero(t, dirEntries(t, dir))
		})
	}
}

func TestTransport_Request_ConnectionFailureRemovesTempFile(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr, dir := newTestTransport(t)
	_, err := tr.Request(context.Background(), url, nil, strings.NewReader("{}"), 6)
	require.Error(t, err)
	assert.Zero(t, dirEntries(t, dir))
}

func TestTransport_Progress_ReportsAtKilobyteSteps(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.Copy(io.Discard, req.Body)
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	var (
		mu      sync.Mutex
		reports []models.Progress
	)
	tr, _ := newTestTransport(t)
	tr.SetProgress(func(p models.Progress) {
		mu.Lock()
		reports = append(reports, p)
		mu.Unlock()
	})

	rc, err := tr.Request(context.Background(), srv.URL, nil, bytes.NewReader(payload), 0)
	require.NoError(t, err)
	_, err = tr.ReadString(rc)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, reports)

	var prev int64
	for _, p := range reports {
		total := p.Sent + p.Received
		assert.GreaterOrEqual(t, total-prev, int64(progressStep), "callbacks must be at least 1KiB apart")
		assert.Equal(t, models.StatusBytes, p.Token)
		prev = total
	}
	last := reports[len(reports)-1]
	assert.GreaterOrEqual(t, last.Sent, int64(len(payload)))
	assert.LessOrEqual(t, tr.Received()-last.Received, int64(progressStep))
}

// ── WriteToFile ──────────────────────────────────────────────────────────────

func TestTransport_WriteToFile_Success(t *testing.T) {
	tr, dir := newTestTransport(t)
	dest := filepath.Join(dir, "out.bin")

	require.NoError(t, tr.WriteToFile(io.NopCloser(strings.NewReader("payload")), dest))

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))
}

func TestTransport_WriteToFile_RemovesPartialFile(t *testing.T) {
	tr, dir := newTestTransport(t)
	dest := filepath.Join(dir, "partial.bin")

	src := io.MultiReader(strings.NewReader("half of the"), iotest.ErrReader(errors.New("connection reset")))
	err := tr.WriteToFile(io.NopCloser(src), dest)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "partial file must be removed")
}

// ── helpers ──────────────────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	got, err := normalizeBaseURL(" sync.example.com/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://sync.example.com", got)

	_, err = normalizeBaseURL("")
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://h/sync/meta", redactURL("https://h/sync/meta?k=secret"))
}
