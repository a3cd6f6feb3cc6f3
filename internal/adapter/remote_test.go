// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"archive/zip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/flashsync/internal/config"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/utils"
	"github.com/MKhiriev/flashsync/models"
)

// fakeServer records every request it sees and answers from per-command
// handlers.
type fakeServer struct {
	t *testing.T

	mu       sync.Mutex
	requests map[string]capturedRequest
	replies  map[string]func(w http.ResponseWriter, got capturedRequest)
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()

	fs := &fakeServer{
		t:        t,
		requests: map[string]capturedRequest{},
		replies:  map[string]func(http.ResponseWriter, capturedRequest){},
	}

	r := chi.NewRouter()
	r.Post("/sync/{command}", fs.handle)
	r.Post("/msync/{command}", fs.handle)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return fs, srv
}

func (fs *fakeServer) handle(w http.ResponseWriter, r *http.Request) {
	cmd := chi.URLParam(r, "command")
	got := readMultipart(fs.t, r)

	fs.mu.Lock()
	fs.requests[cmd] = got
	reply := fs.replies[cmd]
	fs.mu.Unlock()

	if reply == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	reply(w, got)
}

func (fs *fakeServer) on(cmd string, reply func(w http.ResponseWriter, got capturedRequest)) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.replies[cmd] = reply
}

func (fs *fakeServer) onJSON(cmd, body string) {
	fs.on(cmd, func(w http.ResponseWriter, _ capturedRequest) {
		_, _ = w.Write([]byte(body))
	})
}

func (fs *fakeServer) request(cmd string) capturedRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.requests[cmd]
}

func newTestRemotes(t *testing.T, url string) *Remotes {
	t.Helper()
	tr := NewTransport(utils.NewHTTPClient(0), t.TempDir(), logger.Nop())
	r, err := NewRemotes(config.Adapter{SyncURL: url, CompressionLevel: 6}, tr, "flashsync,1.0,linux", logger.Nop())
	require.NoError(t, err)
	return r
}

// ── NewRemotes ───────────────────────────────────────────────────────────────

func TestNewRemotes(t *testing.T) {
	tr := NewTransport(utils.NewHTTPClient(0), t.TempDir(), logger.Nop())

	r, err := NewRemotes(config.Adapter{SyncURL: "https://sync.example.com/"}, tr, "cv", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://sync.example.com/sync/", r.syncURL)
	assert.Equal(t, "https://sync.example.com/msync/", r.mediaURL)
	assert.Same(t, tr, r.Transport())
	assert.Equal(t, "cv", r.ClientVersion())

	r, err = NewRemotes(config.Adapter{SyncURL: "https://a", MediaURL: "https://m/media"}, tr, "cv", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://m/media/", r.mediaURL)

	_, err = NewRemotes(config.Adapter{}, tr, "cv", logger.Nop())
	assert.Error(t, err)
}

// ── SyncServer ───────────────────────────────────────────────────────────────

func TestSyncServer_HostKey(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("hostKey", `{"key":"hk-123"}`)

	key, err := newTestRemotes(t, srv.URL).SyncServer("", "").
		HostKey(context.Background(), models.Credentials{Username: "user@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "hk-123", key)

	got := fs.request("hostKey")
	assert.Equal(t, map[string]string{"c": "1"}, got.Fields, "hostKey carries no session fields")
	assert.JSONEq(t, `{"u":"user@example.com","p":"secret"}`, string(got.Data))
}

func TestSyncServer_HostKey_EmptyKeyIsBadAuth(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("hostKey", `{"key":""}`)

	_, err := newTestRemotes(t, srv.URL).SyncServer("", "").
		HostKey(context.Background(), models.Credentials{Username: "u", Password: "p"})
	assert.ErrorIs(t, err, ErrBadAuth)
}

func TestSyncServer_HostKey_Forbidden(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.on("hostKey", func(w http.ResponseWriter, _ capturedRequest) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := newTestRemotes(t, srv.URL).SyncServer("", "").
		HostKey(context.Background(), models.Credentials{Username: "u", Password: "bad"})
	assert.ErrorIs(t, err, ErrBadAuth)
}

func TestSyncServer_Meta(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("meta", `{"mod":1000,"scm":500,"usn":7,"ts":1700000000,"musn":3,"msg":"","cont":true,"uname":"u"}`)

	meta, err := newTestRemotes(t, srv.URL).SyncServer("hk", "sess").
		Meta(context.Background(), models.MetaRequest{Version: models.SyncVersion, ClientVersion: "cv"})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), meta.Mod)
	assert.Equal(t, int64(500), meta.Scm)
	assert.Equal(t, 7, meta.Usn)
	assert.True(t, meta.Cont)

	got := fs.request("meta")
	assert.Equal(t, "hk", got.Fields["k"])
	assert.Equal(t, "sess", got.Fields["s"])
	assert.JSONEq(t, `{"v":10,"cv":"cv"}`, string(got.Data))
}

func TestSyncServer_ChunkAndApplyChunk(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("chunk", `{"done":true,"revlog":[[1,2,3,1,1,0,2500,1000,1]]}`)
	fs.onJSON("applyChunk", `null`)

	s := newTestRemotes(t, srv.URL).SyncServer("hk", "sess")

	chunk, err := s.Chunk(context.Background())
	require.NoError(t, err)
	assert.True(t, chunk.Done)
	require.Len(t, chunk.Revlog, 1)
	assert.Equal(t, int64(1), chunk.Revlog[0].ID())
	assert.Nil(t, chunk.Cards)
	assert.JSONEq(t, `{}`, string(fs.request("chunk").Data))

	out := models.Chunk{Done: true}
	out.SetRows(models.TableNotes.Name, nil)
	require.NoError(t, s.ApplyChunk(context.Background(), out))
	assert.JSONEq(t, `{"chunk":{"done":true,"notes":[]}}`, string(fs.request("applyChunk").Data))
}

func TestSyncServer_Finish(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("finish", `1700000000123`)

	mod, err := newTestRemotes(t, srv.URL).SyncServer("hk", "sess").Finish(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), mod)
}

func TestSyncServer_MalformedReply(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("start", `<html>`)

	_, err := newTestRemotes(t, srv.URL).SyncServer("hk", "sess").
		Start(context.Background(), models.StartRequest{MinUsn: 1})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestSyncServer_SanityCheck2(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("sanityCheck2", `{"status":"bad","c":[[0,0,0],1,1,0,0,1,1,1],"s":[[0,0,0],2,1,0,0,1,1,1]}`)

	resp, err := newTestRemotes(t, srv.URL).SyncServer("hk", "sess").
		SanityCheck2(context.Background(), models.SanityCheck{Cards: 1, Notes: 1, Models: 1, Decks: 1, DeckConfigs: 1})
	require.NoError(t, err)
	assert.False(t, resp.OK())

	var sent map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(fs.request("sanityCheck2").Data, &sent))
	assert.JSONEq(t, `[[0,0,0],1,1,0,0,1,1,1]`, string(sent["client"]))
}

// ── FullSyncServer ───────────────────────────────────────────────────────────

func TestFullSyncServer_Download(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("download", "SQLite format 3\x00rest-of-file")

	dest := filepath.Join(t.TempDir(), "collection.anki2.tmp")
	err := newTestRemotes(t, srv.URL).FullSyncServer("hk", "sess").Download(context.Background(), dest)
	require.NoError(t, err)

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3\x00rest-of-file", string(b))

	got := fs.request("download")
	assert.Equal(t, "0", got.Fields["c"])
	assert.Nil(t, got.Data)
}

func TestFullSyncServer_Upload(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("upload", "OK")

	src := filepath.Join(t.TempDir(), "collection.anki2")
	require.NoError(t, os.WriteFile(src, []byte("collection-bytes"), 0o600))

	body, err := newTestRemotes(t, srv.URL).FullSyncServer("hk", "sess").Upload(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "OK", body)

	got := fs.request("upload")
	assert.Equal(t, "1", got.Fields["c"])
	assert.Equal(t, "collection-bytes", string(got.Data))
}

func TestFullSyncServer_Upload_MissingFile(t *testing.T) {
	_, srv := newFakeServer(t)

	_, err := newTestRemotes(t, srv.URL).FullSyncServer("hk", "sess").
		Upload(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ── MediaServer ──────────────────────────────────────────────────────────────

func TestMediaServer_BeginStoresSessionKey(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("begin", `{"data":{"sk":"media-sk","usn":12},"err":""}`)
	fs.onJSON("mediaChanges", `{"data":[["a.jpg",13,"abc"],["b.jpg",14,null]],"err":""}`)

	m := newTestRemotes(t, srv.URL).MediaServer("hk", t.TempDir())

	begin, err := m.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "media-sk", begin.SessionKey)
	assert.Equal(t, 12, begin.Usn)
	assert.Equal(t, "hk", fs.request("begin").Fields["k"])
	assert.Equal(t, "flashsync,1.0,linux", fs.request("begin").Fields["v"])

	changes, err := m.MediaChanges(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.False(t, changes[0].Deleted())
	assert.True(t, changes[1].Deleted())

	got := fs.request("mediaChanges")
	assert.Equal(t, "media-sk", got.Fields["sk"])
	assert.NotContains(t, got.Fields, "k")
	assert.JSONEq(t, `{"lastUsn":10}`, string(got.Data))
}

func TestMediaServer_ErrorEnvelope(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("begin", `{"data":null,"err":"invalid key"}`)

	_, err := newTestRemotes(t, srv.URL).MediaServer("hk", t.TempDir()).Begin(context.Background())

	var mediaErr *MediaServerError
	require.ErrorAs(t, err, &mediaErr)
	assert.Equal(t, "invalid key", mediaErr.Message)
}

func TestMediaServer_MissingData(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("mediaSanity", `{"err":""}`)

	_, err := newTestRemotes(t, srv.URL).MediaServer("hk", t.TempDir()).MediaSanity(context.Background(), 3)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestMediaServer_DownloadFiles(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.on("downloadFiles", func(w http.ResponseWriter, _ capturedRequest) {
		zw := zip.NewWriter(w)
		f, _ := zw.Create("0")
		_, _ = f.Write([]byte("image-bytes"))
		f, _ = zw.Create("_meta")
		_, _ = f.Write([]byte(`{"0":"a.jpg"}`))
		_ = zw.Close()
	})

	tmpDir := t.TempDir()
	batch, err := newTestRemotes(t, srv.URL).MediaServer("hk", tmpDir).
		DownloadFiles(context.Background(), []string{"a.jpg"})
	require.NoError(t, err)
	require.Len(t, batch.File, 2)
	assert.Equal(t, 1, dirEntries(t, tmpDir))
	assert.JSONEq(t, `{"files":["a.jpg"]}`, string(fs.request("downloadFiles").Data))

	require.NoError(t, batch.Close())
	assert.Zero(t, dirEntries(t, tmpDir), "zip must be removed on close")
}

func TestMediaServer_UploadChanges(t *testing.T) {
	fs, srv := newFakeServer(t)
	fs.onJSON("uploadChanges", `{"data":[2,20],"err":""}`)

	zipPath := filepath.Join(t.TempDir(), "upload.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("PK\x03\x04"), 0o600))

	res, err := newTestRemotes(t, srv.URL).MediaServer("hk", t.TempDir()).
		UploadChanges(context.Background(), zipPath)
	require.NoError(t, err)
	assert.Equal(t, models.MediaUploadResult{Processed: 2, LastUsn: 20}, res)

	got := fs.request("uploadChanges")
	assert.Equal(t, "0", got.Fields["c"], "zip payload is never recompressed")
	assert.Equal(t, "PK\x03\x04", string(got.Data))
}

func TestOpenZipBatch_InvalidRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := OpenZipBatch(path)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
