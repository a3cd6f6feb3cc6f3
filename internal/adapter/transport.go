// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/utils"
	"github.com/MKhiriev/flashsync/models"
)

// MultipartBoundary is the fixed boundary of every request body.
const MultipartBoundary = "Anki-sync-boundary"

// progressStep is the minimum number of bytes between progress callbacks.
const progressStep = 1024

// maxErrorBody bounds how much of an error reply is kept as the message.
const maxErrorBody = 4096

type contentLengthKey struct{}

// Field is one form field of a request.
type Field struct {
	Name  string
	Value string
}

// Transport posts multipart requests and streams replies. It keeps
// cumulative byte counters for the lifetime of one sync.
type Transport struct {
	client  *utils.HTTPClient
	tempDir string

	sent     atomic.Int64
	received atomic.Int64

	mu           sync.Mutex
	lastReported int64
	progress     models.ProgressFunc

	logger *logger.Logger
}

// NewTransport constructs a Transport over client. Request bodies are staged
// in tempDir, or the OS temp dir when empty.
func NewTransport(client *utils.HTTPClient, tempDir string, log *logger.Logger) *Transport {
	client.SetDoNotParseResponse(true)
	client.SetPreRequestHook(func(_ *resty.Client, r *http.Request) error {
		if n, ok := r.Context().Value(contentLengthKey{}).(int64); ok {
			r.ContentLength = n
		}
		return nil
	})

	return &Transport{client: client, tempDir: tempDir, logger: log}
}

// SetProgress installs the byte-count callback and resets the counters.
func (t *Transport) SetProgress(f models.ProgressFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress = f
	t.lastReported = 0
	t.sent.Store(0)
	t.received.Store(0)
}

// Sent returns the number of request bytes written so far.
func (t *Transport) Sent() int64 { return t.sent.Load() }

// Received returns the number of reply bytes read so far.
func (t *Transport) Received() int64 { return t.received.Load() }

// Request posts fields and an optional payload to rawURL. The payload is
// gzip-compressed when level is non-zero. The body is staged in a temporary
// file that is removed before Request returns.
//
// On status 200 the reply body is returned as a counted stream that the
// caller must close. 403 yields ErrBadAuth, any other status an *HTTPError.
func (t *Transport) Request(ctx context.Context, rawURL string, fields []Field, payload io.Reader, level int) (io.ReadCloser, error) {
	tmp, err := os.CreateTemp(t.tempDir, "flashsync-req-*")
	if err != nil {
		return nil, fmt.Errorf("create request body file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := writeMultipart(tmp, fields, payload, level)
	if err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}
	if _, err = tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}

	body := &countingReader{r: tmp, add: t.addSent}
	resp, err := t.client.R().
		SetContext(context.WithValue(ctx, contentLengthKey{}, size)).
		SetHeader("Content-Type", "multipart/form-data; boundary="+MultipartBoundary).
		SetBody(io.Reader(body)).
		Post(rawURL)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", redactURL(rawURL), err)
	}

	raw := resp.RawBody()
	if resp.StatusCode() != http.StatusOK {
		defer raw.Close()
		err = classifyStatus(resp.StatusCode(), resp.Status(), raw)
		t.logger.Debug().Err(err).Str("func", "Transport.Request").Str("url", redactURL(rawURL)).Msg("request rejected")
		return nil, err
	}

	return &countingReadCloser{countingReader: countingReader{r: raw, add: t.addReceived}, c: raw}, nil
}

// ReadString drains and closes rc.
func (t *Transport) ReadString(rc io.ReadCloser) (string, error) {
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(b), nil
}

// WriteToFile streams rc into dest and closes rc. A partially written dest
// is removed on any failure.
func (t *Transport) WriteToFile(rc io.ReadCloser, dest string) (err error) {
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", dest, cerr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	if _, err = io.Copy(f, rc); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func writeMultipart(f *os.File, fields []Field, payload io.Reader, level int) (int64, error) {
	w := multipart.NewWriter(f)
	if err := w.SetBoundary(MultipartBoundary); err != nil {
		return 0, err
	}

	compressed := payload != nil && level != 0
	c := "0"
	if compressed {
		c = "1"
	}
	if err := w.WriteField("c", c); err != nil {
		return 0, err
	}
	for _, fld := range fields {
		if err := w.WriteField(fld.Name, fld.Value); err != nil {
			return 0, err
		}
	}

	if payload != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="data"; filename="data"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		if err != nil {
			return 0, err
		}

		if compressed {
			gz, err := gzip.NewWriterLevel(part, level)
			if err != nil {
				return 0, err
			}
			if _, err = io.Copy(gz, payload); err != nil {
				return 0, err
			}
			if err = gz.Close(); err != nil {
				return 0, err
			}
		} else if _, err = io.Copy(part, payload); err != nil {
			return 0, err
		}
	}

	if err := w.Close(); err != nil {
		return 0, err
	}

	return f.Seek(0, io.SeekCurrent)
}

func classifyStatus(code int, status string, body io.Reader) error {
	if code == http.StatusForbidden {
		return ErrBadAuth
	}

	msg := status
	if body != nil {
		b, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
		if s := strings.TrimSpace(string(b)); s != "" {
			msg = s
		}
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return &HTTPError{Status: code, Message: msg}
}

func (t *Transport) addSent(n int64) {
	t.sent.Add(n)
	t.report()
}

func (t *Transport) addReceived(n int64) {
	t.received.Add(n)
	t.report()
}

func (t *Transport) report() {
	sent, received := t.sent.Load(), t.received.Load()

	t.mu.Lock()
	if t.progress == nil || sent+received-t.lastReported < progressStep {
		t.mu.Unlock()
		return
	}
	t.lastReported = sent + received
	f := t.progress
	t.mu.Unlock()

	f.Report(models.Progress{Token: models.StatusBytes, Sent: sent, Received: received})
}

type countingReader struct {
	r   io.Reader
	add func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.add(int64(n))
	}
	return n, err
}

type countingReadCloser struct {
	countingReader
	c io.Closer
}

func (c *countingReadCloser) Close() error {
	return c.c.Close()
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// redactURL drops the query string so credentials never reach the logs.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
