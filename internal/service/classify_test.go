// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/internal/app"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/internal/workers"
	"github.com/MKhiriev/flashsync/models"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   models.ConnectionResultType
		detail string
	}{
		{name: "nil", err: nil, want: models.Success},
		{name: "bad auth", err: fmt.Errorf("meta: %w", adapter.ErrBadAuth), want: models.BadAuth},
		{name: "no host key", err: ErrNoHostKey, want: models.BadAuth},
		{name: "cancelled", err: fmt.Errorf("chunk: %w", context.Canceled), want: models.UserAborted},
		{name: "corrupt media index", err: fmt.Errorf("%w: boom", ErrCorruptMediaDB), want: models.DBError, detail: app.MsgCorruptMediaDB},
		{name: "store failure", err: fmt.Errorf("commit sync: %w", store.ErrCommitingTransaction), want: models.DBError, detail: "commit sync: " + store.ErrCommitingTransaction.Error()},
		{name: "http status", err: fmt.Errorf("start: %w", &adapter.HTTPError{Status: 502, Message: "Bad Gateway"}), want: models.HTTPError, detail: "502 Bad Gateway"},
		{name: "media server", err: &adapter.MediaServerError{Message: "invalid session"}, want: models.GenericError, detail: "invalid session"},
		{name: "deadline", err: fmt.Errorf("meta: %w", context.DeadlineExceeded), want: models.ConnectionError, detail: "meta: context deadline exceeded"},
		{name: "network", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, want: models.ConnectionError, detail: "dial tcp: refused"},
		{name: "file system", err: &fs.PathError{Op: "open", Path: "/tmp/x", Err: fs.ErrPermission}, want: models.IOError, detail: "open /tmp/x: permission denied"},
		{name: "queue busy", err: workers.ErrQueueBusy, want: models.GenericError, detail: workers.ErrQueueBusy.Error()},
		{name: "anything else", err: errors.New("weird"), want: models.GenericError, detail: "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := classifyError(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.detail, detail)
		})
	}
}

func TestClassifyError_CancelBeatsTransport(t *testing.T) {
	err := &net.OpError{Op: "read", Net: "tcp", Err: context.Canceled}
	got, _ := classifyError(err)
	assert.Equal(t, models.UserAborted, got)
}
