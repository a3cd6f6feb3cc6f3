// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"

	"github.com/MKhiriev/flashsync/internal/app"
)

var (
	// ErrSchemaChanged is raised by the small object merge when a newer
	// model arrives with a different number of fields or templates than the
	// local one. The sync falls back to a full sync.
	ErrSchemaChanged = errors.New("model schema changed, full sync required")

	// ErrCorruptMediaDB is returned when the media index cannot be built.
	// The index is reset so that the next attempt starts from scratch.
	ErrCorruptMediaDB = errors.New(app.MsgCorruptMediaDB)

	// ErrMediaRestartsExhausted is returned when the media sync kept
	// restarting past its ceiling.
	ErrMediaRestartsExhausted = errors.New("media sync restarted too many times")

	// ErrMediaConcurrentUpdate means the server usn moved by more than the
	// files just uploaded.
	ErrMediaConcurrentUpdate = errors.New("media changed on the server during upload")

	// ErrMediaSanity means the local and server file counts differ.
	ErrMediaSanity = errors.New("media sanity check failed")

	// ErrEmptyMediaBatch is returned when the server sends a download batch
	// without any of the requested files.
	ErrEmptyMediaBatch = errors.New("server returned an empty media batch")

	// ErrNoHostKey is returned when a sync is requested without logging in.
	ErrNoHostKey = errors.New("no host key, log in first")

	// ErrMediaDisabled is returned when media sync is requested but no
	// media store is configured.
	ErrMediaDisabled = errors.New("media store is not configured")
)
