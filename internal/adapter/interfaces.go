// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client side of the sync wire protocol.
//
// [Transport] posts multipart bodies with a fixed boundary, optionally
// gzip-compressing the payload part, staging every body in a temporary file
// and counting bytes in both directions. On top of it sit three typed
// clients: [SyncServer] for the incremental collection sync commands,
// [FullSyncServer] for whole-collection transfer and [MediaServer] for the
// media protocol.
//
// HTTP status codes are mapped so that callers can use [errors.Is] and
// [errors.As]: 403 becomes [ErrBadAuth], any other non-200 reply an
// [*HTTPError], and a media reply with a non-empty "err" field a
// [*MediaServerError].
package adapter

import (
	"context"

	"github.com/MKhiriev/flashsync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// SyncServer issues the incremental sync commands of one session.
type SyncServer interface {
	// HostKey exchanges credentials for a host key.
	HostKey(ctx context.Context, creds models.Credentials) (string, error)

	// Meta fetches the server-side collection summary.
	Meta(ctx context.Context, req models.MetaRequest) (models.Meta, error)

	// Start opens the session and exchanges tombstones. The reply holds the
	// server's graves.
	Start(ctx context.Context, req models.StartRequest) (models.Graves, error)

	// ApplyChanges sends the local small objects and returns the server's.
	ApplyChanges(ctx context.Context, changes models.ChangeSet) (models.ChangeSet, error)

	// Chunk fetches the next page of server bulk rows.
	Chunk(ctx context.Context) (models.Chunk, error)

	// ApplyChunk sends one page of local bulk rows.
	ApplyChunk(ctx context.Context, chunk models.Chunk) error

	// SanityCheck2 compares the local summary with the server's.
	SanityCheck2(ctx context.Context, check models.SanityCheck) (models.SanityCheckResponse, error)

	// Finish closes the session and returns the new modification time.
	// Zero signals failure.
	Finish(ctx context.Context) (int64, error)

	// Abort asks the server to discard the session.
	Abort(ctx context.Context) error
}

// FullSyncServer transfers the whole collection file.
type FullSyncServer interface {
	// Download streams the server collection into dest. A partially
	// written dest is removed on failure.
	Download(ctx context.Context, dest string) error

	// Upload streams the file at src and returns the reply body.
	Upload(ctx context.Context, src string) (string, error)
}

// MediaServer issues the media sync commands.
type MediaServer interface {
	// Begin opens a media session and returns the server cursor.
	Begin(ctx context.Context) (models.MediaBeginResponse, error)

	// MediaChanges lists server changes after lastUsn.
	MediaChanges(ctx context.Context, lastUsn int) ([]models.MediaChange, error)

	// DownloadFiles fetches a batch of files as a zip. The returned archive
	// deletes its backing file on Close.
	DownloadFiles(ctx context.Context, names []string) (*ZipBatch, error)

	// UploadChanges sends an assembled change zip.
	UploadChanges(ctx context.Context, zipPath string) (models.MediaUploadResult, error)

	// MediaSanity compares the local file count with the server's.
	MediaSanity(ctx context.Context, localCount int) (string, error)
}
