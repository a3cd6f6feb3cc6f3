// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/models"
)

// Syncer runs one incremental collection sync.
type Syncer interface {
	// Sync drives the phase sequence: meta exchange, clock-skew check,
	// basic check, deletions, small objects, chunk download, chunk upload,
	// sanity check and finish. All local writes happen in one transaction
	// that is committed only when the server confirms the finish.
	//
	// Protocol outcomes such as NoChanges, FullSyncRequired or UserAborted
	// are returned in the Outcome with a nil error. An error is returned
	// for transport and database failures; the local transaction is rolled
	// back and the server session aborted in that case.
	Sync(ctx context.Context, cancel *CancelToken) (Outcome, error)
}

// FullSyncer replaces one side of the sync with the other.
type FullSyncer interface {
	// Upload checks the local collection, prepares it for upload and
	// streams it to the server. A collection failing the integrity or basic
	// check is never sent.
	Upload(ctx context.Context) (Outcome, error)

	// Download fetches the server collection into a temporary sibling
	// file, validates it and only then moves it over the local collection.
	// The local collection is untouched unless the download is valid.
	Download(ctx context.Context) (Outcome, error)
}

// MediaSyncer runs one media sync.
type MediaSyncer interface {
	// Sync downloads server changes, uploads local changes and finishes
	// with a file count comparison. A concurrent update on the server or a
	// count mismatch restarts the whole media sync a bounded number of
	// times.
	Sync(ctx context.Context, cancel *CancelToken) (Outcome, error)
}

// Remotes builds the protocol clients of one sync attempt.
// [*adapter.Remotes] is the production implementation.
type Remotes interface {
	SyncServer(hostKey, sessionKey string) adapter.SyncServer
	FullSyncServer(hostKey, sessionKey string) adapter.FullSyncServer
	MediaServer(hostKey, tempDir string) adapter.MediaServer
	ClientVersion() string
}

// KeepAlive keeps the host awake while a sync runs. Acquire is called
// before the first remote call; the returned release function is called on
// every exit path.
type KeepAlive interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Synchronizer is the part of [Connection] the periodic job depends on.
type Synchronizer interface {
	Sync(ctx context.Context, req models.SyncRequest) <-chan models.Payload
}
