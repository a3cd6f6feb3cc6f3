// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared user-facing strings of the flashsync client.
//
// All Msg* constants are human-readable messages shown for a sync outcome.
// Keeping them in one place ensures consistent wording between the sync
// coordinator, the periodic job and the command line runner.
package app

import (
	"fmt"

	"github.com/MKhiriev/flashsync/models"
)

const (
	// MsgSuccess is shown after a sync that changed something.
	MsgSuccess = "sync completed"

	// MsgNoChanges is shown when both sides were already in sync.
	MsgNoChanges = "collection is already up to date"

	// MsgFullSyncRequired is shown when incremental sync is impossible and
	// the user must choose to upload or download the whole collection.
	MsgFullSyncRequired = "the collection was changed in a way that requires a full sync; choose upload or download"

	// MsgClockOff is shown when the local clock differs from the server's by
	// more than five minutes.
	MsgClockOff = "your device clock is off by more than 5 minutes; fix the date and time and try again"

	// MsgBadAuth is shown on an authentication failure.
	MsgBadAuth = "invalid username or password"

	// MsgBasicCheckFailed is shown when the local collection fails the
	// structural check.
	MsgBasicCheckFailed = "the local collection has a problem; run a database check before syncing"

	// MsgDBError is shown on a local database failure.
	MsgDBError = "local database error"

	// MsgSanityCheckError is shown after a summary mismatch. The next sync
	// will be a full one.
	MsgSanityCheckError = "after syncing, the collection was in an inconsistent state; the next sync will be a full sync"

	// MsgServerAbort is shown when the server refused to continue and sent
	// no message of its own.
	MsgServerAbort = "the server aborted the sync"

	// MsgUserAborted is shown after a cancelled sync.
	MsgUserAborted = "sync cancelled"

	// MsgFinishError is shown when the server did not confirm the final
	// modification time.
	MsgFinishError = "the server failed to finalize the sync"

	// MsgRemoteDBError is shown when the downloaded collection is corrupt.
	MsgRemoteDBError = "the collection on the server is corrupt; try uploading instead"

	// MsgOverwriteError is shown when the downloaded collection could not
	// replace the local one.
	MsgOverwriteError = "could not replace the local collection with the downloaded one"

	// MsgUpgradeRequired is shown when the server requires a newer client.
	MsgUpgradeRequired = "the server requires a newer client version"

	// MsgConnectionError is shown for network failures.
	MsgConnectionError = "connection error; check your network and try again"

	// MsgIOError is shown for local file failures during transfer.
	MsgIOError = "file error during sync"

	// MsgHTTPError is shown for unexpected server replies.
	MsgHTTPError = "unexpected server response"

	// MsgOutOfMemory is shown when a transfer did not fit in memory.
	MsgOutOfMemory = "not enough memory to complete the sync"

	// MsgDisconnected is shown when no network is available.
	MsgDisconnected = "no network connection"

	// MsgGenericError is shown when nothing more specific applies.
	MsgGenericError = "sync failed"

	// MsgMediaError prefixes a media sync failure reported after a
	// successful collection sync.
	MsgMediaError = "media sync failed"

	// MsgCorruptMediaDB is reported when the media index cannot be read.
	MsgCorruptMediaDB = "corrupt media db"
)

var resultMessages = map[models.ConnectionResultType]string{
	models.Success:          MsgSuccess,
	models.NoChanges:        MsgNoChanges,
	models.FullSyncRequired: MsgFullSyncRequired,
	models.ClockOff:         MsgClockOff,
	models.BadAuth:          MsgBadAuth,
	models.BasicCheckFailed: MsgBasicCheckFailed,
	models.DBError:          MsgDBError,
	models.SanityCheckError: MsgSanityCheckError,
	models.ServerAbort:      MsgServerAbort,
	models.UserAborted:      MsgUserAborted,
	models.FinishError:      MsgFinishError,
	models.RemoteDBError:    MsgRemoteDBError,
	models.OverwriteError:   MsgOverwriteError,
	models.UpgradeRequired:  MsgUpgradeRequired,
	models.ConnectionError:  MsgConnectionError,
	models.IOError:          MsgIOError,
	models.HTTPError:        MsgHTTPError,
	models.OutOfMemory:      MsgOutOfMemory,
	models.Disconnected:     MsgDisconnected,
	models.GenericError:     MsgGenericError,
}

// Message returns the user-visible text for an outcome. A server supplied
// detail, when present, is appended.
func Message(result models.ConnectionResultType, detail string) string {
	msg, ok := resultMessages[result]
	if !ok {
		msg = MsgGenericError
	}

	switch {
	case detail == "":
		return msg
	case result == models.ServerAbort:
		return detail
	default:
		return fmt.Sprintf("%s: %s", msg, detail)
	}
}
