// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// SyncSession is the state of one incremental sync attempt. It is never
// persisted.
type SyncSession struct {
	// MinUsn is the lowest unsynced usn of the local collection.
	MinUsn int
	// MaxUsn is the ceiling the server assigned to this session.
	MaxUsn int
	// LocalIsNewer decides which side contributes the shared config.
	LocalIsNewer bool
	// SessionKey identifies this session to the server.
	SessionKey string
	// SyncMessage is a server supplied message surfaced to the user.
	SyncMessage string
	// MediaUsn is the server media cursor reported by meta.
	MediaUsn int
}

// Progress status tokens.
const (
	StatusPrepare       = "sync_prepare"
	StatusLogin         = "sync_login"
	StatusDeletions     = "sync_deletions"
	StatusSmallObjects  = "sync_small_objects"
	StatusDownloadChunk = "sync_download_chunk"
	StatusUploadChunk   = "sync_upload_chunk"
	StatusSanity        = "sync_sanity"
	StatusFinish        = "sync_finish"
	StatusMedia         = "sync_media"
	StatusUpload        = "sync_upload"
	StatusDownload      = "sync_download"
	StatusCheckDownload = "sync_check_download"
	StatusBytes         = "sync_bytes"
)

// Progress is one progress report. Sent and Received are cumulative byte
// counts and are zero for pure status updates.
type Progress struct {
	Token    string
	Sent     int64
	Received int64
}

// String renders the progress for logs and headless output.
func (p Progress) String() string {
	if p.Sent == 0 && p.Received == 0 {
		return p.Token
	}
	return fmt.Sprintf("%s (up %s, down %s)", p.Token, humanize.Bytes(uint64(p.Sent)), humanize.Bytes(uint64(p.Received)))
}

// ProgressFunc receives progress reports. Implementations must not block.
type ProgressFunc func(Progress)

// Report calls f if it is non-nil.
func (f ProgressFunc) Report(p Progress) {
	if f != nil {
		f(p)
	}
}
