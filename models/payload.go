// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// ConflictResolution picks the direction of a full sync.
type ConflictResolution string

// Conflict resolution modes. ResolveNone runs an incremental sync and
// reports [FullSyncRequired] when one is not possible.
const (
	ResolveNone     ConflictResolution = ""
	ResolveUpload   ConflictResolution = "upload"
	ResolveDownload ConflictResolution = "download"
)

// SyncRequest describes one sync invocation.
type SyncRequest struct {
	HostKey      string
	IncludeMedia bool
	Resolution   ConflictResolution
}

// Payload is the terminal result handed back to the caller of a sync or
// login.
type Payload struct {
	Result ConnectionResultType
	// Message is the user-visible text for Result.
	Message string
	// Detail is the server message or error text behind Result, if any.
	Detail string
	// HostKey is set by a successful login.
	HostKey string

	// MediaSynced reports whether a media sync ran. MediaResult and
	// MediaMessage are only meaningful when it did.
	MediaSynced  bool
	MediaResult  ConnectionResultType
	MediaMessage string
}

// OK reports whether the collection sync itself succeeded.
func (p Payload) OK() bool {
	return p.Result.OK()
}
