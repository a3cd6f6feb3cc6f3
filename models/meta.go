// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// SyncVersion is the protocol version sent as "v" in the meta request.
const SyncVersion = 10

// MetaRequest is the body of the "meta" command.
type MetaRequest struct {
	// Version is the local protocol version.
	Version int `json:"v"`
	// ClientVersion identifies the client build, see [AppBuildInfo.ClientVersion].
	ClientVersion string `json:"cv"`
}

// Meta describes one side of the sync at the start of a session. The server
// returns it in response to "meta"; the client computes its own from the
// local store.
type Meta struct {
	// Mod is the collection modification time in milliseconds.
	Mod int64 `json:"mod"`
	// Scm is the schema fingerprint. A mismatch forces a full sync.
	Scm int64 `json:"scm"`
	// Usn is the update sequence number. On the server this is the ceiling
	// assigned to the session; locally it is the lowest unsynced usn.
	Usn int `json:"usn"`
	// TS is the wall clock in seconds, used for the clock-skew check.
	TS int64 `json:"ts"`
	// MediaUsn is the server media cursor.
	MediaUsn int `json:"musn"`
	// Msg is an optional server message shown to the user.
	Msg string `json:"msg"`
	// Cont is false when the server refuses to continue.
	Cont bool `json:"cont"`
	// Username is the account name reported by the server.
	Username string `json:"uname,omitempty"`
}

// HostKeyRequest is the body of the "hostKey" login command.
type HostKeyRequest struct {
	Username string `json:"u"`
	Password string `json:"p"`
}

// HostKeyResponse carries the host key issued on successful login.
type HostKeyResponse struct {
	Key string `json:"key"`
}

// Credentials are the account credentials used by login.
type Credentials struct {
	Username string
	Password string
}
