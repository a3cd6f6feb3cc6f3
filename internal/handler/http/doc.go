// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package http implements the local control API of the sync client.
//
// The API lets a local process read the sync status, trigger a sync, cancel
// the running one and read the client version. Request tracing and access
// logging are handled by middleware before requests reach the handlers.
package http
