// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package server runs the local control API of the sync client.
//
// The server is a [workers.Worker]: Start binds the listener and serves in
// the background, Stop shuts it down gracefully.
package server
