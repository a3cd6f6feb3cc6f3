// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the headless sync client runtime.
//
// It opens the local storages, wires the remote adapters and the sync
// services, runs one sync and, when configured, keeps the periodic sync job,
// the media watcher and the control API running until the process is
// signalled.
package client
