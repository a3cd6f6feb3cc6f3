// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

var (
	// ErrNoAddress is returned by Start when no listen address is configured.
	ErrNoAddress = errors.New("no listen address is configured")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("server is already started")
)
