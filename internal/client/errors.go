// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "errors"

var (
	// ErrNoCredentials is returned when neither a host key nor a username
	// is configured.
	ErrNoCredentials = errors.New("no host key or credentials are configured")
	// ErrLoginFailed wraps a login that did not return a host key.
	ErrLoginFailed = errors.New("login failed")
	// ErrSyncFailed wraps a one-shot sync that ended with an error outcome.
	ErrSyncFailed = errors.New("sync failed")
)
