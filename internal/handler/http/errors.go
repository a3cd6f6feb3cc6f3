// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Errors returned to callers of POST /api/sync with status 400.
var (
	ErrInvalidSyncBody   = errors.New("invalid JSON was passed")
	ErrUnknownResolution = errors.New("resolution must be `upload` or `download`")
)
