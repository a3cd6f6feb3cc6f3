// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import "errors"

// ErrInvalidRemoteData is wrapped by every rule violation, so callers can
// tell a malformed server payload from other failures.
var ErrInvalidRemoteData = errors.New("invalid data from server")

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidGraveID   = errors.New("grave with non-positive id")
	ErrInvalidObjectID  = errors.New("object with zero id")
	ErrEmptyObjectName  = errors.New("object with empty name")
	ErrEmptyTag         = errors.New("empty tag")
	ErrInvalidConfig    = errors.New("config is not a JSON object")
	ErrInvalidCrt       = errors.New("non-positive creation time")
	ErrInvalidRowID     = errors.New("row with non-positive id")
	ErrInvalidRowLength = errors.New("row with wrong column count")
	ErrInvalidRowUsn    = errors.New("row with negative usn")
)
