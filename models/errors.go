// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "errors"

var (
	// ErrRowShape is returned when a chunk row does not have the column
	// count declared for its table.
	ErrRowShape = errors.New("unexpected row shape")

	// ErrColumnType is returned when a chunk value cannot be converted to
	// the column type declared for its table.
	ErrColumnType = errors.New("unexpected column type")
)
