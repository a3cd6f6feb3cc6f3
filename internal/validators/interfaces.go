// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks data received from the sync server before it is
// applied to the local collection.
//
// A [Validator] accepts a value and, optionally, the names of the fields to
// check. Without field names every rule for the value's type is applied.
package validators

import "context"

// Validator validates a value, optionally restricted to named fields.
type Validator interface {
	Validate(context.Context, any, ...string) error
}
