// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import "sync/atomic"

// CancelToken is a cooperative cancellation flag. The orchestrators poll it
// at phase and round boundaries; a request already on the wire is allowed
// to complete.
type CancelToken struct {
	cancelled atomic.Bool
}

// NewCancelToken returns an unset token.
func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel sets the flag. It is safe to call more than once.
func (t *CancelToken) Cancel() {
	t.cancelled.Store(true)
}

// Cancelled reports whether Cancel was called. A nil token is never
// cancelled.
func (t *CancelToken) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}
