// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"errors"
	"fmt"
)

var (
	// ErrBadAuth is returned when the server answers 403 or hands out an
	// empty host key.
	ErrBadAuth = errors.New("bad authentication")

	// ErrMalformedResponse is returned when a reply body cannot be decoded.
	ErrMalformedResponse = errors.New("malformed server response")
)

// HTTPError is a non-200, non-403 reply.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// MediaServerError carries the "err" field of a media server reply.
type MediaServerError struct {
	Message string
}

func (e *MediaServerError) Error() string {
	return "media server error: " + e.Message
}
