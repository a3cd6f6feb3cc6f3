// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sync"
)

// hasherPool is a package-level pool of reusable SHA-1 hash instances used
// for media checksums.
var hasherPool = sync.Pool{
	New: func() any {
		return sha1.New()
	},
}

// Checksum returns the hex-encoded SHA-1 digest of data. This is the media
// checksum format exchanged with the media server.
//
// Example usage:
//
//	csum := utils.Checksum([]byte("file contents"))
func Checksum(data []byte) string {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	h.Write(data)
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return hex.EncodeToString(sum)
}

// ChecksumReader streams r through SHA-1 and returns the hex digest.
func ChecksumReader(r io.Reader) (string, error) {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()
	defer func() {
		h.Reset()
		hasherPool.Put(h)
	}()

	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("error hashing stream: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
