// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"strings"

	"github.com/google/uuid"
)

// SessionKeyLength is the length of the key identifying one sync session.
const SessionKeyLength = 8

type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// NewSessionKey returns a short random token sent as "s" with every sync
// request of one session.
func NewSessionKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:SessionKeyLength]
}
