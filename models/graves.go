// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "encoding/json"

// GraveType identifies what kind of object a tombstone refers to.
type GraveType int

// Grave types as stored in the graves table.
const (
	GraveCard GraveType = 0
	GraveNote GraveType = 1
	GraveDeck GraveType = 2
)

// Grave is a single tombstone row.
type Grave struct {
	Usn  int
	OID  int64
	Type GraveType
}

// Graves is the wire form of a tombstone set, grouped by object type.
type Graves struct {
	Cards []int64 `json:"cards"`
	Notes []int64 `json:"notes"`
	Decks []int64 `json:"decks"`
}

// Empty reports whether the set holds no tombstones.
func (g Graves) Empty() bool {
	return len(g.Cards) == 0 && len(g.Notes) == 0 && len(g.Decks) == 0
}

// Len returns the total number of tombstones.
func (g Graves) Len() int {
	return len(g.Cards) + len(g.Notes) + len(g.Decks)
}

// StartRequest is the body of the "start" command.
type StartRequest struct {
	MinUsn int    `json:"minUsn"`
	LNewer bool   `json:"lnewer"`
	Graves Graves `json:"graves"`
}

// MarshalJSON encodes missing groups as empty arrays rather than null.
func (g Graves) MarshalJSON() ([]byte, error) {
	type plain Graves
	out := plain(g)
	if out.Cards == nil {
		out.Cards = []int64{}
	}
	if out.Notes == nil {
		out.Notes = []int64{}
	}
	if out.Decks == nil {
		out.Decks = []int64{}
	}
	return json.Marshal(out)
}
