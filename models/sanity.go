// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
)

// SanityReportLimit caps each due count so that filtered decks do not skew
// the comparison between client and server.
const SanityReportLimit = 1000

// SanityStatusOK is the server status for matching summaries.
const SanityStatusOK = "ok"

// DueCounts holds the new, learning and review counts.
type DueCounts struct {
	New      int
	Learning int
	Review   int
}

// SanityCheck is the local summary compared against the server's.
// It travels as a positional array:
// [[new, lrn, rev], cards, notes, revlog, graves, models, decks, dconf].
type SanityCheck struct {
	Due         DueCounts
	Cards       int
	Notes       int
	Revlog      int
	Graves      int
	Models      int
	Decks       int
	DeckConfigs int
}

// MarshalJSON implements json.Marshaler.
func (s SanityCheck) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		[]int{s.Due.New, s.Due.Learning, s.Due.Review},
		s.Cards, s.Notes, s.Revlog, s.Graves, s.Models, s.Decks, s.DeckConfigs,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SanityCheck) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("decode sanity check: %w", err)
	}
	if len(parts) != 8 {
		return fmt.Errorf("decode sanity check: %d elements, want 8", len(parts))
	}

	var due []int
	if err := json.Unmarshal(parts[0], &due); err != nil || len(due) != 3 {
		return fmt.Errorf("decode sanity check: bad due counts %s", parts[0])
	}

	out := SanityCheck{Due: DueCounts{New: due[0], Learning: due[1], Review: due[2]}}
	targets := []*int{&out.Cards, &out.Notes, &out.Revlog, &out.Graves, &out.Models, &out.Decks, &out.DeckConfigs}
	for i, dst := range targets {
		if err := json.Unmarshal(parts[i+1], dst); err != nil {
			return fmt.Errorf("decode sanity check element %d: %w", i+1, err)
		}
	}

	*s = out
	return nil
}

// SanityCheckRequest is the body of the "sanityCheck2" command.
type SanityCheckRequest struct {
	Client SanityCheck `json:"client"`
}

// SanityCheckResponse is the server verdict. Client and Server echo both
// summaries when the status is not ok.
type SanityCheckResponse struct {
	Status string          `json:"status"`
	Client json.RawMessage `json:"c,omitempty"`
	Server json.RawMessage `json:"s,omitempty"`
}

// OK reports whether the server accepted the summary.
func (r SanityCheckResponse) OK() bool {
	return r.Status == SanityStatusOK
}
