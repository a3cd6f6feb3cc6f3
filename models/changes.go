// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
)

// ModelField is one field definition of a note type.
type ModelField struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

// ModelTemplate is one card template of a note type.
type ModelTemplate struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
	QFmt string `json:"qfmt"`
	AFmt string `json:"afmt"`
}

// Note type kinds.
const (
	ModelStandard = 0
	ModelCloze    = 1
)

// Model is a note type definition.
type Model struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      int             `json:"type"`
	Mod       int64           `json:"mod"`
	Usn       int             `json:"usn"`
	SortField int             `json:"sortf"`
	DeckID    int64           `json:"did"`
	CSS       string          `json:"css"`
	Fields    []ModelField    `json:"flds"`
	Templates []ModelTemplate `json:"tmpls"`

	// Extra keeps keys not listed above so they are stored and uploaded
	// unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// Deck is a deck definition.
type Deck struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Mod         int64  `json:"mod"`
	Usn         int    `json:"usn"`
	ConfigID    int64  `json:"conf"`
	Dynamic     int    `json:"dyn"`
	Description string `json:"desc"`
	Collapsed   bool   `json:"collapsed"`

	Extra map[string]json.RawMessage `json:"-"`
}

// DeckConfig is a deck options group.
type DeckConfig struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Mod       int64  `json:"mod"`
	Usn       int    `json:"usn"`
	NewPerDay int    `json:"newPerDay"`
	RevPerDay int    `json:"revPerDay"`
	MaxIvl    int    `json:"maxIvl"`

	Extra map[string]json.RawMessage `json:"-"`
}

type (
	modelFields      Model
	deckFields       Deck
	deckConfigFields DeckConfig
)

// MarshalJSON implements json.Marshaler.
func (m Model) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(modelFields(m), m.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Model) UnmarshalJSON(b []byte) error {
	var f modelFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return fmt.Errorf("decode model: %w", err)
	}
	*m = Model(f)
	m.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Deck) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(deckFields(d), d.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Deck) UnmarshalJSON(b []byte) error {
	var f deckFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return fmt.Errorf("decode deck: %w", err)
	}
	*d = Deck(f)
	d.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c DeckConfig) MarshalJSON() ([]byte, error) {
	return marshalWithExtra(deckConfigFields(c), c.Extra)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *DeckConfig) UnmarshalJSON(b []byte) error {
	var f deckConfigFields
	extra, err := unmarshalWithExtra(b, &f)
	if err != nil {
		return fmt.Errorf("decode deck config: %w", err)
	}
	*c = DeckConfig(f)
	c.Extra = extra
	return nil
}

// marshalWithExtra encodes known and adds the extra keys it does not set.
func marshalWithExtra(known any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return b, err
	}

	var obj map[string]json.RawMessage
	if err = json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	return json.Marshal(obj)
}

// unmarshalWithExtra decodes b into known and returns the keys of b that
// known does not encode, or nil when there are none.
func unmarshalWithExtra(b []byte, known any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(b, known); err != nil {
		return nil, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	if len(obj) == 0 {
		return nil, nil
	}

	knownJSON, err := json.Marshal(known)
	if err != nil {
		return nil, err
	}
	var knownKeys map[string]json.RawMessage
	if err = json.Unmarshal(knownJSON, &knownKeys); err != nil {
		return nil, err
	}
	for k := range knownKeys {
		delete(obj, k)
	}
	if len(obj) == 0 {
		return nil, nil
	}
	return obj, nil
}

// ChangeSet is the small-object envelope exchanged by "applyChanges".
//
// On the wire decks and deck configs travel together as a two element array
// under "decks". Config and Crt are only present when the sending side is
// the newer one.
type ChangeSet struct {
	Models      []Model
	Decks       []Deck
	DeckConfigs []DeckConfig
	Tags        []string
	Config      json.RawMessage
	Crt         *int64
}

type changeSetWire struct {
	Models []Model            `json:"models"`
	Decks  [2]json.RawMessage `json:"decks"`
	Tags   []string           `json:"tags"`
	Conf   json.RawMessage    `json:"conf,omitempty"`
	Crt    *int64             `json:"crt,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c ChangeSet) MarshalJSON() ([]byte, error) {
	decks := c.Decks
	if decks == nil {
		decks = []Deck{}
	}
	dconf := c.DeckConfigs
	if dconf == nil {
		dconf = []DeckConfig{}
	}
	rawDecks, err := json.Marshal(decks)
	if err != nil {
		return nil, err
	}
	rawConf, err := json.Marshal(dconf)
	if err != nil {
		return nil, err
	}

	w := changeSetWire{
		Models: c.Models,
		Decks:  [2]json.RawMessage{rawDecks, rawConf},
		Tags:   c.Tags,
		Conf:   c.Config,
		Crt:    c.Crt,
	}
	if w.Models == nil {
		w.Models = []Model{}
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ChangeSet) UnmarshalJSON(b []byte) error {
	var w changeSetWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode change set: %w", err)
	}

	out := ChangeSet{Models: w.Models, Tags: w.Tags, Crt: w.Crt}
	if len(w.Conf) > 0 && string(w.Conf) != "null" {
		out.Config = w.Conf
	}
	if len(w.Decks[0]) > 0 {
		if err := json.Unmarshal(w.Decks[0], &out.Decks); err != nil {
			return fmt.Errorf("decode change set decks: %w", err)
		}
	}
	if len(w.Decks[1]) > 0 {
		if err := json.Unmarshal(w.Decks[1], &out.DeckConfigs); err != nil {
			return fmt.Errorf("decode change set deck configs: %w", err)
		}
	}

	*c = out
	return nil
}

// ApplyChangesRequest is the body of the "applyChanges" command.
type ApplyChangesRequest struct {
	Changes ChangeSet `json:"changes"`
}
