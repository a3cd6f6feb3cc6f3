// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MKhiriev/flashsync/models"
)

// Field names accepted by [RemoteDataValidator].
const (
	FieldGraves      = "graves"
	FieldModels      = "models"
	FieldDecks       = "decks"
	FieldDeckConfigs = "deck_configs"
	FieldTags        = "tags"
	FieldConfig      = "config"
	FieldCrt         = "crt"
	FieldRows        = "rows"
)

// RemoteDataValidator validates [models.Graves], [models.ChangeSet] and
// [models.Chunk] values returned by the sync server.
type RemoteDataValidator struct{}

// NewRemoteDataValidator returns a [RemoteDataValidator].
func NewRemoteDataValidator() Validator {
	return &RemoteDataValidator{}
}

// Validate dispatches on the type of obj. Violations wrap
// [ErrInvalidRemoteData].
func (v *RemoteDataValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	var err error
	switch value := obj.(type) {
	case models.Graves:
		err = v.validateGraves(value, fields...)
	case *models.Graves:
		err = v.validateGraves(*value, fields...)

	case models.ChangeSet:
		err = v.validateChangeSet(value, fields...)
	case *models.ChangeSet:
		err = v.validateChangeSet(*value, fields...)

	case models.Chunk:
		err = v.validateChunk(value, fields...)
	case *models.Chunk:
		err = v.validateChunk(*value, fields...)

	default:
		return ErrUnsupportedType
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRemoteData, err)
	}
	return nil
}

func (v *RemoteDataValidator) validateGraves(g models.Graves, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldGraves}
	}

	for _, f := range fields {
		if f != FieldGraves {
			return ErrUnknownField
		}
		for kind, ids := range map[string][]int64{"cards": g.Cards, "notes": g.Notes, "decks": g.Decks} {
			for _, id := range ids {
				if id <= 0 {
					return fmt.Errorf("%s %d: %w", kind, id, ErrInvalidGraveID)
				}
			}
		}
	}
	return nil
}

func (v *RemoteDataValidator) validateChangeSet(cs models.ChangeSet, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldModels, FieldDecks, FieldDeckConfigs, FieldTags, FieldConfig, FieldCrt}
	}

	for _, f := range fields {
		switch f {
		case FieldModels:
			for i, m := range cs.Models {
				if err := checkObject(m.ID, m.Name); err != nil {
					return fmt.Errorf("model at index %d: %w", i, err)
				}
			}
		case FieldDecks:
			for i, d := range cs.Decks {
				if err := checkObject(d.ID, d.Name); err != nil {
					return fmt.Errorf("deck at index %d: %w", i, err)
				}
			}
		case FieldDeckConfigs:
			for i, c := range cs.DeckConfigs {
				if err := checkObject(c.ID, c.Name); err != nil {
					return fmt.Errorf("deck config at index %d: %w", i, err)
				}
			}
		case FieldTags:
			for i, tag := range cs.Tags {
				if strings.TrimSpace(tag) == "" {
					return fmt.Errorf("tag at index %d: %w", i, ErrEmptyTag)
				}
			}
		case FieldConfig:
			if len(cs.Config) == 0 {
				continue
			}
			if !json.Valid(cs.Config) || !bytes.HasPrefix(bytes.TrimSpace(cs.Config), []byte("{")) {
				return ErrInvalidConfig
			}
		case FieldCrt:
			if cs.Crt != nil && *cs.Crt <= 0 {
				return ErrInvalidCrt
			}
		default:
			return ErrUnknownField
		}
	}
	return nil
}

func checkObject(id int64, name string) error {
	if id == 0 {
		return ErrInvalidObjectID
	}
	if name == "" {
		return ErrEmptyObjectName
	}
	return nil
}

func (v *RemoteDataValidator) validateChunk(c models.Chunk, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRows}
	}

	for _, f := range fields {
		if f != FieldRows {
			return ErrUnknownField
		}
		for _, table := range models.BulkTables {
			for i, row := range c.Rows(table.Name) {
				if err := checkRow(table, row); err != nil {
					return fmt.Errorf("%s row at index %d: %w", table.Name, i, err)
				}
			}
		}
	}
	return nil
}

func checkRow(table models.Table, row models.Row) error {
	if len(row) != len(table.Columns) {
		return ErrInvalidRowLength
	}
	if row.ID() <= 0 {
		return ErrInvalidRowID
	}
	if usn, ok := row[table.UsnIndex].(int64); !ok || usn < 0 {
		return ErrInvalidRowUsn
	}
	return nil
}
