// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestCollection(t *testing.T) (*Collection, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testNow)
	col, err := OpenCollection(context.Background(), filepath.Join(t.TempDir(), "collection.anki2"), clock, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = col.Close() })
	return col, clock
}

func testModel(id int64) models.Model {
	return models.Model{
		ID:        id,
		Name:      "Basic",
		Type:      models.ModelStandard,
		Fields:    []models.ModelField{{Name: "Front", Ord: 0}, {Name: "Back", Ord: 1}},
		Templates: []models.ModelTemplate{{Name: "Card 1", Ord: 0, QFmt: "{{Front}}", AFmt: "{{Back}}"}},
	}
}

// seedNote adds a note of model 1 with one card in deck 1.
func seedNote(t *testing.T, col *Collection, noteID, cardID int64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, col.AddNote(ctx, models.Note{
		ID: noteID, GUID: "guid-" + time.Unix(noteID, 0).UTC().Format("150405"), ModelID: 1,
		Fields: "front\x1fback", SortField: "front", Checksum: 12345,
	}))
	require.NoError(t, col.AddCard(ctx, models.Card{ID: cardID, NoteID: noteID, DeckID: 1, Due: 1}))
}

func beginSync(t *testing.T, col *Collection) SyncTransaction {
	t.Helper()
	tx, err := col.BeginSync(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	return tx
}
