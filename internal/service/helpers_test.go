// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/models"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestCollection(t *testing.T) (*store.Collection, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testNow)
	col, err := store.OpenCollection(context.Background(), filepath.Join(t.TempDir(), "collection.anki2"), clock, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = col.Close() })
	return col, clock
}

func basicModel(id int64) models.Model {
	return models.Model{
		ID:        id,
		Name:      "Basic",
		Type:      models.ModelStandard,
		Fields:    []models.ModelField{{Name: "Front", Ord: 0}, {Name: "Back", Ord: 1}},
		Templates: []models.ModelTemplate{{Name: "Card 1", Ord: 0, QFmt: "{{Front}}", AFmt: "{{Back}}"}},
	}
}

// seedNote stores a note of model 1 and its single card.
func seedNote(t *testing.T, col *store.Collection, noteID, cardID int64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, col.AddNote(ctx, models.Note{
		ID: noteID, GUID: fmt.Sprintf("guid-%d", noteID), ModelID: 1,
		Fields: "front\x1fback", SortField: "front", Checksum: 4242,
	}))
	require.NoError(t, col.AddCard(ctx, models.Card{ID: cardID, NoteID: noteID, DeckID: 1, Due: 1}))
}

// remoteMetaFor returns a server meta that allows an incremental sync of
// col: same schema, clock in step, different modification time.
func remoteMetaFor(t *testing.T, col *store.Collection, clock clockwork.Clock, usn int) models.Meta {
	t.Helper()

	local, err := col.Meta(context.Background())
	require.NoError(t, err)
	return models.Meta{
		Mod:  local.Mod - 60_000,
		Scm:  local.Scm,
		Usn:  usn,
		TS:   clock.Now().Unix(),
		Cont: true,
	}
}

func rowUsn(t *testing.T, col *store.Collection, table models.Table, id int64) int64 {
	t.Helper()

	row, ok, err := col.Row(context.Background(), table, id)
	require.NoError(t, err)
	require.True(t, ok, "%s row %d missing", table.Name, id)
	return row.Int(table.UsnIndex)
}
