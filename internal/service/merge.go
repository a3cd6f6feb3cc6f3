// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/models"
)

// mergeStats counts the incoming small objects that replaced local ones.
type mergeStats struct {
	Models      int
	Decks       int
	DeckConfigs int
	Tags        int
}

// localChanges collects the unsynced small objects, stamping them with the
// session's max usn. The shared config and creation time are only sent when
// the local side is newer.
func localChanges(ctx context.Context, tx store.SyncTransaction, sess *models.SyncSession) (models.ChangeSet, error) {
	var (
		out models.ChangeSet
		err error
	)

	if out.Models, err = tx.UnsyncedModels(ctx, sess.MaxUsn); err != nil {
		return models.ChangeSet{}, fmt.Errorf("unsynced models: %w", err)
	}
	if out.Decks, out.DeckConfigs, err = tx.UnsyncedDecks(ctx, sess.MaxUsn); err != nil {
		return models.ChangeSet{}, fmt.Errorf("unsynced decks: %w", err)
	}
	if out.Tags, err = tx.UnsyncedTags(ctx, sess.MaxUsn); err != nil {
		return models.ChangeSet{}, fmt.Errorf("unsynced tags: %w", err)
	}

	if sess.LocalIsNewer {
		if out.Config, err = tx.Config(ctx); err != nil {
			return models.ChangeSet{}, fmt.Errorf("local config: %w", err)
		}
		meta, err := tx.Meta(ctx)
		if err != nil {
			return models.ChangeSet{}, fmt.Errorf("local meta: %w", err)
		}
		crt := meta.Crt
		out.Crt = &crt
	}
	return out, nil
}

// mergeChanges applies the server's small objects. An incoming object
// replaces the local one only when it is missing locally or strictly newer.
func mergeChanges(ctx context.Context, tx store.SyncTransaction, remote models.ChangeSet, sess *models.SyncSession) (mergeStats, error) {
	var stats mergeStats

	for _, m := range remote.Models {
		local, ok, err := tx.Model(ctx, m.ID)
		if err != nil {
			return stats, fmt.Errorf("load model %d: %w", m.ID, err)
		}
		if ok && m.Mod <= local.Mod {
			continue
		}
		if ok && (len(m.Fields) != len(local.Fields) || len(m.Templates) != len(local.Templates)) {
			return stats, fmt.Errorf("model %d: %w", m.ID, ErrSchemaChanged)
		}
		if err = tx.SaveModel(ctx, m); err != nil {
			return stats, fmt.Errorf("save model %d: %w", m.ID, err)
		}
		stats.Models++
	}

	for _, d := range remote.Decks {
		local, ok, err := tx.Deck(ctx, d.ID)
		if err != nil {
			return stats, fmt.Errorf("load deck %d: %w", d.ID, err)
		}
		if ok && d.Mod <= local.Mod {
			continue
		}
		if err = tx.SaveDeck(ctx, d); err != nil {
			return stats, fmt.Errorf("save deck %d: %w", d.ID, err)
		}
		stats.Decks++
	}

	for _, c := range remote.DeckConfigs {
		local, ok, err := tx.DeckConfig(ctx, c.ID)
		if err != nil {
			return stats, fmt.Errorf("load deck config %d: %w", c.ID, err)
		}
		if ok && c.Mod <= local.Mod {
			continue
		}
		if err = tx.SaveDeckConfig(ctx, c); err != nil {
			return stats, fmt.Errorf("save deck config %d: %w", c.ID, err)
		}
		stats.DeckConfigs++
	}

	if len(remote.Tags) > 0 {
		if err := tx.RegisterTags(ctx, remote.Tags, sess.MaxUsn); err != nil {
			return stats, fmt.Errorf("register tags: %w", err)
		}
		stats.Tags = len(remote.Tags)
	}

	if remote.Config != nil && !sess.LocalIsNewer {
		if err := tx.SetConfig(ctx, remote.Config); err != nil {
			return stats, fmt.Errorf("apply remote config: %w", err)
		}
	}
	if remote.Crt != nil && !sess.LocalIsNewer {
		if err := tx.SetCrt(ctx, *remote.Crt); err != nil {
			return stats, fmt.Errorf("apply remote crt: %w", err)
		}
	}

	return stats, nil
}

// applyChunk stores the rows of a server chunk. Cards and notes changed
// locally since the last sync are kept unless the incoming row has a
// strictly newer modification time. Revlog rows are only ever added.
func applyChunk(ctx context.Context, tx store.SyncTransaction, chunk models.Chunk) error {
	for _, table := range models.BulkTables {
		rows := chunk.Rows(table.Name)
		if len(rows) == 0 {
			continue
		}

		if table.ModIndex >= 0 {
			var err error
			if rows, err = dropOlderRows(ctx, tx, table, rows); err != nil {
				return err
			}
		}

		if err := tx.ApplyRows(ctx, table, rows); err != nil {
			return fmt.Errorf("apply %s rows: %w", table.Name, err)
		}
	}
	return nil
}

func dropOlderRows(ctx context.Context, tx store.SyncTransaction, table models.Table, rows []models.Row) ([]models.Row, error) {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID()
	}

	localMods, err := tx.NewerRows(ctx, table, ids)
	if err != nil {
		return nil, fmt.Errorf("local %s mods: %w", table.Name, err)
	}
	if len(localMods) == 0 {
		return rows, nil
	}

	kept := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if localMod, ok := localMods[r.ID()]; ok && localMod >= r.Int(table.ModIndex) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}
