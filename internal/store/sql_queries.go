// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/flashsync/models"
)

const (
	selectMeta    = `SELECT crt, mod, scm, usn, ls FROM col LIMIT 1;`
	countMetaRows = `SELECT count() FROM col;`

	updateSchemaChanged = `UPDATE col SET scm = ?, mod = ?;`
	updateFinishSync    = `UPDATE col SET mod = ?, ls = ?, usn = ?;`
	updateCrt           = `UPDATE col SET crt = ?;`
	updateConfig        = `UPDATE col SET conf = ?;`
	selectConfig        = `SELECT conf FROM col LIMIT 1;`

	selectUnsyncedGraves = `SELECT oid, type FROM graves WHERE usn = -1 ORDER BY rowid;`
	stampGraves          = `UPDATE graves SET usn = ? WHERE usn = -1;`
	purgeGraves          = `DELETE FROM graves WHERE usn != -1 AND usn < ?;`
	insertGrave          = `INSERT INTO graves (usn, oid, type) VALUES (-1, ?, ?);`

	upsertTag           = `INSERT INTO tags (tag, usn) VALUES (?, ?) ON CONFLICT(tag) DO UPDATE SET usn = excluded.usn;`
	selectUnsyncedTags  = `SELECT tag FROM tags WHERE usn = -1 ORDER BY tag;`
	stampUnsyncedTags   = `UPDATE tags SET usn = ? WHERE usn = -1;`
	cardsWithoutNotes   = `SELECT 1 FROM cards WHERE nid NOT IN (SELECT id FROM notes) LIMIT 1;`
	notesWithoutCards   = `SELECT 1 FROM notes WHERE id NOT IN (SELECT DISTINCT nid FROM cards) LIMIT 1;`
	notesWithoutModel   = `SELECT 1 FROM notes WHERE mid NOT IN (SELECT id FROM models) LIMIT 1;`
	cardOrdsForModel    = `SELECT DISTINCT c.ord FROM cards c JOIN notes n ON n.id = c.nid WHERE n.mid = ?;`
	countUnsyncedInBulk = `SELECT count() FROM %s WHERE usn = -1;`
)

// jsonTables hold one JSON document per row next to mirrored id, mod and
// usn columns.
const (
	tableModels      = "models"
	tableDecks       = "decks"
	tableDeckConfigs = "deck_config"
)

func selectJSONByID(table string) string {
	return fmt.Sprintf(`SELECT mod, usn, json FROM %s WHERE id = ?;`, table)
}

func selectUnsyncedJSON(table string) string {
	return fmt.Sprintf(`SELECT mod, usn, json FROM %s WHERE usn = -1 ORDER BY id;`, table)
}

func stampUnsyncedJSON(table string) string {
	return fmt.Sprintf(`UPDATE %s SET usn = ? WHERE usn = -1;`, table)
}

func upsertJSON(table string) string {
	return fmt.Sprintf(`INSERT OR REPLACE INTO %s (id, mod, usn, json) VALUES (?, ?, ?, ?);`, table)
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// quotedColumns quotes every column so that keywords such as "left" are
// accepted by SQLite.
func quotedColumns(t models.Table) []string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = `"` + c + `"`
	}
	return cols
}

// buildUnsyncedRowsQuery pages through unsynced rows in id order.
func buildUnsyncedRowsQuery(t models.Table, q RowQuery) (string, []any, error) {
	b := builder.Select(quotedColumns(t)...).
		From(t.Name).
		Where(sq.Gt{"id": q.AfterID}).
		OrderBy("id").
		Limit(uint64(q.Limit))

	if q.Server {
		b = b.Where(sq.GtOrEq{"usn": q.MinUsn})
	} else {
		b = b.Where(sq.Eq{"usn": models.UsnUnsynced})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildStampRowsQuery(t models.Table, ids []int64, usn int) (string, []any, error) {
	query, args, err := builder.Update(t.Name).
		Set("usn", usn).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildNewerRowsQuery selects id and mod of local unsynced rows among ids.
func buildNewerRowsQuery(t models.Table, ids []int64) (string, []any, error) {
	query, args, err := builder.Select("id", "mod").
		From(t.Name).
		Where(sq.Eq{"id": ids}).
		Where(sq.Eq{"usn": models.UsnUnsynced}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildApplyRowsQuery builds a multi-row insert. Revlog rows are append
// only and never replace an existing entry.
func buildApplyRowsQuery(t models.Table, rows []models.Row) (string, []any, error) {
	conflict := "OR REPLACE"
	if t.ModIndex < 0 {
		conflict = "OR IGNORE"
	}

	b := builder.Insert(t.Name).Options(conflict).Columns(quotedColumns(t)...)
	for _, r := range rows {
		b = b.Values(r...)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildDeleteByIDsQuery(table string, ids []int64) (string, []any, error) {
	query, args, err := builder.Delete(table).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildDeleteCardsOfNotesQuery(noteIDs []int64) (string, []any, error) {
	query, args, err := builder.Delete("cards").Where(sq.Eq{"nid": noteIDs}).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func buildSelectCardIDsOfNotesQuery(noteIDs []int64) (string, []any, error) {
	query, args, err := builder.Select("id").From("cards").Where(sq.Eq{"nid": noteIDs}).OrderBy("id").ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

// buildDueCountQuery counts cards in queues due on or before cutoff, capped
// at limit.
func buildDueCountQuery(queues []int, cutoff int64, limit int) (string, []any, error) {
	inner := builder.Select("1").
		From("cards").
		Where(sq.Eq{"queue": queues}).
		Where(sq.LtOrEq{"due": cutoff}).
		Limit(uint64(limit))

	query, args, err := builder.Select("count()").FromSelect(inner, "due_cards").ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}
