// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

// Collection is the local flashcard database. Changes made through its
// helpers are marked unsynced; the sync itself goes through [BeginSync].
type Collection struct {
	path  string
	clock clockwork.Clock

	mu sync.RWMutex
	db *DB

	logger *logger.Logger
}

// OpenCollection opens or creates the collection at path and migrates it
// to the current schema.
func OpenCollection(ctx context.Context, path string, clock clockwork.Clock, log *logger.Logger) (*Collection, error) {
	c := &Collection{path: path, clock: clock, logger: log}
	if err := c.Reopen(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Path implements [CollectionStore].
func (c *Collection) Path() string { return c.path }

// Reopen implements [CollectionStore]. It is a no-op on an open collection.
func (c *Collection) Reopen(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	db, err := NewConnectSQLite(ctx, c.path, c.logger)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}
	if err = db.MigrateCollection(); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate collection: %w", err)
	}

	c.db = db
	c.logger.Debug().Str("func", "Collection.Reopen").Str("path", c.path).Msg("collection opened")
	return nil
}

// Close implements [CollectionStore]. Closing twice is a no-op.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.logger.Debug().Str("func", "Collection.Close").Str("path", c.path).Msg("collection closed")
	return err
}

func (c *Collection) handle() (*DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return nil, ErrClosed
	}
	return c.db, nil
}

// BeginSync implements [CollectionStore].
func (c *Collection) BeginSync(ctx context.Context) (SyncTransaction, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, db.wrap(ErrBeginningTransaction, err)
	}
	return &syncTx{tx: tx, db: db, clock: c.clock, logger: c.logger}, nil
}

// Meta implements [CollectionStore].
func (c *Collection) Meta(ctx context.Context) (models.LocalMeta, error) {
	db, err := c.handle()
	if err != nil {
		return models.LocalMeta{}, err
	}
	return readMeta(ctx, db, db)
}

// BasicCheck implements [Checker].
func (c *Collection) BasicCheck(ctx context.Context) (string, error) {
	db, err := c.handle()
	if err != nil {
		return "", err
	}
	return basicCheck(ctx, db, db)
}

// IntegrityCheck implements [CollectionStore].
func (c *Collection) IntegrityCheck(ctx context.Context) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	var result string
	if err = db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return db.wrap(ErrExecutingQuery, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %w: %s", ErrCorrupt, result)
	}
	return nil
}

// MarkSchemaChanged implements [CollectionStore].
func (c *Collection) MarkSchemaChanged(ctx context.Context) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	now := c.clock.Now().UnixMilli()
	if _, err = db.ExecContext(ctx, updateSchemaChanged, now, now); err != nil {
		return db.wrap(ErrExecutingStatement, err)
	}
	c.logger.Info().Str("func", "Collection.MarkSchemaChanged").Msg("schema marked as changed, next sync is a full sync")
	return nil
}

// BeforeUpload implements [CollectionStore]. Graves are dropped since the
// server replaces its copy wholesale.
func (c *Collection) BeforeUpload(ctx context.Context) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	return c.inTx(ctx, db, func(tx *sql.Tx) error {
		stmts := []string{
			`UPDATE notes SET usn = 0;`,
			`UPDATE cards SET usn = 0;`,
			`UPDATE revlog SET usn = 0;`,
			`UPDATE models SET usn = 0;`,
			`UPDATE decks SET usn = 0;`,
			`UPDATE deck_config SET usn = 0;`,
			`UPDATE tags SET usn = 0;`,
			`DELETE FROM graves;`,
			`UPDATE col SET usn = 0, ls = mod;`,
		}
		for _, s := range stmts {
			if _, err := tx.ExecContext(ctx, s); err != nil {
				return db.wrap(ErrExecutingStatement, err)
			}
		}
		return nil
	})
}

// AddNote stores n as an unsynced note.
func (c *Collection) AddNote(ctx context.Context, n models.Note) error {
	n.Usn = models.UsnUnsynced
	if n.Mod == 0 {
		n.Mod = c.clock.Now().Unix()
	}
	return c.putRow(ctx, models.TableNotes, n.Row())
}

// AddCard stores card as an unsynced card.
func (c *Collection) AddCard(ctx context.Context, card models.Card) error {
	card.Usn = models.UsnUnsynced
	if card.Mod == 0 {
		card.Mod = c.clock.Now().Unix()
	}
	return c.putRow(ctx, models.TableCards, card.Row())
}

// AddRevlog stores r as an unsynced review.
func (c *Collection) AddRevlog(ctx context.Context, r models.Review) error {
	r.Usn = models.UsnUnsynced
	return c.putRow(ctx, models.TableRevlog, r.Row())
}

// RemoveNotes deletes notes together with their cards and records a grave
// for each of them.
func (c *Collection) RemoveNotes(ctx context.Context, ids []int64) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	return c.inTx(ctx, db, func(tx *sql.Tx) error {
		cardIDs, err := cardIDsOfNotes(ctx, db, tx, ids)
		if err != nil {
			return err
		}
		if err = removeCards(ctx, db, tx, cardIDs, true); err != nil {
			return err
		}
		return removeNotes(ctx, db, tx, ids, true)
	})
}

// RemoveCards deletes cards and records graves. Notes left without cards
// are removed as well.
func (c *Collection) RemoveCards(ctx context.Context, ids []int64) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	return c.inTx(ctx, db, func(tx *sql.Tx) error {
		if err := removeCards(ctx, db, tx, ids, true); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, `SELECT id FROM notes WHERE id NOT IN (SELECT DISTINCT nid FROM cards);`)
		if err != nil {
			return db.wrap(ErrExecutingQuery, err)
		}
		orphans, err := scanIDs(db, rows)
		if err != nil {
			return err
		}
		return removeNotes(ctx, db, tx, orphans, true)
	})
}

// RemoveDeck deletes a deck and records a grave for it.
func (c *Collection) RemoveDeck(ctx context.Context, id int64) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	return c.inTx(ctx, db, func(tx *sql.Tx) error {
		return removeByIDs(ctx, db, tx, tableDecks, []int64{id}, models.GraveDeck, true)
	})
}

// SaveModel stores m as an unsynced note type.
func (c *Collection) SaveModel(ctx context.Context, m models.Model) error {
	m.Usn = models.UsnUnsynced
	m.Mod = c.clock.Now().Unix()
	return c.putJSON(ctx, tableModels, m.ID, m.Mod, m)
}

// SaveDeck stores d as an unsynced deck.
func (c *Collection) SaveDeck(ctx context.Context, d models.Deck) error {
	d.Usn = models.UsnUnsynced
	d.Mod = c.clock.Now().Unix()
	return c.putJSON(ctx, tableDecks, d.ID, d.Mod, d)
}

// SaveDeckConfig stores conf as an unsynced options group.
func (c *Collection) SaveDeckConfig(ctx context.Context, conf models.DeckConfig) error {
	conf.Usn = models.UsnUnsynced
	conf.Mod = c.clock.Now().Unix()
	return c.putJSON(ctx, tableDeckConfigs, conf.ID, conf.Mod, conf)
}

// AddTags registers tags as unsynced.
func (c *Collection) AddTags(ctx context.Context, tags []string) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	return c.inTx(ctx, db, func(tx *sql.Tx) error {
		return registerTags(ctx, db, tx, tags, models.UsnUnsynced)
	})
}

// Row reads one bulk row by id.
func (c *Collection) Row(ctx context.Context, table models.Table, id int64) (models.Row, bool, error) {
	db, err := c.handle()
	if err != nil {
		return nil, false, err
	}

	rows, err := queryRows(ctx, db, db, table, builder.Select(quotedColumns(table)...).From(table.Name).Where("id = ?", id))
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Count returns the number of rows in table.
func (c *Collection) Count(ctx context.Context, table string) (int, error) {
	db, err := c.handle()
	if err != nil {
		return 0, err
	}
	return countRows(ctx, db, db, fmt.Sprintf(`SELECT count() FROM %s;`, table))
}

// GraveRows returns every tombstone in insertion order.
func (c *Collection) GraveRows(ctx context.Context) ([]models.Grave, error) {
	db, err := c.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT usn, oid, type FROM graves ORDER BY rowid;`)
	if err != nil {
		return nil, db.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []models.Grave
	for rows.Next() {
		var g models.Grave
		if err = rows.Scan(&g.Usn, &g.OID, &g.Type); err != nil {
			return nil, db.wrap(ErrScanningRows, err)
		}
		out = append(out, g)
	}
	if err = rows.Err(); err != nil {
		return nil, db.wrap(ErrScanningRows, err)
	}
	return out, nil
}

func (c *Collection) putRow(ctx context.Context, table models.Table, row models.Row) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	return c.inTx(ctx, db, func(tx *sql.Tx) error {
		if err := applyRows(ctx, db, tx, table, []models.Row{row}); err != nil {
			return err
		}
		return c.touch(ctx, db, tx)
	})
}

func (c *Collection) putJSON(ctx context.Context, table string, id, mod int64, v any) error {
	db, err := c.handle()
	if err != nil {
		return err
	}

	return c.inTx(ctx, db, func(tx *sql.Tx) error {
		if err := saveJSON(ctx, db, tx, table, id, mod, models.UsnUnsynced, v); err != nil {
			return err
		}
		return c.touch(ctx, db, tx)
	})
}

// touch bumps the collection modification time.
func (c *Collection) touch(ctx context.Context, db *DB, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `UPDATE col SET mod = ?;`, c.clock.Now().UnixMilli()); err != nil {
		return db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

func (c *Collection) inTx(ctx context.Context, db *DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return db.wrap(ErrBeginningTransaction, err)
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return db.wrap(ErrCommitingTransaction, err)
	}
	return nil
}

// ── shared queries ───────────────────────────────────────────────────────────

func readMeta(ctx context.Context, db *DB, q querier) (models.LocalMeta, error) {
	var m models.LocalMeta
	err := q.QueryRowContext(ctx, selectMeta).Scan(&m.Crt, &m.Mod, &m.Scm, &m.Usn, &m.LastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LocalMeta{}, ErrNoMetaRow
	}
	if err != nil {
		return models.LocalMeta{}, db.wrap(ErrExecutingQuery, err)
	}
	return m, nil
}

// basicCheck looks for cards without notes, notes without cards or note
// type, and cards whose template ordinal the note type lacks.
func basicCheck(ctx context.Context, db *DB, q querier) (string, error) {
	checks := []struct {
		query   string
		problem string
	}{
		{cardsWithoutNotes, "cards without notes"},
		{notesWithoutCards, "notes without cards"},
		{notesWithoutModel, "notes without note type"},
	}
	for _, c := range checks {
		found, err := exists(ctx, db, q, c.query)
		if err != nil {
			return "", err
		}
		if found {
			return c.problem, nil
		}
	}

	all, err := loadJSON[models.Model](ctx, db, q, `SELECT mod, usn, json FROM models ORDER BY id;`)
	if err != nil {
		return "", err
	}
	for _, m := range all {
		if m.Type != models.ModelStandard {
			continue
		}
		rows, err := q.QueryContext(ctx, cardOrdsForModel, m.ID)
		if err != nil {
			return "", db.wrap(ErrExecutingQuery, err)
		}
		ords, err := scanIDs(db, rows)
		if err != nil {
			return "", err
		}
		for _, ord := range ords {
			if ord < 0 || ord >= int64(len(m.Templates)) {
				return fmt.Sprintf("card ordinal %d outside note type %d", ord, m.ID), nil
			}
		}
	}
	return "", nil
}

func exists(ctx context.Context, db *DB, q querier, query string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, db.wrap(ErrExecutingQuery, err)
	}
	return true, nil
}

func countRows(ctx context.Context, db *DB, q querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, db.wrap(ErrExecutingQuery, err)
	}
	return n, nil
}

func scanIDs(db *DB, rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, db.wrap(ErrScanningRows, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, db.wrap(ErrScanningRows, err)
	}
	return ids, nil
}

// jsonObject is a small object stored as a JSON document with mirrored
// mod and usn columns.
type jsonObject interface {
	models.Model | models.Deck | models.DeckConfig
}

func loadJSON[T jsonObject](ctx context.Context, db *DB, q querier, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var (
			mod  int64
			usn  int
			blob string
		)
		if err = rows.Scan(&mod, &usn, &blob); err != nil {
			return nil, db.wrap(ErrScanningRows, err)
		}
		v, err := decodeJSONObject[T](blob, mod, usn)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err = rows.Err(); err != nil {
		return nil, db.wrap(ErrScanningRows, err)
	}
	return out, nil
}

// decodeJSONObject decodes blob and overrides its mod and usn with the
// column values, which are authoritative.
func decodeJSONObject[T jsonObject](blob string, mod int64, usn int) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(blob), &v); err != nil {
		return v, fmt.Errorf("%w: decode stored object: %w", ErrScanningRows, err)
	}
	switch x := any(&v).(type) {
	case *models.Model:
		x.Mod, x.Usn = mod, usn
	case *models.Deck:
		x.Mod, x.Usn = mod, usn
	case *models.DeckConfig:
		x.Mod, x.Usn = mod, usn
	}
	return v, nil
}

func saveJSON(ctx context.Context, db *DB, q querier, table string, id, mod int64, usn int, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %d: %w", table, id, err)
	}
	if _, err = q.ExecContext(ctx, upsertJSON(table), id, mod, usn, string(blob)); err != nil {
		return db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

func registerTags(ctx context.Context, db *DB, q querier, tags []string, usn int) error {
	for _, tag := range tags {
		if _, err := q.ExecContext(ctx, upsertTag, tag, usn); err != nil {
			return db.wrap(ErrExecutingStatement, err)
		}
	}
	return nil
}

func applyRows(ctx context.Context, db *DB, q querier, table models.Table, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	query, args, err := buildApplyRowsQuery(table, rows)
	if err != nil {
		return err
	}
	if _, err = q.ExecContext(ctx, query, args...); err != nil {
		return db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

func queryRows(ctx context.Context, db *DB, q querier, table models.Table, b interface {
	ToSql() (string, []any, error)
}) ([]models.Row, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		raw := make([]any, len(table.Columns))
		ptrs := make([]any, len(raw))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err = rows.Scan(ptrs...); err != nil {
			return nil, db.wrap(ErrScanningRows, err)
		}

		row := make(models.Row, len(raw))
		for i, v := range raw {
			if row[i], err = models.CoerceValue(table.Types[i], v); err != nil {
				return nil, fmt.Errorf("%w: %s.%s: %w", ErrScanningRows, table.Name, table.Columns[i], err)
			}
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, db.wrap(ErrScanningRows, err)
	}
	return out, nil
}

func cardIDsOfNotes(ctx context.Context, db *DB, q querier, noteIDs []int64) ([]int64, error) {
	query, args, err := buildSelectCardIDsOfNotesQuery(noteIDs)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, db.wrap(ErrExecutingQuery, err)
	}
	return scanIDs(db, rows)
}

func removeCards(ctx context.Context, db *DB, q querier, ids []int64, grave bool) error {
	return removeByIDs(ctx, db, q, "cards", ids, models.GraveCard, grave)
}

func removeNotes(ctx context.Context, db *DB, q querier, ids []int64, grave bool) error {
	return removeByIDs(ctx, db, q, "notes", ids, models.GraveNote, grave)
}

// removeByIDs deletes rows by id and, when grave is set, records an
// unsynced tombstone for each.
func removeByIDs(ctx context.Context, db *DB, q querier, table string, ids []int64, kind models.GraveType, grave bool) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := buildDeleteByIDsQuery(table, ids)
	if err != nil {
		return err
	}
	if _, err = q.ExecContext(ctx, query, args...); err != nil {
		return db.wrap(ErrExecutingStatement, err)
	}

	if !grave {
		return nil
	}
	for _, id := range ids {
		if _, err = q.ExecContext(ctx, insertGrave, id, int(kind)); err != nil {
			return db.wrap(ErrExecutingStatement, err)
		}
	}
	return nil
}
