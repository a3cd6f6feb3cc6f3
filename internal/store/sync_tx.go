// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/models"
)

// learnAheadSecs is how far ahead intraday learning cards count as due.
const learnAheadSecs = 1200

// syncTx implements [SyncTransaction] over one *sql.Tx.
type syncTx struct {
	tx    *sql.Tx
	db    *DB
	clock clockwork.Clock

	logger *logger.Logger
}

// Commit implements [SyncTransaction].
func (s *syncTx) Commit() error {
	if err := s.tx.Commit(); err != nil {
		return s.db.wrap(ErrCommitingTransaction, err)
	}
	return nil
}

// Rollback implements [SyncTransaction]. Rolling back a finished
// transaction is a no-op.
func (s *syncTx) Rollback() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return s.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// Meta implements [SyncTransaction].
func (s *syncTx) Meta(ctx context.Context) (models.LocalMeta, error) {
	return readMeta(ctx, s.db, s.tx)
}

// BasicCheck implements [Checker].
func (s *syncTx) BasicCheck(ctx context.Context) (string, error) {
	return basicCheck(ctx, s.db, s.tx)
}

// Graves implements [SyncTransaction].
func (s *syncTx) Graves(ctx context.Context) (models.Graves, error) {
	rows, err := s.tx.QueryContext(ctx, selectUnsyncedGraves)
	if err != nil {
		return models.Graves{}, s.db.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var g models.Graves
	for rows.Next() {
		var (
			oid  int64
			kind models.GraveType
		)
		if err = rows.Scan(&oid, &kind); err != nil {
			return models.Graves{}, s.db.wrap(ErrScanningRows, err)
		}
		switch kind {
		case models.GraveCard:
			g.Cards = append(g.Cards, oid)
		case models.GraveNote:
			g.Notes = append(g.Notes, oid)
		case models.GraveDeck:
			g.Decks = append(g.Decks, oid)
		}
	}
	if err = rows.Err(); err != nil {
		return models.Graves{}, s.db.wrap(ErrScanningRows, err)
	}
	return g, nil
}

// StampGraves implements [SyncTransaction].
func (s *syncTx) StampGraves(ctx context.Context, usn int) error {
	if _, err := s.tx.ExecContext(ctx, stampGraves, usn); err != nil {
		return s.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// PurgeGraves implements [SyncTransaction].
func (s *syncTx) PurgeGraves(ctx context.Context, minUsn int) (int64, error) {
	res, err := s.tx.ExecContext(ctx, purgeGraves, minUsn)
	if err != nil {
		return 0, s.db.wrap(ErrExecutingStatement, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ApplyGraves implements [SyncTransaction]. Notes go first and take their
// cards with them.
func (s *syncTx) ApplyGraves(ctx context.Context, graves models.Graves) error {
	if len(graves.Notes) > 0 {
		query, args, err := buildDeleteCardsOfNotesQuery(graves.Notes)
		if err != nil {
			return err
		}
		if _, err = s.tx.ExecContext(ctx, query, args...); err != nil {
			return s.db.wrap(ErrExecutingStatement, err)
		}
		if err = removeNotes(ctx, s.db, s.tx, graves.Notes, false); err != nil {
			return err
		}
	}
	if err := removeCards(ctx, s.db, s.tx, graves.Cards, false); err != nil {
		return err
	}
	return removeByIDs(ctx, s.db, s.tx, tableDecks, graves.Decks, models.GraveDeck, false)
}

// UnsyncedModels implements [SyncTransaction]. The returned models are
// stamped with usn both in the result and in storage.
func (s *syncTx) UnsyncedModels(ctx context.Context, usn int) ([]models.Model, error) {
	return unsyncedJSON[models.Model](ctx, s, tableModels, usn)
}

// UnsyncedDecks implements [SyncTransaction].
func (s *syncTx) UnsyncedDecks(ctx context.Context, usn int) ([]models.Deck, []models.DeckConfig, error) {
	decks, err := unsyncedJSON[models.Deck](ctx, s, tableDecks, usn)
	if err != nil {
		return nil, nil, err
	}
	confs, err := unsyncedJSON[models.DeckConfig](ctx, s, tableDeckConfigs, usn)
	if err != nil {
		return nil, nil, err
	}
	return decks, confs, nil
}

func unsyncedJSON[T jsonObject](ctx context.Context, s *syncTx, table string, usn int) ([]T, error) {
	out, err := loadJSON[T](ctx, s.db, s.tx, selectUnsyncedJSON(table))
	if err != nil {
		return nil, err
	}
	if _, err = s.tx.ExecContext(ctx, stampUnsyncedJSON(table), usn); err != nil {
		return nil, s.db.wrap(ErrExecutingStatement, err)
	}

	for i := range out {
		switch x := any(&out[i]).(type) {
		case *models.Model:
			x.Usn = usn
		case *models.Deck:
			x.Usn = usn
		case *models.DeckConfig:
			x.Usn = usn
		}
	}
	return out, nil
}

// UnsyncedTags implements [SyncTransaction].
func (s *syncTx) UnsyncedTags(ctx context.Context, usn int) ([]string, error) {
	rows, err := s.tx.QueryContext(ctx, selectUnsyncedTags)
	if err != nil {
		return nil, s.db.wrap(ErrExecutingQuery, err)
	}

	var tags []string
	for rows.Next() {
		var tag string
		if err = rows.Scan(&tag); err != nil {
			rows.Close()
			return nil, s.db.wrap(ErrScanningRows, err)
		}
		tags = append(tags, tag)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, s.db.wrap(ErrScanningRows, err)
	}

	if _, err = s.tx.ExecContext(ctx, stampUnsyncedTags, usn); err != nil {
		return nil, s.db.wrap(ErrExecutingStatement, err)
	}
	return tags, nil
}

// Model implements [SyncTransaction].
func (s *syncTx) Model(ctx context.Context, id int64) (models.Model, bool, error) {
	return oneJSON[models.Model](ctx, s, tableModels, id)
}

// SaveModel implements [SyncTransaction]. The model keeps its own mod and
// usn.
func (s *syncTx) SaveModel(ctx context.Context, m models.Model) error {
	return saveJSON(ctx, s.db, s.tx, tableModels, m.ID, m.Mod, m.Usn, m)
}

// Deck implements [SyncTransaction].
func (s *syncTx) Deck(ctx context.Context, id int64) (models.Deck, bool, error) {
	return oneJSON[models.Deck](ctx, s, tableDecks, id)
}

// SaveDeck implements [SyncTransaction].
func (s *syncTx) SaveDeck(ctx context.Context, d models.Deck) error {
	return saveJSON(ctx, s.db, s.tx, tableDecks, d.ID, d.Mod, d.Usn, d)
}

// DeckConfig implements [SyncTransaction].
func (s *syncTx) DeckConfig(ctx context.Context, id int64) (models.DeckConfig, bool, error) {
	return oneJSON[models.DeckConfig](ctx, s, tableDeckConfigs, id)
}

// SaveDeckConfig implements [SyncTransaction].
func (s *syncTx) SaveDeckConfig(ctx context.Context, c models.DeckConfig) error {
	return saveJSON(ctx, s.db, s.tx, tableDeckConfigs, c.ID, c.Mod, c.Usn, c)
}

func oneJSON[T jsonObject](ctx context.Context, s *syncTx, table string, id int64) (T, bool, error) {
	var zero T
	out, err := loadJSON[T](ctx, s.db, s.tx, selectJSONByID(table), id)
	if err != nil {
		return zero, false, err
	}
	if len(out) == 0 {
		return zero, false, nil
	}
	return out[0], true, nil
}

// RegisterTags implements [SyncTransaction].
func (s *syncTx) RegisterTags(ctx context.Context, tags []string, usn int) error {
	return registerTags(ctx, s.db, s.tx, tags, usn)
}

// Config implements [SyncTransaction].
func (s *syncTx) Config(ctx context.Context) (json.RawMessage, error) {
	var conf string
	if err := s.tx.QueryRowContext(ctx, selectConfig).Scan(&conf); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoMetaRow
		}
		return nil, s.db.wrap(ErrExecutingQuery, err)
	}
	return json.RawMessage(conf), nil
}

// SetConfig implements [SyncTransaction].
func (s *syncTx) SetConfig(ctx context.Context, conf json.RawMessage) error {
	if _, err := s.tx.ExecContext(ctx, updateConfig, string(conf)); err != nil {
		return s.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// SetCrt implements [SyncTransaction].
func (s *syncTx) SetCrt(ctx context.Context, crt int64) error {
	if _, err := s.tx.ExecContext(ctx, updateCrt, crt); err != nil {
		return s.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// UnsyncedRows implements [SyncTransaction].
func (s *syncTx) UnsyncedRows(ctx context.Context, table models.Table, q RowQuery) ([]models.Row, error) {
	if _, ok := models.TableByName(table.Name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table.Name)
	}
	if q.Limit <= 0 {
		q.Limit = models.ChunkSize
	}

	query, args, err := buildUnsyncedRowsQuery(table, q)
	if err != nil {
		return nil, err
	}
	return queryRows(ctx, s.db, s.tx, table, rawQuery{query: query, args: args})
}

// StampRows implements [SyncTransaction].
func (s *syncTx) StampRows(ctx context.Context, table models.Table, ids []int64, usn int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := buildStampRowsQuery(table, ids, usn)
	if err != nil {
		return err
	}
	if _, err = s.tx.ExecContext(ctx, query, args...); err != nil {
		return s.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// NewerRows implements [SyncTransaction].
func (s *syncTx) NewerRows(ctx context.Context, table models.Table, ids []int64) (map[int64]int64, error) {
	out := make(map[int64]int64)
	if len(ids) == 0 || table.ModIndex < 0 {
		return out, nil
	}

	query, args, err := buildNewerRowsQuery(table, ids)
	if err != nil {
		return nil, err
	}
	rows, err := s.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.db.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, mod int64
		if err = rows.Scan(&id, &mod); err != nil {
			return nil, s.db.wrap(ErrScanningRows, err)
		}
		out[id] = mod
	}
	if err = rows.Err(); err != nil {
		return nil, s.db.wrap(ErrScanningRows, err)
	}
	return out, nil
}

// ApplyRows implements [SyncTransaction].
func (s *syncTx) ApplyRows(ctx context.Context, table models.Table, rows []models.Row) error {
	if _, ok := models.TableByName(table.Name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table.Name)
	}
	for start := 0; start < len(rows); start += models.ChunkSize {
		end := min(start+models.ChunkSize, len(rows))
		if err := applyRows(ctx, s.db, s.tx, table, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// LocalSanityProblem implements [SyncTransaction].
func (s *syncTx) LocalSanityProblem(ctx context.Context) (string, error) {
	if found, err := exists(ctx, s.db, s.tx, cardsWithoutNotes); err != nil || found {
		return problemIf(found, "missing notes"), err
	}
	if found, err := exists(ctx, s.db, s.tx, notesWithoutCards); err != nil || found {
		return problemIf(found, "missing cards"), err
	}

	for _, table := range []string{"cards", "notes", "revlog", "graves", tableModels, tableDecks, tableDeckConfigs, "tags"} {
		n, err := countRows(ctx, s.db, s.tx, fmt.Sprintf(countUnsyncedInBulk, table))
		if err != nil {
			return "", err
		}
		if n > 0 {
			return fmt.Sprintf("%s had usn = -1", table), nil
		}
	}
	return "", nil
}

func problemIf(found bool, problem string) string {
	if found {
		return problem
	}
	return ""
}

// SanityCheck implements [SyncTransaction]. Each due count is capped at
// [models.SanityReportLimit].
func (s *syncTx) SanityCheck(ctx context.Context) (models.SanityCheck, error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return models.SanityCheck{}, err
	}

	now := s.clock.Now().Unix()
	today := (now - meta.Crt) / 86400
	limit := models.SanityReportLimit

	var check models.SanityCheck
	if check.Due.New, err = s.dueCount(ctx, []int{models.QueueNew}, math.MaxInt64, limit); err != nil {
		return models.SanityCheck{}, err
	}
	intraday, err := s.dueCount(ctx, []int{models.QueueLearning}, now+learnAheadSecs, limit)
	if err != nil {
		return models.SanityCheck{}, err
	}
	interday, err := s.dueCount(ctx, []int{models.QueueDayLearned}, today, limit)
	if err != nil {
		return models.SanityCheck{}, err
	}
	check.Due.Learning = min(intraday+interday, limit)
	if check.Due.Review, err = s.dueCount(ctx, []int{models.QueueReview}, today, limit); err != nil {
		return models.SanityCheck{}, err
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{"cards", &check.Cards},
		{"notes", &check.Notes},
		{"revlog", &check.Revlog},
		{"graves", &check.Graves},
		{tableModels, &check.Models},
		{tableDecks, &check.Decks},
		{tableDeckConfigs, &check.DeckConfigs},
	}
	for _, c := range counts {
		if *c.dst, err = countRows(ctx, s.db, s.tx, fmt.Sprintf(`SELECT count() FROM %s;`, c.table)); err != nil {
			return models.SanityCheck{}, err
		}
	}
	return check, nil
}

func (s *syncTx) dueCount(ctx context.Context, queues []int, cutoff int64, limit int) (int, error) {
	query, args, err := buildDueCountQuery(queues, cutoff, limit)
	if err != nil {
		return 0, err
	}
	return countRows(ctx, s.db, s.tx, query, args...)
}

// FinishSync implements [SyncTransaction]. The collection takes the
// server's modification time and expects usn as its next sequence number.
func (s *syncTx) FinishSync(ctx context.Context, mod int64, usn int) error {
	if _, err := s.tx.ExecContext(ctx, updateFinishSync, mod, mod, usn); err != nil {
		return s.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// rawQuery adapts a prepared statement to the builder interface accepted
// by queryRows.
type rawQuery struct {
	query string
	args  []any
}

func (r rawQuery) ToSql() (string, []any, error) { return r.query, r.args, nil }
