// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/MKhiriev/flashsync/models"
)

// ErrorClassificator decides how a driver error should be handled.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// Checker reports structural problems of a collection. An empty problem
// string means the check passed.
type Checker interface {
	BasicCheck(ctx context.Context) (string, error)
}

// CollectionStore is the local collection as seen by the sync services.
type CollectionStore interface {
	Checker

	// BeginSync opens the transaction a whole incremental sync runs in.
	BeginSync(ctx context.Context) (SyncTransaction, error)

	// Meta reads the "col" row outside of any sync.
	Meta(ctx context.Context) (models.LocalMeta, error)

	// MarkSchemaChanged bumps the schema fingerprint so that the next sync
	// is a full sync.
	MarkSchemaChanged(ctx context.Context) error

	// IntegrityCheck runs PRAGMA integrity_check on the live file.
	IntegrityCheck(ctx context.Context) error

	// BeforeUpload resets every usn to 0 and marks the collection synced.
	BeforeUpload(ctx context.Context) error

	// Path returns the collection file path.
	Path() string

	// Close releases the database file.
	Close() error

	// Reopen opens the file at Path again and migrates it.
	Reopen(ctx context.Context) error
}

// SyncTransaction is the transactional view of a collection used by one
// incremental sync. Nothing is persisted until Commit.
type SyncTransaction interface {
	Checker

	Meta(ctx context.Context) (models.LocalMeta, error)

	// Graves returns the unsynced local tombstones.
	Graves(ctx context.Context) (models.Graves, error)
	// StampGraves stamps unsynced tombstones with usn.
	StampGraves(ctx context.Context, usn int) error
	// PurgeGraves deletes tombstones synced before minUsn.
	PurgeGraves(ctx context.Context, minUsn int) (int64, error)
	// ApplyGraves removes the objects named by remote tombstones without
	// recording new graves.
	ApplyGraves(ctx context.Context, graves models.Graves) error

	UnsyncedModels(ctx context.Context, usn int) ([]models.Model, error)
	UnsyncedDecks(ctx context.Context, usn int) ([]models.Deck, []models.DeckConfig, error)
	UnsyncedTags(ctx context.Context, usn int) ([]string, error)

	Model(ctx context.Context, id int64) (models.Model, bool, error)
	SaveModel(ctx context.Context, m models.Model) error
	Deck(ctx context.Context, id int64) (models.Deck, bool, error)
	SaveDeck(ctx context.Context, d models.Deck) error
	DeckConfig(ctx context.Context, id int64) (models.DeckConfig, bool, error)
	SaveDeckConfig(ctx context.Context, c models.DeckConfig) error
	RegisterTags(ctx context.Context, tags []string, usn int) error

	Config(ctx context.Context) (json.RawMessage, error)
	SetConfig(ctx context.Context, conf json.RawMessage) error
	SetCrt(ctx context.Context, crt int64) error

	// UnsyncedRows pages through rows of table with usn = -1, or usn >= minUsn
	// when server is set, ordered by id after afterID.
	UnsyncedRows(ctx context.Context, table models.Table, q RowQuery) ([]models.Row, error)
	// StampRows sets usn on the rows with ids.
	StampRows(ctx context.Context, table models.Table, ids []int64, usn int) error
	// NewerRows returns the mod of every unsynced local row among ids.
	NewerRows(ctx context.Context, table models.Table, ids []int64) (map[int64]int64, error)
	// ApplyRows stores rows by primary key. Revlog rows never overwrite.
	ApplyRows(ctx context.Context, table models.Table, rows []models.Row) error

	// LocalSanityProblem reports rows left unsynced or orphaned after the
	// transfer phases.
	LocalSanityProblem(ctx context.Context) (string, error)
	SanityCheck(ctx context.Context) (models.SanityCheck, error)

	// FinishSync records a successful sync ending at mod.
	FinishSync(ctx context.Context, mod int64, usn int) error

	Commit() error
	Rollback() error
}

// RowQuery selects one page of unsynced rows.
type RowQuery struct {
	AfterID int64
	Limit   int
	Server  bool
	MinUsn  int
}

// MediaIndex is the local media state as seen by the media sync.
type MediaIndex interface {
	NeedScan(ctx context.Context) (bool, error)
	FindChanges(ctx context.Context) error
	LastUsn(ctx context.Context) (int, error)
	SetLastUsn(ctx context.Context, usn int) error
	HaveDirty(ctx context.Context) (bool, error)
	DirtyCount(ctx context.Context) (int, error)
	SyncInfo(ctx context.Context, name string) (checksum string, dirty bool, err error)
	MarkClean(ctx context.Context, names []string) error
	SyncDelete(ctx context.Context, name string) error
	AddFilesFromZip(ctx context.Context, z *zip.Reader) (int, error)
	ChangesZip(ctx context.Context, w io.Writer) ([]string, error)
	MediaCount(ctx context.Context) (int, error)
	ForceResync(ctx context.Context) error
}
