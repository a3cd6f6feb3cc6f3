// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/migrations"
)

// DB is a SQLite handle with the classifier used to wrap driver errors.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MigrateCollection applies the collection schema.
func (db *DB) MigrateCollection() error {
	return migrations.MigrateCollection(db.DB)
}

// MigrateMedia applies the media index schema.
func (db *DB) MigrateMedia() error {
	return migrations.MigrateMedia(db.DB)
}

func (db *DB) wrap(op, err error) error {
	return wrapDBError(db.errorClassificator, op, err)
}
