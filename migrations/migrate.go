// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed collection/*.sql media/*.sql
var embedMigrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// ErrNilDB is returned when a migration is requested on a nil handle.
var ErrNilDB = errors.New("db is nil")

// MigrateCollection brings a collection database to the latest schema.
func MigrateCollection(db *sql.DB) error {
	return migrate(db, "collection")
}

// MigrateMedia brings a media index database to the latest schema.
func MigrateMedia(db *sql.DB) error {
	return migrate(db, "media")
}

func migrate(db *sql.DB, dir string) error {
	if db == nil {
		return fmt.Errorf("migration error: %w", ErrNilDB)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
