// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/flashsync/internal/logger"
)

// busyTimeoutMs is how long a connection waits on a locked database.
const busyTimeoutMs = 5000

// NewConnectSQLite opens the SQLite file at path, creating it and its
// directory when missing. The pool is limited to one connection: the sync
// worker owns the file exclusively.
func NewConnectSQLite(ctx context.Context, path string, log *logger.Logger) (*DB, error) {
	// db will be in file
	if err := createLocalDBFileIfNotExists(path); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Str("path", path).Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", sqliteDSN(path, false))
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}
	conn.SetMaxOpenConns(1)

	classifier := NewSQLiteErrorClassifier()

	// ping database
	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		return nil, wrapDBError(classifier, ErrExecutingQuery, err)
	}
	log.Debug().Str("func", "NewConnectSQLite").Str("path", path).Msg("connected to database successfully")

	return &DB{
		DB:                 conn,
		errorClassificator: classifier,
		logger:             log,
	}, nil
}

// IntegrityCheck opens path read-only on a fresh connection, runs
// PRAGMA integrity_check and requires exactly one "col" row. An empty file,
// a failed check or a database that is not a collection wraps [ErrCorrupt].
func IntegrityCheck(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	// sqlite treats an empty file as a valid empty database
	if info.Size() == 0 {
		return fmt.Errorf("integrity check: %w: empty file", ErrCorrupt)
	}

	conn, err := sql.Open("sqlite3", sqliteDSN(path, true))
	if err != nil {
		return fmt.Errorf("integrity check open: %w", err)
	}
	defer conn.Close()

	var result string
	if err = conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return wrapDBError(NewSQLiteErrorClassifier(), fmt.Errorf("integrity check: %w", ErrCorrupt), err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %w: %s", ErrCorrupt, result)
	}

	var metaRows int
	if err = conn.QueryRowContext(ctx, countMetaRows).Scan(&metaRows); err != nil {
		return fmt.Errorf("integrity check: %w: not a collection: %w", ErrCorrupt, err)
	}
	if metaRows != 1 {
		return fmt.Errorf("integrity check: %w: %d collection meta rows", ErrCorrupt, metaRows)
	}
	return nil
}

func sqliteDSN(path string, readOnly bool) string {
	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprint(busyTimeoutMs))
	if readOnly {
		q.Set("mode", "ro")
	}
	return "file:" + path + "?" + q.Encode()
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if dir := filepath.Dir(dbFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating DB dir: %w", err)
		}
	}

	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		// if not found - create
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	// file already exists
	return nil
}
