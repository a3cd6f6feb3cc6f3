// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorClassification tells how a failed database operation should be
// treated by the caller.
type ErrorClassification int

const (
	// NonRetryable is the default for unrecognised errors, constraint
	// violations and SQL errors.
	NonRetryable ErrorClassification = iota

	// Retryable means the operation may succeed once a competing
	// connection releases its lock.
	Retryable

	// Corrupt means the database file itself is damaged and must be
	// replaced by a full sync.
	Corrupt
)

// SQLiteErrorClassifier maps go-sqlite3 driver errors to an
// [ErrorClassification].
type SQLiteErrorClassifier struct{}

// NewSQLiteErrorClassifier constructs a [SQLiteErrorClassifier].
func NewSQLiteErrorClassifier() *SQLiteErrorClassifier {
	return &SQLiteErrorClassifier{}
}

// Classify implements [ErrorClassificator].
func (c *SQLiteErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetryable
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return ClassifySQLiteError(sqliteErr)
	}
	return NonRetryable
}

// ClassifySQLiteError maps a sqlite3.Error by its primary result code.
//
// Retryable codes: SQLITE_BUSY, SQLITE_LOCKED.
// Corrupt codes: SQLITE_CORRUPT, SQLITE_NOTADB.
func ClassifySQLiteError(err sqlite3.Error) ErrorClassification {
	switch err.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return Retryable
	case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
		return Corrupt
	}
	return NonRetryable
}

// wrapDBError wraps err with op and, when the driver reports corruption or
// a lock, with [ErrCorrupt] or [ErrBusy] as well.
func wrapDBError(c ErrorClassificator, op, err error) error {
	if err == nil {
		return nil
	}
	switch c.Classify(err) {
	case Corrupt:
		return fmt.Errorf("%w: %w: %w", op, ErrCorrupt, err)
	case Retryable:
		return fmt.Errorf("%w: %w: %w", op, ErrBusy, err)
	}
	return fmt.Errorf("%w: %w", op, err)
}
