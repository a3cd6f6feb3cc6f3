// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by the collection and media stores. Callers should
// use [errors.Is] to match against these values.
var (
	// ErrCorrupt is returned when SQLite reports a malformed database image or
	// a file that is not a database at all.
	ErrCorrupt = errors.New("database is corrupt")

	// ErrBusy is returned when the database stays locked by another
	// connection past the busy timeout.
	ErrBusy = errors.New("database is busy")

	// ErrClosed is returned by operations on a collection that was closed
	// for a full sync and not reopened yet.
	ErrClosed = errors.New("collection is closed")

	// ErrUnknownTable is returned when a bulk row operation names a table
	// outside revlog, cards and notes.
	ErrUnknownTable = errors.New("unknown bulk table")

	// ErrNoMetaRow is returned when the collection lacks its "col" row.
	ErrNoMetaRow = errors.New("collection meta row is missing")
)

// Low-level database operation errors. These wrap the driver error so that
// both the operation and the SQLite cause can be matched.
var (
	// ErrBuildingSQLQuery is returned when constructing a SQL query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrExecutingStatement is returned when executing an INSERT, UPDATE or
	// DELETE fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrBeginningTransaction is returned when the driver cannot start a new
	// transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRows is returned when scanning column values fails.
	ErrScanningRows = errors.New("failed to scan rows")
)
