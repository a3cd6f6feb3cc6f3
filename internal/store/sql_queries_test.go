// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/flashsync/models"
)

func Test_buildUnsyncedRowsQuery_Client(t *testing.T) {
	query, args, err := buildUnsyncedRowsQuery(models.TableCards, RowQuery{AfterID: 10, Limit: 250})
	require.NoError(t, err)

	assert.Contains(t, query, `"left"`, "keyword column must be quoted")
	assert.Contains(t, query, "FROM cards")
	assert.Contains(t, query, "ORDER BY id")
	assert.Contains(t, query, "LIMIT 250")
	assert.Equal(t, []any{int64(10), models.UsnUnsynced}, args)
}

func Test_buildUnsyncedRowsQuery_Server(t *testing.T) {
	query, args, err := buildUnsyncedRowsQuery(models.TableNotes, RowQuery{Limit: 5, Server: true, MinUsn: 3})
	require.NoError(t, err)

	assert.Contains(t, query, "usn >= ?")
	assert.Equal(t, []any{int64(0), 3}, args)
}

func Test_buildApplyRowsQuery(t *testing.T) {
	revlog := models.Review{ID: 1}.Row()
	query, args, err := buildApplyRowsQuery(models.TableRevlog, []models.Row{revlog, revlog})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "INSERT OR IGNORE INTO revlog"), query)
	assert.Len(t, args, 2*len(models.TableRevlog.Columns))

	query, _, err = buildApplyRowsQuery(models.TableCards, []models.Row{models.Card{ID: 1}.Row()})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "INSERT OR REPLACE INTO cards"), query)
}

func Test_buildStampRowsQuery(t *testing.T) {
	query, args, err := buildStampRowsQuery(models.TableNotes, []int64{1, 2}, 9)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE notes SET usn = ? WHERE id IN (?,?)", query)
	assert.Equal(t, []any{9, int64(1), int64(2)}, args)
}

func Test_buildNewerRowsQuery(t *testing.T) {
	query, args, err := buildNewerRowsQuery(models.TableCards, []int64{4})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, mod FROM cards WHERE id IN (?) AND usn = ?", query)
	assert.Equal(t, []any{int64(4), models.UsnUnsynced}, args)
}

func Test_buildDueCountQuery(t *testing.T) {
	query, args, err := buildDueCountQuery([]int{models.QueueReview}, 30, 1000)
	require.NoError(t, err)
	assert.Contains(t, query, "LIMIT 1000")
	assert.Contains(t, query, "count()")
	assert.Equal(t, []any{models.QueueReview, int64(30)}, args)
}
