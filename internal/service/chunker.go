// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/models"
)

// chunker pages the local unsynced bulk rows out in chunks of at most
// [models.ChunkSize] rows, draining revlog, cards and notes in that order.
// Every row is stamped with usn in storage as it is taken.
type chunker struct {
	tx  store.SyncTransaction
	usn int

	tables  []models.Table
	afterID int64
}

func newChunker(tx store.SyncTransaction, usn int) *chunker {
	return &chunker{
		tx:     tx,
		usn:    usn,
		tables: append([]models.Table(nil), models.BulkTables...),
	}
}

// next returns the following chunk. The last chunk has Done set.
func (c *chunker) next(ctx context.Context) (models.Chunk, error) {
	var out models.Chunk
	limit := models.ChunkSize

	for len(c.tables) > 0 && limit > 0 {
		table := c.tables[0]

		rows, err := c.tx.UnsyncedRows(ctx, table, store.RowQuery{AfterID: c.afterID, Limit: limit})
		if err != nil {
			return models.Chunk{}, fmt.Errorf("unsynced %s rows: %w", table.Name, err)
		}

		if len(rows) > 0 {
			ids := make([]int64, len(rows))
			for i, r := range rows {
				ids[i] = r.ID()
				r[table.UsnIndex] = int64(c.usn)
			}
			if err = c.tx.StampRows(ctx, table, ids, c.usn); err != nil {
				return models.Chunk{}, fmt.Errorf("stamp %s rows: %w", table.Name, err)
			}
			c.afterID = ids[len(ids)-1]
		}
		out.SetRows(table.Name, rows)

		if len(rows) < limit {
			c.tables = c.tables[1:]
			c.afterID = 0
		}
		limit -= len(rows)
	}

	out.Done = len(c.tables) == 0
	return out, nil
}
