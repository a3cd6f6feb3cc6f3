// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ChunkSize is the number of rows sent per chunk round-trip.
const ChunkSize = 250

// ColumnType classifies how a column value travels in chunk JSON.
type ColumnType int

// Column types.
const (
	ColInteger ColumnType = iota
	ColFloat
	ColString
)

// Table describes a bulk table streamed in chunks.
type Table struct {
	Name    string
	Columns []string
	Types   []ColumnType
	// UsnIndex is the position of the usn column.
	UsnIndex int
	// ModIndex is the position of the modification time column, or -1 for
	// append-only tables.
	ModIndex int
}

// Bulk tables in the fixed order they are drained.
var (
	TableRevlog = Table{
		Name:     "revlog",
		Columns:  []string{"id", "cid", "usn", "ease", "ivl", "lastIvl", "factor", "time", "type"},
		Types:    []ColumnType{ColInteger, ColInteger, ColInteger, ColInteger, ColInteger, ColInteger, ColInteger, ColInteger, ColInteger},
		UsnIndex: 2,
		ModIndex: -1,
	}
	TableCards = Table{
		Name: "cards",
		Columns: []string{"id", "nid", "did", "ord", "mod", "usn", "type", "queue", "due", "ivl",
			"factor", "reps", "lapses", "left", "odue", "odid", "flags", "data"},
		Types: []ColumnType{ColInteger, ColInteger, ColInteger, ColInteger, ColInteger, ColInteger,
			ColInteger, ColInteger, ColInteger, ColInteger, ColInteger, ColInteger, ColInteger,
			ColInteger, ColInteger, ColInteger, ColInteger, ColString},
		UsnIndex: 5,
		ModIndex: 4,
	}
	TableNotes = Table{
		Name:    "notes",
		Columns: []string{"id", "guid", "mid", "mod", "usn", "tags", "flds", "sfld", "csum", "flags", "data"},
		Types: []ColumnType{ColInteger, ColString, ColInteger, ColInteger, ColInteger, ColString,
			ColString, ColString, ColInteger, ColInteger, ColString},
		UsnIndex: 4,
		ModIndex: 3,
	}

	// BulkTables is the drain order used in both paging directions.
	BulkTables = []Table{TableRevlog, TableCards, TableNotes}
)

// TableByName returns the bulk table with the given name.
func TableByName(name string) (Table, bool) {
	for _, t := range BulkTables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Row is a single table row. Values are int64, float64 or string according
// to the table's column types.
type Row []any

// ID returns the primary key, which is always the first column.
func (r Row) ID() int64 {
	if len(r) == 0 {
		return 0
	}
	v, _ := r[0].(int64)
	return v
}

// Int returns the integer value at i, or 0 when it is not an integer.
func (r Row) Int(i int) int64 {
	if i < 0 || i >= len(r) {
		return 0
	}
	v, _ := r[i].(int64)
	return v
}

// Chunk is one page of bulk rows. Tables absent from a page are nil.
type Chunk struct {
	Done   bool
	Revlog []Row
	Cards  []Row
	Notes  []Row
}

// Rows returns the rows carried for table.
func (c *Chunk) Rows(table string) []Row {
	switch table {
	case TableRevlog.Name:
		return c.Revlog
	case TableCards.Name:
		return c.Cards
	case TableNotes.Name:
		return c.Notes
	}
	return nil
}

// SetRows stores rows for table. The slice is kept non-nil so that an
// exhausted table is still announced with an empty array.
func (c *Chunk) SetRows(table string, rows []Row) {
	if rows == nil {
		rows = []Row{}
	}
	switch table {
	case TableRevlog.Name:
		c.Revlog = rows
	case TableCards.Name:
		c.Cards = rows
	case TableNotes.Name:
		c.Notes = rows
	}
}

// Len returns the number of rows across all tables.
func (c *Chunk) Len() int {
	return len(c.Revlog) + len(c.Cards) + len(c.Notes)
}

type chunkWire struct {
	Done   bool            `json:"done"`
	Revlog json.RawMessage `json:"revlog,omitempty"`
	Cards  json.RawMessage `json:"cards,omitempty"`
	Notes  json.RawMessage `json:"notes,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Chunk) MarshalJSON() ([]byte, error) {
	w := chunkWire{Done: c.Done}
	var err error
	if c.Revlog != nil {
		if w.Revlog, err = encodeRows(TableRevlog, c.Revlog); err != nil {
			return nil, err
		}
	}
	if c.Cards != nil {
		if w.Cards, err = encodeRows(TableCards, c.Cards); err != nil {
			return nil, err
		}
	}
	if c.Notes != nil {
		if w.Notes, err = encodeRows(TableNotes, c.Notes); err != nil {
			return nil, err
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Every value is coerced to the
// column type declared for its table, so a float column carrying an
// integral number still decodes as float64.
func (c *Chunk) UnmarshalJSON(b []byte) error {
	var w chunkWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode chunk: %w", err)
	}

	out := Chunk{Done: w.Done}
	var err error
	if len(w.Revlog) > 0 {
		if out.Revlog, err = DecodeRows(TableRevlog, w.Revlog); err != nil {
			return err
		}
	}
	if len(w.Cards) > 0 {
		if out.Cards, err = DecodeRows(TableCards, w.Cards); err != nil {
			return err
		}
	}
	if len(w.Notes) > 0 {
		if out.Notes, err = DecodeRows(TableNotes, w.Notes); err != nil {
			return err
		}
	}

	*c = out
	return nil
}

// ApplyChunkRequest is the body of the "applyChunk" command.
type ApplyChunkRequest struct {
	Chunk Chunk `json:"chunk"`
}

func encodeRows(t Table, rows []Row) (json.RawMessage, error) {
	out := make([]Row, len(rows))
	for i, r := range rows {
		if len(r) != len(t.Types) {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d",
				ErrRowShape, t.Name, i, len(r), len(t.Types))
		}
		row := make(Row, len(r))
		for col, v := range r {
			coerced, err := CoerceValue(t.Types[col], v)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", t.Name, i, t.Columns[col], err)
			}
			row[col] = coerced
		}
		out[i] = row
	}
	return json.Marshal(out)
}

// DecodeRows decodes a JSON array of rows for table t.
func DecodeRows(t Table, raw json.RawMessage) ([]Row, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic [][]any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", t.Name, err)
	}
	if generic == nil {
		return nil, nil
	}

	rows := make([]Row, 0, len(generic))
	for i, g := range generic {
		if len(g) != len(t.Types) {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d",
				ErrRowShape, t.Name, i, len(g), len(t.Types))
		}
		row := make(Row, len(g))
		for col, v := range g {
			coerced, err := CoerceValue(t.Types[col], v)
			if err != nil {
				return nil, fmt.Errorf("%s row %d column %s: %w", t.Name, i, t.Columns[col], err)
			}
			row[col] = coerced
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CoerceValue converts v, as produced by a JSON decoder or a database
// driver, to the Go type used for column type ct. nil becomes the zero value.
func CoerceValue(ct ColumnType, v any) (any, error) {
	switch ct {
	case ColInteger:
		switch x := v.(type) {
		case nil:
			return int64(0), nil
		case int64:
			return x, nil
		case int:
			return int64(x), nil
		case float64:
			if x != math.Trunc(x) {
				return nil, fmt.Errorf("%w: %v is not an integer", ErrColumnType, x)
			}
			return int64(x), nil
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
			f, err := x.Float64()
			if err != nil || f != math.Trunc(f) {
				return nil, fmt.Errorf("%w: %s is not an integer", ErrColumnType, x)
			}
			return int64(f), nil
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case []byte:
			return strconv.ParseInt(string(x), 10, 64)
		}
	case ColFloat:
		switch x := v.(type) {
		case nil:
			return float64(0), nil
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %s is not a number", ErrColumnType, x)
			}
			return f, nil
		}
	case ColString:
		switch x := v.(type) {
		case nil:
			return "", nil
		case string:
			return x, nil
		case []byte:
			return string(x), nil
		case json.Number:
			return x.String(), nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected %T", ErrColumnType, v)
}
