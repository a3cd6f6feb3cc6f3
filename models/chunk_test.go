// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCardRow() Row {
	return Row{int64(1700000000001), int64(1600000000000), int64(1), int64(0), int64(1700000000),
		int64(-1), int64(2), int64(2), int64(120), int64(30), int64(2500), int64(7), int64(1),
		int64(0), int64(0), int64(0), int64(0), `{"x":1}`}
}

func sampleNoteRow() Row {
	return Row{int64(1600000000000), "a1B2c3D4e5", int64(1500000000000), int64(1700000000),
		int64(-1), " tag1 tag2 ", "front\x1fback", "front", int64(3456789012), int64(0), ""}
}

func sampleRevlogRow() Row {
	return Row{int64(1700000000123), int64(1700000000001), int64(-1), int64(3), int64(30),
		int64(10), int64(2500), int64(8123), int64(1)}
}

// ── Chunk round-trip ─────────────────────────────────────────────────────────

func TestChunk_RoundTripPreservesTypedColumns(t *testing.T) {
	in := Chunk{
		Done:   true,
		Revlog: []Row{sampleRevlogRow()},
		Cards:  []Row{sampleCardRow()},
		Notes:  []Row{sampleNoteRow()},
	}

	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Chunk
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	again, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(again), "second encoding must be byte-identical")
}

func TestChunk_AbsentTablesStayNil(t *testing.T) {
	var c Chunk
	require.NoError(t, json.Unmarshal([]byte(`{"done":false,"cards":[]}`), &c))

	assert.False(t, c.Done)
	assert.Nil(t, c.Revlog)
	assert.Nil(t, c.Notes)
	assert.Empty(t, c.Cards)
	assert.Equal(t, 0, c.Len())
}

func TestChunk_EmptyTableIsAnnounced(t *testing.T) {
	var c Chunk
	c.SetRows(TableRevlog.Name, nil)

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"done":false,"revlog":[]}`, string(b))
}

func TestChunk_NumericStringColumnStaysString(t *testing.T) {
	// guid из одних цифр не должен превратиться в число
	raw := `{"done":true,"notes":[[1,"12345",2,3,4,"","f","f",5,0,""]]}`

	var c Chunk
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.Len(t, c.Notes, 1)
	assert.Equal(t, "12345", c.Notes[0][1])
	assert.Equal(t, int64(5), c.Notes[0][8])
}

func TestChunk_RejectsWrongShape(t *testing.T) {
	var c Chunk
	err := json.Unmarshal([]byte(`{"done":true,"revlog":[[1,2,3]]}`), &c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRowShape)
}

func TestChunk_RejectsFractionalInteger(t *testing.T) {
	var c Chunk
	err := json.Unmarshal([]byte(`{"done":true,"revlog":[[1,2,3,4,5,6,7,8.5,9]]}`), &c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrColumnType)
}

func TestChunk_MarshalDoesNotMutateRows(t *testing.T) {
	row := sampleRevlogRow()
	row[3] = 3 // int, not int64
	c := Chunk{Revlog: []Row{row}}

	_, err := json.Marshal(c)
	require.NoError(t, err)
	assert.IsType(t, 3, row[3])
}

// ── CoerceValue ──────────────────────────────────────────────────────────────

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		name string
		ct   ColumnType
		in   any
		want any
		err  bool
	}{
		{name: "int from json number", ct: ColInteger, in: json.Number("42"), want: int64(42)},
		{name: "int from integral float", ct: ColInteger, in: 7.0, want: int64(7)},
		{name: "int from nil", ct: ColInteger, in: nil, want: int64(0)},
		{name: "int from bytes", ct: ColInteger, in: []byte("12"), want: int64(12)},
		{name: "int from string", ct: ColInteger, in: "12", err: true},
		{name: "float from int", ct: ColFloat, in: int64(2), want: 2.0},
		{name: "float from json number", ct: ColFloat, in: json.Number("2.5"), want: 2.5},
		{name: "string from bytes", ct: ColString, in: []byte("abc"), want: "abc"},
		{name: "string from nil", ct: ColString, in: nil, want: ""},
		{name: "string from float", ct: ColString, in: 1.5, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceValue(tt.ct, tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrColumnType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTableByName(t *testing.T) {
	tbl, ok := TableByName("cards")
	require.True(t, ok)
	assert.Equal(t, 4, tbl.ModIndex)
	assert.Equal(t, "usn", tbl.Columns[tbl.UsnIndex])

	_, ok = TableByName("graves")
	assert.False(t, ok)

	for _, tbl := range BulkTables {
		assert.Len(t, tbl.Types, len(tbl.Columns), tbl.Name)
		assert.Equal(t, "usn", tbl.Columns[tbl.UsnIndex], tbl.Name)
	}
}
