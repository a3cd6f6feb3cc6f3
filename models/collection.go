// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// UsnUnsynced marks a row changed locally since the last sync.
const UsnUnsynced = -1

// LocalMeta is the single "col" row of a collection.
type LocalMeta struct {
	// Crt is the collection creation time in seconds.
	Crt int64
	// Mod is the modification time in milliseconds.
	Mod int64
	// Scm is the schema fingerprint in milliseconds.
	Scm int64
	// Usn is the next usn the server will assign, i.e. the lowest usn
	// that local rows may carry after the last sync.
	Usn int
	// LastSync is the modification time of the last successful sync.
	LastSync int64
}

// Note is one note row.
type Note struct {
	ID        int64
	GUID      string
	ModelID   int64
	Mod       int64
	Usn       int
	Tags      string
	Fields    string
	SortField string
	Checksum  int64
	Flags     int64
	Data      string
}

// Row returns the note in column order of [TableNotes].
func (n Note) Row() Row {
	return Row{n.ID, n.GUID, n.ModelID, n.Mod, int64(n.Usn), n.Tags, n.Fields, n.SortField, n.Checksum, n.Flags, n.Data}
}

// Card is one card row.
type Card struct {
	ID       int64
	NoteID   int64
	DeckID   int64
	Ord      int64
	Mod      int64
	Usn      int
	Type     int64
	Queue    int64
	Due      int64
	Interval int64
	Factor   int64
	Reps     int64
	Lapses   int64
	Left     int64
	ODue     int64
	ODeckID  int64
	Flags    int64
	Data     string
}

// Card queues used by the due counts.
const (
	QueueNew        = 0
	QueueLearning   = 1
	QueueReview     = 2
	QueueDayLearned = 3
)

// Row returns the card in column order of [TableCards].
func (c Card) Row() Row {
	return Row{c.ID, c.NoteID, c.DeckID, c.Ord, c.Mod, int64(c.Usn), c.Type, c.Queue, c.Due, c.Interval,
		c.Factor, c.Reps, c.Lapses, c.Left, c.ODue, c.ODeckID, c.Flags, c.Data}
}

// Review is one revlog row.
type Review struct {
	ID           int64
	CardID       int64
	Usn          int
	Ease         int64
	Interval     int64
	LastInterval int64
	Factor       int64
	Time         int64
	Type         int64
}

// Row returns the review in column order of [TableRevlog].
func (r Review) Row() Row {
	return Row{r.ID, r.CardID, int64(r.Usn), r.Ease, r.Interval, r.LastInterval, r.Factor, r.Time, r.Type}
}
