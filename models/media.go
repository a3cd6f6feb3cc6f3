// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
)

// Media batch limits shared by both transfer directions.
const (
	MediaBatchFiles = 25
	MediaBatchBytes = 2621440
)

// MediaMetaEntry is the name of the manifest entry inside a media zip.
const MediaMetaEntry = "_meta"

// MediaSanityOK is the server reply when media counts match.
const MediaSanityOK = "OK"

// MediaBeginResponse is the payload of the media "begin" command.
type MediaBeginResponse struct {
	SessionKey string `json:"sk"`
	Usn        int    `json:"usn"`
}

// MediaChangesRequest is the body of "mediaChanges".
type MediaChangesRequest struct {
	LastUsn int `json:"lastUsn"`
}

// MediaChange is one remote media record. It travels as
// [fname, usn, csum|null]; a nil checksum means the file was deleted.
type MediaChange struct {
	Name     string
	Usn      int
	Checksum *string
}

// Deleted reports whether the server removed the file.
func (c MediaChange) Deleted() bool {
	return c.Checksum == nil || *c.Checksum == ""
}

// MarshalJSON implements json.Marshaler.
func (c MediaChange) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Name, c.Usn, c.Checksum})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *MediaChange) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("decode media change: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("decode media change: %d elements, want 3", len(parts))
	}

	var out MediaChange
	if err := json.Unmarshal(parts[0], &out.Name); err != nil {
		return fmt.Errorf("decode media change name: %w", err)
	}
	if err := json.Unmarshal(parts[1], &out.Usn); err != nil {
		return fmt.Errorf("decode media change usn: %w", err)
	}
	if err := json.Unmarshal(parts[2], &out.Checksum); err != nil {
		return fmt.Errorf("decode media change checksum: %w", err)
	}

	*c = out
	return nil
}

// DownloadFilesRequest is the body of "downloadFiles".
type DownloadFilesRequest struct {
	Files []string `json:"files"`
}

// MediaUploadResult is the reply to "uploadChanges", sent as
// [processedCount, serverLastUsn].
type MediaUploadResult struct {
	Processed int
	LastUsn   int
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *MediaUploadResult) UnmarshalJSON(b []byte) error {
	var parts []int
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("decode upload result: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("decode upload result: %d elements, want 2", len(parts))
	}
	r.Processed, r.LastUsn = parts[0], parts[1]
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r MediaUploadResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]int{r.Processed, r.LastUsn})
}

// MediaSanityRequest is the body of "mediaSanity".
type MediaSanityRequest struct {
	Local int `json:"local"`
}

// MediaResponse is the envelope every media endpoint replies with.
type MediaResponse struct {
	Data json.RawMessage `json:"data"`
	Err  string          `json:"err"`
}

// MediaFile is the local index row for one media file.
type MediaFile struct {
	Name     string
	Checksum string
	Mtime    int64
	Dirty    bool
}

// MediaUploadEntry is one manifest row of an upload zip: the real name and
// the numbered entry holding its bytes, or "" for a deletion.
type MediaUploadEntry struct {
	Name    string
	ZipName string
}

// MarshalJSON implements json.Marshaler.
func (e MediaUploadEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{e.Name, e.ZipName})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *MediaUploadEntry) UnmarshalJSON(b []byte) error {
	var parts []string
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("decode upload entry: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("decode upload entry: %d elements, want 2", len(parts))
	}
	e.Name, e.ZipName = parts[0], parts[1]
	return nil
}
