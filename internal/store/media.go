// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jonboulle/clockwork"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/utils"
	"github.com/MKhiriev/flashsync/models"
)

const (
	selectMediaMeta    = `SELECT dirMod, lastUsn FROM meta LIMIT 1;`
	updateLastUsn      = `UPDATE meta SET lastUsn = ?;`
	updateDirMod       = `UPDATE meta SET dirMod = ?;`
	resetMediaMeta     = `UPDATE meta SET dirMod = 0, lastUsn = 0;`
	deleteAllMedia     = `DELETE FROM media;`
	selectMediaEntry   = `SELECT csum, mtime, dirty FROM media WHERE fname = ?;`
	selectAllMedia     = `SELECT fname, csum, mtime, dirty FROM media;`
	upsertMedia        = `INSERT OR REPLACE INTO media (fname, csum, mtime, dirty) VALUES (?, ?, ?, ?);`
	deleteMedia        = `DELETE FROM media WHERE fname = ?;`
	countDirty         = `SELECT count() FROM media WHERE dirty = 1;`
	countPresentMedia  = `SELECT count() FROM media WHERE csum IS NOT NULL;`
	selectDirtyForZip  = `SELECT fname, csum FROM media WHERE dirty = 1 ORDER BY fname LIMIT ?;`
	markMediaRemoved   = `UPDATE media SET csum = NULL, mtime = 0, dirty = 1 WHERE fname = ?;`
	selectDirtyExample = `SELECT 1 FROM media WHERE dirty = 1 LIMIT 1;`
)

// MediaStore tracks the files of the media directory in a SQLite index:
// a checksum per file, a dirty flag for unsynced changes and the media
// sync cursor.
type MediaStore struct {
	db    *DB
	fs    afero.Fs
	dir   string
	clock clockwork.Clock

	logger *logger.Logger
}

// OpenMediaStore opens or creates the index at dbPath for the files in dir
// on fs.
func OpenMediaStore(ctx context.Context, dbPath, dir string, fs afero.Fs, clock clockwork.Clock, log *logger.Logger) (*MediaStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	db, err := NewConnectSQLite(ctx, dbPath, log)
	if err != nil {
		return nil, fmt.Errorf("open media db: %w", err)
	}
	if err = db.MigrateMedia(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate media db: %w", err)
	}

	return &MediaStore{db: db, fs: fs, dir: dir, clock: clock, logger: log}, nil
}

// Dir returns the media directory.
func (m *MediaStore) Dir() string { return m.dir }

// Close closes the index.
func (m *MediaStore) Close() error { return m.db.Close() }

// NormalizeName returns the NFC form of a media file name.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

func (m *MediaStore) meta(ctx context.Context) (dirMod int64, lastUsn int, err error) {
	err = m.db.QueryRowContext(ctx, selectMediaMeta).Scan(&dirMod, &lastUsn)
	if err != nil {
		return 0, 0, m.db.wrap(ErrExecutingQuery, err)
	}
	return dirMod, lastUsn, nil
}

// NeedScan reports whether the index was never built.
func (m *MediaStore) NeedScan(ctx context.Context) (bool, error) {
	dirMod, _, err := m.meta(ctx)
	if err != nil {
		return false, err
	}
	return dirMod == 0, nil
}

// FindChanges scans the media directory and marks new, modified and
// removed files dirty.
func (m *MediaStore) FindChanges(ctx context.Context) error {
	known, err := m.indexEntries(ctx)
	if err != nil {
		return err
	}

	infos, err := afero.ReadDir(m.fs, m.dir)
	if err != nil {
		return fmt.Errorf("read media dir: %w", err)
	}

	seen := make(map[string]struct{}, len(infos))
	var added, removed int
	for _, info := range infos {
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		name := NormalizeName(info.Name())
		seen[name] = struct{}{}

		mtime := info.ModTime().Unix()
		entry, ok := known[name]
		if ok && entry.Mtime == mtime && entry.Checksum != "" {
			continue
		}

		csum, err := m.checksumFile(info.Name())
		if err != nil {
			return err
		}
		if ok && entry.Checksum == csum {
			if _, err = m.db.ExecContext(ctx, upsertMedia, name, csum, mtime, boolInt(entry.Dirty)); err != nil {
				return m.db.wrap(ErrExecutingStatement, err)
			}
			continue
		}
		if _, err = m.db.ExecContext(ctx, upsertMedia, name, csum, mtime, 1); err != nil {
			return m.db.wrap(ErrExecutingStatement, err)
		}
		added++
	}

	for name, entry := range known {
		if _, ok := seen[name]; ok || entry.Checksum == "" {
			continue
		}
		if _, err = m.db.ExecContext(ctx, markMediaRemoved, name); err != nil {
			return m.db.wrap(ErrExecutingStatement, err)
		}
		removed++
	}

	dirMod := m.clock.Now().Unix()
	if info, err := m.fs.Stat(m.dir); err == nil && info.ModTime().Unix() > 0 {
		dirMod = info.ModTime().Unix()
	}
	if _, err = m.db.ExecContext(ctx, updateDirMod, dirMod); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}

	m.logger.Info().Str("func", "MediaStore.FindChanges").Int("added", added).Int("removed", removed).Msg("media directory scanned")
	return nil
}

func (m *MediaStore) indexEntries(ctx context.Context) (map[string]models.MediaFile, error) {
	rows, err := m.db.QueryContext(ctx, selectAllMedia)
	if err != nil {
		return nil, m.db.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	out := make(map[string]models.MediaFile)
	for rows.Next() {
		var (
			f    models.MediaFile
			csum sql.NullString
		)
		if err = rows.Scan(&f.Name, &csum, &f.Mtime, &f.Dirty); err != nil {
			return nil, m.db.wrap(ErrScanningRows, err)
		}
		f.Checksum = csum.String
		out[f.Name] = f
	}
	if err = rows.Err(); err != nil {
		return nil, m.db.wrap(ErrScanningRows, err)
	}
	return out, nil
}

// LastUsn returns the media sync cursor.
func (m *MediaStore) LastUsn(ctx context.Context) (int, error) {
	_, usn, err := m.meta(ctx)
	return usn, err
}

// SetLastUsn stores the media sync cursor.
func (m *MediaStore) SetLastUsn(ctx context.Context, usn int) error {
	if _, err := m.db.ExecContext(ctx, updateLastUsn, usn); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// HaveDirty reports whether any file awaits upload.
func (m *MediaStore) HaveDirty(ctx context.Context) (bool, error) {
	return exists(ctx, m.db, m.db, selectDirtyExample)
}

// DirtyCount returns the number of files awaiting upload.
func (m *MediaStore) DirtyCount(ctx context.Context) (int, error) {
	return countRows(ctx, m.db, m.db, countDirty)
}

// SyncInfo returns the checksum and dirty flag of name. A deleted or
// unknown file has an empty checksum.
func (m *MediaStore) SyncInfo(ctx context.Context, name string) (string, bool, error) {
	var (
		csum  sql.NullString
		mtime int64
		dirty bool
	)
	err := m.db.QueryRowContext(ctx, selectMediaEntry, NormalizeName(name)).Scan(&csum, &mtime, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, m.db.wrap(ErrExecutingQuery, err)
	}
	return csum.String, dirty, nil
}

// MarkClean clears the dirty flag of names.
func (m *MediaStore) MarkClean(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	normalized := make([]string, len(names))
	for i, n := range names {
		normalized[i] = NormalizeName(n)
	}

	query, args, err := builder.Update("media").Set("dirty", 0).Where(sq.Eq{"fname": normalized}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = m.db.ExecContext(ctx, query, args...); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// SyncDelete removes a file deleted on the server from disk and index.
func (m *MediaStore) SyncDelete(ctx context.Context, name string) error {
	name = NormalizeName(name)
	if err := m.fs.Remove(filepath.Join(m.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove media file %s: %w", name, err)
	}
	if _, err := m.db.ExecContext(ctx, deleteMedia, name); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// AddFilesFromZip writes the files of a downloaded batch and records them
// as clean. The "_meta" entry maps zip entry names to file names.
func (m *MediaStore) AddFilesFromZip(ctx context.Context, z *zip.Reader) (int, error) {
	names := make(map[string]string)
	for _, f := range z.File {
		if f.Name != models.MediaMetaEntry {
			continue
		}
		raw, err := readZipEntry(f)
		if err != nil {
			return 0, err
		}
		if err = json.Unmarshal(raw, &names); err != nil {
			return 0, fmt.Errorf("decode media zip meta: %w", err)
		}
	}

	now := m.clock.Now()
	count := 0
	for _, f := range z.File {
		if f.Name == models.MediaMetaEntry {
			continue
		}
		name, ok := names[f.Name]
		if !ok {
			return count, fmt.Errorf("media zip entry %q missing from meta", f.Name)
		}
		name = NormalizeName(name)
		if name == "" || strings.ContainsAny(name, `/\`) {
			return count, fmt.Errorf("media zip has invalid file name %q", name)
		}

		data, err := readZipEntry(f)
		if err != nil {
			return count, err
		}

		path := filepath.Join(m.dir, name)
		if err = afero.WriteFile(m.fs, path, data, 0o644); err != nil {
			return count, fmt.Errorf("write media file %s: %w", name, err)
		}
		if err = m.fs.Chtimes(path, now, now); err != nil {
			return count, fmt.Errorf("touch media file %s: %w", name, err)
		}

		if _, err = m.db.ExecContext(ctx, upsertMedia, name, utils.Checksum(data), now.Unix(), 0); err != nil {
			return count, m.db.wrap(ErrExecutingStatement, err)
		}
		count++
	}
	return count, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read zip entry %s: %w", f.Name, err)
	}
	return b, nil
}

// ChangesZip writes up to [models.MediaBatchFiles] dirty files, stopping
// once [models.MediaBatchBytes] is reached, as an upload zip to w. It
// returns the file names in the order they were added. A dirty file that is
// gone from disk is sent as a deletion.
func (m *MediaStore) ChangesZip(ctx context.Context, w io.Writer) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, selectDirtyForZip, models.MediaBatchFiles)
	if err != nil {
		return nil, m.db.wrap(ErrExecutingQuery, err)
	}

	type dirtyFile struct {
		name string
		csum sql.NullString
	}
	var dirty []dirtyFile
	for rows.Next() {
		var f dirtyFile
		if err = rows.Scan(&f.name, &f.csum); err != nil {
			rows.Close()
			return nil, m.db.wrap(ErrScanningRows, err)
		}
		dirty = append(dirty, f)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, m.db.wrap(ErrScanningRows, err)
	}

	zw := zip.NewWriter(w)
	var (
		names []string
		meta  []models.MediaUploadEntry
		size  int64
	)
	for i, f := range dirty {
		names = append(names, f.name)
		entry := models.MediaUploadEntry{Name: NormalizeName(f.name)}

		if f.csum.Valid && f.csum.String != "" {
			data, err := afero.ReadFile(m.fs, filepath.Join(m.dir, f.name))
			switch {
			case os.IsNotExist(err):
				if _, err = m.db.ExecContext(ctx, markMediaRemoved, f.name); err != nil {
					return nil, m.db.wrap(ErrExecutingStatement, err)
				}
			case err != nil:
				return nil, fmt.Errorf("read media file %s: %w", f.name, err)
			default:
				entry.ZipName = strconv.Itoa(i)
				part, err := zw.Create(entry.ZipName)
				if err != nil {
					return nil, fmt.Errorf("add %s to media zip: %w", f.name, err)
				}
				if _, err = part.Write(data); err != nil {
					return nil, fmt.Errorf("add %s to media zip: %w", f.name, err)
				}
				size += int64(len(data))
			}
		}
		meta = append(meta, entry)

		if size >= models.MediaBatchBytes {
			break
		}
	}

	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode media zip meta: %w", err)
	}
	part, err := zw.Create(models.MediaMetaEntry)
	if err != nil {
		return nil, fmt.Errorf("add meta to media zip: %w", err)
	}
	if _, err = io.Copy(part, bytes.NewReader(rawMeta)); err != nil {
		return nil, fmt.Errorf("add meta to media zip: %w", err)
	}
	if err = zw.Close(); err != nil {
		return nil, fmt.Errorf("finish media zip: %w", err)
	}
	return names, nil
}

// MediaCount returns the number of files present locally.
func (m *MediaStore) MediaCount(ctx context.Context) (int, error) {
	return countRows(ctx, m.db, m.db, countPresentMedia)
}

// ForceResync drops the index so that the next media sync rescans the
// directory and starts from usn 0.
func (m *MediaStore) ForceResync(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, deleteAllMedia); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}
	if _, err := m.db.ExecContext(ctx, resetMediaMeta); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}
	m.logger.Info().Str("func", "MediaStore.ForceResync").Msg("media index reset")
	return nil
}

// AddFile records a local change to name. Files whose content matches the
// index are left untouched.
func (m *MediaStore) AddFile(ctx context.Context, name string) error {
	name = NormalizeName(name)

	info, err := m.fs.Stat(filepath.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("stat media file %s: %w", name, err)
	}
	if info.IsDir() {
		return nil
	}

	csum, err := m.checksumFile(name)
	if err != nil {
		return err
	}
	known, _, err := m.SyncInfo(ctx, name)
	if err != nil {
		return err
	}
	if known == csum {
		return nil
	}

	if _, err = m.db.ExecContext(ctx, upsertMedia, name, csum, info.ModTime().Unix(), 1); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

// RemoveFile records a local deletion of name. Unknown files are ignored.
func (m *MediaStore) RemoveFile(ctx context.Context, name string) error {
	name = NormalizeName(name)

	known, _, err := m.SyncInfo(ctx, name)
	if err != nil || known == "" {
		return err
	}
	if _, err = m.db.ExecContext(ctx, markMediaRemoved, name); err != nil {
		return m.db.wrap(ErrExecutingStatement, err)
	}
	return nil
}

func (m *MediaStore) checksumFile(name string) (string, error) {
	f, err := m.fs.Open(filepath.Join(m.dir, name))
	if err != nil {
		return "", fmt.Errorf("open media file %s: %w", name, err)
	}
	defer f.Close()
	return utils.ChecksumReader(f)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
