// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/mock"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/models"
)

func newFullSyncFixture(t *testing.T) (*store.Collection, *mock.MockFullSyncServer, FullSyncer) {
	t.Helper()

	ctx := context.Background()
	col, _ := newTestCollection(t)
	require.NoError(t, col.SaveModel(ctx, basicModel(1)))
	seedNote(t, col, 100, 200)

	server := mock.NewMockFullSyncServer(gomock.NewController(t))
	return col, server, NewFullSyncer(col, server, nil, logger.Nop())
}

func hasRow(t *testing.T, col *store.Collection, table models.Table, id int64) bool {
	t.Helper()
	_, ok, err := col.Row(context.Background(), table, id)
	require.NoError(t, err)
	return ok
}

func TestFullSyncer_Upload(t *testing.T) {
	ctx := context.Background()
	col, server, full := newFullSyncFixture(t)

	server.EXPECT().Upload(gomock.Any(), col.Path()).
		DoAndReturn(func(_ context.Context, src string) (string, error) {
			info, err := os.Stat(src)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
			return "OK", nil
		})

	out, err := full.Upload(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Success, out.Result)

	assert.Equal(t, int64(0), rowUsn(t, col, models.TableNotes, 100), "collection is reopened and marked synced")
	meta, err := col.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, meta.Mod, meta.LastSync)
	assert.Equal(t, 0, meta.Usn)
}

func TestFullSyncer_UploadRejected(t *testing.T) {
	_, server, full := newFullSyncFixture(t)
	server.EXPECT().Upload(gomock.Any(), gomock.Any()).Return("collection too large", nil)

	out, err := full.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.GenericError, out.Result)
	assert.Equal(t, "collection too large", out.Detail)
}

func TestFullSyncer_UploadTransportError(t *testing.T) {
	ctx := context.Background()
	col, server, full := newFullSyncFixture(t)
	server.EXPECT().Upload(gomock.Any(), gomock.Any()).Return("", errors.New("connection reset by peer"))

	_, err := full.Upload(ctx)
	require.ErrorContains(t, err, "connection reset by peer")

	_, err = col.Meta(ctx)
	require.NoError(t, err, "collection is reopened on failure")
}

func TestFullSyncer_UploadRefusesBrokenCollection(t *testing.T) {
	ctx := context.Background()
	col, server, full := newFullSyncFixture(t)
	require.NoError(t, col.AddNote(ctx, models.Note{ID: 101, GUID: "lonely", ModelID: 1}))
	server.EXPECT().Upload(gomock.Any(), gomock.Any()).Times(0)

	out, err := full.Upload(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BasicCheckFailed, out.Result)
	assert.Equal(t, int64(models.UsnUnsynced), rowUsn(t, col, models.TableNotes, 100))
}

func TestFullSyncer_Download(t *testing.T) {
	ctx := context.Background()
	col, server, full := newFullSyncFixture(t)

	server.EXPECT().Download(gomock.Any(), col.Path()+".tmp").
		DoAndReturn(func(ctx context.Context, dest string) error {
			remote, err := store.OpenCollection(ctx, dest, clockwork.NewFakeClockAt(testNow), logger.Nop())
			require.NoError(t, err)
			require.NoError(t, remote.SaveModel(ctx, basicModel(1)))
			seedNote(t, remote, 900, 901)
			return remote.Close()
		})

	out, err := full.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Success, out.Result)

	assert.True(t, hasRow(t, col, models.TableNotes, 900))
	assert.False(t, hasRow(t, col, models.TableNotes, 100))
	assert.NoFileExists(t, col.Path()+".tmp")
}

func TestFullSyncer_DownloadRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.ConnectionResultType
	}{
		{name: "client too old", body: "upgradeRequired", want: models.UpgradeRequired},
		{name: "not a database", body: "this is certainly not an sqlite file, just some text padding it out", want: models.RemoteDBError},
		{name: "empty body", body: "", want: models.RemoteDBError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, server, full := newFullSyncFixture(t)
			server.EXPECT().Download(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, dest string) error {
					return os.WriteFile(dest, []byte(tt.body), 0o600)
				})

			out, err := full.Download(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Result)

			assert.True(t, hasRow(t, col, models.TableNotes, 100), "local collection is untouched")
			assert.NoFileExists(t, col.Path()+".tmp")
		})
	}
}

func TestFullSyncer_DownloadRejectsForeignDatabase(t *testing.T) {
	col, server, full := newFullSyncFixture(t)
	server.EXPECT().Download(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, dest string) error {
			db, err := store.NewConnectSQLite(ctx, dest, logger.Nop())
			require.NoError(t, err)
			_, err = db.ExecContext(ctx, `CREATE TABLE things (id INTEGER PRIMARY KEY);`)
			require.NoError(t, err)
			return db.Close()
		})

	out, err := full.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RemoteDBError, out.Result)
	assert.True(t, hasRow(t, col, models.TableNotes, 100), "local collection is untouched")
	assert.NoFileExists(t, col.Path()+".tmp")
}

func TestFullSyncer_DownloadTransportError(t *testing.T) {
	col, server, full := newFullSyncFixture(t)
	server.EXPECT().Download(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dest string) error {
			require.NoError(t, os.WriteFile(dest, []byte("partial"), 0o600))
			return errors.New("unexpected EOF")
		})

	_, err := full.Download(context.Background())
	require.ErrorContains(t, err, "unexpected EOF")
	assert.True(t, hasRow(t, col, models.TableNotes, 100))
	assert.NoFileExists(t, col.Path()+".tmp")
}
