// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/internal/app"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/internal/workers"
	"github.com/MKhiriev/flashsync/models"
)

// storeErrors are the store sentinels that mean the local database failed.
var storeErrors = []error{
	store.ErrCorrupt,
	store.ErrBusy,
	store.ErrClosed,
	store.ErrNoMetaRow,
	store.ErrUnknownTable,
	store.ErrBuildingSQLQuery,
	store.ErrExecutingQuery,
	store.ErrExecutingStatement,
	store.ErrBeginningTransaction,
	store.ErrCommitingTransaction,
	store.ErrScanningRows,
}

// classifyError maps err to the outcome reported to the user and a detail
// string. Order matters: more specific causes are tested first.
func classifyError(err error) (models.ConnectionResultType, string) {
	if err == nil {
		return models.Success, ""
	}

	var (
		httpErr  *adapter.HTTPError
		mediaErr *adapter.MediaServerError
		netErr   net.Error
		pathErr  *fs.PathError
	)

	switch {
	case errors.Is(err, adapter.ErrBadAuth), errors.Is(err, ErrNoHostKey):
		return models.BadAuth, ""
	case errors.Is(err, context.Canceled):
		return models.UserAborted, ""
	case errors.Is(err, ErrCorruptMediaDB):
		return models.DBError, app.MsgCorruptMediaDB
	case isStoreError(err):
		return models.DBError, err.Error()
	case errors.As(err, &httpErr):
		return models.HTTPError, fmt.Sprintf("%d %s", httpErr.Status, httpErr.Message)
	case errors.As(err, &mediaErr):
		return models.GenericError, mediaErr.Message
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return models.ConnectionError, err.Error()
	case errors.As(err, &pathErr):
		return models.IOError, err.Error()
	case errors.Is(err, workers.ErrQueueBusy):
		return models.GenericError, workers.ErrQueueBusy.Error()
	}
	return models.GenericError, err.Error()
}

func isStoreError(err error) bool {
	for _, target := range storeErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
