// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/flashsync/internal/config"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/internal/workers"
	"github.com/MKhiriev/flashsync/models"
)

// ClientServices groups the sync services of one client process.
type ClientServices struct {
	Connection *Connection

	syncInterval time.Duration
	logger       *logger.Logger
}

// NewClientServices wires a [Connection] over the opened storages. Media
// sync is only available when storages carries a media index.
func NewClientServices(cfg config.StructuredConfig, storages *store.ClientStorages, remotes Remotes, clock clockwork.Clock, log *logger.Logger) *ClientServices {
	var media store.MediaIndex
	if storages.Media != nil {
		media = storages.Media
	}

	queue := workers.NewTaskQueue(cfg.Workers.TaskWaitTimeout, log)
	conn := NewConnection(ConnectionConfig{
		SyncURL:          cfg.Adapter.SyncURL,
		MediaMaxRestarts: cfg.Workers.MediaMaxRestarts,
	}, storages.Collection, media, remotes, queue, clock, log)

	return &ClientServices{
		Connection:   conn,
		syncInterval: cfg.Workers.SyncInterval,
		logger:       log,
	}
}

// SyncJob returns the periodic job for req, or nil when no sync interval
// is configured.
func (s *ClientServices) SyncJob(req models.SyncRequest, onResult func(models.Payload)) *SyncJob {
	if s.syncInterval <= 0 {
		return nil
	}
	return NewSyncJob(s.Connection, req, s.syncInterval, onResult, s.logger)
}
