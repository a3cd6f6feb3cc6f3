// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"fmt"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/internal/config"
	handler "github.com/MKhiriev/flashsync/internal/handler/http"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/server"
	"github.com/MKhiriev/flashsync/internal/service"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/internal/utils"
	"github.com/MKhiriev/flashsync/internal/workers"
	"github.com/MKhiriev/flashsync/models"
)

// shutdownTimeout bounds the wait for a sync in flight after a signal.
const shutdownTimeout = 30 * time.Second

// App is the headless client.
type App struct {
	cfg      *config.StructuredConfig
	version  string
	storages *store.ClientStorages
	services *service.ClientServices

	control *server.HTTPServer
	handler *handler.Handler

	logger *logger.Logger
}

// NewApp opens the local storages and wires the sync services for cfg.
func NewApp(cfg *config.StructuredConfig, buildInfo models.AppBuildInfo, log *logger.Logger) (*App, error) {
	log.Info().Msg("creating new client app...")

	if cfg.App.ClientVersion != "" {
		buildInfo = models.NewAppBuildInfo(cfg.App.ClientVersion, buildInfo.BuildDate(), buildInfo.BuildCommit())
	}

	clock := clockwork.NewRealClock()
	storages, err := store.NewClientStorages(context.Background(), cfg.Storage, cfg.App.SyncMedia, clock, log)
	if err != nil {
		return nil, fmt.Errorf("open storages: %w", err)
	}

	transport := adapter.NewTransport(utils.NewHTTPClient(cfg.Adapter.RequestTimeout), "", log)
	remotes, err := adapter.NewRemotes(cfg.Adapter, transport, buildInfo.ClientVersion(runtime.GOOS), log)
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("create remotes: %w", err)
	}

	services := service.NewClientServices(*cfg, storages, remotes, clock, log)
	services.Connection.SetProgress(func(p models.Progress) {
		log.Debug().Str("progress", p.String()).Msg("sync progress")
	})

	return &App{
		cfg:      cfg,
		version:  buildInfo.BuildVersion(),
		storages: storages,
		services: services,
		logger:   log,
	}, nil
}

// Run syncs once and, when a sync interval or control address is configured,
// keeps serving until SIGTERM, SIGINT or SIGQUIT.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	defer a.close()

	req, err := a.syncRequest(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Control.Address != "" {
		a.handler = handler.NewHandler(a.services.Connection, req, a.version, a.logger)
		a.control = server.NewHTTPServer(a.handler.Init(), a.cfg.Control.Address, a.logger)
	}

	p := <-a.services.Connection.Sync(ctx, req)
	a.record(p)

	if !a.longRunning() {
		if !p.OK() {
			return fmt.Errorf("%w: %s", ErrSyncFailed, p.Message)
		}
		return nil
	}

	ws := workers.NewWorkers(a.workers(req)...)
	if err = ws.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	<-ctx.Done()
	a.logger.Info().Msg("shutting down client...")
	ws.Stop()
	a.services.Connection.Cancel()

	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = a.services.Connection.Wait(waitCtx); err != nil {
		return fmt.Errorf("wait for running sync: %w", err)
	}
	a.logger.Info().Msg("client shut down gracefully")
	return nil
}

// syncRequest builds the base request, logging in first when no host key is
// configured.
func (a *App) syncRequest(ctx context.Context) (models.SyncRequest, error) {
	req := models.SyncRequest{
		HostKey:      a.cfg.App.HostKey,
		IncludeMedia: a.cfg.App.SyncMedia,
		Resolution:   models.ConflictResolution(a.cfg.App.ConflictResolution),
	}
	if req.HostKey != "" {
		return req, nil
	}
	if a.cfg.App.Username == "" {
		return req, ErrNoCredentials
	}

	p := a.services.Connection.Login(ctx, models.Credentials{
		Username: a.cfg.App.Username,
		Password: a.cfg.App.Password,
	})
	if !p.OK() {
		return req, fmt.Errorf("%w: %s", ErrLoginFailed, p.Message)
	}
	a.logger.Info().Str("username", a.cfg.App.Username).Msg("logged in")

	req.HostKey = p.HostKey
	return req, nil
}

func (a *App) longRunning() bool {
	return a.cfg.Workers.SyncInterval > 0 || a.control != nil
}

// workers lists the background workers to run. Nil pointers are left out
// so that no typed nil reaches [workers.NewWorkers].
func (a *App) workers(req models.SyncRequest) []workers.Worker {
	var ws []workers.Worker
	if a.storages.Watcher != nil {
		ws = append(ws, a.storages.Watcher)
	}
	if job := a.services.SyncJob(req, a.record); job != nil {
		ws = append(ws, job)
	}
	if a.control != nil {
		ws = append(ws, a.control)
	}
	return ws
}

func (a *App) record(p models.Payload) {
	ev := a.logger.Info()
	if !p.OK() {
		ev = a.logger.Warn()
	}
	ev = ev.Stringer("result", p.Result).Str("message", p.Message)
	if p.MediaSynced {
		ev = ev.Stringer("media_result", p.MediaResult)
	}
	ev.Msg("sync finished")

	if a.handler != nil {
		a.handler.Record(p)
	}
}

func (a *App) close() {
	if err := a.storages.Close(); err != nil {
		a.logger.Err(err).Str("func", "*App.close").Msg("closing storages")
	}
}
