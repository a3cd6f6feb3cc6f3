// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/MKhiriev/flashsync/internal/adapter"
	"github.com/MKhiriev/flashsync/internal/app"
	"github.com/MKhiriev/flashsync/internal/logger"
	"github.com/MKhiriev/flashsync/internal/store"
	"github.com/MKhiriev/flashsync/internal/utils"
	"github.com/MKhiriev/flashsync/internal/workers"
	"github.com/MKhiriev/flashsync/models"
)

// DefaultOnlineTimeout bounds the reachability probe run before a sync.
const DefaultOnlineTimeout = 5 * time.Second

// ConnectionConfig holds the coordinator settings.
type ConnectionConfig struct {
	// SyncURL is probed for reachability before any remote call.
	SyncURL string
	// TempDir stages media zips. Empty means the OS temp dir.
	TempDir string
	// MediaMaxRestarts bounds media sync restarts.
	MediaMaxRestarts int
	// OnlineTimeout bounds the reachability probe.
	OnlineTimeout time.Duration
}

// Connection is the entry point for logins and syncs. It runs them one at
// a time on a [workers.TaskQueue], checks reachability first, holds a
// [KeepAlive] for the duration and turns every failure into a
// [models.Payload].
type Connection struct {
	cfg     ConnectionConfig
	col     store.CollectionStore
	media   store.MediaIndex
	remotes Remotes
	queue   *workers.TaskQueue
	clock   clockwork.Clock

	keepAlive KeepAlive
	online    func(ctx context.Context, rawURL string, timeout time.Duration) bool
	ids       *utils.UUIDGenerator

	mu       sync.Mutex
	token    *CancelToken
	progress models.ProgressFunc

	logger *logger.Logger
}

// NewConnection creates a coordinator. media may be nil when media sync is
// disabled.
func NewConnection(cfg ConnectionConfig, col store.CollectionStore, media store.MediaIndex, remotes Remotes, queue *workers.TaskQueue, clock clockwork.Clock, log *logger.Logger) *Connection {
	if cfg.OnlineTimeout <= 0 {
		cfg.OnlineTimeout = DefaultOnlineTimeout
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Connection{
		cfg:       cfg,
		col:       col,
		media:     media,
		remotes:   remotes,
		queue:     queue,
		clock:     clock,
		keepAlive: noKeepAlive{},
		online:    utils.IsOnline,
		ids:       utils.NewUUIDGenerator(),
		logger:    log,
	}
}

// SetKeepAlive replaces the default no-op keep-alive.
func (c *Connection) SetKeepAlive(k KeepAlive) {
	c.keepAlive = k
}

// SetProgress installs the progress callback used by later syncs.
func (c *Connection) SetProgress(f models.ProgressFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = f
}

// Login exchanges creds for a host key. It blocks until done.
func (c *Connection) Login(ctx context.Context, creds models.Credentials) models.Payload {
	var out models.Payload
	err := c.queue.Run(ctx, "login", func(ctx context.Context) {
		out = c.runLogin(ctx, creds)
	})
	if err != nil {
		return c.payload(classifyError(err))
	}
	return out
}

func (c *Connection) runLogin(ctx context.Context, creds models.Credentials) models.Payload {
	if !c.online(ctx, c.cfg.SyncURL, c.cfg.OnlineTimeout) {
		return c.payload(models.Disconnected, "")
	}

	release, err := c.keepAlive.Acquire(ctx)
	if err != nil {
		return c.payload(classifyError(err))
	}
	defer release()

	c.report(models.Progress{Token: models.StatusLogin})
	key, err := c.remotes.SyncServer("", "").HostKey(ctx, creds)
	if err != nil {
		c.logger.Err(err).Str("func", "Connection.Login").Msg("login failed")
		return c.payload(classifyError(err))
	}

	c.logger.Info().Str("func", "Connection.Login").Str("user", creds.Username).Msg("logged in")
	p := c.payload(models.Success, "")
	p.HostKey = key
	return p
}

// Sync starts a sync on the task queue and returns a channel that receives
// exactly one payload. If a previous task is still running, Sync first waits
// for it within the queue's wait timeout.
//
// Cancelling ctx has the same effect as [Connection.Cancel]: the request in
// flight completes, no new phase starts and the server session is aborted.
func (c *Connection) Sync(ctx context.Context, req models.SyncRequest) <-chan models.Payload {
	out := make(chan models.Payload, 1)

	token := NewCancelToken()
	err := c.queue.Submit(context.WithoutCancel(ctx), "sync", func(taskCtx context.Context) {
		c.setToken(token)
		defer c.setToken(nil)

		stop := context.AfterFunc(ctx, token.Cancel)
		defer stop()

		out <- c.runSync(taskCtx, req, token)
	})
	if err != nil {
		out <- c.payload(classifyError(err))
	}
	return out
}

// Cancel requests cancellation of the running sync, if any.
func (c *Connection) Cancel() {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != nil {
		c.logger.Info().Str("func", "Connection.Cancel").Msg("cancellation requested")
		token.Cancel()
	}
}

// Running returns the name of the task in flight ("login" or "sync"), or ""
// when idle.
func (c *Connection) Running() string {
	return c.queue.Running()
}

// Wait blocks until no task is running or ctx ends.
func (c *Connection) Wait(ctx context.Context) error {
	return c.queue.Wait(ctx)
}

func (c *Connection) runSync(ctx context.Context, req models.SyncRequest, token *CancelToken) models.Payload {
	ctx, log := c.logger.WithSyncID(ctx, c.ids.Generate())
	start := c.clock.Now()

	p := c.doSync(ctx, req, token, log)

	ev := log.Info()
	if !p.OK() {
		ev = log.Warn()
	}
	ev.Str("func", "Connection.Sync").
		Str("result", p.Result.String()).Str("detail", p.Detail).
		Dur("took", c.clock.Since(start)).
		Msg("sync finished")
	return p
}

func (c *Connection) doSync(ctx context.Context, req models.SyncRequest, token *CancelToken, log *logger.Logger) models.Payload {
	if token.Cancelled() {
		return c.payload(models.UserAborted, "")
	}
	if !c.online(ctx, c.cfg.SyncURL, c.cfg.OnlineTimeout) {
		return c.payload(models.Disconnected, "")
	}
	if req.HostKey == "" {
		return c.payload(classifyError(ErrNoHostKey))
	}

	release, err := c.keepAlive.Acquire(ctx)
	if err != nil {
		return c.payload(classifyError(err))
	}
	defer release()

	sessionKey := utils.NewSessionKey()
	progress := c.progressFunc()

	var out Outcome
	switch req.Resolution {
	case models.ResolveUpload:
		out, err = NewFullSyncer(c.col, c.remotes.FullSyncServer(req.HostKey, sessionKey), progress, log).Upload(ctx)
	case models.ResolveDownload:
		out, err = NewFullSyncer(c.col, c.remotes.FullSyncServer(req.HostKey, sessionKey), progress, log).Download(ctx)
	default:
		syncer := NewSyncer(c.col, c.remotes.SyncServer(req.HostKey, sessionKey), c.clock, c.remotes.ClientVersion(), progress, log)
		out, err = syncer.Sync(ctx, token)
	}
	if err != nil {
		result, detail := classifyError(err)
		if req.Resolution != models.ResolveNone && (result == models.HTTPError || result == models.GenericError) {
			result = models.ConnectionError
		}
		return c.payload(result, detail)
	}

	p := c.payload(out.Result, out.Detail)
	if !out.Result.OK() || !req.IncludeMedia || token.Cancelled() {
		return p
	}

	p.MediaSynced = true
	if c.media == nil {
		p.MediaResult, p.MediaMessage = models.GenericError, app.Message(classifyError(ErrMediaDisabled))
		return p
	}

	media := NewMediaSyncer(c.media, c.remotes.MediaServer(req.HostKey, c.cfg.TempDir), c.cfg.TempDir, c.cfg.MediaMaxRestarts, progress, log)
	mout, err := media.Sync(ctx, token)
	if err != nil {
		result, detail := classifyError(err)
		p.MediaResult, p.MediaMessage = result, fmt.Sprintf("%s: %s", app.MsgMediaError, app.Message(result, detail))
		log.Err(err).Str("func", "Connection.Sync").Msg("media sync failed")
		return p
	}
	p.MediaResult, p.MediaMessage = mout.Result, app.Message(mout.Result, mout.Detail)
	return p
}

func (c *Connection) payload(result models.ConnectionResultType, detail string) models.Payload {
	return models.Payload{Result: result, Message: app.Message(result, detail), Detail: detail}
}

func (c *Connection) setToken(t *CancelToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = t
}

func (c *Connection) progressFunc() models.ProgressFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

func (c *Connection) report(p models.Progress) {
	c.progressFunc().Report(p)
}

type noKeepAlive struct{}

func (noKeepAlive) Acquire(context.Context) (func(), error) {
	return func() {}, nil
}

// compile-time check that the adapter factory satisfies Remotes
var _ Remotes = (*adapter.Remotes)(nil)
