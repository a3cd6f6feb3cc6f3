// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// flashsync client. It aggregates all sub-configurations and is populated
// by merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds the account and sync behaviour settings.
	App App `envPrefix:"APP_"`

	// Storage holds the locations of the collection, the media directory and
	// the media index.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the remote endpoints and transport settings.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds settings for the task queue and the periodic sync job.
	Workers Workers `envPrefix:"WORKERS_"`

	// Log holds the client log file settings.
	Log Log `envPrefix:"LOG_"`

	// Control holds the local control API settings.
	Control Control `envPrefix:"CONTROL_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds account credentials and sync behaviour.
type App struct {
	// ClientVersion overrides the version part of the "cv" string.
	// Env: APP_CLIENT_VERSION
	ClientVersion string `env:"CLIENT_VERSION"`

	// Username and Password are used to obtain a host key when HostKey is
	// empty.
	// Env: APP_USERNAME, APP_PASSWORD
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`

	// HostKey is the authentication token returned by a previous login.
	// Env: APP_HOST_KEY
	HostKey string `env:"HOST_KEY"`

	// ConflictResolution is "", "upload" or "download". It decides the
	// direction of a full sync when one is required.
	// Env: APP_CONFLICT_RESOLUTION
	ConflictResolution string `env:"CONFLICT_RESOLUTION"`

	// SyncMedia enables the media sync after a successful collection sync.
	// Env: APP_SYNC_MEDIA
	SyncMedia bool `env:"SYNC_MEDIA"`
}

// Storage holds local file locations.
type Storage struct {
	// CollectionPath is the SQLite collection file.
	// Env: STORAGE_COLLECTION_PATH
	CollectionPath string `env:"COLLECTION_PATH"`

	// MediaDir is the directory holding media files. Defaults to
	// "<collection>.media".
	// Env: STORAGE_MEDIA_DIR
	MediaDir string `env:"MEDIA_DIR"`

	// MediaDBPath is the SQLite media index. Defaults to
	// "<collection>.media.db".
	// Env: STORAGE_MEDIA_DB_PATH
	MediaDBPath string `env:"MEDIA_DB_PATH"`

	// MediaWatch records media directory changes as they happen instead of
	// rescanning the directory.
	// Env: STORAGE_MEDIA_WATCH
	MediaWatch bool `env:"MEDIA_WATCH"`
}

// Adapter holds the remote endpoints and transport settings.
type Adapter struct {
	// SyncURL is the base URL of the collection sync server. Commands are
	// posted to "<SyncURL>/sync/<command>".
	// Env: ADAPTER_SYNC_URL
	SyncURL string `env:"SYNC_URL"`

	// MediaURL is the base URL of the media server. Defaults to
	// "<SyncURL>/msync".
	// Env: ADAPTER_MEDIA_URL
	MediaURL string `env:"MEDIA_URL"`

	// RequestTimeout bounds connect, read and write of every request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// CompressionLevel is the gzip level used for request payloads.
	// Env: ADAPTER_COMPRESSION_LEVEL
	CompressionLevel int `env:"COMPRESSION_LEVEL"`
}

// Workers holds settings for background processing.
type Workers struct {
	// SyncInterval enables the periodic sync job when non-zero.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// TaskWaitTimeout bounds how long a new sync waits for the task in
	// flight to finish.
	// Env: WORKERS_TASK_WAIT_TIMEOUT
	TaskWaitTimeout time.Duration `env:"TASK_WAIT_TIMEOUT"`

	// MediaMaxRestarts bounds how many times a media sync restarts itself
	// after a concurrent update or a count mismatch.
	// Env: WORKERS_MEDIA_MAX_RESTARTS
	MediaMaxRestarts int `env:"MEDIA_MAX_RESTARTS"`
}

// Log holds the client log file settings.
type Log struct {
	// File is the log file path. Empty means stdout.
	// Env: LOG_FILE
	File string `env:"FILE"`

	// MaxSizeMB is the rotation threshold.
	// Env: LOG_MAX_SIZE_MB
	MaxSizeMB int `env:"MAX_SIZE_MB"`

	// MaxBackups is the number of rotated files kept.
	// Env: LOG_MAX_BACKUPS
	MaxBackups int `env:"MAX_BACKUPS"`
}

// Control holds the local control API settings.
type Control struct {
	// Address is the listen address of the control API, e.g.
	// "127.0.0.1:8765". Empty disables it.
	// Env: CONTROL_ADDRESS
	Address string `env:"ADDRESS"`
}

// Defaults applied to fields left empty by every source.
const (
	DefaultRequestTimeout   = 60 * time.Second
	DefaultCompressionLevel = 6
	DefaultTaskWaitTimeout  = 30 * time.Second
	DefaultMediaMaxRestarts = 3
	DefaultLogMaxSizeMB     = 10
	DefaultLogMaxBackups    = 3
)

// GetStructuredConfig loads, merges, and validates the client configuration
// from all available sources in the following priority order (later sources
// override non-zero fields of earlier ones):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}

func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Adapter.MediaURL == "" && cfg.Adapter.SyncURL != "" {
		cfg.Adapter.MediaURL = cfg.Adapter.SyncURL + "/msync"
	}
	if cfg.Adapter.RequestTimeout == 0 {
		cfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Adapter.CompressionLevel == 0 {
		cfg.Adapter.CompressionLevel = DefaultCompressionLevel
	}
	if cfg.Storage.CollectionPath != "" {
		if cfg.Storage.MediaDir == "" {
			cfg.Storage.MediaDir = cfg.Storage.CollectionPath + ".media"
		}
		if cfg.Storage.MediaDBPath == "" {
			cfg.Storage.MediaDBPath = cfg.Storage.CollectionPath + ".media.db"
		}
	}
	if cfg.Workers.TaskWaitTimeout == 0 {
		cfg.Workers.TaskWaitTimeout = DefaultTaskWaitTimeout
	}
	if cfg.Workers.MediaMaxRestarts == 0 {
		cfg.Workers.MediaMaxRestarts = DefaultMediaMaxRestarts
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = DefaultLogMaxBackups
	}
}
