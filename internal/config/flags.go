// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// ConflictMode holds a validated conflict resolution mode.
// It implements the flag.Value interface.
type ConflictMode struct {
	Mode string
}

// ParseFlags parses configuration flags from args (without the program
// name).
//
// Flags:
//
//	-u sync server base URL
//	-media-url media server base URL
//	-p collection path
//	-media-dir media directory
//	-media-db media index path
//	-watch-media record media directory changes as they happen
//	-c/-config json file path with configs
//	-user login username
//	-password login password
//	-hkey host key from a previous login
//	-resolve conflict resolution: upload or download
//	-media also sync media
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-compression gzip level for request payloads
//	-interval periodic sync interval (e.g., "10m")
//	-task-wait how long a sync waits for the running task
//	-media-restarts media sync restart ceiling
//	-log log file path
//	-control listen address of the local control API
func ParseFlags(args []string) (*StructuredConfig, error) {
	var (
		syncURL, mediaURL                      string
		collectionPath, mediaDir, mediaDBPath  string
		watchMedia, syncMedia                  bool
		jsonConfigPath                         string
		username, password, hostKey, cvVersion string
		conflict                               ConflictMode
		requestTimeout, interval, taskWait     time.Duration
		compression, mediaRestarts             int
		logFile, controlAddr                   string
	)

	fs := flag.NewFlagSet("flashsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&syncURL, "u", "", "Sync server base URL")
	fs.StringVar(&mediaURL, "media-url", "", "Media server base URL")
	fs.StringVar(&collectionPath, "p", "", "Collection path")
	fs.StringVar(&mediaDir, "media-dir", "", "Media directory")
	fs.StringVar(&mediaDBPath, "media-db", "", "Media index path")
	fs.BoolVar(&watchMedia, "watch-media", false, "Record media directory changes as they happen")
	fs.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	fs.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	fs.StringVar(&username, "user", "", "Login username")
	fs.StringVar(&password, "password", "", "Login password")
	fs.StringVar(&hostKey, "hkey", "", "Host key")
	fs.StringVar(&cvVersion, "client-version", "", "Client version reported to the server")
	fs.Var(&conflict, "resolve", "Full sync direction: upload or download")
	fs.BoolVar(&syncMedia, "media", false, "Also sync media")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.IntVar(&compression, "compression", 0, "Gzip level for request payloads")
	fs.DurationVar(&interval, "interval", 0, "Periodic sync interval (e.g., 10m)")
	fs.DurationVar(&taskWait, "task-wait", 0, "How long a sync waits for the running task")
	fs.IntVar(&mediaRestarts, "media-restarts", 0, "Media sync restart ceiling")
	fs.StringVar(&logFile, "log", "", "Log file path")
	fs.StringVar(&controlAddr, "control", "", "Listen address of the local control API")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	return &StructuredConfig{
		App: App{
			ClientVersion:      cvVersion,
			Username:           username,
			Password:           password,
			HostKey:            hostKey,
			ConflictResolution: conflict.Mode,
			SyncMedia:          syncMedia,
		},
		Storage: Storage{
			CollectionPath: collectionPath,
			MediaDir:       mediaDir,
			MediaDBPath:    mediaDBPath,
			MediaWatch:     watchMedia,
		},
		Adapter: Adapter{
			SyncURL:          strings.TrimRight(syncURL, "/"),
			MediaURL:         strings.TrimRight(mediaURL, "/"),
			RequestTimeout:   requestTimeout,
			CompressionLevel: compression,
		},
		Workers: Workers{
			SyncInterval:     interval,
			TaskWaitTimeout:  taskWait,
			MediaMaxRestarts: mediaRestarts,
		},
		Log:          Log{File: logFile},
		Control:      Control{Address: controlAddr},
		JSONFilePath: jsonConfigPath,
	}, nil
}

// String returns the mode.
func (m *ConflictMode) String() string {
	return m.Mode
}

// Set accepts "upload" or "download", case-insensitively.
func (m *ConflictMode) Set(s string) error {
	mode := strings.ToLower(strings.TrimSpace(s))
	switch mode {
	case ConflictResolutionUpload, ConflictResolutionDownload:
		m.Mode = mode
		return nil
	}
	return errors.New("conflict resolution must be `upload` or `download`")
}
