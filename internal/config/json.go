// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk layout of the JSON config file.
type StructuredJSONConfig struct {
	App struct {
		ClientVersion      string `json:"client_version"`
		Username           string `json:"username"`
		Password           string `json:"password"`
		HostKey            string `json:"host_key"`
		ConflictResolution string `json:"conflict_resolution"`
		SyncMedia          bool   `json:"sync_media"`
	} `json:"app,omitempty"`

	Storage struct {
		CollectionPath string `json:"collection_path"`
		MediaDir       string `json:"media_dir"`
		MediaDBPath    string `json:"media_db_path"`
		MediaWatch     bool   `json:"media_watch"`
	} `json:"storage,omitempty"`

	Adapter struct {
		SyncURL          string   `json:"sync_url"`
		MediaURL         string   `json:"media_url"`
		RequestTimeout   Duration `json:"request_timeout"`
		CompressionLevel int      `json:"compression_level"`
	} `json:"adapter,omitempty"`

	Workers struct {
		SyncInterval     Duration `json:"sync_interval"`
		TaskWaitTimeout  Duration `json:"task_wait_timeout"`
		MediaMaxRestarts int      `json:"media_max_restarts"`
	} `json:"workers,omitempty"`

	Log struct {
		File       string `json:"file"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
	} `json:"log,omitempty"`

	Control struct {
		Address string `json:"address"`
	} `json:"control,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			ClientVersion:      jsonCfg.App.ClientVersion,
			Username:           jsonCfg.App.Username,
			Password:           jsonCfg.App.Password,
			HostKey:            jsonCfg.App.HostKey,
			ConflictResolution: jsonCfg.App.ConflictResolution,
			SyncMedia:          jsonCfg.App.SyncMedia,
		},
		Storage: Storage{
			CollectionPath: jsonCfg.Storage.CollectionPath,
			MediaDir:       jsonCfg.Storage.MediaDir,
			MediaDBPath:    jsonCfg.Storage.MediaDBPath,
			MediaWatch:     jsonCfg.Storage.MediaWatch,
		},
		Adapter: Adapter{
			SyncURL:          jsonCfg.Adapter.SyncURL,
			MediaURL:         jsonCfg.Adapter.MediaURL,
			RequestTimeout:   time.Duration(jsonCfg.Adapter.RequestTimeout),
			CompressionLevel: jsonCfg.Adapter.CompressionLevel,
		},
		Workers: Workers{
			SyncInterval:     time.Duration(jsonCfg.Workers.SyncInterval),
			TaskWaitTimeout:  time.Duration(jsonCfg.Workers.TaskWaitTimeout),
			MediaMaxRestarts: jsonCfg.Workers.MediaMaxRestarts,
		},
		Log: Log{
			File:       jsonCfg.Log.File,
			MaxSizeMB:  jsonCfg.Log.MaxSizeMB,
			MaxBackups: jsonCfg.Log.MaxBackups,
		},
		Control: Control{
			Address: jsonCfg.Control.Address,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
