// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func minimalConfig() *StructuredConfig {
	return &StructuredConfig{
		Adapter: Adapter{SyncURL: "https://sync.example.com"},
		Storage: Storage{CollectionPath: "/data/collection.db"},
	}
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder verifies that an empty builder fails validation
// because the sync URL is required.
func TestBuild_EmptyBuilder(t *testing.T) {
	_, err := newConfigBuilder().build()
	assert.ErrorIs(t, err, ErrInvalidAdapterConfigs)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_AppliesDefaults verifies that fields left empty by every source
// receive defaults derived from the required ones.
func TestBuild_AppliesDefaults(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, minimalConfig())

	cfg, err := b.build()
	require.NoError(t, err)

	assert.Equal(t, "https://sync.example.com/msync", cfg.Adapter.MediaURL)
	assert.Equal(t, DefaultRequestTimeout, cfg.Adapter.RequestTimeout)
	assert.Equal(t, DefaultCompressionLevel, cfg.Adapter.CompressionLevel)
	assert.Equal(t, "/data/collection.db.media", cfg.Storage.MediaDir)
	assert.Equal(t, "/data/collection.db.media.db", cfg.Storage.MediaDBPath)
	assert.Equal(t, DefaultTaskWaitTimeout, cfg.Workers.TaskWaitTimeout)
	assert.Equal(t, DefaultMediaMaxRestarts, cfg.Workers.MediaMaxRestarts)
	assert.Equal(t, DefaultLogMaxSizeMB, cfg.Log.MaxSizeMB)
	assert.Equal(t, DefaultLogMaxBackups, cfg.Log.MaxBackups)
}

// TestBuild_LaterSourceOverrides verifies that later non-zero fields win and
// zero fields keep earlier values.
func TestBuild_LaterSourceOverrides(t *testing.T) {
	first := minimalConfig()
	first.App.Username = "env-user"
	first.Adapter.RequestTimeout = time.Second

	b := newConfigBuilder()
	b.configs = append(b.configs,
		first,
		&StructuredConfig{Adapter: Adapter{RequestTimeout: 5 * time.Second}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.App.Username)
	assert.Equal(t, 5*time.Second, cfg.Adapter.RequestTimeout)
}

// TestBuild_Validation covers the rejected configurations.
func TestBuild_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StructuredConfig)
		want   error
	}{
		{name: "bad url", mutate: func(c *StructuredConfig) { c.Adapter.SyncURL = "not a url" }, want: ErrInvalidAdapterConfigs},
		{name: "compression too high", mutate: func(c *StructuredConfig) { c.Adapter.CompressionLevel = 10 }, want: ErrInvalidAdapterConfigs},
		{name: "negative timeout", mutate: func(c *StructuredConfig) { c.Adapter.RequestTimeout = -time.Second }, want: ErrInvalidAdapterConfigs},
		{name: "no collection", mutate: func(c *StructuredConfig) { c.Storage.CollectionPath = "" }, want: ErrInvalidStorageConfigs},
		{name: "unknown resolution", mutate: func(c *StructuredConfig) { c.App.ConflictResolution = "merge" }, want: ErrInvalidAppConfigs},
		{name: "negative interval", mutate: func(c *StructuredConfig) { c.Workers.SyncInterval = -time.Minute }, want: ErrInvalidWorkerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := minimalConfig()
			tt.mutate(cfg)

			b := newConfigBuilder()
			b.configs = append(b.configs, cfg)

			_, err := b.build()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// ── withEnv ───────────────────────────────────────────────────────────────────

// TestWithEnv_ReturnsBuilder verifies the fluent interface.
func TestWithEnv_ReturnsBuilder(t *testing.T) {
	b := newConfigBuilder()
	assert.Same(t, b, b.withEnv())
}

// TestWithEnv_ReadsEnvVars verifies that environment variables are picked up.
func TestWithEnv_ReadsEnvVars(t *testing.T) {
	t.Setenv("ADAPTER_SYNC_URL", "https://env.example.com")
	t.Setenv("STORAGE_COLLECTION_PATH", "/env/collection.db")

	b := newConfigBuilder()
	b.withEnv()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "https://env.example.com", b.configs[0].Adapter.SyncURL)
	assert.Equal(t, "/env/collection.db", b.configs[0].Storage.CollectionPath)
}

// ── withFlags ─────────────────────────────────────────────────────────────────

// TestWithFlags_AppendsParsedFlags verifies that parsed flags are appended.
func TestWithFlags_AppendsParsedFlags(t *testing.T) {
	b := newConfigBuilder()
	assert.Same(t, b, b.withFlags([]string{"-u", "https://flag.example.com"}))

	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "https://flag.example.com", b.configs[0].Adapter.SyncURL)
}

// TestWithFlags_SetsErrorOnBadFlag verifies that a parse failure is recorded.
func TestWithFlags_SetsErrorOnBadFlag(t *testing.T) {
	b := newConfigBuilder()
	b.withFlags([]string{"-compression", "high"})

	assert.Error(t, b.err)
	assert.Empty(t, b.configs)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_NoOp_WhenNoPathSet verifies that withJSON does nothing when
// no config has a JSONFilePath.
func TestWithJSON_NoOp_WhenNoPathSet(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})
	b.withJSON()

	assert.Len(t, b.configs, 1)
	assert.NoError(t, b.err)
}

// TestWithJSON_AppendsConfig_WhenValidFile verifies that a valid JSON file is
// parsed and appended.
func TestWithJSON_AppendsConfig_WhenValidFile(t *testing.T) {
	payload := StructuredJSONConfig{}
	payload.Adapter.SyncURL = "https://json.example.com"
	payload.App.HostKey = "json-key"
	path := writeTempJSONConfig(t, payload)

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})
	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	assert.Equal(t, "https://json.example.com", b.configs[1].Adapter.SyncURL)
	assert.Equal(t, "json-key", b.configs[1].App.HostKey)
}

// TestWithJSON_SetsError_WhenFileNotFound verifies that a missing file path
// sets b.err.
func TestWithJSON_SetsError_WhenFileNotFound(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{
		JSONFilePath: "/nonexistent/config.json",
	})
	b.withJSON()

	assert.Error(t, b.err)
}

// TestWithJSON_UsesLastPath verifies that when multiple configs have a
// JSONFilePath, the last non-empty one wins.
func TestWithJSON_UsesLastPath(t *testing.T) {
	payload := StructuredJSONConfig{}
	payload.App.Username = "last-wins"
	path := writeTempJSONConfig(t, payload)

	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{JSONFilePath: "/nonexistent/first.json"},
		&StructuredConfig{JSONFilePath: path},
	)
	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 3)
	assert.Equal(t, "last-wins", b.configs[2].App.Username)
}

// TestWithJSON_SkipsWhenErrorAlreadySet verifies that a builder that already
// failed does not read the JSON file.
func TestWithJSON_SkipsWhenErrorAlreadySet(t *testing.T) {
	payload := StructuredJSONConfig{}
	payload.App.Username = "should-not-appear"
	path := writeTempJSONConfig(t, payload)

	b := newConfigBuilder()
	b.err = assert.AnError
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})
	b.withJSON()

	assert.ErrorIs(t, b.err, assert.AnError)
	assert.Len(t, b.configs, 1)
}

// ── GetStructuredConfig ───────────────────────────────────────────────────────

// TestGetStructuredConfig_FlagsOverrideEnv verifies the full pipeline.
func TestGetStructuredConfig_FlagsOverrideEnv(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("ADAPTER_SYNC_URL", "https://env.example.com")
	t.Setenv("STORAGE_COLLECTION_PATH", "/env/collection.db")

	cfg, err := GetStructuredConfig([]string{"-u", "https://flag.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.Adapter.SyncURL)
	assert.Equal(t, "/env/collection.db", cfg.Storage.CollectionPath)
}
