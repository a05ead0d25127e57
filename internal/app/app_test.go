package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/soonerbadges/internal/app"
	"github.com/vytor/soonerbadges/internal/config"
	"github.com/vytor/soonerbadges/internal/models"
)

func TestOpenRepository_Backends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"memory", config.Config{Storage: config.StorageMemory}},
		{"file", config.Config{Storage: config.StorageFile, BadgeFilePath: filepath.Join(dir, "badges.json")}},
		{"sqlite", config.Config{Storage: config.StorageSQLite, DBPath: "file:" + filepath.Join(dir, "badges.db")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo, closer, err := app.OpenRepository(ctx, tt.cfg)
			require.NoError(t, err)
			defer closer.Close()

			stats := models.NewPlayerStats("u1")
			stats.TotalQuizzes = 3
			require.NoError(t, repo.Save(ctx, stats, models.NewSet("first_boomer")))

			got, earned, err := repo.Load(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, 3, got.TotalQuizzes)
			assert.True(t, earned.Has("first_boomer"))
			assert.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestOpenRepository_UnknownBackend(t *testing.T) {
	_, _, err := app.OpenRepository(context.Background(), config.Config{Storage: "tape"})
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := app.LoadCatalog(config.Config{})
	require.NoError(t, err)
	assert.Len(t, catalog, 8)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("badges:\n  - id: one\n    requirement: {type: min_quizzes, n: 1}\n"), 0o644))
	catalog, err = app.LoadCatalog(config.Config{CatalogPath: path})
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "one", catalog[0].ID)

	_, err = app.LoadCatalog(config.Config{CatalogPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestNewLogger_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badges.log")
	log, closer := app.NewLogger(config.Config{LogLevel: "INFO", LogFile: path}, true)
	log.Info("hello from the badge engine")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the badge engine")
}
