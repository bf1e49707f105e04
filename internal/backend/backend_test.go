package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoretto/internal/config"
	"tesoretto/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "d"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "d", cfg.DataDirectory)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "redis"}.Validate())
	assert.ElementsMatch(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Nil(t, res.Ready)
	require.NoError(t, res.Cleanup())

	dir := t.TempDir()
	res, err = f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir})
	require.NoError(t, err)
	require.NoError(t, res.Store.SetTheme(ctx, core.ThemeDark))
	assert.FileExists(t, filepath.Join(dir, "theme.json"))
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "db", "tesoretto.db"),
	})
	require.NoError(t, err)
	defer res.Cleanup()

	require.NotNil(t, res.Ready)
	assert.NoError(t, res.Ready(ctx))

	e := core.Entry{
		ID:        "a",
		Amount:    core.Money{Cents: 100},
		Type:      core.Income,
		Date:      core.NewDate(2025, time.March, 1),
		CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, res.Store.Add(ctx, e))
	got, err := res.Store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Amount.Cents)
}

func TestCreateBackendRejectsUnknownType(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}
