package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/salesdash/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Dataset:  config.DatasetConfig{Root: filepath.Join(dir, "parquet"), Workers: 2, PreviewLimit: 10},
		Calendar: config.CalendarConfig{StartYear: 2024, EndYear: 2025, Dir: filepath.Join(dir, "calendar")},
	}
}

func TestNewWithoutOptionalBackends(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Runs)
	assert.NotNil(t, a.Datasets)
	assert.NotNil(t, a.Pivots)
	assert.FileExists(t, filepath.Join(cfg.Calendar.Dir, "calendar_2024_2025.parquet"))
}

func TestNewRejectsUnknownStorageDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "ftp"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewRejectsBadCalendarRange(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calendar.StartYear, cfg.Calendar.EndYear = 2026, 2024

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
