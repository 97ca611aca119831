package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "fairhaven.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", cfg.Timezone)
	assert.Equal(t, "Events", cfg.Airtable.EventsTable)
	assert.Equal(t, 30, cfg.HorizonDays)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fairhaven.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9090"
	cfg.SiteURL = "https://fairhaven.work"
	cfg.Airtable.BaseID = "appXYZ"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", loaded.Listen)
	assert.Equal(t, "https://fairhaven.work", loaded.SiteURL)
	assert.Equal(t, "appXYZ", loaded.Airtable.BaseID)
	assert.Equal(t, cfg.Signage.Width, loaded.Signage.Width)
}

func TestLoadPartialConfigGetsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fairhaven.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":3000\"\nairtable:\n  base_id: appABC\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Listen)
	assert.Equal(t, "appABC", cfg.Airtable.BaseID)
	// Everything omitted falls back to defaults.
	assert.Equal(t, "America/Los_Angeles", cfg.Timezone)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, "Bookings", cfg.Airtable.BookingsTable)
	assert.Equal(t, 1080, cfg.Signage.Height)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fairhaven.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveEmptyPath(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}
