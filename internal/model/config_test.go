package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Backend.Mode)
	assert.Equal(t, 15, cfg.Display.PageSize)
	assert.Equal(t, 300, cfg.Display.SearchDebounceMS)
}

func TestLoadConfigIntakeDefaults(t *testing.T) {
	path := writeConfig(t, `
intake:
  - name: sales
    host: imap.example.com
    username: sales@example.com
  - name: support
    host: imap.example.com
    username: support@example.com
    enabled: false
    poll_interval_sec: 60
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Intake, 2)

	assert.True(t, cfg.Intake[0].Enabled)
	assert.Equal(t, 300, cfg.Intake[0].PollIntervalSec)
	assert.Equal(t, "993", cfg.Intake[0].Port)

	assert.False(t, cfg.Intake[1].Enabled)
	assert.Equal(t, 60, cfg.Intake[1].PollIntervalSec)
}

func TestLoadConfigRemoteRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, "backend:\n  mode: remote\n")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "base_url")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CRM_DISPLAY_PAGE_SIZE", "40")
	path := writeConfig(t, "display:\n  page_size: 20\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Display.PageSize)
}

func TestLoadConfigScreenQueries(t *testing.T) {
	path := writeConfig(t, "display:\n  queries:\n    clients: \"sort=name&status=active\"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"clients": "sort=name&status=active"}, cfg.Display.Queries)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Backend.Mode = BackendRemote
	cfg.Backend.BaseURL = "https://crm.example.com"
	cfg.User.ID = "42"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com", loaded.Backend.BaseURL)
	assert.Equal(t, "42", loaded.User.ID)
}
