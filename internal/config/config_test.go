package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Cleaning.LinesPerSlide)
	assert.Equal(t, int64(50000), cfg.Logging.MaxSizeBytes)
	assert.Equal(t, 3, cfg.Logging.MaxBackups)
	assert.Equal(t, "EG", cfg.Library.Folders["EG Lieder"])
	assert.Equal(t, 52, cfg.ChurchTools.DefaultTagID)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "fehlt.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Library.Root, cfg.Library.Root)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songqs.yaml")
	content := `
library:
  root: /srv/songs
  folders:
    EG Lieder: EG
churchtools:
  domain: https://church.example.org
  token: abc
cleaning:
  lines_per_slide: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/songs", cfg.Library.Root)
	assert.Equal(t, map[string]string{"EG Lieder": "EG"}, cfg.Library.Folders)
	assert.Equal(t, 2, cfg.Cleaning.LinesPerSlide)
	// unset sections keep defaults
	assert.Equal(t, int64(50000), cfg.Logging.MaxSizeBytes)
	require.NoError(t, cfg.RequireChurchTools())
}

func TestLoadFileWithoutFoldersKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songqs.yaml")
	content := `
library:
  root: /srv/songs
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/songs", cfg.Library.Root)
	assert.Equal(t, DefaultConfig().Library.Folders, cfg.Library.Folders)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CT_DOMAIN", "https://env.example.org")
	t.Setenv("CT_TOKEN", "env-token")

	cfg, err := Load(filepath.Join(t.TempDir(), "fehlt.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.ChurchTools.Domain)
	assert.Equal(t, "env-token", cfg.ChurchTools.Token)
	require.NoError(t, cfg.RequireChurchTools())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Library.Root = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Cleaning.LinesPerSlide = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.MaxSizeBytes = 0
	assert.Error(t, cfg.Validate())
}

func TestRequireChurchTools(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.RequireChurchTools())

	cfg.ChurchTools.Domain = "https://church.example.org"
	assert.Error(t, cfg.RequireChurchTools())

	cfg.ChurchTools.Token = "abc"
	assert.NoError(t, cfg.RequireChurchTools())
}

func TestThrottle(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100*time.Millisecond, cfg.Throttle())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "songqs.yaml")

	cfg := DefaultConfig()
	cfg.Library.Root = "/srv/songs"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/songs", loaded.Library.Root)
}
