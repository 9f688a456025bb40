package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	assert := assert.New(t)
	m := NewManager(t.TempDir())

	settings, err := m.Load()
	assert.NoError(err)
	assert.Equal("", settings.Username)
	assert.Equal("", settings.Password)
	assert.True(strings.HasSuffix(settings.DownloadDir, "downloads"))
	assert.Equal(3, settings.TagCount)
}

func TestSaveAndReload(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	m := NewManager(dir)
	settings, err := m.Load()
	require.NoError(t, err)
	settings.Username = "clipper"
	settings.Password = "hunter2"
	settings.DownloadDir = "/srv/clips"
	settings.TagCount = 3
	require.NoError(t, m.Save(settings))

	reloaded, err := NewManager(dir).Load()
	assert.NoError(err)
	assert.Equal(settings, reloaded)
}

func TestEnvironmentOverridesCredentials(t *testing.T) {
	assert := assert.New(t)
	t.Setenv("CLIPFORGE_USERNAME", "env-user")
	t.Setenv("CLIPFORGE_PASSWORD", "env-pass")

	m := NewManager(t.TempDir())
	settings, err := m.Load()
	assert.NoError(err)
	assert.Equal("env-user", settings.Username)
	assert.Equal("env-pass", settings.Password)
}

func TestSaveSkipsEnvironmentCredentials(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	t.Setenv("CLIPFORGE_USERNAME", "env-user")
	t.Setenv("CLIPFORGE_PASSWORD", "env-pass")

	m := NewManager(dir)
	settings, err := m.Load()
	require.NoError(t, err)
	require.NoError(t, m.Save(settings))

	data, err := os.ReadFile(filepath.Join(dir, "settings.toml"))
	require.NoError(t, err)
	assert.NotContains(string(data), "env-user")
	assert.NotContains(string(data), "env-pass")
}
