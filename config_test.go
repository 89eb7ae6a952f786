package ember

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	c := NewConfig()
	assert.Equal(t, 80, c.Port)
	assert.Equal(t, 10*time.Second, c.IdleTimeout)
	assert.EqualValues(t, 256*1024, c.MaxSizeHeaders)
	assert.EqualValues(t, 1<<30, c.MaxSizePostContent)
	assert.Equal(t, DefaultContentType, c.DefaultContentType)
}

func TestLoadConfigFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"port":9090,"idle-timeout":"30s","minifier-enabled":true}`), 0o644))

	c := NewConfig()
	assert.NoError(t, c.LoadConfigFile(path))
	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, 30*time.Second, c.IdleTimeout)
	assert.True(t, c.MinifierEnabled)
}

func TestLoadConfigFileTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte("port = 8081\nbind-address = \"0.0.0.0\"\n"), 0o644))

	c := NewConfig()
	assert.NoError(t, c.LoadConfigFile(path))
	assert.Equal(t, 8081, c.Port)
	assert.Equal(t, "0.0.0.0", c.BindAddress)
}

func TestLoadConfigFileUnrecognizedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	assert.NoError(t, os.WriteFile(path, []byte("port=1"), 0o644))

	c := NewConfig()
	assert.Error(t, c.LoadConfigFile(path))
}
