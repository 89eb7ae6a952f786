package ember

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileCacheGetReadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.txt")
	assert.NoError(t, os.WriteFile(path, []byte("version one"), 0o644))

	fc, err := newFileCache(1 << 20)
	assert.NoError(t, err)
	defer fc.Close()

	b, modTime, err := fc.Get(path)
	assert.NoError(t, err)
	assert.Equal(t, "version one", string(b))
	assert.False(t, modTime.IsZero())

	b2, _, err := fc.Get(path)
	assert.NoError(t, err)
	assert.Equal(t, "version one", string(b2))
}

func TestFileCacheGetReReadsAfterModification(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asset.txt")
	assert.NoError(t, os.WriteFile(path, []byte("version one"), 0o644))

	fc, err := newFileCache(1 << 20)
	assert.NoError(t, err)
	defer fc.Close()

	_, firstModTime, err := fc.Get(path)
	assert.NoError(t, err)

	assert.NoError(t, os.WriteFile(path, []byte("version two, longer than before"), 0o644))
	newModTime := firstModTime.Add(time.Second)
	assert.NoError(t, os.Chtimes(path, newModTime, newModTime))

	b, modTime, err := fc.Get(path)
	assert.NoError(t, err)
	assert.Equal(t, "version two, longer than before", string(b))
	assert.True(t, modTime.After(firstModTime))
}

func TestFileCacheGetMissingFile(t *testing.T) {
	fc, err := newFileCache(1 << 20)
	assert.NoError(t, err)
	defer fc.Close()

	_, _, err = fc.Get(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
