package ember

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/fsnotify/fsnotify"
)

// fileCache is a static-file memory cache in front of the file-backed
// response content variant, keyed by absolute path and invalidated on
// filesystem change. Entries hold their content's checksum rather than
// the content itself, with the bytes held in a fastcache.Cache to bound
// total memory.
type fileCache struct {
	once    sync.Once
	cache   *fastcache.Cache
	maxMem  int
	entries sync.Map // path -> *cachedFile
	watcher *fsnotify.Watcher
}

type cachedFile struct {
	modTime  time.Time
	size     int64
	checksum [sha256.Size]byte
}

// newFileCache returns a fileCache sized to maxMemoryBytes. It starts a
// goroutine watching filesystem events and evicting stale entries; the
// watcher itself is lazily populated as files are served, one Add(name)
// call per path the first time it's requested.
func newFileCache(maxMemoryBytes int) (*fileCache, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, Wrap(fmt.Errorf("ember: failed to build file cache watcher: %w", err))
	}

	fc := &fileCache{maxMem: maxMemoryBytes, watcher: watcher}

	go func() {
		for {
			select {
			case e, ok := <-watcher.Events:
				if !ok {
					return
				}
				fc.entries.Delete(e.Name)
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return fc, nil
}

// Close stops the cache's filesystem watcher.
func (fc *fileCache) Close() error {
	return fc.watcher.Close()
}

// Get returns the cached content of the file at path, reading and
// caching it first if absent or stale.
func (fc *fileCache) Get(path string) ([]byte, time.Time, error) {
	fc.once.Do(func() { fc.cache = fastcache.New(fc.maxMem) })

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, time.Time{}, Wrap(err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, time.Time{}, Wrap(err)
	}

	if v, ok := fc.entries.Load(abs); ok {
		cf := v.(*cachedFile)
		if cf.modTime.Equal(info.ModTime()) {
			if b := fc.cache.Get(nil, cf.checksum[:]); len(b) > 0 {
				return b, cf.modTime, nil
			}
		}
		fc.entries.Delete(abs)
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, time.Time{}, Wrap(err)
	}

	sum := sha256.Sum256(b)
	fc.cache.Set(sum[:], b)
	fc.entries.Store(abs, &cachedFile{modTime: info.ModTime(), size: info.Size(), checksum: sum})

	if err := fc.watcher.Add(abs); err != nil {
		// Non-fatal: the file is still served, just without
		// invalidation until the next Stat mismatch catches it.
		return b, info.ModTime(), nil
	}

	return b, info.ModTime(), nil
}
