package imgsrc

import (
	"log"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"piew/internal/filelist"
)

// DefaultCacheSize is the fallback number of decoded sources kept alive
// when no size is configured.
const DefaultCacheSize = 16

// Loader decodes list items on demand and keeps recently used sources
// in an LRU cache keyed by path. The cache survives list rebuilds since
// keys are path strings, not indices.
type Loader struct {
	fs    afero.Fs
	cache *lru.Cache[string, Source]
}

// NewLoader builds a loader over the given filesystem. cacheSize bounds
// the number of decoded sources kept in memory.
func NewLoader(fsys afero.Fs, cacheSize int) *Loader {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Source](cacheSize)
	if err != nil {
		log.Printf("Error: Failed to create LRU cache: %v", err)
		cache, _ = lru.New[string, Source](DefaultCacheSize)
	}
	return &Loader{fs: fsys, cache: cache}
}

// Get returns the decoded source for one item, loading and caching it on
// first use. A decode failure returns the error alongside a nil source;
// failures are not cached so a fixed file decodes on the next attempt.
func (l *Loader) Get(item filelist.ImagePath) (Source, error) {
	if src, ok := l.cache.Get(item.Path); ok {
		return src, nil
	}
	src, err := Load(l.fs, item)
	if err != nil {
		return nil, err
	}
	l.cache.Add(item.Path, src)
	return src, nil
}

// Evict drops one path from the cache, used after a file is deleted.
func (l *Loader) Evict(path string) {
	l.cache.Remove(path)
}

// Len reports how many decoded sources are cached.
func (l *Loader) Len() int {
	return l.cache.Len()
}
