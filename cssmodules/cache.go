package cssmodules

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/evanw/esbuild/pkg/api"
)

// Cache stores load results keyed by absolute source path, invalidated by a
// content digest. It is consulted only during watch sessions; one-shot builds
// bypass it entirely. Distinct keys never interfere; two hooks racing on the
// same key at worst recompute the same result.
type Cache struct {
	seed    string
	entries sync.Map // abs path -> *cacheEntry
}

type cacheEntry struct {
	digest uint64
	result api.OnLoadResult
}

// NewCache returns a cache whose digests are seeded with seed. The plugin
// folds the scoping pattern and package version in, so an option change
// between incremental runs invalidates every entry rather than serving
// output compiled under the old options.
func NewCache(seed string) *Cache {
	return &Cache{seed: seed}
}

func (c *Cache) digest(content []byte) uint64 {
	h := xxhash.New()
	h.WriteString(c.seed)
	h.Write([]byte{0})
	h.Write(content)
	return h.Sum64()
}

// Load returns the stored result for path if its recorded digest still
// matches content.
func (c *Cache) Load(path string, content []byte) (api.OnLoadResult, bool) {
	v, ok := c.entries.Load(path)
	if !ok {
		return api.OnLoadResult{}, false
	}
	entry := v.(*cacheEntry)
	if entry.digest != c.digest(content) {
		return api.OnLoadResult{}, false
	}
	return entry.result, true
}

// Store records a fresh load result for path together with the digest of the
// content it was compiled from.
func (c *Cache) Store(path string, content []byte, result api.OnLoadResult) {
	c.entries.Store(path, &cacheEntry{digest: c.digest(content), result: result})
}
