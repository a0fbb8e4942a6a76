package services

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"inkwell/internal/models"
)

// RunCache memoizes successful run results for a short TTL so repeated
// identical requests (same provider, model, feature, task and prompt) skip
// the provider entirely.
type RunCache struct {
	store *gocache.Cache
}

// NewRunCache creates a cache whose entries expire after ttl.
func NewRunCache(ttl time.Duration) *RunCache {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &RunCache{store: gocache.New(ttl, cleanup)}
}

// Key derives the content hash for one run. Any change to the routing or the
// final prompt produces a different key.
func (c *RunCache) Key(provider models.Provider, alias string, returnType models.ReturnType, feature, task, prompt string) string {
	h := sha256.New()
	for _, part := range []string{string(provider), alias, string(returnType), feature, task, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached result for key, if present.
func (c *RunCache) Get(key string) (*models.RunResult, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	cached, ok := v.(*models.RunResult)
	if !ok {
		return nil, false
	}
	out := *cached
	out.FromCache = true
	return &out, true
}

// Put stores a successful result. Failures are never cached.
func (c *RunCache) Put(key string, result *models.RunResult) {
	if result == nil || result.Status != models.RunSuccess {
		return
	}
	stored := *result
	c.store.Set(key, &stored, gocache.DefaultExpiration)
}

// Flush drops every cached entry.
func (c *RunCache) Flush() {
	count := c.store.ItemCount()
	c.store.Flush()
	if count > 0 {
		log.Printf("🧹 [CACHE] Flushed %d cached runs", count)
	}
}
