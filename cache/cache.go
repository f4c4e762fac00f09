// Package cache memoizes generated suggestion sets keyed by a stable
// context fingerprint, so trivially retyping the same state does not
// re-invoke the model.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"editstream/logger"
	"editstream/text"
)

// Fingerprint is a stable digest of one completion context.
type Fingerprint string

// FingerprintOf digests the inputs that determine a completion: the
// file, its full content, and the cursor. Any change to these must miss.
func FingerprintOf(path, content string, cursorLine, cursorCol int) Fingerprint {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d:%d\x00", path, cursorLine, cursorCol)
	h.Write([]byte(content))
	return Fingerprint(hex.EncodeToString(h.Sum(nil)))
}

// DefaultCapacity bounds the number of cached suggestion sets.
const DefaultCapacity = 64

// Cache is a bounded FIFO memo of suggestion groups. Concurrent
// generations for the same fingerprint are deduplicated so only one
// model call runs.
//
// Groups are cloned on both Put and Get: callers mutate their groups
// during navigation and acceptance, and a cached copy must not see
// those mutations.
type Cache struct {
	mu      sync.Mutex
	entries map[Fingerprint][]*text.EditGroup
	order   []Fingerprint
	cap     int

	flight singleflight.Group

	hits   int
	misses int
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries: make(map[Fingerprint][]*text.EditGroup),
		cap:     capacity,
	}
}

// Get returns a private copy of the cached groups for fp.
func (c *Cache) Get(fp Fingerprint) ([]*text.EditGroup, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	groups, ok := c.entries[fp]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return cloneGroups(groups), true
}

// Put stores a private copy of groups under fp, evicting the oldest
// entry when full.
func (c *Cache) Put(fp Fingerprint, groups []*text.EditGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[fp]; !ok {
		if len(c.order) >= c.cap {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, fp)
	}
	c.entries[fp] = cloneGroups(groups)
}

// GetOrGenerate returns the cached groups for fp, or runs generate to
// produce them. Concurrent callers with the same fingerprint share one
// generate call. cached reports whether the result came from the cache.
func (c *Cache) GetOrGenerate(fp Fingerprint, generate func() ([]*text.EditGroup, error)) (groups []*text.EditGroup, cached bool, err error) {
	if groups, ok := c.Get(fp); ok {
		logger.Debug("cache hit for %s", shortFp(fp))
		return groups, true, nil
	}

	v, err, shared := c.flight.Do(string(fp), func() (any, error) {
		groups, err := generate()
		if err != nil {
			return nil, err
		}
		c.Put(fp, groups)
		return groups, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		logger.Debug("cache generation shared for %s", shortFp(fp))
	}
	return cloneGroups(v.([]*text.EditGroup)), false, nil
}

// Invalidate drops the entry for fp if present.
func (c *Cache) Invalidate(fp Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[fp]; !ok {
		return
	}
	delete(c.entries, fp)
	for i, f := range c.order {
		if f == fp {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Fingerprint][]*text.EditGroup)
	c.order = nil
}

// Stats returns hit and miss counts since construction.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cloneGroups(groups []*text.EditGroup) []*text.EditGroup {
	out := make([]*text.EditGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

func shortFp(fp Fingerprint) string {
	if len(fp) > 12 {
		return string(fp[:12])
	}
	return string(fp)
}
