// Package cache persists parsed skills keyed by document path so unchanged
// documents skip frontmatter parsing on the next load.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/klauern/skilltrigger/internal/model"
	"github.com/klauern/skilltrigger/internal/util"
)

// Entry represents a cached skill entry with metadata
type Entry struct {
	Skill    model.Skill `json:"skill"`
	Hash     string      `json:"hash"`
	CachedAt time.Time   `json:"cached_at"`
}

// Cache maps document paths to parsed skills. An entry is only returned
// while the document's content and origin hash to the stored value. It is
// not safe for concurrent use.
type Cache struct {
	Version string           `json:"version"`
	Entries map[string]Entry `json:"entries"`
	path    string
	dirty   bool
}

const (
	cacheVersion = "2"
	fileName     = "skills.json"
	// DefaultTTL is the default age after which entries are dropped
	DefaultTTL = 7 * 24 * time.Hour
)

// New creates or loads the cache stored in cacheDir.
// If cacheDir is empty, defaults to ~/.skilltrigger/cache
func New(cacheDir string) (*Cache, error) {
	if cacheDir == "" {
		cacheDir = util.CacheDir()
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		return nil, err
	}

	cache := &Cache{
		Version: cacheVersion,
		Entries: make(map[string]Entry),
		path:    filepath.Join(cacheDir, fileName),
	}

	// #nosec G304 - path is constructed from trusted configuration
	if data, err := os.ReadFile(cache.path); err == nil {
		if err := json.Unmarshal(data, cache); err != nil {
			// Corrupted cache, start fresh
			cache.Entries = make(map[string]Entry)
		}
		if cache.Version != cacheVersion || cache.Entries == nil {
			cache.Entries = make(map[string]Entry)
			cache.Version = cacheVersion
		}
	}

	return cache, nil
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Hash fingerprints a document. The origin is included because it feeds
// the parsed name, scope, and trigger defaults.
func Hash(doc model.SkillDocument) string {
	h := sha256.New()
	for _, part := range []string{
		string(doc.Origin.Scope),
		doc.Origin.Plugin,
		doc.Origin.Command,
		doc.RawText,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached skill for doc if its content is unchanged.
func (c *Cache) Get(doc model.SkillDocument) (model.Skill, bool) {
	entry, exists := c.Entries[doc.Path]
	if !exists {
		return model.Skill{}, false
	}

	if entry.Hash != Hash(doc) {
		delete(c.Entries, doc.Path)
		c.dirty = true
		return model.Skill{}, false
	}

	skill := entry.Skill
	skill.ModifiedAt = doc.ModifiedAt
	return skill, true
}

// Set stores the skill parsed from doc. Only successfully parsed documents
// should be stored.
func (c *Cache) Set(doc model.SkillDocument, skill model.Skill) {
	c.Entries[doc.Path] = Entry{
		Skill:    skill,
		Hash:     Hash(doc),
		CachedAt: time.Now(),
	}
	c.dirty = true
}

// Save persists the cache to disk when it has changed.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	// #nosec G306 - cache files should be readable by user
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// Clear removes all entries from the cache
func (c *Cache) Clear() error {
	c.Entries = make(map[string]Entry)
	c.dirty = false
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Size returns the number of entries in the cache
func (c *Cache) Size() int {
	return len(c.Entries)
}

// Prune removes entries whose path is not in seen and returns how many
// were removed.
func (c *Cache) Prune(seen map[string]bool) int {
	pruned := 0
	for key := range c.Entries {
		if !seen[key] {
			delete(c.Entries, key)
			pruned++
		}
	}
	if pruned > 0 {
		c.dirty = true
	}
	return pruned
}

// Expire removes entries cached longer than ttl ago.
func (c *Cache) Expire(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	expired := 0
	for key, entry := range c.Entries {
		if time.Since(entry.CachedAt) > ttl {
			delete(c.Entries, key)
			expired++
		}
	}
	if expired > 0 {
		c.dirty = true
	}
	return expired
}
