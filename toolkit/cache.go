package toolkit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/pagemesh/core"
)

// InvalidatorFunc decides whether a cached result is still usable. It
// receives the cache key and the cached value and returns true when the
// entry is fresh. A false return triggers recomputation and replacement.
type InvalidatorFunc func(key string, cached map[string]any) bool

type cacheEntry struct {
	value    map[string]any
	pages    []core.Page
	storedAt time.Time
}

// resultCache stores tool invocation results keyed by a deterministic hash
// of the tool name and its arguments. Safe for concurrent use.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func newResultCache() *resultCache {
	return &resultCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// get returns a cached entry when it passes both freshness checks: the TTL
// window (a zero ttl never expires) and the invalidator (a nil invalidator
// never invalidates).
func (c *resultCache) get(key string, ttl time.Duration, invalidator InvalidatorFunc) (cacheEntry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return cacheEntry{}, false
	}

	if ttl > 0 && c.now().Sub(entry.storedAt) > ttl {
		return cacheEntry{}, false
	}

	if invalidator != nil && !invalidator(key, entry.value) {
		return cacheEntry{}, false
	}

	return entry, true
}

func (c *resultCache) put(key string, value map[string]any, pages []core.Page) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, pages: pages, storedAt: c.now()}
	c.mu.Unlock()
}

// cacheKey builds a deterministic key from the tool name and its arguments.
// Map key order must not affect the key, so the arguments are canonicalized
// (keys sorted recursively) before hashing.
func cacheKey(toolName string, args map[string]any) (string, error) {
	canonical, err := canonicalize(args)
	if err != nil {
		return "", fmt.Errorf("toolkit: failed to canonicalize arguments: %w", err)
	}

	hash := sha256.Sum256(canonical)

	return fmt.Sprintf("%s:%s", toolName, hex.EncodeToString(hash[:8])), nil
}

// canonicalize produces a deterministic JSON representation, sorting map
// keys recursively.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		out := []byte("{")

		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}

			keyBytes, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}

			valBytes, err := canonicalize(val[k])
			if err != nil {
				return nil, err
			}

			out = append(out, keyBytes...)
			out = append(out, ':')
			out = append(out, valBytes...)
		}

		return append(out, '}'), nil
	case []any:
		out := []byte("[")

		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}

			itemBytes, err := canonicalize(item)
			if err != nil {
				return nil, err
			}

			out = append(out, itemBytes...)
		}

		return append(out, ']'), nil
	default:
		return json.Marshal(v)
	}
}
