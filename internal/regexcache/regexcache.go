// Package regexcache provides a content-addressed cache of compiled
// regular expressions shared across one pipeline invocation.
package regexcache

import (
	"regexp"
	"sync"
)

// Cache maps a pattern string to its compiled form. It is safe for
// concurrent use; entries are never evicted, matching the teacher
// context's lifetime (the cache dies with the process or, in tests,
// with the Cache value itself).
type Cache struct {
	mu   sync.RWMutex
	seen map[string]*entry
}

type entry struct {
	re  *regexp.Regexp
	err error
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{seen: make(map[string]*entry)}
}

// Compile returns the compiled regexp for pattern, compiling and
// memoizing it on first use. The compile error (if any) is cached too,
// so a bad pattern is only attempted once.
func (c *Cache) Compile(pattern string) (*regexp.Regexp, error) {
	c.mu.RLock()
	e, ok := c.seen[pattern]
	c.mu.RUnlock()
	if ok {
		return e.re, e.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.seen[pattern]; ok {
		return e.re, e.err
	}
	re, err := regexp.Compile(pattern)
	c.seen[pattern] = &entry{re: re, err: err}
	return re, err
}

// MustCompile is like Compile but discards the error, returning nil
// for an invalid pattern. Callers that treat invalid regex as
// "rule skipped" (spec.md §7) use this form.
func (c *Cache) MustCompile(pattern string) *regexp.Regexp {
	re, err := c.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}
