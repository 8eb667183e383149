// Package keyword maintains a lazily-rebuilt Aho-Corasick automaton (via
// github.com/coregx/ahocorasick) over the dispatcher's live keyword set,
// with invalidate-and-rebuild semantics: any Action mutation invalidates the
// cache, and the automaton is rebuilt on next use rather than eagerly.
package keyword

import (
	"sync"

	"github.com/coregx/ahocorasick"
)

// Cache holds an Aho-Corasick automaton built from a caller-supplied
// keyword set, rebuilt on demand.
type Cache struct {
	mu           sync.Mutex
	automaton    *ahocorasick.Automaton
	keywords     []string
	needsRebuild bool
}

// New returns a Cache that needs an initial build.
func New() *Cache {
	return &Cache{needsRebuild: true}
}

// Invalidate marks the cache stale. The automaton is rebuilt lazily on the
// next WithAutomaton/Match call (or an explicit Rebuild), never eagerly.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.needsRebuild = true
	c.mu.Unlock()
}

// NeedsRebuild reports whether the automaton is stale.
func (c *Cache) NeedsRebuild() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needsRebuild
}

// Rebuild constructs a fresh automaton from the keywords returned by
// builder, and clears the stale flag. builder is called before the cache
// lock is taken, so it may run concurrently with other cache calls.
func (c *Cache) Rebuild(builder func() []string) error {
	keywords := builder()

	var automaton *ahocorasick.Automaton
	if len(keywords) > 0 {
		b := ahocorasick.NewBuilder()
		for _, kw := range keywords {
			b.AddPattern([]byte(kw))
		}
		a, err := b.Build()
		if err != nil {
			return err
		}
		automaton = a
	}

	c.mu.Lock()
	c.automaton = automaton
	c.keywords = keywords
	c.needsRebuild = false
	c.mu.Unlock()
	return nil
}

// WithAutomaton invokes fn with the current automaton (nil if no keywords
// are registered), rebuilding first if the cache is stale. Returns any
// build error from Rebuild.
func (c *Cache) WithAutomaton(builder func() []string, fn func(*ahocorasick.Automaton)) error {
	if c.NeedsRebuild() {
		if err := c.Rebuild(builder); err != nil {
			return err
		}
	}
	c.mu.Lock()
	a := c.automaton
	c.mu.Unlock()
	fn(a)
	return nil
}

// Match reports whether haystack contains any registered keyword starting
// at offset 0 (leftmost-longest), returning the matched pattern's end
// offset. This is a thin convenience over WithAutomaton for callers that
// only need a single lookup.
func (c *Cache) Match(builder func() []string, haystack []byte) (end int, matched bool) {
	_ = c.WithAutomaton(builder, func(a *ahocorasick.Automaton) {
		if a == nil {
			return
		}
		if m := a.Find(haystack, 0); m != nil {
			end = m.End
			matched = true
		}
	})
	return end, matched
}
