// Package storage implements the shared persistence substrate used by every
// in-process collection in launchcore: apps, files, snippets, clipboard
// entries, actions, and settings. A Store[T] is an ordered sequence of T
// archived as a single JSON blob, written via temp-file+rename so a crash
// mid-save never corrupts the previous generation on disk.
//
// Readers get a copy-on-write snapshot: Store hands out a shared pointer to
// an immutable slice, so GetAll never copies data. GetAll does take the
// store's write lock briefly to mark the snapshot as held, so a reader waits
// for an in-progress write and a writer waits for that brief mark.
// Writers only allocate a fresh backing slice when another snapshot is still
// observable (classic COW "is anyone else holding this" discipline).
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// Store is a single typed, ordered collection persisted at path.
type Store[T any] struct {
	path string
	log  hclog.Logger

	mu    sync.RWMutex // guards writes and held; readers lock it only to set held
	snap  atomic.Pointer[[]T]
	held  bool // true once a snapshot has been handed out since the last write
	count int  // best-effort length cache, kept under mu

	writer *asyncWriter
}

// Option configures a Store at construction time.
type Option func(*options)

type options struct {
	log hclog.Logger
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New loads the store at path if present, or creates an empty one. A
// corrupt or forward-incompatible archive is not fatal: it is logged as a
// warning and the store reopens empty (spec: no schema migration).
func New[T any](path string, opts ...Option) (*Store[T], error) {
	o := options{log: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	s := &Store[T]{path: path, log: o.log, writer: globalWriter()}

	items, err := loadArchive[T](path, o.log)
	if err != nil {
		return nil, err
	}
	s.snap.Store(&items)
	s.count = len(items)

	return s, nil
}

// loadArchive reads and validates the archive at path. A missing file
// yields an empty collection; a corrupt file logs a warning and also
// yields an empty collection (never fails the open).
func loadArchive[T any](path string, log hclog.Logger) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn("storage: archive failed validation, resetting to empty",
			"path", path, "error", err)
		return []T{}, nil
	}
	return items, nil
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// GetAll returns a shared, immutable view of the collection. O(1): no data
// is copied. The caller must not mutate the returned slice.
func (s *Store[T]) GetAll() []T {
	s.markHeld()
	p := s.snap.Load()
	if p == nil {
		return nil
	}
	return *p
}

func (s *Store[T]) markHeld() {
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
}

// Len returns the current collection length.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// IsEmpty reports whether the collection has no items.
func (s *Store[T]) IsEmpty() bool { return s.Len() == 0 }

// GetRange returns a bounds-clamped copy of items[start:start+count].
func (s *Store[T]) GetRange(start, count int) []T {
	all := s.GetAll()
	if start < 0 {
		start = 0
	}
	if start >= len(all) {
		return nil
	}
	end := start + count
	if end > len(all) || count < 0 {
		end = len(all)
	}
	out := make([]T, end-start)
	copy(out, all[start:end])
	return out
}

// GetFiltered returns a copy of every item matching pred.
func (s *Store[T]) GetFiltered(pred func(T) bool) []T {
	all := s.GetAll()
	var out []T
	for _, item := range all {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// FindIndex returns the index of the first item matching pred, or -1.
func (s *Store[T]) FindIndex(pred func(T) bool) int {
	all := s.GetAll()
	for i, item := range all {
		if pred(item) {
			return i
		}
	}
	return -1
}

// mutate runs fn against a mutable copy of the current slice (cloning only
// if a snapshot is outstanding), installs the result, and returns it. The
// result is installed unconditionally; callers that may leave the
// collection unchanged use Update instead.
func (s *Store[T]) mutate(fn func([]T) []T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	var base []T
	if cur != nil {
		base = *cur
	}

	var work []T
	if s.held {
		work = make([]T, len(base))
		copy(work, base)
	} else {
		work = base
	}

	next := fn(work)
	s.snap.Store(&next)
	s.held = false
	s.count = len(next)
	return next
}

// Add appends item and saves synchronously.
func (s *Store[T]) Add(item T) error {
	s.mutate(func(items []T) []T { return append(items, item) })
	return s.saveLocked()
}

// InsertAtFront prepends item and saves synchronously.
func (s *Store[T]) InsertAtFront(item T) error {
	s.mutate(func(items []T) []T {
		out := make([]T, 0, len(items)+1)
		out = append(out, item)
		out = append(out, items...)
		return out
	})
	return s.saveLocked()
}

// AddAsync appends item and enqueues a background save.
func (s *Store[T]) AddAsync(item T) {
	s.mutate(func(items []T) []T { return append(items, item) })
	s.enqueueSave()
}

// InsertAtFrontAsync prepends item and enqueues a background save.
func (s *Store[T]) InsertAtFrontAsync(item T) {
	s.mutate(func(items []T) []T {
		out := make([]T, 0, len(items)+1)
		out = append(out, item)
		out = append(out, items...)
		return out
	})
	s.enqueueSave()
}

// UpdateAsync mutates the collection in place via fn and enqueues a
// background save. fn receives a mutable slice it owns exclusively.
func (s *Store[T]) UpdateAsync(fn func([]T) []T) {
	s.mutate(fn)
	s.enqueueSave()
}

// Update exclusively mutates the collection via fn. fn returns whether the
// collection actually changed; Update persists iff it did.
func (s *Store[T]) Update(fn func([]T) ([]T, bool)) bool {
	var changed bool
	s.mu.Lock()
	cur := s.snap.Load()
	var base []T
	if cur != nil {
		base = *cur
	}
	var work []T
	if s.held {
		work = make([]T, len(base))
		copy(work, base)
	} else {
		work = base
	}
	next, ok := fn(work)
	changed = ok
	if ok {
		s.snap.Store(&next)
		s.held = false
		s.count = len(next)
	}
	s.mu.Unlock()

	if changed {
		if err := s.saveLocked(); err != nil {
			s.log.Warn("storage: save failed after update", "path", s.path, "error", err)
			return changed
		}
	}
	return changed
}

// TrimTo drops every item beyond index max (keeping items[:max]) and
// returns the removed tail.
func (s *Store[T]) TrimTo(max int) []T {
	var removed []T
	s.mutate(func(items []T) []T {
		if max < 0 || max >= len(items) {
			return items
		}
		removed = append(removed, items[max:]...)
		return items[:max]
	})
	_ = s.saveLocked()
	return removed
}

// Clear empties the collection and saves synchronously.
func (s *Store[T]) Clear() error {
	s.mutate(func([]T) []T { return []T{} })
	return s.saveLocked()
}

// Flush blocks until every pending async save for this store has reached
// disk. Required before tearing down a store whose latest state must
// survive process exit (the global writer does not fence per-store saves
// otherwise).
func (s *Store[T]) Flush() error {
	return s.writer.drain(s)
}

// saveLocked performs a synchronous save and surfaces any I/O error.
func (s *Store[T]) saveLocked() error {
	items := s.GetAll()
	return saveArchive(s.path, items)
}

// enqueueSave schedules a background save on the process-global writer.
// Disk errors on this path are logged, never surfaced.
func (s *Store[T]) enqueueSave() {
	s.writer.submit(s, func() error {
		if err := s.saveLocked(); err != nil {
			s.log.Warn("storage: async save failed", "path", s.path, "error", err)
			return err
		}
		return nil
	})
}

// saveArchive writes items to path via temp-file + atomic rename.
func saveArchive[T any](path string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}
