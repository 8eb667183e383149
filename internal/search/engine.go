package search

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/quillbar/launchcore/internal/fileindex"
	"github.com/quillbar/launchcore/internal/fuzzy"
)

// ErrQueryEmpty is returned when Search is called with an empty query.
var ErrQueryEmpty = errors.New("search: query too short")

// parallelThreshold is the candidate count above which matching is
// delegated to a data-parallel worker pool.
const parallelThreshold = 500

// smallLimitCutoff selects the heap-based top-K strategy below this limit,
// and quickselect-then-sort at or above it.
const smallLimitCutoff = 100

// resultCacheSize is the LRU cache capacity for ranked result lists.
const resultCacheSize = 256

// Result is a single ranked hit.
type Result struct {
	Item  Item
	Score int64
}

// Engine is the Search Engine: in-memory Indexer + optional File Indexer/
// scanner, fuzzy ranking, top-K selection, and a query-keyed result cache.
type Engine struct {
	indexer *Indexer

	cacheMu sync.Mutex
	cache   *lru.Cache[string, []Result]

	fileIndexer *fileindex.Indexer
	scanner     *scanner

	observedGeneration atomic.Uint64
}

// NewEngine returns a Search Engine over indexer.
func NewEngine(indexer *Indexer) *Engine {
	c, err := lru.New[string, []Result](resultCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which resultCacheSize
		// never is; a panic here would indicate a programming mistake.
		panic(fmt.Sprintf("search: building result cache: %v", err))
	}
	return &Engine{indexer: indexer, cache: c}
}

// Indexer returns the in-memory indexer this engine ranks against.
func (e *Engine) Indexer() *Indexer { return e.indexer }

// Stats proxies the in-memory indexer's four-way counter.
func (e *Engine) Stats() Stats { return e.indexer.Stats() }

// SetFileIndexer attaches a deep File Indexer as the file candidate
// source, replacing any shallow scanner.
func (e *Engine) SetFileIndexer(fi *fileindex.Indexer) {
	e.fileIndexer = fi
	e.scanner = nil
	e.ClearCache()
}

// ClearFileIndexer detaches the File Indexer.
func (e *Engine) ClearFileIndexer() {
	e.fileIndexer = nil
	e.ClearCache()
}

// EnableFileSearch attaches a shallow, cached directory scanner (the
// lightweight alternative to a deep File Indexer).
func (e *Engine) EnableFileSearch(dirs, exts []string) {
	e.scanner = newScanner(dirs, exts)
	e.ClearCache()
}

// DisableFileSearch detaches the shallow scanner.
func (e *Engine) DisableFileSearch() {
	e.scanner = nil
	e.ClearCache()
}

// ClearCache drops every cached result list.
func (e *Engine) ClearCache() {
	e.cacheMu.Lock()
	e.cache.Purge()
	e.cacheMu.Unlock()
}

// Search ranks every candidate against query and returns the top limit
// results ordered by (score desc, name asc).
func (e *Engine) Search(query string, limit int) ([]Result, error) {
	if query == "" {
		return nil, ErrQueryEmpty
	}

	if e.fileIndexer != nil {
		gen := e.fileIndexer.Generation()
		if gen != e.observedGeneration.Load() {
			e.ClearCache()
			e.observedGeneration.Store(gen)
		}
	}

	e.cacheMu.Lock()
	cached, ok := e.cache.Get(query)
	e.cacheMu.Unlock()
	if ok {
		return take(cached, limit), nil
	}

	pattern := fuzzy.Parse(query)
	candidates := e.gatherCandidates()

	var matched []Result
	if len(candidates) >= parallelThreshold {
		matched = matchParallel(pattern, candidates)
	} else {
		matched = matchSerial(pattern, candidates)
	}

	ranked := selectTopK(matched, limit)

	e.cacheMu.Lock()
	e.cache.Add(query, ranked)
	e.cacheMu.Unlock()

	return take(ranked, limit), nil
}

// gatherCandidates merges the in-memory indexer with the attached file
// source (deep File Indexer takes priority over the shallow scanner).
func (e *Engine) gatherCandidates() []Item {
	items := e.indexer.ItemsIter()

	if e.fileIndexer != nil {
		for _, fe := range e.fileIndexer.GetAllFiles() {
			items = append(items, Item{ID: fe.Path, Name: fe.Name, Kind: KindFile, Path: fe.Path})
		}
	} else if e.scanner != nil {
		for _, fe := range e.scanner.entries() {
			items = append(items, Item{ID: fe.Path, Name: fe.Name, Kind: KindFile, Path: fe.Path})
		}
	}

	return items
}

func matchSerial(pattern fuzzy.Pattern, items []Item) []Result {
	out := make([]Result, 0, len(items))
	for _, it := range items {
		if m, ok := fuzzy.MatchString(pattern, it.Name); ok {
			out = append(out, Result{Item: it, Score: m.Score})
		}
	}
	return out
}

// matchParallel evaluates matches across a worker pool once candidate
// count crosses parallelThreshold; each goroutine owns its own slice, so
// there is no shared mutable matcher state between workers.
func matchParallel(pattern fuzzy.Pattern, items []Item) []Result {
	workers := 8
	if workers > len(items) {
		workers = len(items)
	}
	if workers <= 1 {
		return matchSerial(pattern, items)
	}

	chunk := (len(items) + workers - 1) / workers
	partials := make([][]Result, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		if start >= len(items) {
			continue
		}
		end := start + chunk
		if end > len(items) {
			end = len(items)
		}
		g.Go(func() error {
			partials[w] = matchSerial(pattern, items[start:end])
			return nil
		})
	}
	_ = g.Wait()

	var out []Result
	for _, p := range partials {
		out = append(out, p...)
	}
	return out
}

// selectTopK orders matched by (score desc, name asc) and returns the
// leading limit elements. Below smallLimitCutoff it maintains a min-heap
// of size limit; at or above it, it quickselects the cutoff and sorts the
// prefix.
func selectTopK(matched []Result, limit int) []Result {
	if limit <= 0 || len(matched) == 0 {
		return nil
	}

	if limit < smallLimitCutoff {
		return heapTopK(matched, limit)
	}
	return quickselectTopK(matched, limit)
}

func less(a, b Result) bool {
	return fuzzy.Less(a.Score, a.Item.Name, b.Score, b.Item.Name)
}

// resultMinHeap is a min-heap ordered by the *worse* of two results being
// on top, so pushing beyond capacity pops the weakest element.
type resultMinHeap []Result

func (h resultMinHeap) Len() int { return len(h) }
func (h resultMinHeap) Less(i, j int) bool {
	// Min-heap: the element that would lose a "less" comparison (i.e. is
	// ranked worse) should be the one near the top, so invert `less`.
	return less(h[j], h[i])
}
func (h resultMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *resultMinHeap) Push(x any)        { *h = append(*h, x.(Result)) }
func (h *resultMinHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func heapTopK(matched []Result, limit int) []Result {
	h := &resultMinHeap{}
	heap.Init(h)
	for _, r := range matched {
		if h.Len() < limit {
			heap.Push(h, r)
			continue
		}
		if less(r, (*h)[0]) {
			heap.Push(h, r)
			heap.Pop(h)
		}
	}
	out := make([]Result, h.Len())
	copy(out, *h)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func quickselectTopK(matched []Result, limit int) []Result {
	if limit > len(matched) {
		limit = len(matched)
	}
	work := make([]Result, len(matched))
	copy(work, matched)

	quickselect(work, 0, len(work)-1, limit-1)

	prefix := work[:limit]
	sort.Slice(prefix, func(i, j int) bool { return less(prefix[i], prefix[j]) })
	return prefix
}

// quickselect partitions work[lo:hi+1] so that work[k] holds the element
// that would land at index k in fully sorted (by less) order, using a
// Lomuto partition around the last element of the range.
func quickselect(work []Result, lo, hi, k int) {
	for lo < hi {
		p := partition(work, lo, hi)
		switch {
		case p == k:
			return
		case k < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partition(work []Result, lo, hi int) int {
	pivot := work[hi]
	i := lo
	for j := lo; j < hi; j++ {
		if less(work[j], pivot) {
			work[i], work[j] = work[j], work[i]
			i++
		}
	}
	work[i], work[hi] = work[hi], work[i]
	return i
}

func take(results []Result, limit int) []Result {
	if limit < 0 || limit >= len(results) {
		out := make([]Result, len(results))
		copy(out, results)
		return out
	}
	out := make([]Result, limit)
	copy(out, results[:limit])
	return out
}
