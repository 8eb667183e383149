// Package fileindex maintains a live, bounded filename index over a set of
// configurable root directories: a persistent map from normalised absolute
// path to (path, name), seeded by a bounded recursive scan and kept current
// by a debounced filesystem watcher. A monotonic generation counter lets
// downstream caches (the Search Engine) detect when to invalidate.
package fileindex

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/quillbar/launchcore/internal/storage"
)

// FileEntry is a single indexed file.
type FileEntry struct {
	Path string `json:"path"` // absolute path
	Name string `json:"name"` // final path component
}

// Config controls what the indexer scans and watches.
type Config struct {
	Enabled     bool
	Directories []string
	Extensions  []string
	MaxFiles    int
	MaxDepth    int
	IndexHidden bool
	ExcludeDirs []string
}

// DefaultConfig returns the baked-in defaults: common source/office/dev
// file extensions and the usual VCS/build/cache/system directories to skip.
func DefaultConfig(dirs ...string) Config {
	return Config{
		Enabled:     true,
		Directories: dirs,
		Extensions: []string{
			".go", ".py", ".js", ".ts", ".jsx", ".tsx", ".rs", ".c", ".cpp", ".h", ".hpp",
			".java", ".rb", ".php", ".swift", ".kt",
			".md", ".txt", ".rst", ".adoc",
			".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".pdf",
			".json", ".yaml", ".yml", ".toml", ".xml", ".ini", ".conf",
			".sh", ".bash", ".zsh",
		},
		MaxFiles: 10_000,
		MaxDepth: 5,
		ExcludeDirs: []string{
			".git", ".svn", ".hg", "node_modules", "vendor", "target", "build",
			"dist", ".cache", "__pycache__", ".venv", "venv", ".idea", ".vscode",
			"DerivedData", ".Trash",
		},
	}
}

// Indexer is the live file index.
type Indexer struct {
	path string
	log  hclog.Logger

	store *storage.Store[FileEntry]

	indexMu sync.RWMutex
	index   map[string]FileEntry // normalised key -> entry

	cfgMu  sync.RWMutex
	cfg    Config
	scanMu sync.RWMutex
	lastScan map[string]time.Time

	fileCount atomic.Int64
	generation atomic.Uint64
	needsInitial atomic.Bool

	watcherMu sync.Mutex
	watcher   *fsnotify.Watcher
	watchDone chan struct{}
	started   atomic.Bool

	genCallback atomic.Pointer[func(uint64)]
}

// Open loads persisted entries from path (if present) and returns an
// Indexer seeded from them, configured by cfg. Call Start to begin
// scanning/watching.
func Open(path string, cfg Config, log hclog.Logger) (*Indexer, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s, err := storage.New[FileEntry](path, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}

	idx := &Indexer{
		path:     path,
		log:      log,
		store:    s,
		index:    make(map[string]FileEntry),
		cfg:      cfg,
		lastScan: make(map[string]time.Time),
	}

	for _, e := range s.GetAll() {
		idx.index[normalize(e.Path)] = e
	}
	idx.fileCount.Store(int64(len(idx.index)))
	idx.needsInitial.Store(true)

	return idx, nil
}

// SetGenerationCallback registers a notifier invoked with the new
// generation value on every live-index change.
func (idx *Indexer) SetGenerationCallback(cb func(uint64)) {
	if cb == nil {
		idx.genCallback.Store(nil)
		return
	}
	idx.genCallback.Store(&cb)
}

func (idx *Indexer) bumpGeneration() uint64 {
	g := idx.generation.Add(1)
	if p := idx.genCallback.Load(); p != nil {
		(*p)(g)
	}
	return g
}

// Generation returns the current monotonic change counter.
func (idx *Indexer) Generation() uint64 { return idx.generation.Load() }

// FileCount returns the number of indexed entries.
func (idx *Indexer) FileCount() int { return int(idx.fileCount.Load()) }

// IsEnabled reports whether the indexer is enabled.
func (idx *Indexer) IsEnabled() bool {
	idx.cfgMu.RLock()
	defer idx.cfgMu.RUnlock()
	return idx.cfg.Enabled
}

// GetAllFiles returns a snapshot slice of every indexed entry.
func (idx *Indexer) GetAllFiles() []FileEntry {
	idx.indexMu.RLock()
	defer idx.indexMu.RUnlock()
	out := make([]FileEntry, 0, len(idx.index))
	for _, e := range idx.index {
		out = append(out, e)
	}
	return out
}

// MapFiles calls f for every indexed entry.
func (idx *Indexer) MapFiles(f func(FileEntry)) {
	idx.indexMu.RLock()
	defer idx.indexMu.RUnlock()
	for _, e := range idx.index {
		f(e)
	}
}

// Enable turns indexing on.
func (idx *Indexer) Enable() {
	idx.cfgMu.Lock()
	idx.cfg.Enabled = true
	idx.cfgMu.Unlock()
}

// Disable turns indexing off and tears down the watcher.
func (idx *Indexer) Disable() {
	idx.cfgMu.Lock()
	idx.cfg.Enabled = false
	idx.cfgMu.Unlock()
	idx.stopWatcher()
	if err := idx.persist(); err != nil {
		idx.log.Warn("fileindex: persist on disable failed", "error", err)
	}
}

// UpdateConfig replaces the configuration. If the directory list changed,
// the watcher is torn down and indexing restarts against the new roots.
func (idx *Indexer) UpdateConfig(next Config) {
	idx.cfgMu.Lock()
	prev := idx.cfg
	idx.cfg = next
	idx.cfgMu.Unlock()

	if !sameDirs(prev.Directories, next.Directories) {
		idx.stopWatcher()
	}
	idx.Start()
}

func sameDirs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Start begins indexing: no-op if disabled. On first call with an empty
// index, it spawns a background scan; it also starts the debounced watcher
// if one is not already running.
func (idx *Indexer) Start() {
	if !idx.IsEnabled() {
		return
	}

	idx.indexMu.RLock()
	empty := len(idx.index) == 0
	idx.indexMu.RUnlock()

	if empty && idx.started.CompareAndSwap(false, true) {
		go func() {
			ctx := context.Background()
			if err := idx.scanAll(ctx); err != nil {
				idx.log.Warn("fileindex: initial scan failed", "error", err)
			}
			if err := idx.persist(); err != nil {
				idx.log.Warn("fileindex: persist after scan failed", "error", err)
			}
		}()
	}

	idx.startWatcherIfNeeded()
}

// RefreshIfNeeded rescans stale roots (or everything, if the initial scan
// never ran) and reports whether a rescan actually happened.
func (idx *Indexer) RefreshIfNeeded(ctx context.Context) bool {
	if !idx.IsEnabled() {
		return false
	}

	if idx.needsInitial.CompareAndSwap(true, false) {
		if err := idx.scanAll(ctx); err != nil {
			idx.log.Warn("fileindex: refresh initial scan failed", "error", err)
		}
		_ = idx.persist()
		return true
	}

	idx.cfgMu.RLock()
	dirs := append([]string(nil), idx.cfg.Directories...)
	idx.cfgMu.RUnlock()

	rescanned := false
	for _, root := range dirs {
		info, err := os.Stat(root)
		var mtime time.Time
		if err == nil {
			mtime = info.ModTime()
		}

		idx.scanMu.RLock()
		last, seen := idx.lastScan[root]
		idx.scanMu.RUnlock()

		if !seen || mtime.After(last) {
			if err := idx.scanRoot(ctx, root); err != nil {
				idx.log.Warn("fileindex: rescan failed", "root", root, "error", err)
				continue
			}
			rescanned = true
		}
	}
	if rescanned {
		_ = idx.persist()
	}
	return rescanned
}

// persist serialises the current entries via the Storage Substrate.
func (idx *Indexer) persist() error {
	idx.indexMu.RLock()
	entries := make([]FileEntry, 0, len(idx.index))
	for _, e := range idx.index {
		entries = append(entries, e)
	}
	idx.indexMu.RUnlock()

	idx.store.Update(func([]FileEntry) ([]FileEntry, bool) {
		return entries, true
	})
	return nil
}

// Flush blocks until every pending background save against the backing
// store has reached disk.
func (idx *Indexer) Flush() error {
	return idx.store.Flush()
}

// normalize applies the platform-dependent key normalisation: lowercased
// NFD on macOS, identity elsewhere.
func normalize(path string) string {
	if runtime.GOOS == "darwin" {
		return strings.ToLower(norm.NFD.String(path))
	}
	return path
}
