package fileindex

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 300 * time.Millisecond

// startWatcherIfNeeded lazily constructs the fsnotify watcher and begins
// watching every configured root recursively. A construction failure is
// logged and leaves the indexer in poll-only mode (only RefreshIfNeeded
// updates the map thereafter).
func (idx *Indexer) startWatcherIfNeeded() {
	idx.watcherMu.Lock()
	defer idx.watcherMu.Unlock()
	if idx.watcher != nil {
		return
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		idx.log.Warn("fileindex: watcher construction failed, falling back to poll-only mode", "error", err)
		return
	}

	idx.cfgMu.RLock()
	dirs := append([]string(nil), idx.cfg.Directories...)
	idx.cfgMu.RUnlock()

	for _, root := range dirs {
		if err := addDirRecursive(fw, root, idx.cfg.IndexHidden); err != nil {
			idx.log.Warn("fileindex: watch root failed", "root", root, "error", err)
		}
	}

	idx.watcher = fw
	idx.watchDone = make(chan struct{})
	go idx.watchLoop(fw, idx.watchDone)
}

func (idx *Indexer) stopWatcher() {
	idx.watcherMu.Lock()
	defer idx.watcherMu.Unlock()
	if idx.watcher == nil {
		return
	}
	close(idx.watchDone)
	_ = idx.watcher.Close()
	idx.watcher = nil
	idx.watchDone = nil
}

func addDirRecursive(fw *fsnotify.Watcher, dir string, indexHidden bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		return err
	}
	for _, e := range entries {
		if !indexHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			_ = addDirRecursive(fw, filepath.Join(dir, e.Name()), indexHidden)
		}
	}
	return nil
}

// watchLoop debounces fsnotify events (coalescing rapid changes to the same
// path within debounceWindow) and applies them to the live index.
func (idx *Indexer) watchLoop(fw *fsnotify.Watcher, done chan struct{}) {
	pending := make(map[string]*time.Timer)

	for {
		select {
		case <-done:
			for _, t := range pending {
				t.Stop()
			}
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			path := ev.Name

			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(path); err == nil && fi.IsDir() {
					idx.cfgMu.RLock()
					hidden := idx.cfg.IndexHidden
					idx.cfgMu.RUnlock()
					_ = addDirRecursive(fw, path, hidden)
				}
			}

			if t, ok := pending[path]; ok {
				t.Stop()
			}
			pending[path] = time.AfterFunc(debounceWindow, func() {
				idx.applyEvent(ev)
			})

		case _, ok := <-fw.Errors:
			if !ok {
				return
			}
		}
	}
}

// applyEvent updates the live index for a single (debounced) fsnotify
// event: remove and rename events drop the key and bump generation if an
// entry was removed; create/modify on a path that no longer exists is
// handled the same way; create/modify on an existing path upserts it when
// it is a file with an accepted extension, and bumps generation whether or
// not anything was upserted; other event kinds are ignored.
func (idx *Indexer) applyEvent(ev fsnotify.Event) {
	path := ev.Name

	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		idx.removeByPath(path)
		return

	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		fi, err := os.Stat(path)
		if err != nil {
			idx.removeByPath(path)
			return
		}
		if fi.IsDir() {
			idx.bumpGeneration()
			return
		}
		idx.cfgMu.RLock()
		exts := idx.cfg.Extensions
		idx.cfgMu.RUnlock()
		if !hasAcceptedExt(exts, path) {
			idx.bumpGeneration()
			return
		}
		entry := FileEntry{Path: path, Name: filepath.Base(path)}
		idx.indexMu.Lock()
		idx.index[normalize(path)] = entry
		idx.indexMu.Unlock()
		idx.fileCount.Store(int64(idx.currentCount()))
		idx.bumpGeneration()

	default:
		// Ignored event kind (e.g. Chmod).
	}
}

func (idx *Indexer) removeByPath(path string) {
	key := normalize(path)
	idx.indexMu.Lock()
	_, existed := idx.index[key]
	if existed {
		delete(idx.index, key)
	}
	idx.indexMu.Unlock()
	if existed {
		idx.fileCount.Store(int64(idx.currentCount()))
		idx.bumpGeneration()
	}
}
