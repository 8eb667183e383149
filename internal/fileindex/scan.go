package fileindex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const batchSize = 1000

// scanAll scans every configured root, in parallel if there's more than
// one.
func (idx *Indexer) scanAll(ctx context.Context) error {
	idx.cfgMu.RLock()
	dirs := append([]string(nil), idx.cfg.Directories...)
	idx.cfgMu.RUnlock()

	if len(dirs) <= 1 {
		for _, root := range dirs {
			if err := idx.scanRoot(ctx, root); err != nil {
				return err
			}
		}
		idx.needsInitial.Store(false)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range dirs {
		root := root
		g.Go(func() error {
			return idx.scanRoot(gctx, root)
		})
	}
	err := g.Wait()
	idx.needsInitial.Store(false)
	return err
}

// scanRoot performs a bounded, iterative DFS from root, inserting matches
// in batches to keep index-lock critical sections short. Per-entry
// filesystem errors are swallowed (logged at debug) so one unreadable
// directory doesn't abort the whole scan.
func (idx *Indexer) scanRoot(ctx context.Context, root string) error {
	idx.cfgMu.RLock()
	cfg := idx.cfg
	idx.cfgMu.RUnlock()

	type pending struct {
		dir   string
		depth int
	}
	stack := []pending{{dir: root, depth: 0}}
	batch := make([]FileEntry, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		idx.indexMu.Lock()
		for _, e := range batch {
			idx.index[normalize(e.Path)] = e
		}
		idx.indexMu.Unlock()
		idx.fileCount.Store(int64(idx.currentCount()))
		idx.bumpGeneration()
		batch = batch[:0]
	}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			flush()
			return err
		}
		if int(idx.fileCount.Load()) >= cfg.MaxFiles {
			break
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.depth >= cfg.MaxDepth {
			continue
		}

		entries, err := os.ReadDir(cur.dir)
		if err != nil {
			idx.log.Debug("fileindex: readdir failed", "dir", cur.dir, "error", err)
			continue
		}

		for _, e := range entries {
			if int(idx.fileCount.Load())+len(batch) >= cfg.MaxFiles {
				break
			}

			name := e.Name()
			if !cfg.IndexHidden && strings.HasPrefix(name, ".") {
				continue
			}

			full := filepath.Join(cur.dir, name)

			if e.IsDir() {
				if containsName(cfg.ExcludeDirs, name) {
					continue
				}
				stack = append(stack, pending{dir: full, depth: cur.depth + 1})
				continue
			}

			if !hasAcceptedExt(cfg.Extensions, name) {
				continue
			}

			abs, err := filepath.Abs(full)
			if err != nil {
				abs = full
			}
			batch = append(batch, FileEntry{Path: abs, Name: name})
			if len(batch) >= batchSize {
				flush()
			}
		}
	}
	flush()

	idx.scanMu.Lock()
	idx.lastScan[root] = time.Now()
	idx.scanMu.Unlock()

	return nil
}

func (idx *Indexer) currentCount() int {
	idx.indexMu.RLock()
	defer idx.indexMu.RUnlock()
	return len(idx.index)
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func hasAcceptedExt(exts []string, name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
