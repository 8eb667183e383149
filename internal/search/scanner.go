package search

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/quillbar/launchcore/internal/fileindex"
)

// scanner is the shallow alternative to a full fileindex.Indexer: a single
// non-recursive directory listing cached until explicitly refreshed, used
// when EnableFileSearch is called without a deep File Indexer attached.
type scanner struct {
	mu    sync.RWMutex
	dirs  []string
	exts  map[string]bool
	cache []fileindex.FileEntry
}

func newScanner(dirs []string, exts []string) *scanner {
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}
	s := &scanner{dirs: dirs, exts: extSet}
	s.refresh()
	return s
}

func (s *scanner) refresh() {
	var out []fileindex.FileEntry
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if len(s.exts) > 0 && !s.exts[strings.ToLower(filepath.Ext(name))] {
				continue
			}
			out = append(out, fileindex.FileEntry{
				Path: filepath.Join(dir, name),
				Name: name,
			})
		}
	}
	s.mu.Lock()
	s.cache = out
	s.mu.Unlock()
}

func (s *scanner) entries() []fileindex.FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}
