package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeZero(path string) error  { return os.WriteFile(path, nil, 0o644) }
func writeBytes(path string, b []byte) error { return os.WriteFile(path, b, 0o644) }

type widget struct {
	ID   string
	Name string
}

func TestAddGetAllClear(t *testing.T) {
	dir := t.TempDir()
	s, err := New[widget](filepath.Join(dir, "widgets.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := widget{ID: "1", Name: "foo"}
	if err := s.Add(w); err != nil {
		t.Fatalf("Add: %v", err)
	}

	all := s.GetAll()
	if len(all) != 1 || all[0] != w {
		t.Fatalf("GetAll = %v, want [%v]", all, w)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if !s.IsEmpty() {
		t.Fatalf("expected empty store after Clear")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widgets.json")

	s1, err := New[widget](path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = s1.Add(widget{ID: "1", Name: "a"})
	_ = s1.Add(widget{ID: "2", Name: "b"})

	s2, err := New[widget](path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := s2.GetAll()
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("round trip mismatch: %v", got)
	}
}

func TestZeroByteFileLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	if err := writeZero(path); err != nil {
		t.Fatalf("writeZero: %v", err)
	}

	s, err := New[widget](path)
	if err != nil {
		t.Fatalf("New on zero-byte file: %v", err)
	}
	if !s.IsEmpty() {
		t.Fatalf("expected empty store from zero-byte file")
	}
}

func TestCorruptArchiveResetsToEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.json")
	if err := writeBytes(path, []byte("not json{{{")); err != nil {
		t.Fatalf("writeBytes: %v", err)
	}

	s, err := New[widget](path)
	if err != nil {
		t.Fatalf("New on corrupt file should not fail: %v", err)
	}
	if !s.IsEmpty() {
		t.Fatalf("expected empty store after corrupt archive")
	}
}

func TestSnapshotIsolationUnderCOW(t *testing.T) {
	dir := t.TempDir()
	s, err := New[widget](filepath.Join(dir, "w.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = s.Add(widget{ID: "1"})

	snap := s.GetAll() // snapshot outstanding
	_ = s.Add(widget{ID: "2"})

	if len(snap) != 1 {
		t.Fatalf("outstanding snapshot was mutated: %v", snap)
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestUpdateOnlySavesWhenChanged(t *testing.T) {
	dir := t.TempDir()
	s, err := New[widget](filepath.Join(dir, "w.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = s.Add(widget{ID: "1"})

	changed := s.Update(func(items []widget) ([]widget, bool) {
		return items, false
	})
	if changed {
		t.Fatalf("expected no change")
	}

	changed = s.Update(func(items []widget) ([]widget, bool) {
		return append(items, widget{ID: "2"}), true
	})
	if !changed {
		t.Fatalf("expected change")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
}

func TestAsyncAddThenFlush(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.json")
	s, err := New[widget](path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.AddAsync(widget{ID: "1"})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	s2, err := New[widget](path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s2.Len() != 1 {
		t.Fatalf("after flush, reopen Len = %d, want 1", s2.Len())
	}
}

func TestTrimTo(t *testing.T) {
	dir := t.TempDir()
	s, err := New[widget](filepath.Join(dir, "w.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 5; i++ {
		_ = s.Add(widget{ID: string(rune('a' + i))})
	}
	removed := s.TrimTo(3)
	if len(removed) != 2 {
		t.Fatalf("removed = %d, want 2", len(removed))
	}
	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
}
