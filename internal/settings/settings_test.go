package settings

import (
	"path/filepath"
	"testing"
)

func TestGetReturnsDefaultsWhenEmpty(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.json"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got := s.Get()
	if got != defaults {
		t.Fatalf("Get() = %+v, want defaults %+v", got, defaults)
	}
}

func TestSetPersistsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := Settings{Theme: "dark", Hotkey: "ctrl+space", MaxResults: 20, LaunchAtLogin: true}
	if err := s.Set(want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get(); got != want {
		t.Fatalf("Get() = %+v, want %+v", got, want)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.Get(); got != want {
		t.Fatalf("after reopen Get() = %+v, want %+v", got, want)
	}
}
