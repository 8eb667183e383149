package snippet

import "testing"

func TestFindMatchRightmost(t *testing.T) {
	m := New()
	err := m.UpdateSnippets([]Snippet{
		{ID: "1", Trigger: ";addr", Content: "123 Main St", Enabled: true},
		{ID: "2", Trigger: ";em", Content: "me@example.com", Enabled: true},
	})
	if err != nil {
		t.Fatalf("UpdateSnippets: %v", err)
	}

	match, ok := m.FindMatch("contact ;em or see ;addr for details")
	if !ok {
		t.Fatalf("expected a match")
	}
	if match.Trigger != ";addr" {
		t.Fatalf("expected rightmost match to be ;addr, got %q", match.Trigger)
	}
}

func TestFindMatchNoneWhenDisabled(t *testing.T) {
	m := New()
	err := m.UpdateSnippets([]Snippet{
		{ID: "1", Trigger: ";addr", Content: "123 Main St", Enabled: false},
	})
	if err != nil {
		t.Fatalf("UpdateSnippets: %v", err)
	}
	if _, ok := m.FindMatch("use ;addr here"); ok {
		t.Fatalf("expected no match for disabled snippet")
	}
}

func TestFindMatchEmptyTriggerSet(t *testing.T) {
	m := New()
	if err := m.UpdateSnippets(nil); err != nil {
		t.Fatalf("UpdateSnippets: %v", err)
	}
	if _, ok := m.FindMatch("anything"); ok {
		t.Fatalf("expected no match with empty trigger set")
	}
}

func TestExpandSplicesContent(t *testing.T) {
	m := New()
	_ = m.UpdateSnippets([]Snippet{
		{ID: "1", Trigger: ";em", Content: "me@example.com", Enabled: true},
	})
	buf := "contact ;em please"
	match, ok := m.FindMatch(buf)
	if !ok {
		t.Fatalf("expected a match")
	}
	newBuf, caret := m.Expand(buf, match)
	want := "contact me@example.com please"
	if newBuf != want {
		t.Fatalf("Expand = %q, want %q", newBuf, want)
	}
	if newBuf[:caret] != "contact me@example.com" {
		t.Fatalf("caret %d landed wrong: %q", caret, newBuf[:caret])
	}
}
