// Package snippet maintains a leftmost-longest Aho-Corasick automaton over
// enabled snippet triggers and locates the rightmost trigger match in a
// live text buffer (auto-expansion matching as the user types).
package snippet

import (
	"github.com/coregx/ahocorasick"
)

// Snippet is the matcher's view of a snippet record (shares id/trigger/
// content/enabled with the storage form; category is storage-only).
type Snippet struct {
	ID      string
	Trigger string
	Content string
	Enabled bool
}

// Match describes where a trigger was found in a text buffer.
type Match struct {
	Trigger  string
	Content  string
	MatchEnd int // byte offset, exclusive, of the end of the trigger in text
}

// Matcher holds the automaton built over the enabled snippet set.
type Matcher struct {
	automaton *ahocorasick.Automaton
	byTrigger map[string]Snippet
}

// New returns an empty Matcher (no automaton — no triggers registered).
func New() *Matcher {
	return &Matcher{byTrigger: make(map[string]Snippet)}
}

// UpdateSnippets filters snippets to the enabled subset and rebuilds the
// automaton. An empty enabled set clears the automaton entirely (no
// matches possible).
func (m *Matcher) UpdateSnippets(snippets []Snippet) error {
	byTrigger := make(map[string]Snippet)
	var triggers [][]byte
	for _, s := range snippets {
		if !s.Enabled || s.Trigger == "" {
			continue
		}
		byTrigger[s.Trigger] = s
		triggers = append(triggers, []byte(s.Trigger))
	}

	if len(triggers) == 0 {
		m.automaton = nil
		m.byTrigger = byTrigger
		return nil
	}

	b := ahocorasick.NewBuilder()
	for _, t := range triggers {
		b.AddPattern(t)
	}
	a, err := b.Build()
	if err != nil {
		return err
	}

	m.automaton = a
	m.byTrigger = byTrigger
	return nil
}

// FindMatch returns the rightmost trigger match in text — equivalent to
// taking the last element of the full match iterator. Returns (Match{},
// false) when the automaton is empty or no trigger occurs in text.
func (m *Matcher) FindMatch(text string) (Match, bool) {
	if m.automaton == nil {
		return Match{}, false
	}

	haystack := []byte(text)
	var last *ahocorasick.Match
	at := 0
	for at <= len(haystack) {
		mm := m.automaton.Find(haystack, at)
		if mm == nil {
			break
		}
		last = mm
		at = mm.End // continue after this match, as a non-overlapping match iterator does
	}
	if last == nil {
		return Match{}, false
	}

	trigger := string(haystack[last.Start:last.End])
	s, ok := m.byTrigger[trigger]
	if !ok {
		return Match{}, false
	}
	return Match{Trigger: s.Trigger, Content: s.Content, MatchEnd: last.End}, true
}

// Expand splices a matched trigger's expansion into buffer, returning the
// new buffer and the caret offset immediately after the inserted content.
// Supplements find_match per the original Rust snippet_matcher, whose every
// caller performs this same splice immediately after a match.
func (m *Matcher) Expand(buffer string, match Match) (string, int) {
	start := match.MatchEnd - len(match.Trigger)
	if start < 0 || match.MatchEnd > len(buffer) {
		return buffer, match.MatchEnd
	}
	newBuffer := buffer[:start] + match.Content + buffer[match.MatchEnd:]
	caret := start + len(match.Content)
	return newBuffer, caret
}
