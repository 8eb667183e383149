package fuzzy

import (
	"strings"
	"testing"
)

func TestExactMatchBonus(t *testing.T) {
	p := Parse("safari")
	m, ok := MatchString(p, "Safari")
	if !ok {
		t.Fatalf("expected match")
	}
	if m.Score < 10_000 {
		t.Fatalf("score = %d, want >= 10000 for case-insensitive exact match", m.Score)
	}
}

func TestPrefixBonus(t *testing.T) {
	p := Parse("vis")
	m, ok := MatchString(p, "Visual Studio Code")
	if !ok {
		t.Fatalf("expected match")
	}
	if m.Score < 5_000 {
		t.Fatalf("score = %d, want >= 5000 for prefix match", m.Score)
	}
}

func TestNoSubsequenceNoMatch(t *testing.T) {
	p := Parse("xyz")
	if _, ok := MatchString(p, "Safari"); ok {
		t.Fatalf("expected no match")
	}
}

func TestEmptyQueryNoMatch(t *testing.T) {
	p := Parse("")
	if _, ok := MatchString(p, "anything"); ok {
		t.Fatalf("expected no match for empty query")
	}
}

func TestRankingPrefersBetterCandidate(t *testing.T) {
	p := Parse("vsc")
	mVSC, ok1 := MatchString(p, "Visual Studio Code")
	mSafari, ok2 := MatchString(p, "Safari")
	if !ok1 || ok2 {
		t.Fatalf("expected VSC to match and Safari not to (ok1=%v ok2=%v)", ok1, ok2)
	}
	_ = mVSC
	_ = mSafari
}

func TestConsecutiveRunsScoreHigherThanScattered(t *testing.T) {
	p := Parse("abc")
	consecutive, ok := MatchString(p, "abcxyz")
	if !ok {
		t.Fatalf("expected match")
	}
	scattered, ok := MatchString(p, "axbxcxyz")
	if !ok {
		t.Fatalf("expected match")
	}
	if consecutive.Score <= scattered.Score {
		t.Fatalf("consecutive score %d should exceed scattered score %d", consecutive.Score, scattered.Score)
	}
}

func TestLengthPenalty(t *testing.T) {
	p := Parse("ab")
	short, ok := MatchString(p, "ab")
	if !ok {
		t.Fatalf("expected match")
	}
	long, ok := MatchString(p, "ab"+strings.Repeat("x", 20))
	if !ok {
		t.Fatalf("expected match")
	}
	if short.Score <= long.Score {
		t.Fatalf("shorter candidate should score higher: short=%d long=%d", short.Score, long.Score)
	}
}
