package search

import "testing"

func TestSearchEmptyQueryErrors(t *testing.T) {
	e := NewEngine(NewIndexer())
	if _, err := e.Search("", 10); err != ErrQueryEmpty {
		t.Fatalf("err = %v, want ErrQueryEmpty", err)
	}
}

func TestSearchRanksBestMatchFirst(t *testing.T) {
	ix := NewIndexer()
	ix.AddItems([]Item{
		{ID: "1", Name: "Visual Studio Code", Kind: KindApplication},
		{ID: "2", Name: "Safari", Kind: KindApplication},
	})
	e := NewEngine(ix)

	results, err := e.Search("vsc", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].Item.Name != "Visual Studio Code" {
		t.Fatalf("results = %+v, want Visual Studio Code first", results)
	}
}

func TestSearchCacheHit(t *testing.T) {
	ix := NewIndexer()
	ix.AddItem(Item{ID: "1", Name: "Terminal", Kind: KindApplication})
	e := NewEngine(ix)

	r1, err := e.Search("term", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Mutate the underlying indexer without calling ClearCache: a cache hit
	// should still return the pre-mutation result set.
	ix.AddItem(Item{ID: "2", Name: "Terminator", Kind: KindApplication})
	r2, err := e.Search("term", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(r1) != len(r2) {
		t.Fatalf("expected cached result set, got len %d then %d", len(r1), len(r2))
	}
}

func TestClearCacheForcesRerank(t *testing.T) {
	ix := NewIndexer()
	ix.AddItem(Item{ID: "1", Name: "Terminal", Kind: KindApplication})
	e := NewEngine(ix)
	_, _ = e.Search("term", 5)

	ix.AddItem(Item{ID: "2", Name: "Terminator", Kind: KindApplication})
	e.ClearCache()

	r, err := e.Search("term", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(r) != 2 {
		t.Fatalf("expected 2 results after ClearCache, got %d", len(r))
	}
}

func TestTopKLargeLimitUsesQuickselect(t *testing.T) {
	ix := NewIndexer()
	for i := 0; i < 300; i++ {
		ix.AddItem(Item{ID: string(rune('a' + i%26)) + string(rune(i)), Name: "app" + string(rune(i)), Kind: KindApplication})
	}
	e := NewEngine(ix)
	results, err := e.Search("app", 150)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 150 {
		t.Fatalf("len(results) = %d, want 150", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Fatalf("results not sorted by descending score at %d", i)
		}
	}
}
