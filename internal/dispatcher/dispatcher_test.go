package dispatcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	path := filepath.Join(t.TempDir(), "actions.json")
	d, err := Open(path, t.TempDir(), nil)
	require.NoError(t, err)
	return d
}

func TestQuickLinkExpansion(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Add(Action{
		ID: "gh", Name: "GitHub", Icon: "magnifyingglass",
		Enabled: true, Kind: KindQuickLink,
		Keyword: "gh", URL: "https://github.com/search?q={query}",
	}))

	results := d.Search("gh rust")
	require.Len(t, results, 1)
	r := results[0]
	require.Equal(t, "GitHub: rust", r.Title)
	require.Equal(t, "https://github.com/search?q=rust", r.Subtitle)
	require.Equal(t, ResultOpenUrl, r.Action.Kind)
	require.Equal(t, "https://github.com/search?q=rust", r.Action.URL)
	require.EqualValues(t, ScoreQuickLink, r.Score)
}

func TestPatternCapture(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Add(Action{
		ID: "gh-repo", Name: "GitHub Repo", Enabled: true, Kind: KindPattern,
		Pattern: "gh {owner}/{repo}",
		PAction: PatternAction{Kind: PatternOpenUrl, Template: "https://github.com/{owner}/{repo}"},
	}))

	results := d.Search("gh rust-lang/rust")
	require.Len(t, results, 1)
	r := results[0]
	require.Equal(t, ResultOpenUrl, r.Action.Kind)
	require.Equal(t, "https://github.com/rust-lang/rust", r.Action.URL)
	require.EqualValues(t, ScorePattern, r.Score)
}

func TestToggleHidesAction(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Add(Action{
		ID: "gh", Name: "GitHub", Enabled: true, Kind: KindQuickLink,
		Keyword: "gh", URL: "https://github.com/search?q={query}",
	}))
	require.NotEmpty(t, d.Search("gh rust"))

	require.True(t, d.Toggle("gh"))
	require.Empty(t, d.Search("gh rust"))
}

func TestDisabledActionNeverMatches(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Add(Action{
		ID: "gh", Name: "GitHub", Enabled: false, Kind: KindQuickLink,
		Keyword: "gh", URL: "https://github.com/search?q={query}",
	}))
	require.Empty(t, d.Search("gh rust"))
}

func TestImportDefaultsSkipsExisting(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Add(Action{
		ID: "quicklink-github", Name: "My GitHub Override", Enabled: true,
		Kind: KindQuickLink, Keyword: "gh", URL: "https://example.com/{query}",
	}))
	require.NoError(t, d.ImportDefaults())

	all := d.GetAll()
	var ghCount int
	for _, a := range all {
		if a.ID == "quicklink-github" {
			ghCount++
			require.Equal(t, "My GitHub Override", a.Name)
		}
	}
	require.Equal(t, 1, ghCount)
	require.Len(t, all, 6) // override + the other five canonical defaults
}

func TestRemoveAction(t *testing.T) {
	d := newTestDispatcher(t)
	require.NoError(t, d.Add(Action{ID: "gh", Name: "GitHub", Enabled: true, Kind: KindQuickLink, Keyword: "gh", URL: "https://x/{query}"}))
	require.True(t, d.Remove("gh"))
	require.False(t, d.Remove("gh"))
	require.Empty(t, d.GetAll())
}
