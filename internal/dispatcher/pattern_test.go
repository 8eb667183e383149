package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchPatternCapturesGithubRepo(t *testing.T) {
	captures, ok := matchPattern("gh {owner}/{repo}", "gh rust-lang/rust")
	require.True(t, ok)
	require.Equal(t, "rust-lang", captures["owner"])
	require.Equal(t, "rust", captures["repo"])
}

func TestMatchPatternTokenCountMismatch(t *testing.T) {
	_, ok := matchPattern("gh {owner}/{repo}", "gh rust-lang rust extra")
	require.False(t, ok)
}

func TestMatchPatternZeroLengthCaptureRejectedFinalToken(t *testing.T) {
	// Open Question 2: "gh {x}" against "gh " must fail — a trailing-space
	// query has a trailing empty token, and the final-token capture over
	// that empty token is zero-length, which is rejected.
	_, ok := matchPattern("gh {x}", "gh ")
	require.False(t, ok)
}

func TestMatchPatternZeroLengthCaptureRejectedMidToken(t *testing.T) {
	_, ok := matchPattern("gh {owner}/{repo}", "gh /rust")
	require.False(t, ok)
}

func TestMatchPatternLiteralMismatch(t *testing.T) {
	_, ok := matchPattern("gh {owner}/{repo}", "hg rust-lang/rust")
	require.False(t, ok)
}

func TestExpandTemplate(t *testing.T) {
	got := expandTemplate("https://github.com/{owner}/{repo}", map[string]string{
		"owner": "rust-lang", "repo": "rust",
	})
	require.Equal(t, "https://github.com/rust-lang/rust", got)
}

func TestKeywordMatchBasic(t *testing.T) {
	tail, ok := keywordMatch("gh rust", "gh")
	require.True(t, ok)
	require.Equal(t, "rust", tail)
}

func TestKeywordMatchBareKeyword(t *testing.T) {
	tail, ok := keywordMatch("gh", "gh")
	require.True(t, ok)
	require.Equal(t, "", tail)
}

func TestKeywordMatchRejectsPrefixWithoutSeparator(t *testing.T) {
	_, ok := keywordMatch("ghost", "gh")
	require.False(t, ok)
}

func TestKeywordMatchLeadingWhitespaceKeywordNeverMatches(t *testing.T) {
	// Open Question 1: query is trimmed before the keyword is stripped, so
	// a keyword that itself begins with whitespace can never match.
	_, ok := keywordMatch("  gh rust", " gh")
	require.False(t, ok)
}
