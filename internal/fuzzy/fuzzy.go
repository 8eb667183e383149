// Package fuzzy scores how well a candidate string matches a query,
// combining a subsequence match with domain bonuses (exact match, prefix,
// start-of-string, consecutive runs) and a length penalty. It is the
// ranking core shared by the Search Engine.
package fuzzy

import "strings"

// Match holds the outcome of scoring one candidate against one query.
type Match struct {
	Score   int64
	Indices []int // rune indices into the lowercased candidate that the query matched, in order
}

// Pattern is a parsed query, lowercased once so repeated matching against
// many candidates avoids re-lowercasing the query every time.
type Pattern struct {
	raw   string
	lower string
	runes []rune
}

// Parse builds a reusable Pattern from a query string.
func Parse(query string) Pattern {
	lower := strings.ToLower(query)
	return Pattern{raw: query, lower: lower, runes: []rune(lower)}
}

func (p Pattern) Empty() bool { return len(p.runes) == 0 }

// MatchString scores candidate against the parsed pattern. It returns
// (Match, true) on a match, or (Match{}, false) if the query's characters
// do not all appear in candidate as a subsequence.
func MatchString(p Pattern, candidate string) (Match, bool) {
	if p.Empty() {
		return Match{}, false
	}

	candLower := strings.ToLower(candidate)
	candRunes := []rune(candLower)

	indices, base, ok := subsequenceMatch(p.runes, candRunes)
	if !ok {
		return Match{}, false
	}

	score := base

	if candLower == p.lower {
		score += 10_000
	} else if strings.HasPrefix(candLower, p.lower) {
		score += 5_000
	}

	if len(indices) > 0 && indices[0] == 0 {
		score += 2_000
	}

	for i := 0; i+1 < len(indices); i++ {
		if indices[i+1] == indices[i]+1 {
			score += 100
		}
	}

	penalty := int64(len(candRunes)-len(p.runes)) * 10
	if penalty > 0 {
		score -= penalty
	}

	return Match{Score: score, Indices: indices}, true
}

// subsequenceMatch performs a greedy earliest-position subsequence match of
// pattern within candidate, returning matched indices and a base score that
// rewards tighter, earlier matches (mirrors a classic fuzzy-finder scoring
// core: +16 per matched rune, -1 per skipped rune since the previous match).
func subsequenceMatch(pattern, candidate []rune) ([]int, int64, bool) {
	indices := make([]int, 0, len(pattern))
	pi := 0
	var score int64
	last := -1

	for ci := 0; ci < len(candidate) && pi < len(pattern); ci++ {
		if candidate[ci] == pattern[pi] {
			indices = append(indices, ci)
			score += 16
			if last >= 0 {
				gap := ci - last - 1
				score -= int64(gap)
			}
			last = ci
			pi++
		}
	}

	if pi != len(pattern) {
		return nil, 0, false
	}
	return indices, score, true
}

// Less orders two scored candidates by (score desc, name asc) — the tie
// convention used throughout the Search Engine.
func Less(scoreA int64, nameA string, scoreB int64, nameB string) bool {
	if scoreA != scoreB {
		return scoreA > scoreB
	}
	return nameA < nameB
}
