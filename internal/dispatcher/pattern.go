package dispatcher

import "strings"

// keywordMatch trims leading/trailing whitespace from query, strips a
// leading keyword prefix, and accepts iff what follows is empty or begins
// with a space/tab. Returns the trimmed tail. Per spec.md Open Question 1,
// trimming happens before stripping the keyword — a keyword that itself
// starts with whitespace can therefore never match. This is preserved
// verbatim, not "fixed".
func keywordMatch(query, keyword string) (tail string, ok bool) {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(trimmed, keyword) {
		return "", false
	}
	rest := trimmed[len(keyword):]
	if rest == "" {
		return "", true
	}
	if rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// matchPattern tokenises pattern and query on single spaces, requires equal
// token counts, and walks each `{name}` token byte-by-byte, capturing up to
// (but not including) the next literal byte in the pattern token — or to
// the end of the query token if the capture is the token's last element.
// Zero-length captures are rejected, including when the capture is the
// final token (spec.md Open Question 2 — preserved verbatim: "gh {x}"
// against "gh " is a non-match).
func matchPattern(pattern, query string) (map[string]string, bool) {
	// Tokenise on a literal single space, not collapsed whitespace: a
	// trailing space in query yields a trailing empty token, which is how
	// "gh {x}" against "gh " (Open Question 2) produces a token-count match
	// that then fails on the zero-length-capture rule below, rather than
	// failing earlier on a token-count mismatch.
	pTokens := strings.Split(pattern, " ")
	qTokens := strings.Split(query, " ")
	if len(pTokens) != len(qTokens) {
		return nil, false
	}

	captures := make(map[string]string)
	for i, pt := range pTokens {
		qt := qTokens[i]
		if !strings.Contains(pt, "{") {
			if pt != qt {
				return nil, false
			}
			continue
		}
		if !matchToken(pt, qt, captures) {
			return nil, false
		}
	}
	return captures, true
}

// matchToken matches a single pattern token (which may contain one or more
// {name} placeholders interleaved with literal bytes) against a single
// query token.
func matchToken(pt, qt string, captures map[string]string) bool {
	pi, qi := 0, 0
	for pi < len(pt) {
		if pt[pi] == '{' {
			end := strings.IndexByte(pt[pi:], '}')
			if end == -1 {
				return false
			}
			name := pt[pi+1 : pi+end]
			pi += end + 1

			// Determine the next literal byte (if any) to bound the capture.
			if pi < len(pt) {
				stopByte := pt[pi]
				rel := strings.IndexByte(qt[qi:], stopByte)
				if rel == -1 {
					return false
				}
				if rel == 0 {
					return false // zero-length capture
				}
				captures[name] = qt[qi : qi+rel]
				qi += rel
			} else {
				// Last element of the token: capture to the end of qt.
				if qi >= len(qt) {
					return false // zero-length capture
				}
				captures[name] = qt[qi:]
				qi = len(qt)
			}
			continue
		}

		if qi >= len(qt) || pt[pi] != qt[qi] {
			return false
		}
		pi++
		qi++
	}
	return qi == len(qt)
}

// expandTemplate replaces every {name} occurrence in tmpl using captures.
func expandTemplate(tmpl string, captures map[string]string) string {
	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			end := strings.IndexByte(tmpl[i:], '}')
			if end == -1 {
				b.WriteString(tmpl[i:])
				break
			}
			name := tmpl[i+1 : i+end]
			if v, ok := captures[name]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(tmpl[i : i+end+1])
			}
			i += end + 1
			continue
		}
		b.WriteByte(tmpl[i])
		i++
	}
	return b.String()
}
