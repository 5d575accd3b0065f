package fmindex

// LongestPrefixMatch is the plaintext reference computation of spec.md
// §4.8's backward-search walk: starting from the full range [0, N), narrow
// by one pattern character at a time until the range empties or the
// pattern is exhausted. Matching the ground truth's FMIndex::Count/
// LongestPrefixMatchLength (FssWM/wm/fmindex.cpp), the query is processed
// front to back — the table itself is built over the reversed text
// (internal/fmindex.Build), which is what turns this walk's narrowing
// into a longest-*prefix*-match rather than a longest-suffix-match. It
// returns the length of the longest prefix of pattern that still matches
// some substring of the indexed text, and the final [start, end) range at
// that depth.
func (t PublicTable) LongestPrefixMatch(pattern []byte) (matched int, start, end int) {
	start, end = 0, t.N
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		code, ok := t.CharIndex[c]
		if !ok {
			break
		}
		base := t.CountLess[code] - t.RankPlain(code, 0)
		newStart := base + t.RankPlain(code, start)
		newEnd := base + t.RankPlain(code, end)
		if newStart >= newEnd {
			break
		}
		start, end = newStart, newEnd
		matched++
	}
	return matched, start, end
}
