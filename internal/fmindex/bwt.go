// Package fmindex builds the plaintext Burrows-Wheeler transform and
// wavelet-matrix rank table that the secure protocol packages
// (internal/fsswm, internal/fssfmi) operate on obliviously. It stands in
// for the out-of-scope external BWT/suffix-array builder spec.md §1 names
// ("building the index itself is out of scope; this system only makes an
// already-built index queryable in zero knowledge of the query"), and
// doubles as the plaintext reference oracle spec.md §8's test scenarios
// check secure results against.
package fmindex

import "sort"

// Sentinel terminates the input text before the BWT is built, guaranteeing
// every rotation is distinct and the BWT is invertible.
const Sentinel = byte(0)

// BWT holds a Burrows-Wheeler-transformed text and the metadata a wavelet
// matrix is built from.
type BWT struct {
	Text []byte // the transformed text, including the sentinel
}

// Build computes the BWT of text (appending the sentinel) using a naive
// O(n^2 log n) suffix sort — fine for the small corpora this reference
// oracle is built for; production-sized indexes are built out of band.
//
// The text is reversed before the transform is built, matching the
// ground-truth FMIndex constructor (FssWM/wm/fmindex.cpp: "text_ = text;
// std::reverse(text_.begin(), text_.end());"). Backward search then
// narrows the range processing the query front-to-back (internal/fssfmi's
// step order), which over a reversed-text BWT computes the longest
// matching *prefix* of the query rather than its longest suffix.
func Build(text []byte) BWT {
	n := len(text) + 1
	padded := make([]byte, n)
	for i, c := range text {
		padded[len(text)-1-i] = c
	}
	padded[n-1] = Sentinel

	rotated := make([]int, n) // rotated[i] = starting offset of rotation i
	for i := range rotated {
		rotated[i] = i
	}
	sort.Slice(rotated, func(a, b int) bool {
		return lessRotation(padded, rotated[a], rotated[b])
	})

	out := make([]byte, n)
	for i, start := range rotated {
		out[i] = padded[(start+n-1)%n]
	}
	return BWT{Text: out}
}

func lessRotation(s []byte, a, b int) bool {
	n := len(s)
	for i := 0; i < n; i++ {
		ca := s[(a+i)%n]
		cb := s[(b+i)%n]
		if ca != cb {
			return ca < cb
		}
	}
	return false
}

// Alphabet returns the sorted distinct bytes appearing in b.Text.
func (b BWT) Alphabet() []byte {
	seen := make(map[byte]bool)
	for _, c := range b.Text {
		seen[c] = true
	}
	out := make([]byte, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
