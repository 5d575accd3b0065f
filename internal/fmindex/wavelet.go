package fmindex

import "math/bits"

// PublicTable is the public wavelet-matrix rank structure built over a
// BWT'd text: a binary wavelet matrix over the character codes, stored as
// one bit-plane plus zero-count prefix array per level (spec.md §3.4,
// §4.7). Every field here is plaintext — internal/fsswm only ever reads it
// through internal/oblivselect, which hides which position and which level
// bit the query is touching.
type PublicTable struct {
	N      int // length of the transformed text (including sentinel)
	Levels int // ceil(log2(len(Alphabet))), the wavelet matrix's bit depth

	Alphabet  []byte       // sorted distinct bytes of the transformed text
	CharIndex map[byte]int // byte -> code in [0, 1<<Levels)

	BitOf      [][]bool // BitOf[l][j]: level l's bit-plane, length N
	ZeroCount  [][]int  // ZeroCount[l][i]: zeros in BitOf[l][0:i], length N+1
	TotalZeros []int    // TotalZeros[l] == ZeroCount[l][N]

	CountLess []int // CountLess[c]: count of characters with code < c in the whole text
}

// BuildTable constructs the PublicTable for b (spec.md §3.4's rank-0
// table, generalized to the full per-level wavelet matrix internal/fsswm
// walks). It stands in for the out-of-scope external index builder;
// production deployments would load an equivalent table from disk.
func BuildTable(b BWT) PublicTable {
	alphabet := b.Alphabet()
	levels := bitsNeeded(len(alphabet))
	sigma := 1 << levels

	charIndex := make(map[byte]int, len(alphabet))
	for i, c := range alphabet {
		charIndex[c] = i
	}

	n := len(b.Text)
	codes := make([]int, n)
	for i, c := range b.Text {
		codes[i] = charIndex[c]
	}

	bitOf := make([][]bool, levels)
	zeroCount := make([][]int, levels)
	totalZeros := make([]int, levels)

	cur := append([]int(nil), codes...)
	for l := 0; l < levels; l++ {
		shift := levels - 1 - l
		plane := make([]bool, n)
		zc := make([]int, n+1)
		zeros := 0
		for j, code := range cur {
			bit := (code>>shift)&1 == 1
			plane[j] = bit
			zc[j] = zeros
			if !bit {
				zeros++
			}
		}
		zc[n] = zeros
		bitOf[l] = plane
		zeroCount[l] = zc
		totalZeros[l] = zeros

		if l < levels-1 {
			cur = stablePartition(cur, plane)
		}
	}

	countLess := make([]int, sigma+1)
	for _, code := range codes {
		countLess[code+1]++
	}
	for c := 1; c <= sigma; c++ {
		countLess[c] += countLess[c-1]
	}

	return PublicTable{
		N:          n,
		Levels:     levels,
		Alphabet:   alphabet,
		CharIndex:  charIndex,
		BitOf:      bitOf,
		ZeroCount:  zeroCount,
		TotalZeros: totalZeros,
		CountLess:  countLess,
	}
}

func bitsNeeded(alphabetSize int) int {
	if alphabetSize <= 1 {
		return 1
	}
	return bits.Len(uint(alphabetSize - 1))
}

// stablePartition reorders cur so every element whose plane bit is false
// precedes every element whose plane bit is true, each in original order
// (the wavelet matrix's per-level stable partition).
func stablePartition(cur []int, plane []bool) []int {
	out := make([]int, len(cur))
	idx := 0
	for j, code := range cur {
		if !plane[j] {
			out[idx] = code
			idx++
		}
	}
	for j, code := range cur {
		if plane[j] {
			out[idx] = code
			idx++
		}
	}
	return out
}

// RankPlain is the plaintext reference computation of the wavelet-matrix
// descent for character code c from BWT position i: the position reached on
// the last level, which is the start of c's block there plus the count of c
// in the BWT text's first i positions. RankPlain(c, i) - RankPlain(c, 0) is
// therefore that count. Used as a test oracle for internal/fsswm's
// oblivious RankCF.
func (t PublicTable) RankPlain(code, i int) int {
	pos := i
	for l := 0; l < t.Levels; l++ {
		shift := t.Levels - 1 - l
		bit := (code>>shift)&1 == 1
		if !bit {
			pos = t.ZeroCount[l][pos]
		} else {
			pos = t.TotalZeros[l] + pos - t.ZeroCount[l][pos]
		}
	}
	return pos
}
