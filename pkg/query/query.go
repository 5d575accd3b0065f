// Package query implements the per-party protocol entry points spec.md
// §6.4 requires: functions that "take parameters, loaded keys, loaded
// replicated shares, and a triple of channels, and return replicated
// shares of outputs". It adds nothing to the underlying protocol logic in
// internal/fssfmi/internal/fsswm — the querying client has already
// replicated-shared its pattern before either entry point is called
// (spec.md §4.8: the pattern characters are client-known plaintext turned
// into RSS shares, not secret to the client itself) — it only wraps them
// with the error-classification and Open convenience a CLI or service
// layer needs.
package query

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/fssfmi"
	"github.com/luxfi/securesearch/internal/fsswm"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// EvaluateLPM runs one party's side of spec.md §4.8's longest-prefix-match
// walk and opens the resulting Matched count, leaving Start/End as
// replicated shares (a caller that needs the matched range itself, rather
// than just its length, opens Start/End the same way with OpenMatchRange).
func EvaluateLPM(ring rss.Ring, rnd *corr.Engine, round int, table fmindex.PublicTable, key fssfmi.Key, charCodes []rss.Share, charBits [][]rss.Share) (matched uint64, result fssfmi.Result, err error) {
	if len(charCodes) > len(key.Steps) {
		return 0, fssfmi.Result{}, fmt.Errorf("%w: query: pattern length %d exceeds provisioned steps %d",
			fmerr.ErrParameterInvalid, len(charCodes), len(key.Steps))
	}
	result, nextRound, err := fssfmi.LongestPrefixMatch(ring, rnd, round, table, key, charCodes, charBits)
	if err != nil {
		return 0, fssfmi.Result{}, err
	}
	v, err := rss.OpenArith(ring, nextRound, result.Matched, key.RingBits)
	if err != nil {
		return 0, fssfmi.Result{}, err
	}
	return v.Uint64(), result, nil
}

// OpenMatchRange opens a LongestPrefixMatch Result's [Start, End) range,
// for a caller that wants the matched suffix-array interval rather than
// just its length.
func OpenMatchRange(ring rss.Ring, round int, result fssfmi.Result, ringBits uint8) (start, end uint64, err error) {
	s, err := rss.OpenArith(ring, round, result.Start, ringBits)
	if err != nil {
		return 0, 0, err
	}
	e, err := rss.OpenArith(ring, round+1, result.End, ringBits)
	if err != nil {
		return 0, 0, err
	}
	return s.Uint64(), e.Uint64(), nil
}

// EvaluateRankCF runs one party's side of fsswm.RankCF (the wavelet-matrix
// descent position for c from pos) directly and opens the result, for
// callers that only need a
// single rank lookup rather than a full longest-prefix-match walk (spec.md
// §8 scenario 4 exercises this entry point in isolation).
func EvaluateRankCF(ring rss.Ring, rnd *corr.Engine, round int, table fmindex.PublicTable, key fsswm.Key, pos rss.Share, charBits []rss.Share) (uint64, error) {
	share, err := fsswm.RankCF(ring, rnd, round, table, key, pos, charBits)
	if err != nil {
		return 0, err
	}
	v, err := rss.OpenArith(ring, round+2*table.Levels, share, key.RingBits)
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}
