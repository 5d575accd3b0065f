package fssfmi

import (
	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/fsswm"
	"github.com/luxfi/securesearch/internal/oblivselect"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/internal/zerotest"
	"github.com/luxfi/securesearch/pkg/party"
)

// Result is the replicated-shared outcome of a longest-prefix-match walk:
// the final [Start, End) range and the count of pattern characters
// matched before halting.
type Result struct {
	Start, End, Matched rss.Share
}

// LongestPrefixMatch runs spec.md §4.8's walk over a replicated-shared
// pattern, one step (one character) at a time, calling fsswm.RankCF twice
// per step (once for the range's start endpoint, once for its end) plus
// one CountLess lookup and one halt check. charCodes[i] is a replicated
// arithmetic share of the i-th pattern character's code, processed front
// to back (i = 0, 1, 2, ...), matching the ground truth's
// FMIndex::Count/LongestPrefixMatchLength traversal order — correct here
// because table was built over the reversed text (internal/fmindex.Build),
// not because this is a conventional forward search; charBits[i] is its
// per-level bit decomposition, length table.Levels. Both must have the
// same length, no more than len(k.Steps).
// The returned nextRound is the first round number not consumed by this
// call, so a caller chaining further protocol messages (e.g. pkg/query
// opening the Matched share) on the same ring can continue without
// colliding with a round this call already used.
func LongestPrefixMatch(ring rss.Ring, rnd *corr.Engine, round int, table fmindex.PublicTable, k Key, charCodes []rss.Share, charBits [][]rss.Share) (result Result, nextRound int, err error) {
	n := len(charCodes)
	start := rss.PublicShare(k.PartyID, 0, k.RingBits)
	end := rss.PublicShare(k.PartyID, uint64(table.N), k.RingBits)
	halted := rss.PublicShare(k.PartyID, 0, k.RingBits)
	matched := rss.PublicShare(k.PartyID, 0, k.RingBits)

	for i := 0; i < n; i++ {
		stepKey := k.Steps[i]
		start, end, halted, matched, round, err = step(ring, rnd, round, table, k.PartyID, stepKey,
			charCodes[i], charBits[i], start, end, halted, matched, k.RingBits)
		if err != nil {
			return Result{}, round, err
		}
	}
	return Result{Start: start, End: end, Matched: matched}, round, nil
}

// step runs one pattern character through the CountLess lookup, the two
// RankCF calls, the halt check, and the three freezing selects, returning
// the updated (start, end, halt, matched) state and the next free round
// number.
func step(ring rss.Ring, rnd *corr.Engine, round int, table fmindex.PublicTable, self party.ID, k StepKey,
	charCode rss.Share, charBits []rss.Share, start, end, haltedOld, matched rss.Share, ringBits uint8,
) (newStart, newEnd, haltAfter, newMatched rss.Share, nextRound int, err error) {
	m, err := oblivselect.RevealMaskedIndex(ring, round, charCode, k.CountLess)
	if err != nil {
		return
	}
	round++

	countLessVal, err := oblivselect.Evaluate(k.CountLess, m, paddedCountLess(table, k.CountLess.Domain))
	if err != nil {
		return
	}

	rankStart, err := fsswm.RankCF(ring, rnd, round, table, k.Ranks, start, charBits)
	if err != nil {
		return
	}
	round += 2 * table.Levels

	rankEnd, err := fsswm.RankCF(ring, rnd, round, table, k.Ranks, end, charBits)
	if err != nil {
		return
	}
	round += 2 * table.Levels

	computedStart := countLessVal.Add(rankStart)
	computedEnd := countLessVal.Add(rankEnd)

	diff := computedEnd.Sub(computedStart)
	isEmpty, err := zerotest.EvaluateArith(ring, round, diff, k.Halt, ringBits)
	if err != nil {
		return
	}
	round++

	one := rss.PublicShare(self, 1, ringBits)
	haltAfter, err = rss.ArithSelect(ring, rnd, round, isEmpty, one, haltedOld, ringBits)
	if err != nil {
		return
	}
	round++

	newStart, err = rss.ArithSelect(ring, rnd, round, computedStart, start, haltAfter, ringBits)
	if err != nil {
		return
	}
	round++

	newEnd, err = rss.ArithSelect(ring, rnd, round, computedEnd, end, haltAfter, ringBits)
	if err != nil {
		return
	}
	round++

	matchedPlusOne := matched.AddPublicConstant(self, rss.NewScalar(1, ringBits))
	newMatched, err = rss.ArithSelect(ring, rnd, round, matchedPlusOne, matched, haltAfter, ringBits)
	if err != nil {
		return
	}
	round++

	nextRound = round
	return
}

// paddedCountLess builds the public per-character offset table, widened to
// exactly 2^domainBits entries since oblivselect.Evaluate requires an exact
// power-of-two database length. Entry c is CountLess[c] minus
// RankPlain(c, 0) (mod 2^64), so that entry c plus fsswm.RankCF(pos) equals
// CountLess[c] plus the count of c in the BWT text's first pos positions.
func paddedCountLess(table fmindex.PublicTable, domainBits uint8) []uint64 {
	n := uint64(1) << domainBits
	out := make([]uint64, n)
	var last uint64
	for i := range out {
		if uint64(i) < uint64(len(table.CountLess)) {
			last = uint64(table.CountLess[i] - table.RankPlain(i, 0))
		}
		out[i] = last
	}
	return out
}
