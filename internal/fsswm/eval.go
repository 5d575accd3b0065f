package fsswm

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/oblivselect"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// RankCF computes a replicated share of the position that query character
// c's wavelet-matrix descent reaches from pos: the start of c's block on
// the last level plus the count of c in the BWT text's first pos positions
// (the same value as fmindex.PublicTable.RankPlain(c, pos)). pos is a
// replicated-shared position and charBits[l] is a replicated arithmetic
// share of bit l (MSB first) of c's code (spec.md §4.7).
//
// round is the first of 2*Levels rounds this call consumes (one
// RevealMaskedIndex open plus one Mult per level, via rss.ArithSelect).
func RankCF(ring rss.Ring, rnd *corr.Engine, round int, table fmindex.PublicTable, k Key, pos rss.Share, charBits []rss.Share) (rss.Share, error) {
	if len(charBits) != table.Levels {
		return rss.Share{}, fmt.Errorf("%w: fsswm RankCF expects %d character bits, got %d",
			fmerr.ErrParameterInvalid, table.Levels, len(charBits))
	}

	cur := pos
	for l := 0; l < table.Levels; l++ {
		lvl := k.Levels[l]
		m, err := oblivselect.RevealMaskedIndex(ring, round, cur, lvl.ZeroCount)
		if err != nil {
			return rss.Share{}, err
		}
		round++

		db := paddedZeroCount(table.ZeroCount[l], lvl.ZeroCount.Domain)
		zeroBranch, err := oblivselect.Evaluate(lvl.ZeroCount, m, db)
		if err != nil {
			return rss.Share{}, err
		}
		totalZeros := rss.NewScalar(uint64(table.TotalZeros[l]), k.RingBits)
		oneBranch := cur.Sub(zeroBranch).AddPublicConstant(k.PartyID, totalZeros)

		cur, err = rss.ArithSelect(ring, rnd, round, zeroBranch, oneBranch, charBits[l], k.RingBits)
		if err != nil {
			return rss.Share{}, err
		}
		round++
	}
	return cur, nil
}

// paddedZeroCount widens zc (length N+1) to exactly 2^domainBits entries,
// repeating its last value into the tail — oblivselect.Evaluate requires
// an exact power-of-two database length, and positions past N are never
// addressed by any valid masked index.
func paddedZeroCount(zc []int, domainBits uint8) []uint64 {
	n := uint64(1) << domainBits
	out := make([]uint64, n)
	var last uint64
	for i := range out {
		if uint64(i) < uint64(len(zc)) {
			last = uint64(zc[i])
		}
		out[i] = last
	}
	return out
}
