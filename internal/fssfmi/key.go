// Package fssfmi implements the top-layer longest-prefix-match evaluator of
// spec.md §4.8: given a replicated-shared pattern (one character code plus
// its per-level bit decomposition per step, supplied by the querying
// client, which knows the pattern in plaintext before sharing it), narrow
// an FM-index range one character at a time via internal/fsswm.RankCF,
// halting the instant the range would empty.
//
// Rather than two independently-updated walkers, the live state is one
// replicated [start, end) range plus one replicated halt flag: the moment
// a step's narrowed range would be empty, the halt flag latches to 1 (an
// absorbing value) and every later step is a no-op (Open Question 7, see
// DESIGN.md/SPEC_FULL.md).
package fssfmi

import (
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/fsswm"
	"github.com/luxfi/securesearch/internal/oblivselect"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/internal/zerotest"
	"github.com/luxfi/securesearch/pkg/party"
)

// StepKey is one party's key bundle for a single pattern position: one
// OblivSelect key for the public CountLess (F-array) lookup, one fsswm.Key
// for the per-level rank lookups (reused for both the start and end
// endpoints), and one arithmetic ZeroTest key for the halt check.
type StepKey struct {
	CountLess oblivselect.Key
	Ranks     fsswm.Key
	Halt      zerotest.ArithKey
}

// Key is one party's full set of per-step keys, sized to the maximum
// pattern length the dealer provisioned for.
type Key struct {
	PartyID  party.ID
	Steps    []StepKey
	RingBits uint8
}

// StepSeed bundles one step's dealer-chosen randomness: the CountLess
// lookup's mask and replicated shares, and the per-level rank masks and
// shares fsswm.KeyGen needs, and the halt ZeroTest's mask and shares.
type StepSeed struct {
	CountLessMask   uint64
	CountLessShares [3]rss.Share
	RankMasks       []uint64 // length table.Levels
	RankShares      [][3]rss.Share
	HaltMask        uint64
	HaltShares      [3]rss.Share
}

// KeyGen is the dealer's offline routine: one StepKey per element of
// seeds, each built from that step's independent randomness (spec.md §8
// "Idempotence of offline setup" — reproducible given the same seeds).
func KeyGen(table fmindex.PublicTable, sigmaBits, domainBits, ringBits uint8, seeds []StepSeed) ([3]Key, error) {
	var keys [3]Key
	for p := range keys {
		keys[p] = Key{PartyID: party.ID(p), Steps: make([]StepKey, len(seeds)), RingBits: ringBits}
	}

	for i, seed := range seeds {
		countLess, err := oblivselect.KeyGen(seed.CountLessMask, sigmaBits, ringBits, seed.CountLessShares)
		if err != nil {
			return [3]Key{}, err
		}
		ranks, err := fsswm.KeyGen(table, seed.RankMasks, domainBits, ringBits, seed.RankShares)
		if err != nil {
			return [3]Key{}, err
		}
		halt, err := zerotest.ArithKeyGen(seed.HaltMask, ringBits, ringBits, seed.HaltShares)
		if err != nil {
			return [3]Key{}, err
		}
		for p := range keys {
			keys[p].Steps[i] = StepKey{CountLess: countLess[p], Ranks: ranks[p], Halt: halt[p]}
		}
	}
	return keys, nil
}
