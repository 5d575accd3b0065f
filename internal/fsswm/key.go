// Package fsswm implements the wavelet-matrix rank-CF evaluator of
// spec.md §4.7: given a replicated-shared position and a replicated-shared
// query-character code, compute a replicated share of the position the
// character's descent through a public wavelet matrix
// (internal/fmindex.PublicTable) reaches from that position, without
// revealing either the position or the character to any party.
//
// Each level of the wavelet matrix contributes one internal/oblivselect
// lookup into that level's public zero-count array, followed by one
// rss.ArithSelect multiplexing on the query character's secret bit at that
// level (spec.md §4.7's "at each level, branch on the query character's
// bit"; see DESIGN.md's internal/fsswm entry).
package fsswm

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/oblivselect"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/fmerr"
	"github.com/luxfi/securesearch/pkg/party"
)

// LevelKey is one party's OblivSelect key bundle for a single wavelet
// level's zero-count array, sized to the table's position domain.
type LevelKey struct {
	ZeroCount oblivselect.Key
}

// Key is one party's full set of per-level keys for one RankCF query
// position (there are Levels of them, one per wavelet-matrix level). A
// fresh Key is needed per distinct masked position the dealer commits to;
// spec.md §4.7 queries reuse the same Key across both the start and end
// endpoints of a range, since both are looked up against the same
// per-level zero-count array.
type Key struct {
	PartyID party.ID
	Levels  []LevelKey
	Domain  uint8 // ceil(log2(N+1)), the zero-count array's index width
	RingBits uint8
}

// KeyGen is the dealer's offline routine: one OblivSelect key per wavelet
// level, all centered on independent random masks (spec.md §4.7, §8
// "Idempotence of offline setup" — deterministic given the caller's mask
// choices).
func KeyGen(table fmindex.PublicTable, masks []uint64, domainBits, ringBits uint8, rShares [][3]rss.Share) ([3]Key, error) {
	if len(masks) != table.Levels || len(rShares) != table.Levels {
		return [3]Key{}, fmt.Errorf("%w: fsswm keygen expects %d level masks/shares, got %d/%d",
			fmerr.ErrParameterInvalid, table.Levels, len(masks), len(rShares))
	}
	var keys [3]Key
	for p := range keys {
		keys[p] = Key{PartyID: party.ID(p), Levels: make([]LevelKey, table.Levels), Domain: domainBits, RingBits: ringBits}
	}
	for l := 0; l < table.Levels; l++ {
		perParty, err := oblivselect.KeyGen(masks[l], domainBits, ringBits, rShares[l])
		if err != nil {
			return [3]Key{}, err
		}
		for p := range keys {
			keys[p].Levels[l] = LevelKey{ZeroCount: perParty[p]}
		}
	}
	return keys, nil
}
