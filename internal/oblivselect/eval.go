package oblivselect

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/dpf"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// RevealMaskedIndex runs the protocol's one online round: opening
// m = (pos - r) mod N, where pos is the replicated-shared query position
// and r is the mask this Key's DPF pair is centered on (spec.md §4.5,
// "one-round"). The returned value is public and safe to reveal, since r is
// uniformly random and known only to the offline dealer.
func RevealMaskedIndex(ring rss.Ring, round int, pos rss.Share, k Key) (uint64, error) {
	diff := pos.Sub(k.R)
	v, err := rss.OpenArith(ring, round, diff, k.Domain)
	if err != nil {
		return 0, err
	}
	n := uint64(1) << k.Domain
	return v.Uint64() % n, nil
}

// Evaluate computes this party's replicated share of db[pos], given the
// masked index m already revealed by RevealMaskedIndex and the public
// database db (length must be 2^Domain). No further communication is
// needed: the rotated database db[(j+m) mod N] combined with this party's
// two e_r additive components is the full local computation.
func Evaluate(k Key, m uint64, db []uint64) (rss.Share, error) {
	n := uint64(1) << k.Domain
	if uint64(len(db)) != n {
		return rss.Share{}, fmt.Errorf("%w: oblivselect database length %d != 2^%d", fmerr.ErrParameterInvalid, len(db), k.Domain)
	}

	own, err := dotWithRotatedDB(k.Own, m, db, n, k.RingBits)
	if err != nil {
		return rss.Share{}, err
	}
	prev, err := dotWithRotatedDB(k.Prev, m, db, n, k.RingBits)
	if err != nil {
		return rss.Share{}, err
	}
	return rss.Share{Data: [2]rss.Scalar{rss.NewScalar(own, k.RingBits), rss.NewScalar(prev, k.RingBits)}}, nil
}

// dotWithRotatedDB returns sum_j scalars[j] * db[(j+m) mod n] mod 2^ringBits,
// where scalars is key's full-domain additive expansion, or 0 with no
// evaluation at all when key is nil (the public-zero-vector slot).
func dotWithRotatedDB(key *dpf.Key, m uint64, db []uint64, n uint64, ringBits uint8) (uint64, error) {
	if key == nil {
		return 0, nil
	}
	scalars, err := key.FullDomainScalars()
	if err != nil {
		return 0, err
	}
	var sum uint64
	for j := uint64(0); j < n; j++ {
		sum += scalars[j] * db[(j+m)%n]
	}
	return maskRing(sum, ringBits), nil
}

func maskRing(v uint64, bits uint8) uint64 {
	if bits >= 64 {
		return v
	}
	return v & (uint64(1)<<bits - 1)
}
