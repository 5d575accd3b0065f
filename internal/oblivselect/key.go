// Package oblivselect implements one-round oblivious access into a public
// database at a secret, replicated-shared index (spec.md §4.5: OblivSelect /
// RingOa / SharedOt). The index's secrecy comes from masking it against a
// dealer-chosen random point r and revealing only the difference; reading
// out D[r] from the (now public) rotated database is done with a
// replicated additive-sharing of the indicator e_r = onehot(r) scaled by 1,
// built from a single two-party ShiftedAdditive DPF pair rather than three
// independent ones: two of the three replicated components are the DPF
// pair's two evaluations, and the third is the public zero vector (Open
// Question 5, see DESIGN.md). Using the DPF's additive reconstruction
// (rather than its XOR one) is what lets each party's local dot product
// against the public, rotated database sum up correctly with no further
// interaction — the arithmetic identity sum_j(e0[j]+e1[j])*Dr[j] = Dr[r]
// holds exactly, whereas the same sum taken over XOR-shared bits would not
// (spec.md §4.5, §9 "works because the FM-index semantics use the same
// ring"). This keeps the online phase to a single RSS Open.
package oblivselect

import (
	"github.com/luxfi/securesearch/internal/dpf"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/party"
)

// Key is one party's share of an OblivSelect instance bound to a single
// target r. Own evaluates to this party's "own" replicated component of
// e_r; Prev evaluates to the component belonging to its ring predecessor.
// Either may be nil, meaning that component is the public zero vector and
// needs no evaluation.
type Key struct {
	PartyID party.ID
	Own     *dpf.Key
	Prev    *dpf.Key
	R       rss.Share // replicated share of the mask r, same domain as the query position
	Domain  uint8     // ceil(log2(N)), the dpf.Params.N used for Own/Prev
	RingBits uint8    // output ring width, matching the database's value ring
}

// KeyGen is the dealer's offline routine: generate e_r's single underlying
// ShiftedAdditive DPF pair and wire it so party0 holds both evaluations,
// party1 holds only the key-0 half (as its Prev component), and party2
// holds only the key-1 half (as its Own component) — see the package doc
// comment for why this asymmetric assignment is exactly as secure as three
// independent DPF pairs would be.
func KeyGen(r uint64, domainBits, ringBits uint8, rShares [3]rss.Share) ([3]Key, error) {
	p := dpf.Params{N: domainBits, E: ringBits, OutputMode: dpf.ShiftedAdditive, EvalType: dpf.IterSingleBatch}
	k0, k1, err := dpf.KeyGen(r, 1, p)
	if err != nil {
		return [3]Key{}, err
	}

	var keys [3]Key
	keys[party.P0] = Key{PartyID: party.P0, Own: &k0, Prev: &k1, R: rShares[party.P0], Domain: domainBits, RingBits: ringBits}
	keys[party.P1] = Key{PartyID: party.P1, Own: nil, Prev: &k0, R: rShares[party.P1], Domain: domainBits, RingBits: ringBits}
	keys[party.P2] = Key{PartyID: party.P2, Own: &k1, Prev: nil, R: rShares[party.P2], Domain: domainBits, RingBits: ringBits}
	return keys, nil
}
