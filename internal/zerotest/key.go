// Package zerotest implements the DPF-based 1{x=0} gadget of spec.md §4.6,
// in both the binary (XOR) and arithmetic (mod-2^d additive) replicated
// flavors. internal/fssfmi's per-step termination check uses the
// arithmetic one, since its position/character shares never leave the
// arithmetic ring (Open Question 4, see DESIGN.md); no other package in
// this module calls the binary one.
//
// Both flavors mask the tested value x against a dealer-chosen random r,
// open the difference, and evaluate a single DPF point rather than a full
// domain: the only interaction is the one Open call already required to
// mask x, so the whole gadget is one round regardless of domain size.
package zerotest

import (
	"github.com/luxfi/securesearch/internal/dpf"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/party"
)

// BinaryKey is one party's share of a binary-flavor ZeroTest instance bound
// to mask r. Own/Prev follow internal/oblivselect's asymmetric two-key
// split (party0 holds both, party1/party2 each hold one, the third
// replicated component is the public zero vector).
type BinaryKey struct {
	PartyID   party.ID
	Own, Prev *dpf.Key
	R         rss.BinShare
}

// ArithKey is the arithmetic-flavor analogue of BinaryKey.
type ArithKey struct {
	PartyID   party.ID
	Own, Prev *dpf.Key
	R         rss.Share
	RingBits  uint8
}

// BinaryKeyGen is the dealer's offline routine for the binary flavor: a
// single SingleBitMask DPF pair at point r, beta=1.
func BinaryKeyGen(r uint64, bits uint8, rShares [3]rss.BinShare) ([3]BinaryKey, error) {
	p := dpf.Params{N: bits, OutputMode: dpf.SingleBitMask, EvalType: dpf.Naive}
	k0, k1, err := dpf.KeyGen(r, 1, p)
	if err != nil {
		return [3]BinaryKey{}, err
	}
	var keys [3]BinaryKey
	keys[party.P0] = BinaryKey{PartyID: party.P0, Own: &k0, Prev: &k1, R: rShares[party.P0]}
	keys[party.P1] = BinaryKey{PartyID: party.P1, Own: nil, Prev: &k0, R: rShares[party.P1]}
	keys[party.P2] = BinaryKey{PartyID: party.P2, Own: &k1, Prev: nil, R: rShares[party.P2]}
	return keys, nil
}

// ArithKeyGen is the dealer's offline routine for the arithmetic flavor: a
// single ShiftedAdditive DPF pair at point r, beta=1.
func ArithKeyGen(r uint64, bits, ringBits uint8, rShares [3]rss.Share) ([3]ArithKey, error) {
	p := dpf.Params{N: bits, E: ringBits, OutputMode: dpf.ShiftedAdditive, EvalType: dpf.Naive}
	k0, k1, err := dpf.KeyGen(r, 1, p)
	if err != nil {
		return [3]ArithKey{}, err
	}
	var keys [3]ArithKey
	keys[party.P0] = ArithKey{PartyID: party.P0, Own: &k0, Prev: &k1, R: rShares[party.P0], RingBits: ringBits}
	keys[party.P1] = ArithKey{PartyID: party.P1, Own: nil, Prev: &k0, R: rShares[party.P1], RingBits: ringBits}
	keys[party.P2] = ArithKey{PartyID: party.P2, Own: &k1, Prev: nil, R: rShares[party.P2], RingBits: ringBits}
	return keys, nil
}
