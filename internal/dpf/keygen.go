package dpf

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/block"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// KeyGen produces a pair of DPF keys for the point function f(alpha) = beta,
// f(x) = 0 for x != alpha, over the domain [0, 2^N) (spec.md §4.2).
//
// The two keys share an identical GGM tree walked down the bits of alpha:
// at each level both parties' seeds are expanded with Prg.DoubleExpand, the
// "lose" branch's seed difference becomes that level's correction word, and
// the "keep" branch's control bit is corrected so exactly one party's state
// differs from a plain random walk at every subsequent level. At the leaf,
// a mode-specific correction (OutputBlock or OutputScalar) is solved for so
// that combining both parties' leaf values recovers beta only at alpha.
func KeyGen(alpha, beta uint64, p Params) (Key, Key, error) {
	origSeed0, err := randomSeed()
	if err != nil {
		return Key{}, Key{}, err
	}
	origSeed1, err := randomSeed()
	if err != nil {
		return Key{}, Key{}, err
	}
	return KeyGenWithSeeds(alpha, beta, p, origSeed0, origSeed1)
}

// KeyGenWithSeeds is KeyGen with the two initial seeds supplied by the
// caller instead of drawn from KeyGen's entropy source. KeyGen draws its
// two seeds and then calls this. internal/dealer calls KeyGen inside
// WithEntropySource with a stream derived from its master secret, which is
// what makes OfflineSetup reproducible (spec.md §8: "running OfflineSetup
// twice with the same seed produces bit-identical key files").
func KeyGenWithSeeds(alpha, beta uint64, p Params, origSeed0, origSeed1 block.Block) (Key, Key, error) {
	if err := p.Validate(); err != nil {
		return Key{}, Key{}, err
	}
	if p.N < 64 && alpha >= uint64(1)<<p.N {
		return Key{}, Key{}, fmt.Errorf("%w: dpf alpha %d out of domain [0,2^%d)", fmerr.ErrParameterInvalid, alpha, p.N)
	}

	seeds := [2]block.Block{origSeed0, origSeed1}
	ctrl := [2]byte{0, 1}

	levels := p.Levels()
	cws := make([]CW, levels)
	prg := block.Shared()

	for lvl := 0; lvl < levels; lvl++ {
		bit := alphaBit(alpha, p.N, lvl)

		sL0, sR0, tL0, tR0 := prg.DoubleExpand(seeds[0])
		sL1, sR1, tL1, tR1 := prg.DoubleExpand(seeds[1])

		var sCW block.Block
		if bit == 0 {
			sCW = sR0.XOR(sR1)
		} else {
			sCW = sL0.XOR(sL1)
		}
		tCWL := tL0 ^ tL1 ^ bit ^ 1
		tCWR := tR0 ^ tR1 ^ bit
		cws[lvl] = CW{Seed: sCW, CtrlL: tCWL, CtrlR: tCWR}

		for b := 0; b < 2; b++ {
			var sKeep block.Block
			var tKeep, tCWKeep byte
			if bit == 0 {
				if b == 0 {
					sKeep, tKeep = sL0, tL0
				} else {
					sKeep, tKeep = sL1, tL1
				}
				tCWKeep = tCWL
			} else {
				if b == 0 {
					sKeep, tKeep = sR0, tR0
				} else {
					sKeep, tKeep = sR1, tR1
				}
				tCWKeep = tCWR
			}
			if ctrl[b] == 1 {
				sKeep = sKeep.XOR(sCW)
				tKeep ^= tCWKeep
			}
			seeds[b] = sKeep
			ctrl[b] = tKeep
		}
	}

	var outBlock block.Block
	var outScalar uint64
	switch p.OutputMode {
	case SingleBitMask:
		conv0 := prg.ExpandLeaf(seeds[0])
		conv1 := prg.ExpandLeaf(seeds[1])
		target := block.Zero
		if beta%2 == 1 {
			target = block.OneHot(int(alpha & ((uint64(1) << p.Nu()) - 1)))
		}
		outBlock = target.XOR(conv0).XOR(conv1)
	case ShiftedAdditive:
		v0 := leafScalar(prg, seeds[0], p.E)
		v1 := leafScalar(prg, seeds[1], p.E)
		outScalar = maskE(beta-v0-v1, p.E)
	}

	key0 := Key{PartyID: 0, InitSeed: origSeed0, CW: cws, OutputBlock: outBlock, OutputScalar: outScalar, Params: p}
	key1 := Key{PartyID: 1, InitSeed: origSeed1, CW: cws, OutputBlock: outBlock, OutputScalar: outScalar, Params: p}
	return key0, key1, nil
}

// alphaBit returns bit `lvl` of alpha counting from the most significant of
// the top `levels` bits, i.e. the bit the tree branches on at depth lvl.
func alphaBit(alpha uint64, n uint8, lvl int) byte {
	shift := int(n) - 1 - lvl
	return byte((alpha >> uint(shift)) & 1)
}

// leafScalar expands seed into a pseudorandom E-bit value via the PRG's
// leaf lane.
func leafScalar(prg *block.Prg, seed block.Block, e uint8) uint64 {
	conv := prg.ExpandLeaf(seed)
	return maskE(conv.Half(0), e)
}
