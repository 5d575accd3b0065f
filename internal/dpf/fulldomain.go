package dpf

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/block"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// FullDomainBits expands a SingleBitMask key over its entire domain in one
// pass, using the batched double-expand so every level is AES-parallelized
// (spec.md §9, "Batching"). The result has 2^Levels() entries, each a
// Block packing 2^Nu() one-bit outputs; XORing the two parties' i-th
// Blocks yields a one-hot bit at the position alpha mod 2^Nu(), in the
// leaf that covers alpha's top bits.
func (k Key) FullDomainBits() ([]block.Block, error) {
	if k.Params.OutputMode != SingleBitMask {
		return nil, fmt.Errorf("%w: FullDomainBits called on a %v key", fmerr.ErrCapabilityMismatch, k.Params.OutputMode)
	}
	seeds, ctrls, err := k.expandTree()
	if err != nil {
		return nil, err
	}
	prg := block.Shared()
	out := make([]block.Block, len(seeds))
	for i, s := range seeds {
		conv := prg.ExpandLeaf(s)
		if ctrls[i] == 1 {
			conv = conv.XOR(k.OutputBlock)
		}
		out[i] = conv
	}
	return out, nil
}

// FullDomainScalars expands a ShiftedAdditive key over its entire domain.
// Since ShiftedAdditive keys run the tree to full depth (Nu()==0), this
// produces one scalar per domain point directly, with no further window
// extraction needed.
func (k Key) FullDomainScalars() ([]uint64, error) {
	if k.Params.OutputMode != ShiftedAdditive {
		return nil, fmt.Errorf("%w: FullDomainScalars called on a %v key", fmerr.ErrCapabilityMismatch, k.Params.OutputMode)
	}
	seeds, ctrls, err := k.expandTree()
	if err != nil {
		return nil, err
	}
	prg := block.Shared()
	out := make([]uint64, len(seeds))
	for i, s := range seeds {
		v := leafScalar(prg, s, k.Params.E)
		if ctrls[i] == 1 {
			v = maskE(v+k.OutputScalar, k.Params.E)
		}
		out[i] = v
	}
	return out, nil
}

// expandTree walks every level of the GGM tree breadth-first, doubling the
// seed/control-bit buffers at each level via BatchDoubleExpand, and returns
// the 2^Levels() leaf seeds and control bits in domain order.
func (k Key) expandTree() ([]block.Block, []byte, error) {
	levels := k.Params.Levels()
	if levels > 24 {
		return nil, nil, fmt.Errorf("%w: FullDomain over 2^%d leaves exceeds the in-memory expansion limit", fmerr.ErrParameterInvalid, levels)
	}
	prg := block.Shared()
	seeds := []block.Block{k.InitSeed}
	ctrls := []byte{k.PartyID}

	for lvl := 0; lvl < levels; lvl++ {
		n := len(seeds)
		left := make([]block.Block, n)
		right := make([]block.Block, n)
		cl := make([]byte, n)
		cr := make([]byte, n)
		if err := prg.BatchDoubleExpand(seeds, left, right, cl, cr); err != nil {
			return nil, nil, fmt.Errorf("dpf: expanding level %d: %w", lvl, err)
		}

		cw := k.CW[lvl]
		nextSeeds := make([]block.Block, 0, n*2)
		nextCtrls := make([]byte, 0, n*2)
		for i := 0; i < n; i++ {
			sL, sR, tL, tR := left[i], right[i], cl[i], cr[i]
			if ctrls[i] == 1 {
				sL = sL.XOR(cw.Seed)
				tL ^= cw.CtrlL
				sR = sR.XOR(cw.Seed)
				tR ^= cw.CtrlR
			}
			nextSeeds = append(nextSeeds, sL, sR)
			nextCtrls = append(nextCtrls, tL, tR)
		}
		seeds, ctrls = nextSeeds, nextCtrls
	}
	return seeds, ctrls, nil
}
