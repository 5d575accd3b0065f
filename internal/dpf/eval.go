package dpf

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/block"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// walkTo descends the GGM tree from k.InitSeed to the leaf reached by x,
// returning the final seed and control bit (spec.md §4.2, EvaluateAt).
func (k Key) walkTo(x uint64) (block.Block, byte, error) {
	if k.Params.N < 64 && x >= uint64(1)<<k.Params.N {
		return block.Zero, 0, fmt.Errorf("%w: dpf eval x %d out of domain [0,2^%d)", fmerr.ErrParameterInvalid, x, k.Params.N)
	}
	prg := block.Shared()
	seed := k.InitSeed
	ctrl := k.PartyID
	levels := k.Params.Levels()
	for lvl := 0; lvl < levels; lvl++ {
		bit := alphaBit(x, k.Params.N, lvl)
		sL, sR, tL, tR := prg.DoubleExpand(seed)
		var sKeep block.Block
		var tKeep, tCWKeep byte
		cw := k.CW[lvl]
		if bit == 0 {
			sKeep, tKeep, tCWKeep = sL, tL, cw.CtrlL
		} else {
			sKeep, tKeep, tCWKeep = sR, tR, cw.CtrlR
		}
		if ctrl == 1 {
			sKeep = sKeep.XOR(cw.Seed)
			tKeep ^= tCWKeep
		}
		seed = sKeep
		ctrl = tKeep
	}
	return seed, ctrl, nil
}

// EvaluateBit evaluates a SingleBitMask key at x, returning one party's
// share of f(x) as a single bit; XORing both parties' results yields 1 iff
// x == alpha.
func (k Key) EvaluateBit(x uint64) (byte, error) {
	if k.Params.OutputMode != SingleBitMask {
		return 0, fmt.Errorf("%w: EvaluateBit called on a %v key", fmerr.ErrCapabilityMismatch, k.Params.OutputMode)
	}
	seed, ctrl, err := k.walkTo(x)
	if err != nil {
		return 0, err
	}
	conv := block.Shared().ExpandLeaf(seed)
	if ctrl == 1 {
		conv = conv.XOR(k.OutputBlock)
	}
	pos := int(x & ((uint64(1) << k.Params.Nu()) - 1))
	return byte(conv.GetBit(pos)), nil
}

// EvaluateScalar evaluates a ShiftedAdditive key at x, returning one
// party's share of f(x) mod 2^E; summing both parties' results mod 2^E
// yields beta iff x == alpha, 0 otherwise.
func (k Key) EvaluateScalar(x uint64) (uint64, error) {
	if k.Params.OutputMode != ShiftedAdditive {
		return 0, fmt.Errorf("%w: EvaluateScalar called on a %v key", fmerr.ErrCapabilityMismatch, k.Params.OutputMode)
	}
	seed, ctrl, err := k.walkTo(x)
	if err != nil {
		return 0, err
	}
	v := leafScalar(block.Shared(), seed, k.Params.E)
	if ctrl == 1 {
		v = maskE(v+k.OutputScalar, k.Params.E)
	}
	return v, nil
}
