// Package dpf implements the two-party distributed point function of
// spec.md §4.2: AES-based, full-domain evaluable, with an early-termination
// bucket for the common boolean (SingleBitMask) output mode.
package dpf

import (
	"fmt"

	"github.com/luxfi/securesearch/pkg/fmerr"
)

// OutputMode selects how a DPF key's leaf is interpreted.
type OutputMode int

const (
	// ShiftedAdditive: the reconstructed value at x is (eval0(x)+eval1(x))
	// mod 2^E, equal to beta when x == alpha and 0 otherwise. Used for
	// standalone point-function evaluation (spec.md §8 scenario 2), for
	// internal/oblivselect's dot product and for the arithmetic
	// internal/zerotest.
	ShiftedAdditive OutputMode = iota

	// SingleBitMask: the reconstructed value at x is eval0(x) XOR eval1(x),
	// a single bit, 1 iff x == alpha. This mode runs the early-termination
	// optimization (spec.md §9): the GGM tree stops nu levels early and the
	// remaining 2^nu leaves are packed one bit each into a single Block.
	// The binary internal/zerotest uses this mode.
	SingleBitMask
)

// EvalType records which evaluation strategy a key was generated for
// (spec.md §6.3). The evaluation functions do not check it: a key of any
// EvalType is evaluated the same way. FullDomainBits and FullDomainScalars
// do reject a key of the wrong OutputMode with fmerr.ErrCapabilityMismatch.
type EvalType int

const (
	Naive EvalType = iota
	Recursion
	IterSingleBatch
)

// Params configures a DPF instance (spec.md §6.3, DpfParameters).
type Params struct {
	N          uint8 // input domain is [0, 2^N)
	E          uint8 // output ring width in bits, for ShiftedAdditive
	EvalType   EvalType
	OutputMode OutputMode
}

// Nu returns the early-termination bucket depth. SingleBitMask keys stop the
// tree nu levels before the leaf and pack 2^nu one-bit outputs into a single
// Block (nu=7 once N>=8, so the packed window exactly fills 128 bits).
// ShiftedAdditive keys run the tree to full depth (nu=0): packing multiple
// independent E-bit values into one 128-bit leaf only has an exact
// bit-budget for E=1, so the additive mode foregoes early termination
// entirely rather than approximate it (recorded in DESIGN.md).
func (p Params) Nu() uint8 {
	if p.OutputMode != SingleBitMask {
		return 0
	}
	if p.N >= 8 {
		return 7
	}
	return p.N
}

// Levels returns the number of GGM tree levels walked by KeyGen/Evaluate.
func (p Params) Levels() int {
	return int(p.N) - int(p.Nu())
}

// Validate checks the documented constraints on Params (spec.md §6.3).
func (p Params) Validate() error {
	if p.N == 0 || p.N > 64 {
		return fmt.Errorf("%w: dpf N must be in [1,64], got %d", fmerr.ErrParameterInvalid, p.N)
	}
	if p.OutputMode == ShiftedAdditive && (p.E == 0 || p.E > 64) {
		return fmt.Errorf("%w: dpf E must be in [1,64] for ShiftedAdditive, got %d", fmerr.ErrParameterInvalid, p.E)
	}
	return nil
}

func (m OutputMode) String() string {
	switch m {
	case ShiftedAdditive:
		return "ShiftedAdditive"
	case SingleBitMask:
		return "SingleBitMask"
	default:
		return "unknown"
	}
}

func maskE(v uint64, e uint8) uint64 {
	if e >= 64 {
		return v
	}
	return v & (uint64(1)<<e - 1)
}
