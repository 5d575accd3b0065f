package dpf

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"github.com/luxfi/securesearch/internal/block"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// CW is one level's correction word: a seed XOR-difference plus two
// corrected control bits, one per child branch (spec.md §4.2).
type CW struct {
	Seed          block.Block
	CtrlL, CtrlR  byte
}

// Key is one party's half of a DPF keypair. Both parties' keys share the
// same CW list and leaf corrections; only InitSeed and PartyID differ
// (spec.md §4.2, "KeyGen returns a pair of keys that agree on every field
// except their initial seed and party bit").
type Key struct {
	PartyID      byte
	InitSeed     block.Block
	CW           []CW
	OutputBlock  block.Block // leaf correction for SingleBitMask
	OutputScalar uint64      // leaf correction for ShiftedAdditive
	Params       Params
}

var entropyMu sync.Mutex
var entropy io.Reader = rand.Reader

// WithEntropySource runs fn with KeyGen's initial-seed draws redirected to
// r instead of crypto/rand, then restores the default, holding a package
// lock for the duration so it is safe to call from a single dealer
// goroutine but not concurrently with itself. internal/dealer uses this to
// make OfflineSetup replayable from an HKDF stream (spec.md §8:
// "running OfflineSetup twice with the same seed produces bit-identical
// key files") without threading a reader parameter through every
// KeyGen-calling package (oblivselect, zerotest, fsswm, fssfmi).
func WithEntropySource(r io.Reader, fn func() error) error {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	prev := entropy
	entropy = r
	defer func() { entropy = prev }()
	return fn()
}

func randomSeed() (block.Block, error) {
	var buf [16]byte
	if _, err := io.ReadFull(entropy, buf[:]); err != nil {
		return block.Zero, fmt.Errorf("dpf: reading random seed: %w", err)
	}
	return block.FromBytes(buf[:]), nil
}

// checkEvalType rejects evaluating a key with an eval_type it wasn't
// generated for (spec.md §6.3: "the dpf eval_type used at eval time must
// match the one recorded in the key").
func (k Key) checkEvalType(want EvalType) error {
	if k.Params.EvalType != want {
		return fmt.Errorf("%w: dpf key generated for eval_type %d, used as %d",
			fmerr.ErrCapabilityMismatch, k.Params.EvalType, want)
	}
	return nil
}
