package block

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/cpu"
)

// Lane selects which of the three fixed global AES keys a PRG call uses.
type Lane int

const (
	Left Lane = iota
	Right
	// Leaf is a third fixed key used only at DPF tree leaves to convert a
	// final seed into its output value (internal/dpf). Keeping it distinct
	// from Left/Right means the leaf conversion is never the same function
	// as a tree-descent step, even for a one-level tree.
	Leaf
)

// leftKey, rightKey and leafKey are the three fixed global AES-128 keys
// shared by every party and every offline-generated key. They are public
// constants, not secrets: PRG security rests on AES acting as a random
// permutation, not on these keys being hidden (spec.md §4.1, "Determinism").
var (
	leftKey  = [16]byte{0x5a, 0x1d, 0x4f, 0x2e, 0x9b, 0x77, 0x03, 0xc4, 0x6e, 0x88, 0x1a, 0xf0, 0x3d, 0x52, 0xbe, 0x91}
	rightKey = [16]byte{0xd2, 0x47, 0x9e, 0x01, 0x6c, 0x33, 0xaf, 0x58, 0x12, 0xe9, 0x7b, 0x64, 0xa0, 0x3f, 0x88, 0x05}
	leafKey  = [16]byte{0x11, 0x9c, 0x6a, 0x5d, 0x40, 0xe2, 0x8b, 0x77, 0x2c, 0xd4, 0x63, 0x0f, 0x95, 0xa8, 0x1e, 0x36}
)

// HasAESNI reports whether the CPU exposes hardware AES instructions
// (spec.md §9, "SIMD widening is optional but recommended"). Nothing in
// this module calls or logs it.
func HasAESNI() bool {
	return cpu.X86.HasAES
}

// Prg is a keyed AES-128 pseudo-random generator used to expand a DPF seed
// into its two children. It holds the three fixed-key AES ciphers so they
// are only built once per process.
type Prg struct {
	left, right, leaf cipher.Block
}

var shared *Prg
var sharedOnce sync.Once

// Shared returns the process-wide Prg built from the three fixed global keys.
func Shared() *Prg {
	sharedOnce.Do(func() {
		l, err := aes.NewCipher(leftKey[:])
		if err != nil {
			panic(fmt.Errorf("block: building left AES cipher: %w", err))
		}
		r, err := aes.NewCipher(rightKey[:])
		if err != nil {
			panic(fmt.Errorf("block: building right AES cipher: %w", err))
		}
		lf, err := aes.NewCipher(leafKey[:])
		if err != nil {
			panic(fmt.Errorf("block: building leaf AES cipher: %w", err))
		}
		shared = &Prg{left: l, right: r, leaf: lf}
	})
	return shared
}

func (p *Prg) cipherFor(lane Lane) cipher.Block {
	switch lane {
	case Left:
		return p.left
	case Right:
		return p.right
	default:
		return p.leaf
	}
}

// Expand computes AES_k(seed) XOR seed, a Davies-Meyer style keyed PRF
// (spec.md §4.1). lane selects which of the three fixed keys is used.
func (p *Prg) Expand(seed Block, lane Lane) Block {
	in := seed.Bytes()
	var out [16]byte
	p.cipherFor(lane).Encrypt(out[:], in[:])
	return FromBytes(out[:]).XOR(seed)
}

// DoubleExpand evaluates both lanes of the PRG on seed in one call and
// extracts the control bit (LSB) of each resulting half, per spec.md §4.1:
// `Prg::double_expand(seed) -> (left, right, ctrlL, ctrlR)`.
func (p *Prg) DoubleExpand(seed Block) (left, right Block, ctrlL, ctrlR byte) {
	left = p.Expand(seed, Left)
	right = p.Expand(seed, Right)
	ctrlL = left.LSB()
	ctrlR = right.LSB()
	return
}

// ExpandLeaf runs the PRG's third fixed key over seed, used by DPF keys to
// turn a final tree seed into its output value (internal/dpf).
func (p *Prg) ExpandLeaf(seed Block) Block {
	return p.Expand(seed, Leaf)
}

// BatchDoubleExpand runs DoubleExpand over every seed in seeds, fanning the
// work out across a worker pool once the batch is large enough to be worth
// the goroutine overhead (spec.md §9, "Batching": "up to 16 seeds at once").
// Results are written into leftOut/rightOut/ctrlL/ctrlR, which must already
// be sized len(seeds).
func (p *Prg) BatchDoubleExpand(seeds []Block, leftOut, rightOut []Block, ctrlL, ctrlR []byte) error {
	n := len(seeds)
	if len(leftOut) != n || len(rightOut) != n || len(ctrlL) != n || len(ctrlR) != n {
		return fmt.Errorf("block: BatchDoubleExpand output length mismatch")
	}
	const chunkSize = 16
	if n <= chunkSize {
		for i, s := range seeds {
			leftOut[i], rightOut[i], ctrlL[i], ctrlR[i] = p.DoubleExpand(s)
		}
		return nil
	}

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		start := start
		end := start + chunkSize
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				leftOut[i], rightOut[i], ctrlL[i], ctrlR[i] = p.DoubleExpand(seeds[i])
			}
			return nil
		})
	}
	return g.Wait()
}
