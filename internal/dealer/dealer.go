// Package dealer implements the offline trusted-dealer key generation of
// spec.md §3.3: every DPF key, replicated-share mask, Beaver triple, and
// correlated-randomness root key the three online parties need, produced
// once per "generation" from a single master secret.
//
// Adapted from the teacher's protocols/lss/dealer/dealer.go
// (BootstrapDealer): that type is a mutex-guarded struct holding protocol
// state across an interactive, multi-round JVSS re-sharing conversation
// (wShares/qShares maps, a broadcast channel, a generation counter). None
// of the re-sharing logic applies here — this dealer is one-shot and
// non-interactive — but the shape survives: a struct constructed once via
// NewDealer, a monotonic generation counter for idempotent regeneration,
// and one method per key-bundle type it knows how to produce.
//
// Reproducibility (spec.md §8, "running OfflineSetup twice with the same
// seed produces bit-identical key files") comes from deriving every random
// draw — DPF seeds, share masks, Beaver triple components — from one
// HKDF-SHA256 stream keyed on the master secret, read in the fixed order
// OfflineSetup calls its generator methods. internal/dpf.WithEntropySource
// redirects DPF's own internal seed draws into that same stream for the
// duration of each call.
package dealer

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/luxfi/securesearch/internal/ass"
	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/dpf"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/fssfmi"
	"github.com/luxfi/securesearch/internal/fsswm"
	"github.com/luxfi/securesearch/internal/oblivselect"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/internal/zerotest"
	"github.com/luxfi/securesearch/pkg/fmerr"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/hkdf"
)

// Dealer is the offline key-generation authority: every method call reads
// deterministically from one HKDF stream seeded by the master secret, in
// the order the caller invokes them. Regenerating a Dealer from the same
// master secret and replaying the same call sequence reproduces
// bit-identical output.
type Dealer struct {
	masterSecret []byte
	rng          io.Reader
	generation   uint64
}

// NewDealer derives the dealer's HKDF draw stream from masterSecret.
func NewDealer(masterSecret []byte) *Dealer {
	r := hkdf.New(sha256.New, masterSecret, nil, []byte("securesearch/dealer/draws/v1"))
	return &Dealer{masterSecret: masterSecret, rng: r}
}

// Generation returns the number of uint64 values drawn from the dealer's
// stream so far, used as a diagnostic counter (not part of the derivation itself, which
// depends only on call order, not this count).
func (d *Dealer) Generation() uint64 { return d.generation }

// reduceToWidth returns v mod 2^bits, treating bits >= 64 as "no
// reduction" (since uint64(1)<<64 wraps to 0 in Go, not the modulus we
// mean).
func reduceToWidth(v uint64, bits uint8) uint64 {
	if bits >= 64 {
		return v
	}
	return v % (uint64(1) << bits)
}

func (d *Dealer) drawUint64() (uint64, error) {
	d.generation++
	var buf [8]byte
	if _, err := io.ReadFull(d.rng, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: dealer draw: %v", fmerr.ErrRandomnessExhausted, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Fingerprint returns a blake3 digest over a sequence of uint64 fields,
// used to tag a generated bundle for diagnostics (spec.md §6.2's key-file
// format carries one per bundle). Two dealers given the same masterSecret
// and call sequence produce identical fingerprints for identical bundles.
func Fingerprint(fields ...uint64) [32]byte {
	h := blake3.New()
	var buf [8]byte
	for _, f := range fields {
		binary.LittleEndian.PutUint64(buf[:], f)
		_, _ = h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// RootKeys derives the three pairwise correlated-randomness AES keys
// (spec.md §4.4), independently of the draw stream other methods share —
// corr.DeriveRootKeys does its own HKDF expansion keyed on masterSecret, so
// calling RootKeys any number of times, in any order relative to the other
// generator methods, never perturbs their output.
func (d *Dealer) RootKeys() (corr.RootKeys, error) {
	return corr.DeriveRootKeys(d.masterSecret)
}

func (d *Dealer) shareArith(v uint64, bits uint8) ([3]rss.Share, error) {
	r0, err := d.drawUint64()
	if err != nil {
		return [3]rss.Share{}, err
	}
	r1, err := d.drawUint64()
	if err != nil {
		return [3]rss.Share{}, err
	}
	return rss.ShareArithLocal(rss.NewScalar(v, bits), rss.NewScalar(r0, bits), rss.NewScalar(r1, bits)), nil
}

func (d *Dealer) shareBinary(v uint64, bits uint8) ([3]rss.BinShare, error) {
	r0, err := d.drawUint64()
	if err != nil {
		return [3]rss.BinShare{}, err
	}
	r1, err := d.drawUint64()
	if err != nil {
		return [3]rss.BinShare{}, err
	}
	return rss.ShareBinaryLocal(v, r0, r1, bits), nil
}

// withDeterministicDPF threads d's draw stream into every dpf.KeyGen call
// fn makes, so the DPF keys it produces are reproducible from the same
// master secret.
func withDeterministicDPF[T any](d *Dealer, fn func() (T, error)) (T, error) {
	var out T
	err := dpf.WithEntropySource(d.rng, func() error {
		var innerErr error
		out, innerErr = fn()
		return innerErr
	})
	return out, err
}

// OblivSelectBundle generates one complete OblivSelect key set (spec.md
// §4.5): a fresh random mask in [0, 2^domainBits) and its replicated
// share, wired into a single ShiftedAdditive DPF pair.
func (d *Dealer) OblivSelectBundle(domainBits, ringBits uint8) ([3]oblivselect.Key, error) {
	raw, err := d.drawUint64()
	if err != nil {
		return [3]oblivselect.Key{}, err
	}
	r := reduceToWidth(raw, domainBits)
	rShares, err := d.shareArith(r, domainBits)
	if err != nil {
		return [3]oblivselect.Key{}, err
	}
	return withDeterministicDPF(d, func() ([3]oblivselect.Key, error) {
		return oblivselect.KeyGen(r, domainBits, ringBits, rShares)
	})
}

// ZeroTestBinaryBundle generates one binary-flavor ZeroTest key set
// (spec.md §4.6).
func (d *Dealer) ZeroTestBinaryBundle(bits uint8) ([3]zerotest.BinaryKey, error) {
	raw, err := d.drawUint64()
	if err != nil {
		return [3]zerotest.BinaryKey{}, err
	}
	r := reduceToWidth(raw, bits)
	rShares, err := d.shareBinary(r, bits)
	if err != nil {
		return [3]zerotest.BinaryKey{}, err
	}
	return withDeterministicDPF(d, func() ([3]zerotest.BinaryKey, error) {
		return zerotest.BinaryKeyGen(r, bits, rShares)
	})
}

// ZeroTestArithBundle generates one arithmetic-flavor ZeroTest key set.
func (d *Dealer) ZeroTestArithBundle(bits, ringBits uint8) ([3]zerotest.ArithKey, error) {
	raw, err := d.drawUint64()
	if err != nil {
		return [3]zerotest.ArithKey{}, err
	}
	r := reduceToWidth(raw, bits)
	rShares, err := d.shareArith(r, bits)
	if err != nil {
		return [3]zerotest.ArithKey{}, err
	}
	return withDeterministicDPF(d, func() ([3]zerotest.ArithKey, error) {
		return zerotest.ArithKeyGen(r, bits, ringBits, rShares)
	})
}

// BeaverTriple generates one two-party Beaver multiplication triple
// (spec.md §4.3): a, b drawn at random, c = a*b mod 2^d, each additively
// split between the two parties of internal/ass's pairwise protocol.
func (d *Dealer) BeaverTriple(bits uint8) ([2]ass.Triple, error) {
	a, err := d.drawUint64()
	if err != nil {
		return [2]ass.Triple{}, err
	}
	b, err := d.drawUint64()
	if err != nil {
		return [2]ass.Triple{}, err
	}
	aR, err := d.drawUint64()
	if err != nil {
		return [2]ass.Triple{}, err
	}
	bR, err := d.drawUint64()
	if err != nil {
		return [2]ass.Triple{}, err
	}
	cR, err := d.drawUint64()
	if err != nil {
		return [2]ass.Triple{}, err
	}

	c := a * b
	a0, a1 := ass.SplitLocal(a, aR, bits)
	b0, b1 := ass.SplitLocal(b, bR, bits)
	c0, c1 := ass.SplitLocal(c, cR, bits)

	return [2]ass.Triple{
		{A: a0, B: b0, C: c0},
		{A: a1, B: b1, C: c1},
	}, nil
}

// FsswmBundle generates one complete set of per-level OblivSelect keys for
// internal/fsswm.RankCF, sized to table's wavelet depth.
func (d *Dealer) FsswmBundle(table fmindex.PublicTable, domainBits, ringBits uint8) ([3]fsswm.Key, error) {
	masks := make([]uint64, table.Levels)
	rShares := make([][3]rss.Share, table.Levels)
	for l := 0; l < table.Levels; l++ {
		raw, err := d.drawUint64()
		if err != nil {
			return [3]fsswm.Key{}, err
		}
		masks[l] = reduceToWidth(raw, domainBits)
		rShares[l], err = d.shareArith(masks[l], domainBits)
		if err != nil {
			return [3]fsswm.Key{}, err
		}
	}
	return withDeterministicDPF(d, func() ([3]fsswm.Key, error) {
		return fsswm.KeyGen(table, masks, domainBits, ringBits, rShares)
	})
}

// FssfmiBundle generates one complete per-step key set for
// internal/fssfmi.LongestPrefixMatch, provisioned for up to maxSteps
// pattern characters.
func (d *Dealer) FssfmiBundle(table fmindex.PublicTable, maxSteps int, sigmaBits, domainBits, ringBits uint8) ([3]fssfmi.Key, error) {
	seeds := make([]fssfmi.StepSeed, maxSteps)

	for i := range seeds {
		clRaw, err := d.drawUint64()
		if err != nil {
			return [3]fssfmi.Key{}, err
		}
		clMask := reduceToWidth(clRaw, sigmaBits)
		clShares, err := d.shareArith(clMask, sigmaBits)
		if err != nil {
			return [3]fssfmi.Key{}, err
		}

		rankMasks := make([]uint64, table.Levels)
		rankShares := make([][3]rss.Share, table.Levels)
		for l := 0; l < table.Levels; l++ {
			raw, err := d.drawUint64()
			if err != nil {
				return [3]fssfmi.Key{}, err
			}
			rankMasks[l] = reduceToWidth(raw, domainBits)
			rankShares[l], err = d.shareArith(rankMasks[l], domainBits)
			if err != nil {
				return [3]fssfmi.Key{}, err
			}
		}

		haltRaw, err := d.drawUint64()
		if err != nil {
			return [3]fssfmi.Key{}, err
		}
		haltMask := reduceToWidth(haltRaw, ringBits)
		haltShares, err := d.shareArith(haltMask, ringBits)
		if err != nil {
			return [3]fssfmi.Key{}, err
		}

		seeds[i] = fssfmi.StepSeed{
			CountLessMask:   clMask,
			CountLessShares: clShares,
			RankMasks:       rankMasks,
			RankShares:      rankShares,
			HaltMask:        haltMask,
			HaltShares:      haltShares,
		}
	}

	return withDeterministicDPF(d, func() ([3]fssfmi.Key, error) {
		return fssfmi.KeyGen(table, sigmaBits, domainBits, ringBits, seeds)
	})
}
