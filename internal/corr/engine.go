// Package corr implements the correlated-randomness engine of spec.md §4.4:
// pairwise AES keys wired as (prev, next) per party, buffered in CTR mode, so
// that every party can derive fresh replicated zero-sharings with no
// interaction. It also implements the offline dealer's root-key derivation
// (three pairwise AES keys from one master secret via HKDF).
package corr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/luxfi/securesearch/internal/block"
	"github.com/luxfi/securesearch/pkg/party"
	"golang.org/x/crypto/hkdf"
)

// DefaultBufferBlocks is the default per-stream buffer size in AES blocks,
// matching spec.md §4.4 ("default 256 blocks").
const DefaultBufferBlocks = 256

// stream is one direction's AES-CTR keystream, buffered and refilled on
// exhaustion.
type stream struct {
	ctr    cipher.Stream
	buf    []byte
	cursor int
	bufLen int
}

func newStream(key [16]byte, bufBlocks int) *stream {
	c, err := aes.NewCipher(key[:])
	if err != nil {
		panic(fmt.Errorf("corr: building AES cipher: %w", err))
	}
	iv := make([]byte, aes.BlockSize)
	ctrStream := cipher.NewCTR(c, iv)
	bufLen := bufBlocks * aes.BlockSize
	s := &stream{ctr: ctrStream, buf: make([]byte, bufLen), bufLen: bufLen, cursor: bufLen}
	return s
}

func (s *stream) refill() {
	s.ctr.XORKeyStream(s.buf, make([]byte, s.bufLen))
	s.cursor = 0
}

// next returns the next n pseudorandom bytes from the stream.
func (s *stream) next(n int) []byte {
	out := make([]byte, n)
	got := 0
	for got < n {
		if s.cursor >= s.bufLen {
			s.refill()
		}
		avail := s.bufLen - s.cursor
		take := n - got
		if take > avail {
			take = avail
		}
		copy(out[got:got+take], s.buf[s.cursor:s.cursor+take])
		s.cursor += take
		got += take
	}
	return out
}

// Engine is one party's correlated-randomness state: the pairwise stream it
// shares with "prev" and the one it shares with "next" (spec.md §4.4).
//
// Invariant (SPMD lockstep, spec.md §5): the stream a party advances as its
// "next" stream is keyed identically to the stream its next-neighbor
// advances as its "prev" stream. Because every party issues the same
// sequence of protocol steps, the two sides' call counts to the
// corresponding draw methods stay aligned without any synchronization
// message, and the two streams' outputs agree byte-for-byte at every draw.
type Engine struct {
	self       party.ID
	prev, next *stream
}

// NewEngine builds the correlated-randomness engine for party self, given
// the AES key it shares with its prev neighbor and the one it shares with
// its next neighbor (both delivered by the offline dealer, see RootKeys).
func NewEngine(self party.ID, keyWithPrev, keyWithNext [16]byte) *Engine {
	return &Engine{
		self: self,
		prev: newStream(keyWithPrev, DefaultBufferBlocks),
		next: newStream(keyWithNext, DefaultBufferBlocks),
	}
}

// DrawPrevBlock returns the next pseudorandom Block from the stream shared
// with prev.
func (e *Engine) DrawPrevBlock() block.Block {
	return block.FromBytes(e.prev.next(16))
}

// DrawNextBlock returns the next pseudorandom Block from the stream shared
// with next.
func (e *Engine) DrawNextBlock() block.Block {
	return block.FromBytes(e.next.next(16))
}

// DrawPrevU64 returns 8 fresh pseudorandom bytes from the prev stream as a
// uint64.
func (e *Engine) DrawPrevU64() uint64 {
	return le64(e.prev.next(8))
}

// DrawNextU64 returns 8 fresh pseudorandom bytes from the next stream as a
// uint64.
func (e *Engine) DrawNextU64() uint64 {
	return le64(e.next.next(8))
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// RootKeys are the three pairwise AES-128 keys the offline dealer samples
// and distributes: K[i] is the key shared between party i and party
// i.Next() (spec.md §4.4 "Setup").
type RootKeys [3][16]byte

// DeriveRootKeys deterministically derives the three pairwise root keys from
// a single high-entropy master secret via HKDF-SHA256 (spec.md §4.4's
// "dealer samples three root AES keys K0,K1,K2", made reproducible here so
// that OfflineSetup run twice with the same seed is bit-identical, per
// spec.md §8's idempotence requirement).
func DeriveRootKeys(masterSecret []byte) (RootKeys, error) {
	var keys RootKeys
	for i := range keys {
		info := []byte(fmt.Sprintf("securesearch/corr/root-key/%d", i))
		r := hkdf.New(sha256.New, masterSecret, nil, info)
		if _, err := io.ReadFull(r, keys[i][:]); err != nil {
			return RootKeys{}, fmt.Errorf("corr: deriving root key %d: %w", i, err)
		}
	}
	return keys, nil
}

// EngineFor builds the Engine for party self out of the dealer-generated
// root keys: self's "prev" key is K[self.Prev()] (the key it shares with
// its prev neighbor) and its "next" key is K[self] (the key it shares with
// its next neighbor).
func EngineFor(self party.ID, keys RootKeys) *Engine {
	return NewEngine(self, keys[self.Prev()], keys[self])
}
