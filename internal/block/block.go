// Package block implements the 128-bit opaque word used as the DPF seed and
// ciphertext type, plus the keyed AES-based PRG built on top of it.
package block

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Block is a 128-bit opaque word, represented as two 64-bit halves in
// little-endian order (half 0 holds bits [0,64), half 1 holds bits [64,128)).
type Block struct {
	lo, hi uint64
}

// Zero is the all-zero block.
var Zero = Block{}

// FromHalves builds a Block from its two 64-bit halves.
func FromHalves(lo, hi uint64) Block {
	return Block{lo: lo, hi: hi}
}

// FromBytes reads a Block from a 16-byte little-endian buffer.
func FromBytes(b []byte) Block {
	_ = b[15]
	return Block{
		lo: binary.LittleEndian.Uint64(b[0:8]),
		hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// Bytes writes the Block into a 16-byte little-endian buffer.
func (b Block) Bytes() [16]byte {
	var out [16]byte
	binary.LittleEndian.PutUint64(out[0:8], b.lo)
	binary.LittleEndian.PutUint64(out[8:16], b.hi)
	return out
}

// MarshalCBOR encodes b as a 16-byte CBOR byte string, used by pkg/config's
// key-bundle envelope to serialize DPF keys (which embed Block fields with
// no exported representation cbor's struct reflection could otherwise see).
func (b Block) MarshalCBOR() ([]byte, error) {
	bs := b.Bytes()
	return cbor.Marshal(bs[:])
}

// UnmarshalCBOR decodes a Block previously written by MarshalCBOR.
func (b *Block) UnmarshalCBOR(data []byte) error {
	var bs []byte
	if err := cbor.Unmarshal(data, &bs); err != nil {
		return err
	}
	if len(bs) != 16 {
		return fmt.Errorf("block: cbor decode expected 16 bytes, got %d", len(bs))
	}
	*b = FromBytes(bs)
	return nil
}

// Half returns 64-bit half i (0 or 1).
func (b Block) Half(i int) uint64 {
	if i == 0 {
		return b.lo
	}
	return b.hi
}

// WithHalf returns a copy of b with half i replaced by v.
func (b Block) WithHalf(i int, v uint64) Block {
	if i == 0 {
		b.lo = v
	} else {
		b.hi = v
	}
	return b
}

// XOR returns a ^ b componentwise.
func (a Block) XOR(b Block) Block {
	return Block{lo: a.lo ^ b.lo, hi: a.hi ^ b.hi}
}

// Equal reports whether a and b hold identical bits.
func (a Block) Equal(b Block) bool {
	return a.lo == b.lo && a.hi == b.hi
}

// IsZero reports whether b is the all-zero block.
func (b Block) IsZero() bool {
	return b.lo == 0 && b.hi == 0
}

// GetBit returns bit i (0 <= i < 128) of b, bit 0 being the LSB of half 0.
func (b Block) GetBit(i int) uint64 {
	half := b.Half(i / 64)
	return (half >> uint(i%64)) & 1
}

// SetLSB returns a copy of b with its least-significant bit (of half 0) set
// to bit (0 or 1), leaving all other bits untouched. Used to carry DPF
// control bits alongside a seed in the same Block.
func (b Block) SetLSB(bit byte) Block {
	b.lo = (b.lo &^ 1) | uint64(bit&1)
	return b
}

// LSB returns the least-significant bit of half 0.
func (b Block) LSB() byte {
	return byte(b.lo & 1)
}

// WithBit returns a copy of b with bit i set to v (0 or 1).
func (b Block) WithBit(i int, v uint64) Block {
	half := i / 64
	shift := uint(i % 64)
	h := b.Half(half)
	h = (h &^ (1 << shift)) | ((v & 1) << shift)
	return b.WithHalf(half, h)
}

// OneHot returns a Block with exactly bit pos set, all others zero.
func OneHot(pos int) Block {
	return Zero.WithBit(pos, 1)
}

// MaskWindow extracts a window of width w bits (w <= 128) starting at bit 0,
// used by the DPF leaf-correction step to read out the ShiftedAdditive
// nu-bit window (spec.md §4.2).
func (b Block) MaskWindow(w int) Block {
	if w >= 128 {
		return b
	}
	if w <= 64 {
		mask := uint64(1)<<uint(w) - 1
		return Block{lo: b.lo & mask}
	}
	mask := uint64(1)<<uint(w-64) - 1
	return Block{lo: b.lo, hi: b.hi & mask}
}
