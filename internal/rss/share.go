package rss

import (
	"fmt"

	"github.com/luxfi/securesearch/pkg/fmerr"
)

// Ring is the minimal duplex-messaging capability the replicated-sharing
// protocols need: one send/receive pair with "prev" and one with "next"
// per interactive round (spec.md §1, §4.3, §5). pkg/transport's channel
// type implements this interface structurally; rss never imports
// pkg/transport, matching Design Notes §9 ("engines take shares by
// explicit parameter each call" rather than holding a reference to a
// concrete transport).
type Ring interface {
	SendPrev(round int, data []byte) error
	SendNext(round int, data []byte) error
	RecvPrev(round int) ([]byte, error)
	RecvNext(round int) ([]byte, error)
}

// Share is an ArithShare holding (s_self, s_self-1) in the replicated
// convention of spec.md §3.2: party i's pair equals (s_i, s_{i-1 mod 3}).
type Share struct {
	Data [2]Scalar
}

// BinShare is the XOR-reconstructed flavor of a replicated share, over a
// configurable bit width (1..64). Reconstruction is data[0] ^ data[1] ^
// received, matching spec.md §3.2's binary flavor.
type BinShare struct {
	Data [2]uint64
	Bits uint8
}

func maskBits(v uint64, bits uint8) uint64 {
	if bits >= 64 {
		return v
	}
	return v & (uint64(1)<<bits - 1)
}

// NewBinShare builds a BinShare from its two halves, masked to the
// configured bit width.
func NewBinShare(d0, d1 uint64, bits uint8) BinShare {
	return BinShare{Data: [2]uint64{maskBits(d0, bits), maskBits(d1, bits)}, Bits: bits}
}

// ShareArithLocal is the trusted dealer's operation (spec.md §4.3):
// sample r0, r1 uniformly, set r2 = x - r0 - r1, hand party i the pair
// (r_i, r_{i-1}).
func ShareArithLocal(x Scalar, r0, r1 Scalar) [3]Share {
	d := x.Width()
	r2 := x.Sub(r0).Sub(r1)
	s := [3]Scalar{r0, r1, r2}
	var out [3]Share
	for i := 0; i < 3; i++ {
		prev := (i + 2) % 3
		out[i] = Share{Data: [2]Scalar{s[i], s[prev]}}
	}
	_ = d
	return out
}

// ShareBinaryLocal is the binary-flavor analogue of ShareArithLocal:
// r2 = x ^ r0 ^ r1.
func ShareBinaryLocal(x uint64, r0, r1 uint64, bits uint8) [3]BinShare {
	r2 := maskBits(x^r0^r1, bits)
	s := [3]uint64{maskBits(r0, bits), maskBits(r1, bits), r2}
	var out [3]BinShare
	for i := 0; i < 3; i++ {
		prev := (i + 2) % 3
		out[i] = NewBinShare(s[i], s[prev], bits)
	}
	return out
}

// OpenArith reconstructs the plaintext value of an ArithShare: each party
// sends data[0] to prev and receives the counterpart from next; the
// reconstructed value is data[0] + data[1] + received (spec.md §4.3
// "open(x)"). One round.
func OpenArith(ring Ring, round int, s Share, d uint8) (Scalar, error) {
	buf := encodeU64(s.Data[0].Uint64())
	if err := ring.SendPrev(round, buf); err != nil {
		return Scalar{}, fmt.Errorf("%w: open send to prev: %v", fmerr.ErrTransportFailure, err)
	}
	recvBuf, err := ring.RecvNext(round)
	if err != nil {
		return Scalar{}, fmt.Errorf("%w: open recv from next: %v", fmerr.ErrTransportFailure, err)
	}
	received, err := decodeU64(recvBuf)
	if err != nil {
		return Scalar{}, err
	}
	return s.Data[0].Add(s.Data[1]).Add(NewScalar(received, d)), nil
}

// OpenBinary is the binary-flavor analogue of OpenArith: the reconstructed
// value is data[0] ^ data[1] ^ received.
func OpenBinary(ring Ring, round int, s BinShare) (uint64, error) {
	buf := encodeU64(s.Data[0])
	if err := ring.SendPrev(round, buf); err != nil {
		return 0, fmt.Errorf("%w: open send to prev: %v", fmerr.ErrTransportFailure, err)
	}
	recvBuf, err := ring.RecvNext(round)
	if err != nil {
		return 0, fmt.Errorf("%w: open recv from next: %v", fmerr.ErrTransportFailure, err)
	}
	received, err := decodeU64(recvBuf)
	if err != nil {
		return 0, err
	}
	return maskBits(s.Data[0]^s.Data[1]^received, s.Bits), nil
}

func encodeU64(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b[:]
}

func decodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: expected 8 bytes, got %d", fmerr.ErrSerializationLengthMismatch, len(b))
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}
