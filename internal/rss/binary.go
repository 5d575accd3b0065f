package rss

import (
	"fmt"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// XOR computes x ^ y locally (spec.md §4.3 "xor(x, y): local; componentwise
// XOR on both halves").
func (x BinShare) XOR(y BinShare) BinShare {
	return NewBinShare(x.Data[0]^y.Data[0], x.Data[1]^y.Data[1], x.Bits)
}

// AND computes x & y with one interactive round, per spec.md §4.3:
//
//	t_i = x0·y0 ^ x1·y0 ^ x0·y1
//	(r0, r1) <- fresh replicated zero-sharing
//	z0 = t_i ^ r0 ^ r1
//	send z0 to next, receive z1 from prev
func AND(ring Ring, rnd *corr.Engine, round int, x, y BinShare) (BinShare, error) {
	x0, x1 := x.Data[0], x.Data[1]
	y0, y1 := y.Data[0], y.Data[1]
	t := (x0 & y0) ^ (x1 & y0) ^ (x0 & y1)

	r0 := uint64(rnd.DrawNextU64())
	r1 := uint64(rnd.DrawPrevU64())
	z0 := maskBits(t^r0^r1, x.Bits)

	if err := sendRingVal(ring, round, z0); err != nil {
		return BinShare{}, err
	}
	z1, err := recvRingVal(ring, round)
	if err != nil {
		return BinShare{}, err
	}
	return NewBinShare(z0, z1, x.Bits), nil
}

// Select returns x ^ (c · (x ^ y)) — the binary-flavor secure multiplexer
// of spec.md §4.3: one AND.
func Select(ring Ring, rnd *corr.Engine, round int, x, y, c BinShare) (BinShare, error) {
	diff := x.XOR(y)
	masked, err := AND(ring, rnd, round, diff, c)
	if err != nil {
		return BinShare{}, err
	}
	return x.XOR(masked), nil
}

func sendRingVal(ring Ring, round int, v uint64) error {
	if err := ring.SendNext(round, encodeU64(v)); err != nil {
		return fmt.Errorf("%w: rss send to next: %v", fmerr.ErrTransportFailure, err)
	}
	return nil
}

func recvRingVal(ring Ring, round int) (uint64, error) {
	buf, err := ring.RecvPrev(round)
	if err != nil {
		return 0, fmt.Errorf("%w: rss recv from prev: %v", fmerr.ErrTransportFailure, err)
	}
	return decodeU64(buf)
}
