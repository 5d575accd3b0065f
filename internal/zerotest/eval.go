package zerotest

import (
	"github.com/luxfi/securesearch/internal/dpf"
	"github.com/luxfi/securesearch/internal/rss"
)

// EvaluateBinary tests whether the replicated-shared x (BinShare) is zero,
// in one round: reveal m = x XOR r, then evaluate the point DPF at m (since
// x = m XOR r, x==0 iff r==m, XOR being self-inverse needs no negation).
func EvaluateBinary(ring rss.Ring, round int, x rss.BinShare, k BinaryKey) (rss.BinShare, error) {
	diff := x.XOR(rss.NewBinShare(k.R.Data[0], k.R.Data[1], k.R.Bits))
	m, err := rss.OpenBinary(ring, round, diff)
	if err != nil {
		return rss.BinShare{}, err
	}

	own, err := evalBit(k.Own, m)
	if err != nil {
		return rss.BinShare{}, err
	}
	prev, err := evalBit(k.Prev, m)
	if err != nil {
		return rss.BinShare{}, err
	}
	return rss.NewBinShare(own, prev, 1), nil
}

func evalBit(key *dpf.Key, pos uint64) (uint64, error) {
	if key == nil {
		return 0, nil
	}
	b, err := key.EvaluateBit(pos)
	return uint64(b), err
}

// EvaluateArith is the arithmetic-flavor analogue of EvaluateBinary: reveal
// m = x - r, then evaluate the point DPF at -m mod 2^bits (x = m+r, so
// x==0 iff r==-m).
func EvaluateArith(ring rss.Ring, round int, x rss.Share, k ArithKey, bits uint8) (rss.Share, error) {
	diff := x.Sub(k.R)
	m, err := rss.OpenArith(ring, round, diff, bits)
	if err != nil {
		return rss.Share{}, err
	}
	n := uint64(1) << bits
	pos := (n - (m.Uint64() % n)) % n

	own, err := evalScalar(k.Own, pos)
	if err != nil {
		return rss.Share{}, err
	}
	prev, err := evalScalar(k.Prev, pos)
	if err != nil {
		return rss.Share{}, err
	}
	return rss.Share{Data: [2]rss.Scalar{rss.NewScalar(own, k.RingBits), rss.NewScalar(prev, k.RingBits)}}, nil
}

func evalScalar(key *dpf.Key, pos uint64) (uint64, error) {
	if key == nil {
		return 0, nil
	}
	return key.EvaluateScalar(pos)
}
