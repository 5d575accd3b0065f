package rss

import (
	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/pkg/party"
)

// Add computes x + y locally.
func (x Share) Add(y Share) Share {
	return Share{Data: [2]Scalar{x.Data[0].Add(y.Data[0]), x.Data[1].Add(y.Data[1])}}
}

// Sub computes x - y locally.
func (x Share) Sub(y Share) Share {
	return Share{Data: [2]Scalar{x.Data[0].Sub(y.Data[0]), x.Data[1].Sub(y.Data[1])}}
}

// AddConst adds a known public constant into the given slot (0 or 1) of
// the share it is called on and leaves the other slot unchanged. Which
// party's share and which slot receive it is decided by the caller;
// AddPublicConstant is the caller that does so consistently across the
// three parties.
func (x Share) AddConst(c Scalar, slot int) Share {
	out := x
	out.Data[slot] = out.Data[slot].Add(c)
	return out
}

// PublicShare builds a replicated Share of a value that is public
// knowledge to every party (e.g. the fixed initial endpoints of an
// FM-index range, or a loop's halt flag before any round has run) rather
// than a value only the dealer knows how to split. It is equivalent to
// sharing v with the dealer's r0 = r1 = 0, i.e. zero plus
// AddPublicConstant.
func PublicShare(self party.ID, v uint64, bits uint8) Share {
	zero := Share{Data: [2]Scalar{NewScalar(0, bits), NewScalar(0, bits)}}
	return zero.AddPublicConstant(self, NewScalar(v, bits))
}

// AddPublicConstant folds a public constant into x exactly once across the
// replicated group: it is added into whichever slot physically holds
// party s0's real component. Party P0 holds s0 as its own share (slot 0);
// party P1 holds s0 as its "prev" share (slot 1); party P2 holds neither
// copy of s0 and is left unchanged. Every party calls it identically,
// online, against a value all of them already know to be public, such as
// internal/fsswm's per-level zero count.
func (x Share) AddPublicConstant(self party.ID, c Scalar) Share {
	switch self {
	case party.P0:
		return x.AddConst(c, 0)
	case party.P1:
		return x.AddConst(c, 1)
	default:
		return x
	}
}

// Mult computes x * y with one interactive round, the arithmetic analogue
// of AND (spec.md §4.3): the re-sharing step has the same shape, additive
// masks replacing XOR masks.
func Mult(ring Ring, rnd *corr.Engine, round int, x, y Share, d uint8) (Share, error) {
	x0, x1 := x.Data[0], x.Data[1]
	y0, y1 := y.Data[0], y.Data[1]
	t := x0.Mul(y0).Add(x1.Mul(y0)).Add(x0.Mul(y1))

	r0 := NewScalar(rnd.DrawNextU64(), d)
	r1 := NewScalar(rnd.DrawPrevU64(), d)
	z0 := t.Add(r0).Sub(r1)

	if err := sendRingVal(ring, round, z0.Uint64()); err != nil {
		return Share{}, err
	}
	z1raw, err := recvRingVal(ring, round)
	if err != nil {
		return Share{}, err
	}
	return Share{Data: [2]Scalar{z0, NewScalar(z1raw, d)}}, nil
}

// ArithSelect returns x + c·(y-x) — the arithmetic secure multiplexer of
// spec.md §4.3: one multiplication.
func ArithSelect(ring Ring, rnd *corr.Engine, round int, x, y, c Share, d uint8) (Share, error) {
	diff := y.Sub(x)
	masked, err := Mult(ring, rnd, round, c, diff, d)
	if err != nil {
		return Share{}, err
	}
	return x.Add(masked), nil
}
