package ass

// Triple is one party's share of a Beaver multiplication triple (a, b,
// c=a*b mod 2^d), generated offline by internal/dealer and consumed one per
// Mul call.
type Triple struct {
	A, B, C Share
}

// Mul computes x*y using one precomputed Triple and two rounds of opening
// (round for d=x-a, round+1 for e=y-b) (spec.md §4.3, "Beaver-style ASS
// multiplication"): z = c + d*b + e*a + d*e, with the additive constant d*e
// folded into only one party so the sum reconstructs correctly.
func Mul(link Link, round int, x, y Share, t Triple, isFirstParty bool) (Share, error) {
	d := x.Sub(t.A)
	e := y.Sub(t.B)

	dOpen, err := Open(link, round, d)
	if err != nil {
		return Share{}, err
	}
	eOpen, err := Open(link, round+1, e)
	if err != nil {
		return Share{}, err
	}

	z := t.C.Add(NewShare(dOpen, x.D).mulConstShare(t.B)).Add(NewShare(eOpen, x.D).mulConstShare(t.A))
	if isFirstParty {
		z = z.AddConst(mulMod(dOpen, eOpen, x.D))
	}
	return z, nil
}

func (x Share) mulConstShare(y Share) Share {
	return NewShare(mulMod(x.V, y.V, x.D), x.D)
}

func mulMod(a, b uint64, d uint8) uint64 {
	return mask(a*b, d)
}

// Select returns x + c*(y-x) for a bit share c in {0,1}, one Mul call
// (spec.md §4.3's two-party secure multiplexer).
func Select(link Link, round int, x, y, c Share, t Triple, isFirstParty bool) (Share, error) {
	diff := y.Sub(x)
	masked, err := Mul(link, round, c, diff, t, isFirstParty)
	if err != nil {
		return Share{}, err
	}
	return x.Add(masked), nil
}
