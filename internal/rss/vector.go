package rss

// ShareVector is a replicated arithmetic sharing of a length-N vector,
// stored as two parallel owning slices (spec.md §3.2: "Vector and matrix
// flavors are two parallel owning containers of equal length/shape").
type ShareVector struct {
	Data0, Data1 []Scalar
}

// NewShareVector allocates a ShareVector of length n.
func NewShareVector(n int) ShareVector {
	return ShareVector{Data0: make([]Scalar, n), Data1: make([]Scalar, n)}
}

// Len returns the vector's length.
func (v ShareVector) Len() int { return len(v.Data0) }

// At returns the Share at index i without copying the backing arrays.
func (v ShareVector) At(i int) Share {
	return Share{Data: [2]Scalar{v.Data0[i], v.Data1[i]}}
}

// Set writes s into index i.
func (v ShareVector) Set(i int, s Share) {
	v.Data0[i] = s.Data[0]
	v.Data1[i] = s.Data[1]
}

// View is a borrowed, non-owning window into a ShareVector (spec.md §3.2:
// "A View exposes a borrowed slice without copying").
type View struct {
	Data0, Data1 []Scalar
}

// Slice returns a View over [start, end) of v without copying.
func (v ShareVector) Slice(start, end int) View {
	return View{Data0: v.Data0[start:end], Data1: v.Data1[start:end]}
}

func (v View) Len() int { return len(v.Data0) }

func (v View) At(i int) Share {
	return Share{Data: [2]Scalar{v.Data0[i], v.Data1[i]}}
}

// BinVector is the XOR-flavor analogue of ShareVector (spec.md §3.4). No
// other package in this module uses it.
type BinVector struct {
	Data0, Data1 []uint64
	Bits         uint8
}

// NewBinVector allocates a BinVector of length n over the given bit width.
func NewBinVector(n int, bits uint8) BinVector {
	return BinVector{Data0: make([]uint64, n), Data1: make([]uint64, n), Bits: bits}
}

func (v BinVector) Len() int { return len(v.Data0) }

func (v BinVector) At(i int) BinShare {
	return NewBinShare(v.Data0[i], v.Data1[i], v.Bits)
}

func (v BinVector) Set(i int, s BinShare) {
	v.Data0[i] = s.Data[0]
	v.Data1[i] = s.Data[1]
}
