package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockXOR(t *testing.T) {
	a := FromHalves(1, 2)
	b := FromHalves(3, 4)
	got := a.XOR(b)
	require.Equal(t, FromHalves(1^3, 2^4), got)
	require.True(t, got.XOR(b).Equal(a))
}

func TestBlockBytesRoundTrip(t *testing.T) {
	a := FromHalves(0x0123456789abcdef, 0xfedcba9876543210)
	buf := a.Bytes()
	require.Equal(t, a, FromBytes(buf[:]))
}

func TestBlockGetBit(t *testing.T) {
	a := FromHalves(0b1010, 0)
	require.Equal(t, uint64(0), a.GetBit(0))
	require.Equal(t, uint64(1), a.GetBit(1))
	require.Equal(t, uint64(0), a.GetBit(2))
	require.Equal(t, uint64(1), a.GetBit(3))

	b := FromHalves(0, 1)
	require.Equal(t, uint64(1), b.GetBit(64))
}

func TestPrgExpandDeterministic(t *testing.T) {
	prg := Shared()
	seed := FromHalves(42, 7)
	a := prg.Expand(seed, Left)
	b := prg.Expand(seed, Left)
	require.Equal(t, a, b)

	c := prg.Expand(seed, Right)
	require.NotEqual(t, a, c, "left and right lanes must diverge")
}

func TestDoubleExpandBatchMatchesSingle(t *testing.T) {
	prg := Shared()
	seeds := make([]Block, 40)
	for i := range seeds {
		seeds[i] = FromHalves(uint64(i), uint64(i*7+1))
	}
	left := make([]Block, len(seeds))
	right := make([]Block, len(seeds))
	cl := make([]byte, len(seeds))
	cr := make([]byte, len(seeds))
	require.NoError(t, prg.BatchDoubleExpand(seeds, left, right, cl, cr))

	for i, s := range seeds {
		wl, wr, wcl, wcr := prg.DoubleExpand(s)
		require.Equal(t, wl, left[i])
		require.Equal(t, wr, right[i])
		require.Equal(t, wcl, cl[i])
		require.Equal(t, wcr, cr[i])
	}
}
