package dealer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/securesearch/internal/dealer"
	"github.com/luxfi/securesearch/internal/fmindex"
)

func testTable(t *testing.T) fmindex.PublicTable {
	bwt := fmindex.Build([]byte("GATTACA"))
	return fmindex.BuildTable(bwt)
}

func TestOblivSelectBundleReproducible(t *testing.T) {
	d1 := dealer.NewDealer([]byte("master-secret-1"))
	d2 := dealer.NewDealer([]byte("master-secret-1"))

	k1, err := d1.OblivSelectBundle(4, 32)
	require.NoError(t, err)
	k2, err := d2.OblivSelectBundle(4, 32)
	require.NoError(t, err)

	require.Equal(t, k1, k2)
	require.Equal(t, d1.Generation(), d2.Generation())
}

func TestOblivSelectBundleDiffersAcrossSecrets(t *testing.T) {
	d1 := dealer.NewDealer([]byte("master-secret-1"))
	d2 := dealer.NewDealer([]byte("master-secret-2"))

	k1, err := d1.OblivSelectBundle(4, 32)
	require.NoError(t, err)
	k2, err := d2.OblivSelectBundle(4, 32)
	require.NoError(t, err)

	require.NotEqual(t, k1, k2)
}

func TestZeroTestBundlesReproducible(t *testing.T) {
	d1 := dealer.NewDealer([]byte("zt-secret"))
	d2 := dealer.NewDealer([]byte("zt-secret"))

	b1, err := d1.ZeroTestBinaryBundle(6)
	require.NoError(t, err)
	b2, err := d2.ZeroTestBinaryBundle(6)
	require.NoError(t, err)
	require.Equal(t, b1, b2)

	a1, err := d1.ZeroTestArithBundle(6, 32)
	require.NoError(t, err)
	a2, err := d2.ZeroTestArithBundle(6, 32)
	require.NoError(t, err)
	require.Equal(t, a1, a2)
}

func TestBeaverTripleConsistent(t *testing.T) {
	d := dealer.NewDealer([]byte("beaver-secret"))
	triples, err := d.BeaverTriple(16)
	require.NoError(t, err)

	a := triples[0].A.V + triples[1].A.V
	b := triples[0].B.V + triples[1].B.V
	c := triples[0].C.V + triples[1].C.V
	require.Equal(t, (a*b)&0xFFFF, c&0xFFFF)
}

func TestFsswmBundleReproducibleAndSized(t *testing.T) {
	table := testTable(t)

	d1 := dealer.NewDealer([]byte("fsswm-secret"))
	d2 := dealer.NewDealer([]byte("fsswm-secret"))

	k1, err := d1.FsswmBundle(table, 4, 32)
	require.NoError(t, err)
	k2, err := d2.FsswmBundle(table, 4, 32)
	require.NoError(t, err)

	require.Equal(t, k1, k2)
	for p := 0; p < 3; p++ {
		require.Len(t, k1[p].Levels, table.Levels)
	}
}

func TestFssfmiBundleReproducibleAndSized(t *testing.T) {
	table := testTable(t)
	const maxSteps = 5

	d1 := dealer.NewDealer([]byte("fssfmi-secret"))
	d2 := dealer.NewDealer([]byte("fssfmi-secret"))

	k1, err := d1.FssfmiBundle(table, maxSteps, 3, 4, 32)
	require.NoError(t, err)
	k2, err := d2.FssfmiBundle(table, maxSteps, 3, 4, 32)
	require.NoError(t, err)

	require.Equal(t, k1, k2)
	for p := 0; p < 3; p++ {
		require.Len(t, k1[p].Steps, maxSteps)
	}
}

func TestRootKeysIndependentOfDrawOrder(t *testing.T) {
	d1 := dealer.NewDealer([]byte("root-secret"))
	d2 := dealer.NewDealer([]byte("root-secret"))

	// Interleave an unrelated draw-stream consumer before RootKeys on d1
	// only; RootKeys derives independently via its own HKDF expansion, so
	// it must still agree with d2's untouched call.
	_, err := d1.OblivSelectBundle(4, 32)
	require.NoError(t, err)

	rk1, err := d1.RootKeys()
	require.NoError(t, err)
	rk2, err := d2.RootKeys()
	require.NoError(t, err)
	require.Equal(t, rk1, rk2)
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	f1 := dealer.Fingerprint(1, 2, 3)
	f2 := dealer.Fingerprint(1, 2, 3)
	f3 := dealer.Fingerprint(1, 2, 4)

	require.Equal(t, f1, f2)
	require.NotEqual(t, f1, f3)
}

func TestOblivSelectBundleRespectsWideRingBits(t *testing.T) {
	d := dealer.NewDealer([]byte("wide-ring-secret"))
	k, err := d.OblivSelectBundle(4, 64)
	require.NoError(t, err)
	require.Equal(t, uint8(64), k[0].RingBits)
}
