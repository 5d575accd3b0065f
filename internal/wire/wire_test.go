package wire_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/securesearch/internal/dpf"
	"github.com/luxfi/securesearch/internal/wire"
)

func TestUint64RoundTrip(t *testing.T) {
	buf := wire.PutUint64(nil, 0xdeadbeefcafef00d)
	v, rest, err := wire.GetUint64(buf)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, uint64(0xdeadbeefcafef00d), v)
}

func TestVectorU64RoundTrip(t *testing.T) {
	in := []uint64{1, 2, 3, 4, 5}
	buf := wire.PutVectorU64(nil, in)
	out, rest, err := wire.GetVectorU64(buf)
	require.NoError(t, err)
	require.Empty(t, rest)
	require.Equal(t, in, out)
}

func TestFrameRoundTrip(t *testing.T) {
	var conn bytes.Buffer
	payload := []byte("hello secure search")
	require.NoError(t, wire.WriteFrame(&conn, payload))
	got, err := wire.ReadFrame(&conn)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestDPFKeyRoundTripShiftedAdditive(t *testing.T) {
	p := dpf.Params{N: 6, E: 32, OutputMode: dpf.ShiftedAdditive, EvalType: dpf.Naive}
	k0, _, err := dpf.KeyGen(5, 7, p)
	require.NoError(t, err)

	buf, err := wire.MarshalDPFKey(k0)
	require.NoError(t, err)
	require.Len(t, buf, wire.DPFKeySerializedSize(len(k0.CW)))

	got, err := wire.UnmarshalDPFKey(buf, p)
	require.NoError(t, err)
	require.Equal(t, k0.PartyID, got.PartyID)
	require.True(t, k0.InitSeed.Equal(got.InitSeed))
	require.Equal(t, k0.OutputScalar, got.OutputScalar)
	require.Len(t, got.CW, len(k0.CW))
	for i := range k0.CW {
		require.True(t, k0.CW[i].Seed.Equal(got.CW[i].Seed))
		require.Equal(t, k0.CW[i].CtrlL, got.CW[i].CtrlL)
		require.Equal(t, k0.CW[i].CtrlR, got.CW[i].CtrlR)
	}
}

func TestDPFKeyRoundTripSingleBitMask(t *testing.T) {
	p := dpf.Params{N: 6, OutputMode: dpf.SingleBitMask, EvalType: dpf.Naive}
	_, k1, err := dpf.KeyGen(9, 1, p)
	require.NoError(t, err)

	buf, err := wire.MarshalDPFKey(k1)
	require.NoError(t, err)

	got, err := wire.UnmarshalDPFKey(buf, p)
	require.NoError(t, err)
	require.True(t, k1.OutputBlock.Equal(got.OutputBlock))
}

func TestDPFKeyUnmarshalRejectsLengthMismatch(t *testing.T) {
	p := dpf.Params{N: 6, E: 32, OutputMode: dpf.ShiftedAdditive, EvalType: dpf.Naive}
	k0, _, err := dpf.KeyGen(5, 7, p)
	require.NoError(t, err)

	buf, err := wire.MarshalDPFKey(k0)
	require.NoError(t, err)

	_, err = wire.UnmarshalDPFKey(buf[:len(buf)-1], p)
	require.Error(t, err)
}
