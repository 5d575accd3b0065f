package config_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/securesearch/internal/dealer"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/pkg/config"
	"github.com/luxfi/securesearch/pkg/party"
)

func TestRosterJSONRoundTrip(t *testing.T) {
	r := config.Roster{Peers: [3]config.Peer{
		{ID: party.P0, Address: "10.0.0.1:9000"},
		{ID: party.P1, Address: "10.0.0.2:9000"},
		{ID: party.P2, Address: "10.0.0.3:9000"},
	}}
	data, err := r.MarshalJSON()
	require.NoError(t, err)

	var got config.Roster
	require.NoError(t, got.UnmarshalJSON(data))
	require.Equal(t, r, got)

	addr, err := got.AddressOf(party.P1)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.2:9000", addr)
}

func TestRosterRejectsMissingParty(t *testing.T) {
	var got config.Roster
	err := got.UnmarshalJSON([]byte(`{"peers":[{"id":0,"address":"a"},{"id":0,"address":"b"},{"id":2,"address":"c"}]}`))
	require.Error(t, err)
}

func TestBundleCBORRoundTrip(t *testing.T) {
	bwt := fmindex.Build([]byte("GATTACA"))
	table := fmindex.BuildTable(bwt)

	d := dealer.NewDealer([]byte("bundle-test-secret"))
	rootKeys, err := d.RootKeys()
	require.NoError(t, err)
	fsswmKeys, err := d.FsswmBundle(table, 4, 32)
	require.NoError(t, err)
	fssfmiKeys, err := d.FssfmiBundle(table, 3, 3, 4, 32)
	require.NoError(t, err)

	b := config.Bundle{
		PartyID:     party.P1,
		Generation:  d.Generation(),
		Fingerprint: dealer.Fingerprint(1, 2, 3),
		RootKeys:    rootKeys,
		FsswmKey:    fsswmKeys[party.P1],
		FssfmiKey:   fssfmiKeys[party.P1],
	}

	data, err := b.Marshal()
	require.NoError(t, err)

	got, err := config.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, b.PartyID, got.PartyID)
	require.Equal(t, b.RootKeys, got.RootKeys)
	require.Equal(t, b.Fingerprint, got.Fingerprint)
	require.Len(t, got.FsswmKey.Levels, len(b.FsswmKey.Levels))
	require.Len(t, got.FssfmiKey.Steps, len(b.FssfmiKey.Steps))
}

func TestBundleFileRoundTrip(t *testing.T) {
	bwt := fmindex.Build([]byte("ACACGT"))
	table := fmindex.BuildTable(bwt)

	d := dealer.NewDealer([]byte("bundle-file-secret"))
	rootKeys, err := d.RootKeys()
	require.NoError(t, err)
	fsswmKeys, err := d.FsswmBundle(table, 4, 32)
	require.NoError(t, err)
	fssfmiKeys, err := d.FssfmiBundle(table, 2, 3, 4, 32)
	require.NoError(t, err)

	b := config.Bundle{
		PartyID:    party.P0,
		RootKeys:   rootKeys,
		FsswmKey:   fsswmKeys[party.P0],
		FssfmiKey:  fssfmiKeys[party.P0],
		Generation: d.Generation(),
	}

	path := filepath.Join(t.TempDir(), "party0.bundle")
	require.NoError(t, b.WriteFile(path))

	got, err := config.ReadBundleFile(path)
	require.NoError(t, err)
	require.Equal(t, b.PartyID, got.PartyID)
	require.Equal(t, b.RootKeys, got.RootKeys)
}
