package fssfmi_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/fssfmi"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/party"
)

type simHub struct {
	mu    sync.Mutex
	chans map[string]chan []byte
}

func newSimHub() *simHub { return &simHub{chans: make(map[string]chan []byte)} }

func (h *simHub) chanFor(from, to party.ID, round int) chan []byte {
	key := fmt.Sprintf("%d->%d@%d", from, to, round)
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.chans[key]
	if !ok {
		c = make(chan []byte, 1)
		h.chans[key] = c
	}
	return c
}

type simRing struct {
	self party.ID
	hub  *simHub
}

func (r *simRing) SendPrev(round int, data []byte) error {
	r.hub.chanFor(r.self, r.self.Prev(), round) <- append([]byte(nil), data...)
	return nil
}
func (r *simRing) SendNext(round int, data []byte) error {
	r.hub.chanFor(r.self, r.self.Next(), round) <- append([]byte(nil), data...)
	return nil
}
func (r *simRing) RecvPrev(round int) ([]byte, error) {
	return <-r.hub.chanFor(r.self.Prev(), r.self, round), nil
}
func (r *simRing) RecvNext(round int) ([]byte, error) {
	return <-r.hub.chanFor(r.self.Next(), r.self, round), nil
}

func newSimRings() [3]*simRing {
	hub := newSimHub()
	return [3]*simRing{{self: party.P0, hub: hub}, {self: party.P1, hub: hub}, {self: party.P2, hub: hub}}
}

func run3(fn func(id party.ID) error) []error {
	errs := make([]error, 3)
	done := make(chan struct{}, 3)
	for _, id := range party.All() {
		id := id
		go func() { errs[id] = fn(id); done <- struct{}{} }()
	}
	for i := 0; i < 3; i++ {
		<-done
	}
	return errs
}

func testEngines(seed string) [3]*corr.Engine {
	keys, err := corr.DeriveRootKeys([]byte(seed))
	if err != nil {
		panic(err)
	}
	var engines [3]*corr.Engine
	for _, id := range party.All() {
		engines[id] = corr.EngineFor(id, keys)
	}
	return engines
}

func charCodeBits(code, levels int) []int {
	bits := make([]int, levels)
	for l := 0; l < levels; l++ {
		shift := levels - 1 - l
		bits[l] = (code >> shift) & 1
	}
	return bits
}

func shareScalar(v uint64, bits uint8) [3]rss.Share {
	return rss.ShareArithLocal(rss.NewScalar(v, bits), rss.NewScalar(1, bits), rss.NewScalar(2, bits))
}

func buildKey(t *testing.T, table fmindex.PublicTable, pattern []byte, sigmaBits, domainBits, ringBits uint8) ([3]fssfmi.Key, [3][]rss.Share, [3][][]rss.Share) {
	n := len(pattern)
	seeds := make([]fssfmi.StepSeed, n)
	for i := range seeds {
		rankMasks := make([]uint64, table.Levels)
		rankShares := make([][3]rss.Share, table.Levels)
		for l := range rankMasks {
			rankMasks[l] = uint64(2 + l + i)
			rankShares[l] = shareScalar(rankMasks[l], domainBits)
		}
		seeds[i] = fssfmi.StepSeed{
			CountLessMask:   uint64(i + 1),
			CountLessShares: shareScalar(uint64(i+1), sigmaBits),
			RankMasks:       rankMasks,
			RankShares:      rankShares,
			HaltMask:        uint64(i + 3),
			HaltShares:      shareScalar(uint64(i+3), ringBits),
		}
	}
	keys, err := fssfmi.KeyGen(table, sigmaBits, domainBits, ringBits, seeds)
	require.NoError(t, err)

	var codeShares [3][]rss.Share
	var bitShares [3][][]rss.Share
	for p := 0; p < 3; p++ {
		codeShares[p] = make([]rss.Share, n)
		bitShares[p] = make([][]rss.Share, n)
		for i := range bitShares[p] {
			bitShares[p][i] = make([]rss.Share, table.Levels)
		}
	}
	for i, c := range pattern {
		code := table.CharIndex[c]
		cs := shareScalar(uint64(code), ringBits)
		for p := 0; p < 3; p++ {
			codeShares[p][i] = cs[p]
		}
		bits := charCodeBits(code, table.Levels)
		for l, b := range bits {
			bs := shareScalar(uint64(b), ringBits)
			for p := 0; p < 3; p++ {
				bitShares[p][i][l] = bs[p]
			}
		}
	}
	return keys, codeShares, bitShares
}

func TestLongestPrefixMatchFullMatch(t *testing.T) {
	const sigmaBits, domainBits, ringBits = 3, 4, 32

	text := []byte("GATTACA")
	bwt := fmindex.Build(text)
	table := fmindex.BuildTable(bwt)
	require.Less(t, table.N+1, 1<<domainBits)

	pattern := []byte("ATTACA")
	wantMatched, _, _ := table.LongestPrefixMatch(pattern)
	// Pinned to spec.md §8 scenario 6: a pattern equal to the indexed text
	// minus its leading character must match in full, independent of
	// whatever the plaintext oracle itself computes.
	require.Equal(t, 6, wantMatched)

	keys, codeShares, bitShares := buildKey(t, table, pattern, sigmaBits, domainBits, ringBits)

	rings := newSimRings()
	results := make([]fssfmi.Result, 3)
	errs := run3(func(id party.ID) error {
		engines := testEngines("fssfmi-full")
		r, _, err := fssfmi.LongestPrefixMatch(rings[id], engines[id], 1, table, keys[id], codeShares[id], bitShares[id])
		results[id] = r
		return err
	})
	for _, e := range errs {
		require.NoError(t, e)
	}

	openRings := newSimRings()
	var matched [3]uint64
	errs = run3(func(id party.ID) error {
		v, err := rss.OpenArith(openRings[id], 100000, results[id].Matched, ringBits)
		matched[id] = v.Uint64()
		return err
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	for _, v := range matched {
		require.Equal(t, uint64(wantMatched), v)
	}
}

func TestLongestPrefixMatchHaltsEarly(t *testing.T) {
	const sigmaBits, domainBits, ringBits = 3, 4, 32

	text := []byte("GATTACA")
	bwt := fmindex.Build(text)
	table := fmindex.BuildTable(bwt)

	pattern := []byte("GATTG")
	wantMatched, _, _ := table.LongestPrefixMatch(pattern)
	require.Less(t, wantMatched, len(pattern))
	// Pinned to spec.md §8 scenario 6's literal expected value: "GATTG"
	// against "GATTACA" matches only the "GATT" prefix before halting.
	require.Equal(t, 4, wantMatched)

	keys, codeShares, bitShares := buildKey(t, table, pattern, sigmaBits, domainBits, ringBits)

	rings := newSimRings()
	results := make([]fssfmi.Result, 3)
	errs := run3(func(id party.ID) error {
		engines := testEngines("fssfmi-halt")
		r, _, err := fssfmi.LongestPrefixMatch(rings[id], engines[id], 1, table, keys[id], codeShares[id], bitShares[id])
		results[id] = r
		return err
	})
	for _, e := range errs {
		require.NoError(t, e)
	}

	openRings := newSimRings()
	var matched [3]uint64
	errs = run3(func(id party.ID) error {
		v, err := rss.OpenArith(openRings[id], 100000, results[id].Matched, ringBits)
		matched[id] = v.Uint64()
		return err
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	for _, v := range matched {
		require.Equal(t, uint64(wantMatched), v)
	}
}
