package oblivselect_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/securesearch/internal/oblivselect"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/party"
)

// simHub/simRing mirror internal/rss's test harness: an in-process
// simulation of the three duplex links, scoped to this package's tests.
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

func TestOblivSelectCorrectness(t *testing.T) {
	const domainBits = 4 // N=16 element public database
	const ringMod = 10
	n := uint64(1) << domainBits

	db := make([]uint64, n)
	for i := range db {
		db[i] = uint64(i*7 + 3)
	}

	r := uint64(6)
	rShares := rss.ShareArithLocal(rss.NewScalar(r, domainBits), rss.NewScalar(11, domainBits), rss.NewScalar(22, domainBits))
	keys, err := oblivselect.KeyGen(r, domainBits, ringMod, rShares)
	require.NoError(t, err)

	alpha := uint64(9)
	posShares := rss.ShareArithLocal(rss.NewScalar(alpha, domainBits), rss.NewScalar(3, domainBits), rss.NewScalar(4, domainBits))

	rings := newSimRings()
	var m [3]uint64
	errs := run3(func(id party.ID) error {
		v, err := oblivselect.RevealMaskedIndex(rings[id], 1, posShares[id], keys[id])
		m[id] = v
		return err
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	require.Equal(t, m[0], m[1])
	require.Equal(t, m[1], m[2])

	results := make([]rss.Share, 3)
	errs = run3(func(id party.ID) error {
		s, err := oblivselect.Evaluate(keys[id], m[id], db)
		results[id] = s
		return err
	})
	for _, e := range errs {
		require.NoError(t, e)
	}

	opened := make([]uint64, 3)
	errs = run3(func(id party.ID) error {
		v, err := rss.OpenArith(rings[id], 2, results[id], ringMod)
		opened[id] = v.Uint64()
		return err
	})
	for _, e := range errs {
		require.NoError(t, e)
	}
	want := db[alpha] % (1 << ringMod)
	for _, v := range opened {
		require.Equal(t, want, v)
	}
}
