package rss_test

import (
	"fmt"
	"sync"

	"github.com/luxfi/securesearch/pkg/party"
)

// simHub is an in-process simulation of the three pairwise duplex links
// spec.md §1/§5 describe ("three ordered duplex byte streams"), used only
// by tests in this package so internal/rss never needs to import
// pkg/transport.
type simHub struct {
	mu    sync.Mutex
	chans map[string]chan []byte
}

func newSimHub() *simHub {
	return &simHub{chans: make(map[string]chan []byte)}
}

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

// simRing implements rss.Ring for one party over a shared simHub.
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
	return [3]*simRing{
		{self: party.P0, hub: hub},
		{self: party.P1, hub: hub},
		{self: party.P2, hub: hub},
	}
}
