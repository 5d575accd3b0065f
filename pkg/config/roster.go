// Package config implements spec.md §6.2's offline-dealer-to-party
// handoff: a JSON party roster (who is P0/P1/P2 and where to dial them)
// plus a CBOR-encoded key-bundle envelope carrying one party's share of
// every key internal/dealer generated for a session.
//
// Grounded on the teacher's protocols/lss/config/marshal.go: plain JSON
// for the roster (every field of a party's identity is textual, so there
// is no shadow struct and no binary field), and (new, since the teacher
// never needed it) a raw CBOR envelope for the
// cryptographic key material, which has no natural JSON representation
// and no human-editable reason to have one.
package config

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/luxfi/securesearch/pkg/party"
)

// Peer is one party's network identity in the roster.
type Peer struct {
	ID      party.ID `json:"id"`
	Address string   `json:"address"`
}

// Roster is the full three-party address book, loaded identically by
// every party before dialing its prev/next connections.
type Roster struct {
	Peers [3]Peer `json:"peers"`
}

// MarshalJSON follows the teacher's pattern of a plain json.Marshal over an
// already-JSON-friendly shadow shape; Roster needs no shadow struct since
// none of its fields are binary.
func (r Roster) MarshalJSON() ([]byte, error) {
	type alias Roster
	return json.Marshal(alias(r))
}

// UnmarshalJSON validates the decoded roster names exactly P0, P1, P2 once
// each, in any order (spec.md §4.3's fixed 3-party ring).
func (r *Roster) UnmarshalJSON(data []byte) error {
	type alias Roster
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var seen [3]bool
	for _, p := range a.Peers {
		if err := p.ID.Validate(); err != nil {
			return fmt.Errorf("config: roster: %w", err)
		}
		if seen[p.ID] {
			return fmt.Errorf("config: roster: party %s listed twice", p.ID)
		}
		seen[p.ID] = true
	}
	for id, ok := range seen {
		if !ok {
			return fmt.Errorf("config: roster: missing party P%d", id)
		}
	}
	*r = Roster(a)
	return nil
}

// AddressOf returns the dial address for id, or an error if id isn't in
// the roster.
func (r Roster) AddressOf(id party.ID) (string, error) {
	for _, p := range r.Peers {
		if p.ID == id {
			return p.Address, nil
		}
	}
	return "", fmt.Errorf("config: roster: no entry for party %s", id)
}

// DialPrevNext dials both ring neighbors of self using the roster, in
// (prev, next) order, for handing to transport.NewConn.
func DialPrevNext(r Roster, self party.ID) (prev, next net.Conn, err error) {
	prevAddr, err := r.AddressOf(self.Prev())
	if err != nil {
		return nil, nil, err
	}
	nextAddr, err := r.AddressOf(self.Next())
	if err != nil {
		return nil, nil, err
	}
	prev, err = net.Dial("tcp", prevAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("config: dialing prev party %s at %s: %w", self.Prev(), prevAddr, err)
	}
	next, err = net.Dial("tcp", nextAddr)
	if err != nil {
		_ = prev.Close()
		return nil, nil, fmt.Errorf("config: dialing next party %s at %s: %w", self.Next(), nextAddr, err)
	}
	return prev, next, nil
}
