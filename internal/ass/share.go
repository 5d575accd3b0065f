// Package ass implements two-party additive sharing (ASS) over both the
// ring Z/2^d and the binary group, used where spec.md §4.3 calls for a
// pairwise sub-protocol rather than the full three-party replicated share
// (internal/rss). Multiplication consumes one Beaver triple and two
// rounds of opening.
package ass

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/securesearch/pkg/fmerr"
)

// Link is the two-party duplex byte-stream abstraction ASS needs: send to
// and receive from the single other party. Deliberately narrower than
// rss.Ring (which is three-party), and defined locally for the same reason
// rss.Ring is defined locally in internal/rss: avoid importing pkg/transport
// from an internal protocol package.
type Link interface {
	Send(round int, data []byte) error
	Recv(round int) ([]byte, error)
}

// Share is one party's additive share of a value mod 2^d: the plaintext is
// the sum of both parties' Share.V mod 2^d.
type Share struct {
	V uint64
	D uint8
}

func mask(v uint64, d uint8) uint64 {
	if d >= 64 {
		return v
	}
	return v & (uint64(1)<<d - 1)
}

// NewShare builds a Share, masking v to d bits.
func NewShare(v uint64, d uint8) Share { return Share{V: mask(v, d), D: d} }

// SplitLocal additively splits x into two shares given one party's random
// mask r (the other party's share is computed as x-r).
func SplitLocal(x uint64, r uint64, d uint8) (a, b Share) {
	a = NewShare(r, d)
	b = NewShare(x-r, d)
	return
}

// Add computes x+y locally.
func (x Share) Add(y Share) Share { return NewShare(x.V+y.V, x.D) }

// Sub computes x-y locally.
func (x Share) Sub(y Share) Share { return NewShare(x.V-y.V, x.D) }

// Neg computes -x locally.
func (x Share) Neg() Share { return NewShare(0-x.V, x.D) }

// AddConst adds a known public constant.
func (x Share) AddConst(c uint64) Share { return NewShare(x.V+c, x.D) }

// Open reconstructs the plaintext value, exchanging one message with the
// other party.
func Open(link Link, round int, x Share) (uint64, error) {
	if err := sendVal(link, round, x.V); err != nil {
		return 0, err
	}
	other, err := recvVal(link, round)
	if err != nil {
		return 0, err
	}
	return mask(x.V+other, x.D), nil
}

func sendVal(link Link, round int, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if err := link.Send(round, buf[:]); err != nil {
		return fmt.Errorf("%w: ass send round %d: %v", fmerr.ErrTransportFailure, round, err)
	}
	return nil
}

func recvVal(link Link, round int) (uint64, error) {
	data, err := link.Recv(round)
	if err != nil {
		return 0, fmt.Errorf("%w: ass recv round %d: %v", fmerr.ErrTransportFailure, round, err)
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: ass recv round %d got %d bytes, want 8", fmerr.ErrSerializationLengthMismatch, round, len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}
