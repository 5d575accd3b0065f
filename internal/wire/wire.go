// Package wire implements the §6.1 wire codec and §6.2 key file format:
// little-endian framing for u64/Block/vector/RepShare values exchanged
// between parties, plus a packed binary encoding for internal/dpf.Key
// carrying a mandatory self-consistency check (actual serialized length ==
// computed serialized_size) on both the write and read paths. The
// composite keys built on top of dpf.Key have no encoder in this package.
//
// Field order always follows the declaration order of the type being
// serialized (spec.md §6.2, "field order exactly as listed in §3.3").
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/luxfi/securesearch/internal/block"
	"github.com/luxfi/securesearch/internal/dpf"
	"github.com/luxfi/securesearch/pkg/fmerr"
)

// PutUint64 appends v to buf in little-endian order.
func PutUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// GetUint64 reads a little-endian u64 from the front of buf, returning the
// value and the remaining bytes.
func GetUint64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, fmt.Errorf("%w: wire u64 needs 8 bytes, got %d", fmerr.ErrSerializationLengthMismatch, len(buf))
	}
	return binary.LittleEndian.Uint64(buf[:8]), buf[8:], nil
}

// PutBlock appends b's 16-byte little-endian encoding to buf.
func PutBlock(buf []byte, b block.Block) []byte {
	bs := b.Bytes()
	return append(buf, bs[:]...)
}

// GetBlock reads a 16-byte Block from the front of buf.
func GetBlock(buf []byte) (block.Block, []byte, error) {
	if len(buf) < 16 {
		return block.Block{}, nil, fmt.Errorf("%w: wire block needs 16 bytes, got %d", fmerr.ErrSerializationLengthMismatch, len(buf))
	}
	return block.FromBytes(buf[:16]), buf[16:], nil
}

// PutByte appends a single byte to buf.
func PutByte(buf []byte, b byte) []byte { return append(buf, b) }

// GetByte reads one byte from the front of buf.
func GetByte(buf []byte) (byte, []byte, error) {
	if len(buf) < 1 {
		return 0, nil, fmt.Errorf("%w: wire byte needs 1 byte, got 0", fmerr.ErrSerializationLengthMismatch)
	}
	return buf[0], buf[1:], nil
}

// PutVectorU64 appends a length-prefixed u64 vector: len (u64) followed by
// len*8 bytes (spec.md §6.1, "Vector sends are len (u64) followed by
// len × sizeof(elem) bytes").
func PutVectorU64(buf []byte, v []uint64) []byte {
	buf = PutUint64(buf, uint64(len(v)))
	for _, x := range v {
		buf = PutUint64(buf, x)
	}
	return buf
}

// GetVectorU64 reads a length-prefixed u64 vector from the front of buf.
func GetVectorU64(buf []byte) ([]uint64, []byte, error) {
	n, rest, err := GetUint64(buf)
	if err != nil {
		return nil, nil, err
	}
	out := make([]uint64, n)
	for i := range out {
		out[i], rest, err = GetUint64(rest)
		if err != nil {
			return nil, nil, err
		}
	}
	return out, rest, nil
}

// WriteFrame sends buf on w length-framed by a leading u64 (the transport
// layer's own framing, spec.md §6.1 "length-framed by the transport").
func WriteFrame(w io.Writer, buf []byte) error {
	var hdr [8]byte
	binary.LittleEndian.PutUint64(hdr[:], uint64(len(buf)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("%w: wire frame header: %v", fmerr.ErrTransportFailure, err)
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("%w: wire frame body: %v", fmerr.ErrTransportFailure, err)
	}
	return nil
}

// ReadFrame reads one length-framed message from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: wire frame header: %v", fmerr.ErrTransportFailure, err)
	}
	n := binary.LittleEndian.Uint64(hdr[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: wire frame body: %v", fmerr.ErrTransportFailure, err)
	}
	return buf, nil
}

// DPFKeySerializedSize computes the exact serialized byte count for a
// dpf.Key with the given cw length, per §6.2's field list: party_id (8) +
// init_seed (16) + cw_length (8) + cw_seed[] (16 each) + cw_ctrl_left[]
// (1 each) + cw_ctrl_right[] (1 each) + output (16).
func DPFKeySerializedSize(cwLen int) int {
	return 8 + 16 + 8 + cwLen*16 + cwLen*1 + cwLen*1 + 16
}

// MarshalDPFKey encodes k per §6.2's field order. For ShiftedAdditive keys
// the 8-byte OutputScalar is written into the low 8 bytes of the 16-byte
// output field, high 8 bytes zero; for SingleBitMask keys the full
// OutputBlock fills the field.
func MarshalDPFKey(k dpf.Key) ([]byte, error) {
	size := DPFKeySerializedSize(len(k.CW))
	buf := make([]byte, 0, size)
	buf = PutUint64(buf, uint64(k.PartyID))
	buf = PutBlock(buf, k.InitSeed)
	buf = PutUint64(buf, uint64(len(k.CW)))
	for _, cw := range k.CW {
		buf = PutBlock(buf, cw.Seed)
	}
	for _, cw := range k.CW {
		buf = PutByte(buf, cw.CtrlL)
	}
	for _, cw := range k.CW {
		buf = PutByte(buf, cw.CtrlR)
	}
	var out block.Block
	switch k.Params.OutputMode {
	case dpf.SingleBitMask:
		out = k.OutputBlock
	case dpf.ShiftedAdditive:
		out = block.FromHalves(k.OutputScalar, 0)
	}
	buf = PutBlock(buf, out)

	if len(buf) != size {
		return nil, fmt.Errorf("%w: dpf key marshal produced %d bytes, want %d", fmerr.ErrSerializationLengthMismatch, len(buf), size)
	}
	return buf, nil
}

// UnmarshalDPFKey decodes a dpf.Key previously written by MarshalDPFKey.
// Params must be supplied by the caller (spec.md §6.2: "lengths are
// derivable from the parameters", which live in the enclosing composite
// key or session config, not in the DPF key stream itself) since OutputMode
// determines whether the trailing field is read as a Block or a Scalar.
func UnmarshalDPFKey(buf []byte, p dpf.Params) (dpf.Key, error) {
	partyID, rest, err := GetUint64(buf)
	if err != nil {
		return dpf.Key{}, err
	}
	initSeed, rest, err := GetBlock(rest)
	if err != nil {
		return dpf.Key{}, err
	}
	cwLen, rest, err := GetUint64(rest)
	if err != nil {
		return dpf.Key{}, err
	}
	want := DPFKeySerializedSize(int(cwLen))
	if len(buf) != want {
		return dpf.Key{}, fmt.Errorf("%w: dpf key has %d bytes, cw_length %d implies %d", fmerr.ErrSerializationLengthMismatch, len(buf), cwLen, want)
	}

	seeds := make([]block.Block, cwLen)
	for i := range seeds {
		seeds[i], rest, err = GetBlock(rest)
		if err != nil {
			return dpf.Key{}, err
		}
	}
	ctrlL := make([]byte, cwLen)
	for i := range ctrlL {
		ctrlL[i], rest, err = GetByte(rest)
		if err != nil {
			return dpf.Key{}, err
		}
	}
	ctrlR := make([]byte, cwLen)
	for i := range ctrlR {
		ctrlR[i], rest, err = GetByte(rest)
		if err != nil {
			return dpf.Key{}, err
		}
	}
	outBlock, rest, err := GetBlock(rest)
	if err != nil {
		return dpf.Key{}, err
	}
	if len(rest) != 0 {
		return dpf.Key{}, fmt.Errorf("%w: dpf key has %d trailing bytes", fmerr.ErrSerializationLengthMismatch, len(rest))
	}

	cws := make([]dpf.CW, cwLen)
	for i := range cws {
		cws[i] = dpf.CW{Seed: seeds[i], CtrlL: ctrlL[i], CtrlR: ctrlR[i]}
	}

	k := dpf.Key{PartyID: byte(partyID), InitSeed: initSeed, CW: cws, Params: p}
	switch p.OutputMode {
	case dpf.SingleBitMask:
		k.OutputBlock = outBlock
	case dpf.ShiftedAdditive:
		k.OutputScalar = outBlock.Half(0)
	}
	return k, nil
}
