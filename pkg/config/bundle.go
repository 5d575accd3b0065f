package config

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/fssfmi"
	"github.com/luxfi/securesearch/internal/fsswm"
	"github.com/luxfi/securesearch/pkg/fmerr"
	"github.com/luxfi/securesearch/pkg/party"
)

// Bundle is one party's complete key material for a single FM-index
// session: the pairwise correlated-randomness root keys (spec.md §4.4) and
// the two protocol-level key sets FssFMI's longest-prefix-match needs
// (which in turn embed FssWM's per-level rank keys, spec.md §4.7/§4.8).
// Generation and Fingerprint are diagnostic, not load-bearing: two dealers
// given the same master secret reproduce identical Bundles (internal/dealer
// idempotence), and Fingerprint lets an operator confirm that without
// diffing the raw key material.
type Bundle struct {
	PartyID     party.ID
	Generation  uint64
	Fingerprint [32]byte
	RootKeys    corr.RootKeys
	FsswmKey    fsswm.Key
	FssfmiKey   fssfmi.Key
}

// Marshal encodes b as CBOR (spec.md §6.2 covers the inner DPF key layout;
// the envelope around it is this package's own, since the spec explicitly
// scopes "on-disk key serialization layout beyond the wire format" out of
// its required surface).
func (b Bundle) Marshal() ([]byte, error) {
	data, err := cbor.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("config: marshaling key bundle: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a Bundle previously written by Marshal.
func Unmarshal(data []byte) (Bundle, error) {
	var b Bundle
	if err := cbor.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("config: unmarshaling key bundle: %w", err)
	}
	if err := b.PartyID.Validate(); err != nil {
		return Bundle{}, fmt.Errorf("%w: config: key bundle: %v", fmerr.ErrParameterInvalid, err)
	}
	return b, nil
}

// WriteFile marshals b and writes it to path with owner-only permissions,
// matching the teacher's 0600 convention for key material.
func (b Bundle) WriteFile(path string) error {
	data, err := b.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing key bundle %s: %w", path, err)
	}
	return nil
}

// ReadBundleFile reads and decodes a Bundle previously written by
// WriteFile.
func ReadBundleFile(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("config: reading key bundle %s: %w", path, err)
	}
	return Unmarshal(data)
}
