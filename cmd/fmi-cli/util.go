package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/luxfi/securesearch/pkg/config"
)

// randScalarUint64 draws a uniform mask for the CLI's client-side
// pattern-sharing step (runQuery's sharePattern/localShare), independent of
// internal/dealer's deterministic HKDF stream: the querying client is not
// the offline dealer and has no reproducibility requirement to honor.
func randScalarUint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("fmi-cli: reading random mask: %v", err))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func writeFileStrict(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readFileStrict(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func readRoster() (config.Roster, error) {
	data, err := readFileStrict(rosterPath())
	if err != nil {
		return config.Roster{}, err
	}
	var r config.Roster
	if err := r.UnmarshalJSON(data); err != nil {
		return config.Roster{}, fmt.Errorf("parsing roster: %w", err)
	}
	return r, nil
}
