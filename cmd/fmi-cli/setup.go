package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luxfi/securesearch/internal/dealer"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/pkg/config"
	"github.com/luxfi/securesearch/pkg/party"
)

var (
	setupTextFile    string
	setupMaxPattern  int
	setupSigmaBits   uint8
	setupRingBits    uint8
	setupMasterHex   string
	setupRosterAddrs []string

	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Build the public FM-index and run the offline dealer",
		Long: `Reads a text corpus, builds its public BWT/wavelet-matrix table, then runs
the offline trusted dealer to produce one key bundle per party (spec.md
§3.3/§8's OfflineSetup).`,
		RunE: runSetup,
	}

	keygenCmd = &cobra.Command{
		Use:   "keygen",
		Short: "Regenerate key bundles for an existing index",
		Long: `Re-runs the offline dealer against an index already built by setup,
using the same or a freshly-provided master secret. Running this twice with
the same secret and index reproduces bit-identical bundles (spec.md §8
"Idempotence of offline setup").`,
		RunE: runKeygen,
	}
)

func init() {
	setupCmd.Flags().StringVarP(&setupTextFile, "text", "t", "", "Corpus file to index: plain text, or FASTA (.fa/.fasta) (required)")
	setupCmd.Flags().IntVar(&setupMaxPattern, "max-pattern", 32, "Maximum query pattern length to provision keys for")
	setupCmd.Flags().Uint8Var(&setupSigmaBits, "sigma-bits", 5, "Alphabet code bit width (sigma)")
	setupCmd.Flags().Uint8Var(&setupRingBits, "ring-bits", 32, "Arithmetic ring width in bits")
	setupCmd.Flags().StringVar(&setupMasterHex, "master-secret", "", "Hex-encoded master secret (random if omitted)")
	setupCmd.Flags().StringSliceVar(&setupRosterAddrs, "peer", nil, "party=address entries for the roster, e.g. 0=127.0.0.1:9000 (optional)")
	setupCmd.MarkFlagRequired("text")

	keygenCmd.Flags().IntVar(&setupMaxPattern, "max-pattern", 32, "Maximum query pattern length to provision keys for")
	keygenCmd.Flags().Uint8Var(&setupSigmaBits, "sigma-bits", 5, "Alphabet code bit width (sigma)")
	keygenCmd.Flags().Uint8Var(&setupRingBits, "ring-bits", 32, "Arithmetic ring width in bits")
	keygenCmd.Flags().StringVar(&setupMasterHex, "master-secret", "", "Hex-encoded master secret (required)")
	keygenCmd.MarkFlagRequired("master-secret")
}

func runSetup(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(setupTextFile)
	if err != nil {
		return fmt.Errorf("reading corpus: %w", err)
	}
	text := raw
	if isFastaPath(setupTextFile) {
		text = readFastaSequence(raw)
	}

	table := fmindex.BuildTable(fmindex.Build(text))
	if verbose {
		fmt.Printf("built index: N=%d, levels=%d, alphabet=%d symbols\n", table.N, table.Levels, len(table.Alphabet))
	}

	domainBits := bitsForDomain(table.N + 1)

	master, err := resolveMasterSecret(setupMasterHex)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := writeIndex(table); err != nil {
		return err
	}
	if err := writeBundles(table, master, domainBits); err != nil {
		return err
	}
	if err := writeRoster(); err != nil {
		return err
	}

	fmt.Printf("Setup complete. Master secret: %s\n", hex.EncodeToString(master))
	fmt.Printf("Index and key bundles written to: %s\n", dataDir)
	return nil
}

func runKeygen(cmd *cobra.Command, args []string) error {
	table, err := readIndex()
	if err != nil {
		return err
	}
	master, err := hex.DecodeString(setupMasterHex)
	if err != nil {
		return fmt.Errorf("decoding master secret: %w", err)
	}
	domainBits := bitsForDomain(table.N + 1)
	if err := writeBundles(table, master, domainBits); err != nil {
		return err
	}
	fmt.Printf("Key bundles regenerated from existing master secret in: %s\n", dataDir)
	return nil
}

func resolveMasterSecret(hexSecret string) ([]byte, error) {
	if hexSecret != "" {
		return hex.DecodeString(hexSecret)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("drawing random master secret: %w", err)
	}
	return buf, nil
}

func isFastaPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".fa" || ext == ".fasta"
}

// readFastaSequence concatenates every non-header line of a FASTA file into
// one uppercase sequence, dropping lines starting with '>' (grounded on
// original_source's RingOA/utils/seq_io.h ReadFastaSequence).
func readFastaSequence(raw []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		if len(line) == 0 || line[0] == '>' {
			continue
		}
		out = append(out, bytes.ToUpper(line)...)
	}
	return out
}

// bitsForDomain returns ceil(log2(n)), the key-generation domain width
// OblivSelect/FssWM need to index n public positions.
func bitsForDomain(n int) uint8 {
	var bits uint8
	for (1 << bits) < n {
		bits++
	}
	if bits == 0 {
		bits = 1
	}
	return bits
}

func indexPath() string  { return filepath.Join(dataDir, "index.json") }
func rosterPath() string { return filepath.Join(dataDir, "roster.json") }
func bundlePath(id party.ID) string {
	return filepath.Join(dataDir, fmt.Sprintf("party-%d.bundle", id))
}

func writeIndex(table fmindex.PublicTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}
	if err := os.WriteFile(indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

func readIndex() (fmindex.PublicTable, error) {
	data, err := os.ReadFile(indexPath())
	if err != nil {
		return fmindex.PublicTable{}, fmt.Errorf("reading index: %w", err)
	}
	var table fmindex.PublicTable
	if err := json.Unmarshal(data, &table); err != nil {
		return fmindex.PublicTable{}, fmt.Errorf("unmarshaling index: %w", err)
	}
	return table, nil
}

func writeBundles(table fmindex.PublicTable, master []byte, domainBits uint8) error {
	d := dealer.NewDealer(master)

	rootKeys, err := d.RootKeys()
	if err != nil {
		return fmt.Errorf("deriving root keys: %w", err)
	}
	fsswmKeys, err := d.FsswmBundle(table, domainBits, setupRingBits)
	if err != nil {
		return fmt.Errorf("generating fsswm bundle: %w", err)
	}
	fssfmiKeys, err := d.FssfmiBundle(table, setupMaxPattern, setupSigmaBits, domainBits, setupRingBits)
	if err != nil {
		return fmt.Errorf("generating fssfmi bundle: %w", err)
	}
	fp := dealer.Fingerprint(uint64(table.N), uint64(table.Levels), uint64(setupMaxPattern), uint64(domainBits), uint64(setupRingBits))

	for _, id := range party.All() {
		b := config.Bundle{
			PartyID:     id,
			Generation:  d.Generation(),
			Fingerprint: fp,
			RootKeys:    rootKeys,
			FsswmKey:    fsswmKeys[id],
			FssfmiKey:   fssfmiKeys[id],
		}
		if err := b.WriteFile(bundlePath(id)); err != nil {
			return err
		}
	}
	return nil
}

func writeRoster() error {
	var r config.Roster
	if len(setupRosterAddrs) == 0 {
		r = config.Roster{Peers: [3]config.Peer{
			{ID: party.P0, Address: "127.0.0.1:9100"},
			{ID: party.P1, Address: "127.0.0.1:9101"},
			{ID: party.P2, Address: "127.0.0.1:9102"},
		}}
	} else {
		var parsed [3]config.Peer
		for _, entry := range setupRosterAddrs {
			var idNum int
			var addr string
			if _, err := fmt.Sscanf(entry, "%d=%s", &idNum, &addr); err != nil {
				return fmt.Errorf("parsing --peer %q: %w", entry, err)
			}
			id := party.ID(idNum)
			if err := id.Validate(); err != nil {
				return fmt.Errorf("parsing --peer %q: %w", entry, err)
			}
			parsed[id] = config.Peer{ID: id, Address: addr}
		}
		r = config.Roster{Peers: parsed}
	}
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshaling roster: %w", err)
	}
	if err := os.WriteFile(rosterPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}
	return nil
}
