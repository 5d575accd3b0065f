package main

import (
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/internal/rss"
	"github.com/luxfi/securesearch/pkg/config"
	"github.com/luxfi/securesearch/pkg/party"
	"github.com/luxfi/securesearch/pkg/query"
	"github.com/luxfi/securesearch/pkg/transport"
)

var (
	queryPattern    string
	querySimulate   bool
	queryPartyID    int
	querySharesFile string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a longest-prefix-match query against the indexed corpus",
	Long: `In --simulate mode (the default), runs all three parties in one
process over an in-memory transport, which is enough to exercise the
full protocol end to end without a real deployment (spec.md §6.4 only
requires protocol entry points to take parameters, keys, shares and
channels, not any particular CLI surface).

With --simulate=false, this process acts as a single party (--party) and
dials its ring neighbors from the roster, reading its share of the
pattern from --shares (written by this command's --prepare flag).`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryPattern, "pattern", "p", "", "Pattern to search for (required in --simulate or --prepare mode)")
	queryCmd.Flags().BoolVar(&querySimulate, "simulate", true, "Run all three parties in-process over a simulated transport")
	queryCmd.Flags().IntVar(&queryPartyID, "party", -1, "Party ID (0, 1 or 2) this process acts as, in non-simulate mode")
	queryCmd.Flags().StringVar(&querySharesFile, "shares", "", "Path to this party's pattern-share file, in non-simulate mode")
	queryCmd.Flags().BoolVar(&queryPrepareOnly, "prepare", false, "Only compute and write per-party pattern-share files, then exit")
}

var queryPrepareOnly bool

// patternShares is this party's secret-shared pattern, the piece of the
// protocol spec.md §4.8 leaves to the querying client: the client alone
// knows the pattern in plaintext, splits it into per-party shares, and
// distributes them out of band. CLI-only convenience type, not part of
// any protocol package.
type patternShares struct {
	CodeShares []rss.Share
	BitShares  [][]rss.Share
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryPrepareOnly {
		return runPrepareShares()
	}
	if querySimulate {
		return runQuerySimulate()
	}
	return runQuerySingleParty()
}

func runPrepareShares() error {
	if queryPattern == "" {
		return fmt.Errorf("--pattern is required with --prepare")
	}
	table, err := readIndex()
	if err != nil {
		return err
	}
	shares, err := sharePattern(table, []byte(queryPattern), 32)
	if err != nil {
		return err
	}
	for _, id := range party.All() {
		data, err := cbor.Marshal(shares[id])
		if err != nil {
			return fmt.Errorf("marshaling party %s shares: %w", id, err)
		}
		path := sharesPath(id)
		if err := writeFileStrict(path, data); err != nil {
			return err
		}
	}
	fmt.Printf("Pattern shares written to %s/pattern-shares-P*.cbor\n", dataDir)
	return nil
}

func sharesPath(id party.ID) string {
	return fmt.Sprintf("%s/pattern-shares-P%d.cbor", dataDir, id)
}

// sharePattern splits pattern into replicated arithmetic shares of each
// character's code and per-level bit decomposition, the form
// fssfmi.LongestPrefixMatch expects (spec.md §4.8).
func sharePattern(table fmindex.PublicTable, pattern []byte, ringBits uint8) ([3]patternShares, error) {
	n := len(pattern)
	var out [3]patternShares
	for p := 0; p < 3; p++ {
		out[p] = patternShares{
			CodeShares: make([]rss.Share, n),
			BitShares:  make([][]rss.Share, n),
		}
		for i := 0; i < n; i++ {
			out[p].BitShares[i] = make([]rss.Share, table.Levels)
		}
	}

	for i, c := range pattern {
		code, ok := table.CharIndex[c]
		if !ok {
			return [3]patternShares{}, fmt.Errorf("query: character %q at position %d is not in the indexed alphabet", c, i)
		}
		cs := localShare(uint64(code), ringBits)
		for p := 0; p < 3; p++ {
			out[p].CodeShares[i] = cs[p]
		}
		for l := 0; l < table.Levels; l++ {
			shift := table.Levels - 1 - l
			bit := (code >> shift) & 1
			bs := localShare(uint64(bit), ringBits)
			for p := 0; p < 3; p++ {
				out[p].BitShares[i][l] = bs[p]
			}
		}
	}
	return out, nil
}

// localShare draws two masks from crypto/rand and secret-shares v; used by
// the CLI's client-side prepare step, never by a protocol package.
func localShare(v uint64, bits uint8) [3]rss.Share {
	r0 := randScalarUint64()
	r1 := randScalarUint64()
	return rss.ShareArithLocal(rss.NewScalar(v, bits), rss.NewScalar(r0, bits), rss.NewScalar(r1, bits))
}

func runQuerySimulate() error {
	if queryPattern == "" {
		return fmt.Errorf("--pattern is required")
	}
	table, err := readIndex()
	if err != nil {
		return err
	}
	var bundles [3]config.Bundle
	for _, id := range party.All() {
		b, err := config.ReadBundleFile(bundlePath(id))
		if err != nil {
			return fmt.Errorf("reading bundle for party %s: %w", id, err)
		}
		bundles[id] = b
	}

	pattern := []byte(queryPattern)
	if len(pattern) > len(bundles[0].FssfmiKey.Steps) {
		return fmt.Errorf("pattern length %d exceeds provisioned steps %d (rerun setup with a larger --max-pattern)",
			len(pattern), len(bundles[0].FssfmiKey.Steps))
	}
	shares, err := sharePattern(table, pattern, bundles[0].FssfmiKey.RingBits)
	if err != nil {
		return err
	}

	rings := transport.NewSimRing()
	var wg sync.WaitGroup
	results := make([]uint64, 3)
	starts := make([]uint64, 3)
	ends := make([]uint64, 3)
	errs := make([]error, 3)
	for _, id := range party.All() {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			eng := corr.EngineFor(id, bundles[id].RootKeys)
			matched, result, err := query.EvaluateLPM(rings[id], eng, 1, table, bundles[id].FssfmiKey,
				shares[id].CodeShares, shares[id].BitShares)
			if err != nil {
				errs[id] = err
				return
			}
			start, end, err := query.OpenMatchRange(rings[id], 900000, result, bundles[id].FssfmiKey.RingBits)
			if err != nil {
				errs[id] = err
				return
			}
			results[id], starts[id], ends[id] = matched, start, end
		}()
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}

	fmt.Printf("matched=%d range=[%d,%d)\n", results[0], starts[0], ends[0])
	return nil
}

func runQuerySingleParty() error {
	if queryPartyID < 0 || queryPartyID > 2 {
		return fmt.Errorf("--party must be 0, 1 or 2 in non-simulate mode")
	}
	if querySharesFile == "" {
		return fmt.Errorf("--shares is required in non-simulate mode")
	}
	id := party.ID(queryPartyID)

	table, err := readIndex()
	if err != nil {
		return err
	}
	bundle, err := config.ReadBundleFile(bundlePath(id))
	if err != nil {
		return err
	}
	roster, err := readRoster()
	if err != nil {
		return err
	}

	sharesData, err := readFileStrict(querySharesFile)
	if err != nil {
		return err
	}
	var shares patternShares
	if err := cbor.Unmarshal(sharesData, &shares); err != nil {
		return fmt.Errorf("query: decoding pattern shares: %w", err)
	}

	prev, next, err := config.DialPrevNext(roster, id)
	if err != nil {
		return err
	}
	conn := transport.NewConn(prev, next)
	defer conn.Close()

	eng := corr.EngineFor(id, bundle.RootKeys)
	matched, result, err := query.EvaluateLPM(conn, eng, 1, table, bundle.FssfmiKey, shares.CodeShares, shares.BitShares)
	if err != nil {
		return err
	}
	start, end, err := query.OpenMatchRange(conn, 900000, result, bundle.FssfmiKey.RingBits)
	if err != nil {
		return err
	}
	fmt.Printf("party=%s matched=%d range=[%d,%d)\n", id, matched, start, end)
	return nil
}
