package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/luxfi/securesearch/internal/corr"
	"github.com/luxfi/securesearch/internal/fmindex"
	"github.com/luxfi/securesearch/pkg/config"
	"github.com/luxfi/securesearch/pkg/party"
	"github.com/luxfi/securesearch/pkg/query"
	"github.com/luxfi/securesearch/pkg/transport"
)

var (
	benchPattern    string
	benchIterations int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark repeated simulated longest-prefix-match queries",
	Long: `Runs the same --simulate in-process query as "fmi-cli query", repeated
--iterations times, reporting min/avg/max wall-clock time across the
three-party run. Grounded on the teacher's cmd/threshold-cli
benchmarkKeygen/benchmarkSign style (per-test-case min/avg/max timing
over repeated runs).`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().StringVarP(&benchPattern, "pattern", "p", "", "Pattern to search for (required)")
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 10, "Number of query iterations")
	benchCmd.MarkFlagRequired("pattern")
}

func runBench(cmd *cobra.Command, args []string) error {
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

	pattern := []byte(benchPattern)
	if len(pattern) > len(bundles[0].FssfmiKey.Steps) {
		return fmt.Errorf("pattern length %d exceeds provisioned steps %d", len(pattern), len(bundles[0].FssfmiKey.Steps))
	}

	fmt.Printf("\n=== Longest-prefix-match Benchmark (%d iterations) ===\n", benchIterations)
	fmt.Printf("pattern: %q, text length: %d\n", benchPattern, table.N)

	var total time.Duration
	minTime := time.Hour
	var maxTime time.Duration

	for i := 0; i < benchIterations; i++ {
		shares, err := sharePattern(table, pattern, bundles[0].FssfmiKey.RingBits)
		if err != nil {
			return err
		}

		start := time.Now()
		if err := runSimulatedQuery(table, bundles, shares); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
		elapsed := time.Since(start)

		total += elapsed
		if elapsed < minTime {
			minTime = elapsed
		}
		if elapsed > maxTime {
			maxTime = elapsed
		}
	}

	avg := total / time.Duration(benchIterations)
	fmt.Printf("  Average: %v\n", avg)
	fmt.Printf("  Min:     %v\n", minTime)
	fmt.Printf("  Max:     %v\n", maxTime)
	fmt.Printf("  Total:   %v\n", total)
	return nil
}

// runSimulatedQuery runs one in-process three-party query, discarding the
// result; used only for timing by bench (query --simulate prints it).
func runSimulatedQuery(table fmindex.PublicTable, bundles [3]config.Bundle, shares [3]patternShares) error {
	rings := transport.NewSimRing()
	var wg sync.WaitGroup
	errs := make([]error, 3)
	for _, id := range party.All() {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			eng := corr.EngineFor(id, bundles[id].RootKeys)
			_, result, err := query.EvaluateLPM(rings[id], eng, 1, table, bundles[id].FssfmiKey,
				shares[id].CodeShares, shares[id].BitShares)
			if err != nil {
				errs[id] = err
				return
			}
			_, _, err = query.OpenMatchRange(rings[id], 900000, result, bundles[id].FssfmiKey.RingBits)
			errs[id] = err
		}()
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
