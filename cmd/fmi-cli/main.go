// Command fmi-cli is the process-bootstrapping CLI for the secure
// multiparty FM-index search engine: setup | keygen | serve | query |
// bench. Per spec.md §6.4 this surface is not part of the core protocol —
// "the only hard requirement is that the protocol entry points take
// parameters, loaded keys, loaded replicated shares, and a triple of
// channels, and return replicated shares of outputs", which pkg/query
// already satisfies on its own.
//
// Grounded on cmd/threshold-cli/main.go's verb tree and global-flag layout,
// retargeted from ECDSA/FROST keygen/sign/reshare/verify verbs to the
// FM-index protocol's setup/keygen/serve/query/bench verbs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	dataDir string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "fmi-cli",
		Short: "CLI for the secure multiparty FM-index search engine",
		Long: `A CLI tool to set up, run, and benchmark the three-party secure
FM-index longest-prefix-match protocol.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./fmi-data", "Directory for index, keys, and roster files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(setupCmd, keygenCmd, serveCmd, queryCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
