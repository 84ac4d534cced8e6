// Package cmd implements the lunbi command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lunbi",
	Short: "Lunbi - a retrieval-augmented Space Biology assistant",
	Long: `Lunbi answers questions about NASA and Space Biology by retrieving
relevant passages from a semantic article index and generating a grounded
response. Every query is persisted with resolved source attribution.

Run "lunbi serve" to start the HTTP API, or "lunbi ask" for a one-shot query.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
