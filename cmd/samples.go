package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lunbi/lunbi/internal/assistant"
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Print the curated sample questions",
	Run: func(cmd *cobra.Command, args []string) {
		for _, hint := range assistant.ScopeHints() {
			fmt.Println("- " + hint)
		}
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
}
