// ensemble is the CLI for the ensemble prediction aggregator: predict,
// batch, status.
//
// Usage:
//
//	ensemble predict [-f input.json] [--config config.yaml]
//	ensemble batch -f inputs.json [--config config.yaml]
//	ensemble status [--config config.yaml]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "Combine per-model match predictions into a consensus prediction",
	Long: "Ensemble combines up to three independently produced match-outcome\n" +
		"predictions (full-time, half-time, pattern) into a single consensus\n" +
		"prediction with a normalized confidence and an auditable breakdown.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
