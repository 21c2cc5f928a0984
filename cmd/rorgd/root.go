// Package main is the rorgd server binary: the process that owns the
// registry, serves the RPC facade, and runs the background stats/host
// metrics loops.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "rorgd",
	Short:        "rorgd runs the Rorg service orchestration daemon",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
