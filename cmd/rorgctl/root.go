package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:          "rorgctl",
	Short:        "rorgctl talks to a running rorgd over its RPC facade",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:7016/mcp",
		"rorgd RPC facade URL")

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newRequestCmd())
	rootCmd.AddCommand(newReleaseCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newUsageCmd())
	rootCmd.AddCommand(newTotalUsageCmd())
}
