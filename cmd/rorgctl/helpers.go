package main

import (
	"github.com/spf13/cobra"
)

// withClient dials the configured server, runs fn, and always closes the
// connection afterward.
func withClient(cmd *cobra.Command, fn func(*rorgClient) error) error {
	c, err := dial(cmd.Context(), serverURL)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
