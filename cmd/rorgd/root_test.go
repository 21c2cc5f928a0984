package main

import "testing"

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "rorgd" {
		t.Errorf("expected Use to be %q, got %q", "rorgd", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
}

func TestServeSubcommandRegistered(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "serve" {
			found = true
		}
	}
	if !found {
		t.Error("expected the serve subcommand to be registered")
	}
}
