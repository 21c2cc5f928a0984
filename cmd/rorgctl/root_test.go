package main

import "testing"

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "rorgctl" {
		t.Errorf("expected Use to be %q, got %q", "rorgctl", rootCmd.Use)
	}
	if !rootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	expected := []string{
		"create", "query", "update", "remove",
		"request", "release", "list", "usage", "total-usage",
	}
	found := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		found[cmd.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}

func TestServerFlagDefault(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("server")
	if f == nil {
		t.Fatal("expected --server to be registered")
	}
	if f.DefValue != "http://localhost:7016/mcp" {
		t.Errorf("expected default %q, got %q", "http://localhost:7016/mcp", f.DefValue)
	}
}
