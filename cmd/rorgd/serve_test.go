package main

import (
	"testing"
	"time"
)

func TestServeFlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	cases := []struct {
		name string
		want string
	}{
		{"storage-base-path", "/tmp/RorgStorage"},
		{"container-name-prefix", "rorg__"},
		{"docker-stats-valid-time", (5 * time.Second).String()},
		{"refresh-stats-num-threads", "40"},
		{"minimal-time-between-refresh-stats", time.Second.String()},
		{"listen-address", "[::]:7016"},
		{"metrics-listen-address", ":9016"},
		{"log-level", "info"},
	}

	for _, c := range cases {
		f := cmd.Flags().Lookup(c.name)
		if f == nil {
			t.Fatalf("expected --%s to be registered", c.name)
		}
		if f.DefValue != c.want {
			t.Errorf("--%s: expected default %q, got %q", c.name, c.want, f.DefValue)
		}
	}
}

func TestServeCommandTakesNoPositionalArgs(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.Args(cmd, []string{"unexpected"}); err == nil {
		t.Error("expected an error for a positional argument")
	}
}
