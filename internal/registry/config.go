// Package registry implements the process-wide ServiceManager: the
// map from ServiceId to Service, the persister to disk, and the two
// background tasks (stats refresh, host metrics) described in §5.
package registry

import "time"

// Config is the registry's CLI-configurable behavior, with the exact
// defaults from §6.
type Config struct {
	StorageBasePath                    string
	ContainerNamePrefix                string
	DockerStatsValidTime                time.Duration
	RefreshStatsNumThreads              int
	MinimalTimeBetweenRefreshStats time.Duration
}

// DefaultConfig returns the CLI surface's documented defaults.
func DefaultConfig() Config {
	return Config{
		StorageBasePath:                "/tmp/RorgStorage",
		ContainerNamePrefix:            "rorg__",
		DockerStatsValidTime:           5 * time.Second,
		RefreshStatsNumThreads:         40,
		MinimalTimeBetweenRefreshStats: time.Second,
	}
}
