// Package runtime abstracts the container runtime that backs a
// DockerService: a small capability set {create, get, start, stop,
// restart, remove, stats} with a real (Docker Engine API) implementation
// and an in-process simulator. Rorg's core never talks to Docker
// directly — only through this interface.
package runtime

import (
	"context"
	"time"
)

// VolumeMount binds a host path into the container.
type VolumeMount struct {
	Host      string
	Container string
	ReadOnly  bool
}

// PortMapping exposes a container port on the host.
type PortMapping struct {
	Host      int
	Container int
	Protocol  string // "tcp" or "udp"; defaults to "tcp"
}

// ContainerOptions is everything Create needs to materialize a
// container. Name must already be the fully-prefixed, runtime-level name
// (see the container naming convention, service.ContainerName).
type ContainerOptions struct {
	Name       string
	Image      string
	Command    []string
	Env        map[string]string
	Volumes    []VolumeMount
	Ports      []PortMapping
	Network    string
	ExtraHosts []string
}

// Handle is an opaque reference to a materialized container. Services
// persist Handle.Name (not Handle.ID, which may not survive a restart of
// the runtime) across restarts and re-resolve it via Get.
type Handle struct {
	ID   string
	Name string
}

// CPUUsage is the cpu_usage sub-object of StatsDict.
type CPUUsage struct {
	Total  uint64
	PerCPU []uint64
}

// CPUStats is one snapshot's worth of CPU accounting.
type CPUStats struct {
	CPUUsage    CPUUsage
	SystemUsage uint64
}

// MemoryStats is one snapshot's worth of memory accounting.
type MemoryStats struct {
	Usage uint64
}

// StatsDict is the raw per-container usage snapshot a Driver reports.
// CPU usage is derived from it as
// (CPUStats.Total - PreCPUStats.Total) / (CPUStats.SystemUsage -
// PreCPUStats.SystemUsage) * len(PerCPU), per §4.3.1.
type StatsDict struct {
	Read        time.Time
	CPUStats    CPUStats
	PreCPUStats CPUStats
	MemoryStats MemoryStats
}

// Driver is the capability set DockerService depends on. Implementations
// must be safe for concurrent use; the registry holds one process-wide
// singleton per run mode.
type Driver interface {
	// Create materializes a container, pulling its image if necessary.
	Create(ctx context.Context, opts ContainerOptions) (Handle, error)
	// Get resolves a previously created container by its runtime name.
	// ok is false (with a nil error) if no such container exists.
	Get(ctx context.Context, name string) (h Handle, ok bool, err error)
	Start(ctx context.Context, h Handle) error
	Stop(ctx context.Context, h Handle) error
	Restart(ctx context.Context, h Handle) error
	Remove(ctx context.Context, h Handle, force bool) error
	// Stats fetches a fresh (non-streaming) usage snapshot.
	Stats(ctx context.Context, h Handle) (StatsDict, error)
}
