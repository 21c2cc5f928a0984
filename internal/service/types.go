// Package service implements the Service polymorphism: a shared base
// protocol (ActRequestBasic, ActReleaseBasic, HandleRequestBasic,
// HandleReleaseBasic) plus three tagged variants — Docker, Group, Meta —
// dispatched on ServiceType rather than an inheritance tree, per the
// teacher's own preference for tagged-variant designs over class
// hierarchies.
package service

import (
	"github.com/cogrob/rorg/internal/runtime"
	"github.com/cogrob/rorg/internal/serviceid"
)

// ServiceType tags which variant a Service is.
type ServiceType string

const (
	TypeDocker ServiceType = "Docker"
	TypeGroup  ServiceType = "Group"
	TypeMeta   ServiceType = "Meta"
)

// Status is a service's current lifecycle state.
type Status string

const (
	StatusStopped     Status = "Stopped"
	StatusActive      Status = "Active"
	StatusToBeStopped Status = "ToBeStopped"
)

// RunMode selects which runtime.Driver backs a DockerService.
type RunMode string

const (
	RunModeReal       RunMode = "Real"
	RunModeSimulation RunMode = "Simulation"
)

// ReadyDetectionKind selects how ActivateSelf reports readiness.
type ReadyDetectionKind string

const (
	ReadyWaitFixedTime ReadyDetectionKind = "WaitFixedTime"
	ReadyWaitForProber ReadyDetectionKind = "WaitForProber"
)

// ReadyDetection configures the delayed action ActivateSelf appends.
// WaitForProber is accepted syntactically but rejected at activation
// time with ServiceUnsupportedOptions — it is not implemented.
type ReadyDetection struct {
	Kind             ReadyDetectionKind `yaml:"kind"`
	FixedTimeSeconds float64            `yaml:"fixed_time_seconds,omitempty"`
}

// SimDistKind selects a simulated-resource sampling distribution.
type SimDistKind string

const (
	SimGaussian SimDistKind = "Gaussian"
	SimFixed    SimDistKind = "Fixed"
)

// SimDist is one sampleable distribution: Gaussian(Mean, StdDev) or a
// constant Fixed value.
type SimDist struct {
	Kind    SimDistKind `yaml:"kind"`
	Mean    float64     `yaml:"mean,omitempty"`
	StdDev  float64     `yaml:"std_dev,omitempty"`
	Fixed   float64     `yaml:"fixed,omitempty"`
}

// SimulationParameters configures GetCpu/GetMem for a DockerService
// running under RunModeSimulation.
type SimulationParameters struct {
	CPUUsage    SimDist `yaml:"cpu_usage"`
	MemoryUsage SimDist `yaml:"memory_usage"`
}

// DockerOptions is the type-specific configuration of a DockerService.
// Field shapes recovered from the original implementation's
// docker_options_pb_to_py translation layer.
type DockerOptions struct {
	Image      string              `yaml:"image"`
	Command    []string            `yaml:"command,omitempty"`
	Env        map[string]string   `yaml:"env,omitempty"`
	Volumes    []runtime.VolumeMount `yaml:"volumes,omitempty"`
	Ports      []runtime.PortMapping `yaml:"ports,omitempty"`
	Network    string              `yaml:"network,omitempty"`
	ExtraHosts []string            `yaml:"extra_hosts,omitempty"`
	// AutoRemove and Remove must never be set: Rorg manages the
	// container's lifecycle itself and rejects options that would let
	// the runtime remove it out from under the registry.
	AutoRemove bool `yaml:"auto_remove,omitempty"`
	Remove     bool `yaml:"remove,omitempty"`
}

// GroupOptions is the type-specific configuration of a GroupService.
type GroupOptions struct {
	GroupedServices []serviceid.ServiceId `yaml:"grouped_services,omitempty"`
}

// ServiceOptions is the declarative, user-supplied configuration for a
// service, echoed verbatim into ServiceState.Options.
type ServiceOptions struct {
	ID                  serviceid.ServiceId   `yaml:"id"`
	Type                ServiceType           `yaml:"type"`
	Enabled             bool                  `yaml:"enabled"`
	DisableDeactivate   bool                  `yaml:"disable_deactivate,omitempty"`
	RunMode             RunMode               `yaml:"run_mode,omitempty"`
	ImpliedDependencies []serviceid.ServiceId `yaml:"implied_dependencies,omitempty"`
	ReadyDetection      ReadyDetection        `yaml:"ready_detection,omitempty"`
	Docker              DockerOptions         `yaml:"docker,omitempty"`
	Group               GroupOptions          `yaml:"group,omitempty"`
	Simulation          SimulationParameters  `yaml:"simulation_parameters,omitempty"`
}

// ServiceState is the authoritative, persisted runtime record for one
// service. It alone is sufficient to reconstruct the service on restart
// (I6).
type ServiceState struct {
	ID                serviceid.ServiceId     `yaml:"id"`
	Type              ServiceType             `yaml:"type"`
	Options           ServiceOptions          `yaml:"options"`
	Status            Status                  `yaml:"status"`
	RequestedByOthers []serviceid.RequestId   `yaml:"requested_by_others,omitempty"`
	RequestsBySelf    []serviceid.Request     `yaml:"requests_by_self,omitempty"`
	// ContainerName is the resolved runtime-level name of the backing
	// container (Docker variant only); empty for Group/Meta.
	ContainerName string `yaml:"container_name,omitempty"`
}
