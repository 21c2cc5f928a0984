package service

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/runtime"
	"github.com/cogrob/rorg/internal/serviceid"
)

// ContainerName computes the runtime-level container name for a service
// id, per the naming convention in §6: prefix + "ns0__ns1" + "_" + name.
// It is a bijection so RestoreHandle can relocate the container after a
// restart.
func ContainerName(prefix string, id serviceid.ServiceId) string {
	return prefix + strings.Join(id.Namespace, "__") + "_" + id.Name
}

// cachedStats is replaced as a whole pointer on every refresh so readers
// outside the registry mutex (the stats-refresh worker pool) never
// observe a torn update, per the shared-resource policy in §5.
type cachedStats struct {
	stats     runtime.StatsDict
	fetchedAt time.Time
}

// DockerService manages one containerized process.
type DockerService struct {
	Base

	driver        runtime.Driver
	containerName string
	statsValidFor time.Duration

	// handle is replaced as a whole pointer, never mutated in place,
	// since it is read and written from both the RPC-handler goroutine
	// (under the registry mutex) and the background stats-refresh
	// sweep, which calls RefreshStats/ensureHandle without holding it.
	handle atomic.Pointer[runtime.Handle]

	statsCache atomic.Pointer[cachedStats]
}

// handleValue returns the current handle, or the zero Handle if none
// has been set yet.
func (d *DockerService) handleValue() runtime.Handle {
	h := d.handle.Load()
	if h == nil {
		return runtime.Handle{}
	}
	return *h
}

// NewDockerService validates opts and constructs a DockerService bound
// to the given runtime-level container name. It does not itself create
// the backing container — call CreateContainer (fresh service) or
// RestoreHandle (loaded from disk) afterward.
func NewDockerService(opts ServiceOptions, driver runtime.Driver, containerName string, statsValidFor time.Duration, reg Registry) (*DockerService, error) {
	if err := validateDockerOptions(opts); err != nil {
		return nil, err
	}
	return &DockerService{
		Base:          NewBase(TypeDocker, opts, reg),
		driver:        driver,
		containerName: containerName,
		statsValidFor: statsValidFor,
	}, nil
}

// validateDockerOptions rejects options that would let the runtime
// remove the container out from under the registry, per §4.3.1.
func validateDockerOptions(opts ServiceOptions) error {
	if opts.Docker.AutoRemove || opts.Docker.Remove {
		return rorgerr.ServiceUnsupportedOptionsf(
			"docker.auto_remove and docker.remove are not supported for %s; Rorg must own container removal", opts.ID)
	}
	return nil
}

// Name returns the resolved runtime-level container name.
func (d *DockerService) Name() string { return d.containerName }

func (d *DockerService) containerOptions() runtime.ContainerOptions {
	return runtime.ContainerOptions{
		Name:       d.containerName,
		Image:      d.options.Docker.Image,
		Command:    d.options.Docker.Command,
		Env:        d.options.Docker.Env,
		Volumes:    d.options.Docker.Volumes,
		Ports:      d.options.Docker.Ports,
		Network:    d.options.Docker.Network,
		ExtraHosts: d.options.Docker.ExtraHosts,
	}
}

// CreateContainer materializes the backing container for a freshly
// constructed service. Called once by the registry right after
// NewDockerService, before the service is added to the map.
func (d *DockerService) CreateContainer(ctx context.Context) error {
	h, err := d.driver.Create(ctx, d.containerOptions())
	if err != nil {
		return err
	}
	d.handle.Store(&h)
	return nil
}

// RestoreHandle re-resolves the backing container by its deterministic
// name after a process restart. Called by LoadFromDisk.
func (d *DockerService) RestoreHandle(ctx context.Context) error {
	h, ok, err := d.driver.Get(ctx, d.containerName)
	if err != nil {
		return err
	}
	if !ok {
		return rorgerr.Internalf("container %s for service %s not found on restore", d.containerName, d.ID())
	}
	d.handle.Store(&h)
	return nil
}

func (d *DockerService) ensureHandle(ctx context.Context) (runtime.Handle, error) {
	if h := d.handleValue(); h.Name != "" {
		return h, nil
	}
	h, ok, err := d.driver.Get(ctx, d.containerName)
	if err != nil {
		return runtime.Handle{}, err
	}
	if !ok {
		return runtime.Handle{}, rorgerr.Internalf("container %s for service %s does not exist", d.containerName, d.ID())
	}
	d.handle.Store(&h)
	return h, nil
}

// ActivateSelf starts the container (if not already Active), then
// requests its own implied dependencies, and finally appends the
// readiness delayed action configured by ReadyDetection.
func (d *DockerService) ActivateSelf(ctx context.Context) ([]delayedaction.DelayedAction, error) {
	if d.StatusValue() == StatusActive {
		return nil, nil
	}
	handle, err := d.ensureHandle(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.driver.Start(ctx, handle); err != nil {
		return nil, err
	}
	d.status = StatusActive

	actions, err := ActRequestBasic(ctx, &d.Base, d.ImpliedRequest())
	if err != nil {
		return actions, err
	}

	switch d.options.ReadyDetection.Kind {
	case ReadyWaitForProber:
		return actions, rorgerr.ServiceUnsupportedOptionsf("prober-based readiness is not implemented for %s", d.ID())
	default:
		secs := d.options.ReadyDetection.FixedTimeSeconds
		until := time.Now().Add(time.Duration(secs * float64(time.Second)))
		actions = append(actions, delayedaction.WaitUntilTimestamp(until))
	}
	return actions, nil
}

// DeactivateSelf checks the disable_deactivate/requested_by_others
// guards before mutating status (the fixed ordering from §9's open
// question), releases every self-issued request, and stops the
// container.
func (d *DockerService) DeactivateSelf(ctx context.Context, force bool) error {
	if d.StatusValue() != StatusActive {
		return nil
	}
	if !force {
		if d.options.DisableDeactivate {
			return rorgerr.Internalf("service %s has disable_deactivate set; cannot deactivate", d.ID())
		}
		if len(d.requestedByOthers) > 0 {
			return rorgerr.Internalf("service %s is still requested by others; cannot deactivate", d.ID())
		}
	}

	d.status = StatusToBeStopped
	for _, rid := range d.selfRequestIDsSnapshot() {
		if err := ActReleaseBasic(ctx, &d.Base, rid); err != nil {
			return err
		}
	}

	handle, err := d.ensureHandle(ctx)
	if err != nil {
		return err
	}
	if err := d.driver.Stop(ctx, handle); err != nil {
		return err
	}
	d.status = StatusStopped
	return nil
}

// Update force-deactivates, recreates the container from new_options,
// and reactivates if the service was previously Active.
func (d *DockerService) Update(ctx context.Context, newOptions ServiceOptions) error {
	if err := validateDockerOptions(newOptions); err != nil {
		return err
	}
	priorStatus := d.StatusValue()
	if err := d.DeactivateSelf(ctx, true); err != nil {
		return err
	}
	if handle, ok, err := d.driver.Get(ctx, d.containerName); err == nil && ok {
		if err := d.driver.Remove(ctx, handle, true); err != nil {
			return err
		}
	}

	d.options = newOptions
	d.handle.Store(&runtime.Handle{})
	if err := d.CreateContainer(ctx); err != nil {
		return err
	}

	if priorStatus == StatusActive {
		if _, err := d.ActivateSelf(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Remove force-deactivates and removes the backing container. The
// registry drops the service from its map afterward.
func (d *DockerService) Remove(ctx context.Context) error {
	if err := d.DeactivateSelf(ctx, true); err != nil {
		return err
	}
	if handle, ok, err := d.driver.Get(ctx, d.containerName); err == nil && ok {
		if err := d.driver.Remove(ctx, handle, true); err != nil {
			return err
		}
	}
	return nil
}

// ForceRestart restarts the container in place; state is unchanged.
func (d *DockerService) ForceRestart(ctx context.Context) error {
	handle, err := d.ensureHandle(ctx)
	if err != nil {
		return err
	}
	return d.driver.Restart(ctx, handle)
}

// RefreshStats fetches a fresh StatsDict and atomically replaces the
// cache. Real mode only; a no-op (success) under simulation. Called
// both synchronously (on a stale-cache read) and by the registry's
// background stats-refresh sweep.
func (d *DockerService) RefreshStats(ctx context.Context) error {
	if d.options.RunMode != RunModeReal {
		return nil
	}
	handle, err := d.ensureHandle(ctx)
	if err != nil {
		return err
	}
	stats, err := d.driver.Stats(ctx, handle)
	if err != nil {
		return err
	}
	d.statsCache.Store(&cachedStats{stats: stats, fetchedAt: time.Now()})
	return nil
}

// IsRealMode reports whether this service's stats should be sampled by
// the registry's real-mode stats-refresh sweep.
func (d *DockerService) IsRealMode() bool {
	return d.options.RunMode == RunModeReal
}

// NeedsStatsRefresh reports whether the cached stats are absent or
// older than validFor (docker_stats_valid_time).
func (d *DockerService) NeedsStatsRefresh(validFor time.Duration) bool {
	cached := d.statsCache.Load()
	return cached == nil || time.Since(cached.fetchedAt) > validFor
}

func computeCPUUsage(s runtime.StatsDict) float64 {
	percpu := s.CPUStats.CPUUsage.PerCPU
	if len(percpu) == 0 {
		return 0
	}
	sysDelta := s.CPUStats.SystemUsage - s.PreCPUStats.SystemUsage
	if sysDelta == 0 {
		return 0
	}
	cpuDelta := s.CPUStats.CPUUsage.Total - s.PreCPUStats.CPUUsage.Total
	return float64(cpuDelta) / float64(sysDelta) * float64(len(percpu))
}

// GetCpu returns this service's CPU usage in logical-core units (may
// exceed 1 on a multi-core host).
// Real mode reads (refreshing synchronously if stale) the cached
// StatsDict; simulation samples simulation_parameters.cpu_usage.
func (d *DockerService) GetCpu(ctx context.Context) (float64, bool, error) {
	if d.options.RunMode == RunModeSimulation {
		if d.StatusValue() != StatusActive {
			return 0, true, nil
		}
		return sampleDist(d.options.Simulation.CPUUsage), true, nil
	}

	if d.NeedsStatsRefresh(d.statsValidFor) {
		if err := d.RefreshStats(ctx); err != nil {
			return 0, false, err
		}
	}
	cached := d.statsCache.Load()
	if cached == nil {
		return 0, false, nil
	}
	return computeCPUUsage(cached.stats), true, nil
}

// GetMem returns bytes of resident memory. Real mode reads the cached
// StatsDict (refreshing synchronously if stale); simulation samples
// simulation_parameters.memory_usage.
func (d *DockerService) GetMem(ctx context.Context) (uint64, bool, error) {
	if d.options.RunMode == RunModeSimulation {
		if d.StatusValue() != StatusActive {
			return 0, true, nil
		}
		return uint64(sampleDist(d.options.Simulation.MemoryUsage)), true, nil
	}

	if d.NeedsStatsRefresh(d.statsValidFor) {
		if err := d.RefreshStats(ctx); err != nil {
			return 0, false, err
		}
	}
	cached := d.statsCache.Load()
	if cached == nil {
		return 0, false, nil
	}
	return cached.stats.MemoryStats.Usage, true, nil
}

func (d *DockerService) ActRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	return ActRequestBasic(ctx, &d.Base, req)
}

func (d *DockerService) ActRelease(ctx context.Context, rid serviceid.RequestId) error {
	return ActReleaseBasic(ctx, &d.Base, rid)
}

func (d *DockerService) HandleRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	return HandleRequestBasic(ctx, &d.Base, d.ActivateSelf, req)
}

func (d *DockerService) HandleRelease(ctx context.Context, rid serviceid.RequestId) error {
	return HandleReleaseBasic(ctx, &d.Base, d.DeactivateSelf, rid)
}

func (d *DockerService) ToState() ServiceState {
	return ServiceState{
		ID:                d.ID(),
		Type:              TypeDocker,
		Options:           d.options,
		Status:            d.status,
		RequestedByOthers: d.requestedByOthersList(),
		RequestsBySelf:    d.requestsBySelfList(),
		ContainerName:     d.containerName,
	}
}
