package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/pkg/logging"
)

// RealDriver forwards every capability to the host's Docker Engine API.
// Runtime errors surface as rorgerr.Internal, per §4.2.
type RealDriver struct {
	cli *client.Client
}

// NewRealDriver connects to the Docker daemon using the standard
// environment-derived configuration (DOCKER_HOST, TLS vars, etc.),
// negotiating the API version against the daemon.
func NewRealDriver() (*RealDriver, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, rorgerr.Wrap(err, "failed to construct docker client: %v", err)
	}
	return &RealDriver{cli: cli}, nil
}

func (d *RealDriver) Create(ctx context.Context, opts ContainerOptions) (Handle, error) {
	reader, err := d.cli.ImagePull(ctx, opts.Image, image.PullOptions{})
	if err != nil {
		return Handle{}, rorgerr.Wrap(err, "failed to pull image %s: %v", opts.Image, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		logging.Warn("runtime.real", "draining image pull output for %s: %v", opts.Image, err)
	}

	exposedPorts, portBindings, err := natPortMap(opts.Ports)
	if err != nil {
		return Handle{}, err
	}

	cfg := &containertypes.Config{
		Image:        opts.Image,
		Cmd:          opts.Command,
		Env:          envSlice(opts.Env),
		ExposedPorts: exposedPorts,
	}

	hostCfg := &containertypes.HostConfig{
		ExtraHosts:   opts.ExtraHosts,
		PortBindings: portBindings,
	}
	if opts.Network != "" {
		hostCfg.NetworkMode = containertypes.NetworkMode(opts.Network)
	}
	for _, v := range opts.Volumes {
		mode := "rw"
		if v.ReadOnly {
			mode = "ro"
		}
		hostCfg.Binds = append(hostCfg.Binds, fmt.Sprintf("%s:%s:%s", v.Host, v.Container, mode))
	}

	resp, err := d.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, opts.Name)
	if err != nil {
		return Handle{}, rorgerr.Wrap(err, "failed to create container %s: %v", opts.Name, err)
	}
	return Handle{ID: resp.ID, Name: opts.Name}, nil
}

func (d *RealDriver) Get(ctx context.Context, name string) (Handle, bool, error) {
	inspect, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return Handle{}, false, nil
		}
		return Handle{}, false, rorgerr.Wrap(err, "failed to inspect container %s: %v", name, err)
	}
	return Handle{ID: inspect.ID, Name: name}, true, nil
}

func (d *RealDriver) Start(ctx context.Context, h Handle) error {
	if err := d.cli.ContainerStart(ctx, h.ID, containertypes.StartOptions{}); err != nil {
		return rorgerr.Wrap(err, "failed to start container %s: %v", h.Name, err)
	}
	return nil
}

func (d *RealDriver) Stop(ctx context.Context, h Handle) error {
	if err := d.cli.ContainerStop(ctx, h.ID, containertypes.StopOptions{}); err != nil {
		return rorgerr.Wrap(err, "failed to stop container %s: %v", h.Name, err)
	}
	return nil
}

func (d *RealDriver) Restart(ctx context.Context, h Handle) error {
	if err := d.cli.ContainerRestart(ctx, h.ID, containertypes.StopOptions{}); err != nil {
		return rorgerr.Wrap(err, "failed to restart container %s: %v", h.Name, err)
	}
	return nil
}

func (d *RealDriver) Remove(ctx context.Context, h Handle, force bool) error {
	if err := d.cli.ContainerRemove(ctx, h.ID, containertypes.RemoveOptions{Force: force}); err != nil {
		return rorgerr.Wrap(err, "failed to remove container %s: %v", h.Name, err)
	}
	return nil
}

func (d *RealDriver) Stats(ctx context.Context, h Handle) (StatsDict, error) {
	resp, err := d.cli.ContainerStats(ctx, h.ID, false)
	if err != nil {
		return StatsDict{}, rorgerr.Wrap(err, "failed to fetch stats for container %s: %v", h.Name, err)
	}
	defer resp.Body.Close()

	var raw containertypes.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return StatsDict{}, rorgerr.Wrap(err, "failed to decode stats for container %s: %v", h.Name, err)
	}

	return StatsDict{
		Read: raw.Read,
		CPUStats: CPUStats{
			CPUUsage: CPUUsage{
				Total:  raw.CPUStats.CPUUsage.TotalUsage,
				PerCPU: raw.CPUStats.CPUUsage.PercpuUsage,
			},
			SystemUsage: raw.CPUStats.SystemUsage,
		},
		PreCPUStats: CPUStats{
			CPUUsage: CPUUsage{
				Total:  raw.PreCPUStats.CPUUsage.TotalUsage,
				PerCPU: raw.PreCPUStats.CPUUsage.PercpuUsage,
			},
			SystemUsage: raw.PreCPUStats.SystemUsage,
		},
		MemoryStats: MemoryStats{Usage: raw.MemoryStats.Usage},
	}, nil
}

// natPortMap translates our runtime-neutral PortMapping list into the
// docker API's nat.PortSet/nat.PortMap shapes.
func natPortMap(ports []PortMapping) (nat.PortSet, nat.PortMap, error) {
	if len(ports) == 0 {
		return nil, nil, nil
	}
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for _, p := range ports {
		proto := p.Protocol
		if proto == "" {
			proto = "tcp"
		}
		containerPort, err := nat.NewPort(proto, fmt.Sprintf("%d", p.Container))
		if err != nil {
			return nil, nil, rorgerr.Internalf("invalid port mapping %d/%s: %v", p.Container, proto, err)
		}
		exposed[containerPort] = struct{}{}
		bindings[containerPort] = append(bindings[containerPort], nat.PortBinding{
			HostPort: fmt.Sprintf("%d", p.Host),
		})
	}
	return exposed, bindings, nil
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
