package rpc

import (
	"github.com/cogrob/rorg/internal/runtime"
	"github.com/cogrob/rorg/internal/service"
	"github.com/cogrob/rorg/internal/serviceid"
)

// args is the decoded JSON body of a tool call's arguments.
type args map[string]interface{}

func (a args) str(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

func (a args) boolean(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

func (a args) float(key string, def float64) float64 {
	if v, ok := a[key].(float64); ok {
		return v
	}
	return def
}

func (a args) intv(key string, def int) int {
	if v, ok := a[key].(float64); ok {
		return int(v)
	}
	return def
}

func (a args) strSlice(key string) []string {
	raw, ok := a[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (a args) strMap(key string) map[string]string {
	raw, ok := a[key].(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

func (a args) subArgs(key string) args {
	if v, ok := a[key].(map[string]interface{}); ok {
		return args(v)
	}
	return nil
}

func (a args) idSlice(key string) ([]serviceid.ServiceId, error) {
	var out []serviceid.ServiceId
	for _, s := range a.strSlice(key) {
		id, err := serviceid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// parseServiceOptions builds a service.ServiceOptions from a tool call's
// decoded arguments, matching the RPC surface's ServiceOptions request
// shape used by both CreateService and UpdateService.
func parseServiceOptions(a args) (service.ServiceOptions, error) {
	id, err := serviceid.Parse(a.str("id", ""))
	if err != nil {
		return service.ServiceOptions{}, err
	}
	implied, err := a.idSlice("implied_dependencies")
	if err != nil {
		return service.ServiceOptions{}, err
	}

	opts := service.ServiceOptions{
		ID:                  id,
		Type:                service.ServiceType(a.str("type", "")),
		Enabled:             a.boolean("enabled", true),
		DisableDeactivate:   a.boolean("disable_deactivate", false),
		RunMode:             service.RunMode(a.str("run_mode", string(service.RunModeReal))),
		ImpliedDependencies: implied,
	}

	switch a.str("ready_detection_kind", string(service.ReadyWaitFixedTime)) {
	case string(service.ReadyWaitForProber):
		opts.ReadyDetection = service.ReadyDetection{Kind: service.ReadyWaitForProber}
	default:
		opts.ReadyDetection = service.ReadyDetection{
			Kind:             service.ReadyWaitFixedTime,
			FixedTimeSeconds: a.float("ready_fixed_time_seconds", 0),
		}
	}

	if docker := a.subArgs("docker"); docker != nil {
		opts.Docker = parseDockerOptions(docker)
	}
	if group := a.subArgs("group"); group != nil {
		grouped, err := group.idSlice("grouped_services")
		if err != nil {
			return service.ServiceOptions{}, err
		}
		opts.Group = service.GroupOptions{GroupedServices: grouped}
	}
	if sim := a.subArgs("simulation_parameters"); sim != nil {
		opts.Simulation = parseSimulationParameters(sim)
	}

	return opts, nil
}

func parseDockerOptions(d args) service.DockerOptions {
	var volumes []runtime.VolumeMount
	if raw, ok := d["volumes"].([]interface{}); ok {
		for _, v := range raw {
			vm, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			volumes = append(volumes, runtime.VolumeMount{
				Host:      args(vm).str("host", ""),
				Container: args(vm).str("container", ""),
				ReadOnly:  args(vm).boolean("read_only", false),
			})
		}
	}
	var ports []runtime.PortMapping
	if raw, ok := d["ports"].([]interface{}); ok {
		for _, v := range raw {
			pm, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			ports = append(ports, runtime.PortMapping{
				Host:      args(pm).intv("host", 0),
				Container: args(pm).intv("container", 0),
				Protocol:  args(pm).str("protocol", "tcp"),
			})
		}
	}

	return service.DockerOptions{
		Image:      d.str("image", ""),
		Command:    d.strSlice("command"),
		Env:        d.strMap("env"),
		Volumes:    volumes,
		Ports:      ports,
		Network:    d.str("network", ""),
		ExtraHosts: d.strSlice("extra_hosts"),
		AutoRemove: d.boolean("auto_remove", false),
		Remove:     d.boolean("remove", false),
	}
}

func parseSimulationParameters(s args) service.SimulationParameters {
	return service.SimulationParameters{
		CPUUsage:    parseSimDist(s.subArgs("cpu_usage")),
		MemoryUsage: parseSimDist(s.subArgs("memory_usage")),
	}
}

func parseSimDist(d args) service.SimDist {
	if d == nil {
		return service.SimDist{Kind: service.SimFixed, Fixed: 0}
	}
	if d.str("kind", string(service.SimFixed)) == string(service.SimGaussian) {
		return service.SimDist{Kind: service.SimGaussian, Mean: d.float("mean", 0), StdDev: d.float("std_dev", 0)}
	}
	return service.SimDist{Kind: service.SimFixed, Fixed: d.float("fixed", 0)}
}

// serviceStateToMap renders a ServiceState into the wire shape QueryService
// returns: a flat JSON-able map mirroring the YAML persistence format.
func serviceStateToMap(state service.ServiceState) map[string]interface{} {
	requestedBy := make([]string, 0, len(state.RequestedByOthers))
	for _, rid := range state.RequestedByOthers {
		requestedBy = append(requestedBy, rid.Issuer.String()+"#"+rid.UUID)
	}
	selfRequests := make([]map[string]interface{}, 0, len(state.RequestsBySelf))
	for _, req := range state.RequestsBySelf {
		targets := make([]string, 0, len(req.Targets))
		for _, t := range req.Targets {
			targets = append(targets, t.String())
		}
		selfRequests = append(selfRequests, map[string]interface{}{
			"uuid":    req.ID.UUID,
			"targets": targets,
		})
	}

	return map[string]interface{}{
		"id":                  state.ID.String(),
		"type":                string(state.Type),
		"status":              string(state.Status),
		"container_name":      state.ContainerName,
		"requested_by_others": requestedBy,
		"requests_by_self":    selfRequests,
	}
}
