package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/serviceid"
)

// NewMCPServer builds the mcp-go server exposing every operation in the
// RPC surface as a tool, backed by f.
func NewMCPServer(f *Facade) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(
		"rorgd",
		"1.0.0",
		mcpserver.WithToolCapabilities(false),
	)

	srv.AddTool(mcp.NewTool("create_service",
		mcp.WithDescription("Create a new service from its ServiceOptions"),
		mcp.WithString("id", mcp.Required(), mcp.Description("ns0/ns1/.../nsK:name service id")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Docker, Group, or Meta")),
		mcp.WithBoolean("enabled", mcp.Description("whether the registry may activate this service; default true")),
		mcp.WithBoolean("disable_deactivate", mcp.Description("reject non-forced deactivation attempts")),
		mcp.WithString("run_mode", mcp.Description("Real or Simulation; default Real")),
		mcp.WithArray("implied_dependencies", mcp.Description("service ids this service always requests alongside itself")),
		mcp.WithString("ready_detection_kind", mcp.Description("WaitFixedTime or WaitForProber; default WaitFixedTime")),
		mcp.WithNumber("ready_fixed_time_seconds", mcp.Description("seconds to wait before reporting ready, for ready_detection_kind=WaitFixedTime")),
		mcp.WithObject("docker", mcp.Description("Docker sub-options: image, command, env, volumes, ports, network, extra_hosts")),
		mcp.WithObject("group", mcp.Description("Group sub-options: grouped_services")),
		mcp.WithObject("simulation_parameters", mcp.Description("Simulation sub-options: cpu_usage, memory_usage distributions")),
	), f.handleCreateService)

	srv.AddTool(mcp.NewTool("query_service",
		mcp.WithDescription("Fetch the current ServiceState of one service"),
		mcp.WithString("id", mcp.Required()),
	), f.handleQueryService)

	srv.AddTool(mcp.NewTool("update_service",
		mcp.WithDescription("Replace a service's ServiceOptions in place"),
		mcp.WithString("id", mcp.Required()),
		mcp.WithString("type", mcp.Required()),
		mcp.WithBoolean("enabled", mcp.Description("whether the registry may activate this service; default true")),
		mcp.WithBoolean("disable_deactivate", mcp.Description("reject non-forced deactivation attempts")),
		mcp.WithString("run_mode", mcp.Description("Real or Simulation; default Real")),
		mcp.WithArray("implied_dependencies", mcp.Description("service ids this service always requests alongside itself")),
		mcp.WithString("ready_detection_kind", mcp.Description("WaitFixedTime or WaitForProber; default WaitFixedTime")),
		mcp.WithNumber("ready_fixed_time_seconds", mcp.Description("seconds to wait before reporting ready, for ready_detection_kind=WaitFixedTime")),
		mcp.WithObject("docker", mcp.Description("Docker sub-options: image, command, env, volumes, ports, network, extra_hosts")),
		mcp.WithObject("group", mcp.Description("Group sub-options: grouped_services")),
		mcp.WithObject("simulation_parameters", mcp.Description("Simulation sub-options: cpu_usage, memory_usage distributions")),
	), f.handleUpdateService)

	srv.AddTool(mcp.NewTool("remove_service",
		mcp.WithDescription("Force-deactivate and remove a service"),
		mcp.WithString("id", mcp.Required()),
	), f.handleRemoveService)

	srv.AddTool(mcp.NewTool("request_service",
		mcp.WithDescription("Issue a Request against one or more target services"),
		mcp.WithString("issuer", mcp.Required(), mcp.Description("service id of the requesting service")),
		mcp.WithString("uuid", mcp.Required(), mcp.Description("caller-chosen request id, unique per issuer")),
		mcp.WithArray("targets", mcp.Required(), mcp.Description("target service ids")),
		mcp.WithBoolean("wait_for_ready", mcp.Description("block until every DelayedAction resolves before responding")),
	), f.handleRequestService)

	srv.AddTool(mcp.NewTool("release_service",
		mcp.WithDescription("Release a previously issued Request"),
		mcp.WithString("issuer", mcp.Required()),
		mcp.WithString("uuid", mcp.Required()),
	), f.handleReleaseService)

	srv.AddTool(mcp.NewTool("list_services",
		mcp.WithDescription("List every managed service id"),
	), f.handleListServices)

	srv.AddTool(mcp.NewTool("query_service_resource_usage",
		mcp.WithDescription("Read one service's current CPU and memory usage"),
		mcp.WithString("id", mcp.Required()),
	), f.handleQueryServiceResourceUsage)

	srv.AddTool(mcp.NewTool("query_total_resource_usage",
		mcp.WithDescription("Read total CPU and memory usage across the host"),
		mcp.WithString("collect_method", mcp.Description("SumIndividual or Psutil, default SumIndividual")),
	), f.handleQueryTotalResourceUsage)

	return srv
}

func errorResult(err error) *mcp.CallToolResult {
	code, msg := rorgerr.ToResult(err)
	body, _ := json.Marshal(map[string]interface{}{"result": code.String(), "error_message": msg})
	return mcp.NewToolResultText(string(body))
}

func okResult(data map[string]interface{}) *mcp.CallToolResult {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["result"] = rorgerr.OK.String()
	body, _ := json.Marshal(data)
	return mcp.NewToolResultText(string(body))
}

func (f *Facade) handleCreateService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := parseServiceOptions(args(request.GetArguments()))
	if err != nil {
		return errorResult(err), nil
	}
	err = f.mutate(ctx, func() error {
		return f.reg.CreateService(ctx, opts)
	})
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(nil), nil
}

func (f *Facade) handleQueryService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("id")
	if err != nil {
		return errorResult(rorgerr.InvalidServiceIDf("id is required")), nil
	}
	id, err := serviceid.Parse(idStr)
	if err != nil {
		return errorResult(err), nil
	}

	var state map[string]interface{}
	err = f.query(ctx, func() error {
		s, err := f.reg.QueryService(id)
		if err != nil {
			return err
		}
		state = serviceStateToMap(s)
		return nil
	})
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(map[string]interface{}{"service": state}), nil
}

func (f *Facade) handleUpdateService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := parseServiceOptions(args(request.GetArguments()))
	if err != nil {
		return errorResult(err), nil
	}
	err = f.mutate(ctx, func() error {
		return f.reg.UpdateService(ctx, opts)
	})
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(nil), nil
}

func (f *Facade) handleRemoveService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("id")
	if err != nil {
		return errorResult(rorgerr.InvalidServiceIDf("id is required")), nil
	}
	id, err := serviceid.Parse(idStr)
	if err != nil {
		return errorResult(err), nil
	}
	err = f.mutate(ctx, func() error {
		return f.reg.RemoveService(ctx, id)
	})
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(nil), nil
}

// handleRequestService issues a Request. Per §4.5, the registry lock is
// held across dispatch and persistence as usual, but the
// wait_for_ready=true wait on returned DelayedActions happens AFTER the
// lock is released and the state already committed — a request whose
// readiness wait is interrupted must not roll back the request itself.
func (f *Facade) handleRequestService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := args(request.GetArguments())
	issuerStr, err := request.RequireString("issuer")
	if err != nil {
		return errorResult(rorgerr.InvalidServiceIDf("issuer is required")), nil
	}
	uuid, err := request.RequireString("uuid")
	if err != nil {
		return errorResult(rorgerr.InvalidServiceIDf("uuid is required")), nil
	}
	issuer, err := serviceid.Parse(issuerStr)
	if err != nil {
		return errorResult(err), nil
	}
	targets, err := a.idSlice("targets")
	if err != nil {
		return errorResult(err), nil
	}
	waitForReady := a.boolean("wait_for_ready", false)

	req := serviceid.Request{ID: serviceid.RequestId{Issuer: issuer, UUID: uuid}, Targets: targets}

	var actions []delayedaction.DelayedAction
	err = f.mutate(ctx, func() error {
		actions, err = f.reg.RequestService(ctx, req)
		return err
	})
	if err != nil {
		return errorResult(err), nil
	}

	if waitForReady {
		if err := delayedaction.WaitAll(ctx, actions); err != nil {
			return errorResult(err), nil
		}
		return okResult(nil), nil
	}

	pending := make([]string, 0, len(actions))
	for _, a := range actions {
		pending = append(pending, fmt.Sprintf("%s", a.Kind))
	}
	return okResult(map[string]interface{}{"delayed_actions": pending}), nil
}

func (f *Facade) handleReleaseService(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issuerStr, err := request.RequireString("issuer")
	if err != nil {
		return errorResult(rorgerr.InvalidServiceIDf("issuer is required")), nil
	}
	uuid, err := request.RequireString("uuid")
	if err != nil {
		return errorResult(rorgerr.InvalidServiceIDf("uuid is required")), nil
	}
	issuer, err := serviceid.Parse(issuerStr)
	if err != nil {
		return errorResult(err), nil
	}
	rid := serviceid.RequestId{Issuer: issuer, UUID: uuid}

	err = f.mutate(ctx, func() error {
		return f.reg.ReleaseService(ctx, rid)
	})
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(nil), nil
}

func (f *Facade) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var ids []string
	err := f.query(ctx, func() error {
		for _, id := range f.reg.ListServices() {
			ids = append(ids, id.String())
		}
		return nil
	})
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(map[string]interface{}{"services": ids}), nil
}

func (f *Facade) handleQueryServiceResourceUsage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("id")
	if err != nil {
		return errorResult(rorgerr.InvalidServiceIDf("id is required")), nil
	}
	id, err := serviceid.Parse(idStr)
	if err != nil {
		return errorResult(err), nil
	}

	var cpuUsage float64
	var memUsage uint64
	err = f.query(ctx, func() error {
		svc, err := f.reg.Get(id)
		if err != nil {
			return err
		}
		cpuUsage, _, err = svc.GetCpu(ctx)
		if err != nil {
			return err
		}
		memUsage, _, err = svc.GetMem(ctx)
		return err
	})
	if err != nil {
		return errorResult(err), nil
	}
	return okResult(map[string]interface{}{"cpu_usage": cpuUsage, "memory_usage": memUsage}), nil
}

// collectMethod selects between SumIndividual (registry aggregation over
// every managed service) and Psutil (the cached host-wide gopsutil
// sample).
type collectMethod string

const (
	collectSumIndividual collectMethod = "SumIndividual"
	collectPsutil        collectMethod = "Psutil"
)

func (f *Facade) handleQueryTotalResourceUsage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a := args(request.GetArguments())
	method := collectMethod(a.str("collect_method", string(collectSumIndividual)))

	var cpuUsage float64
	var memUsage uint64
	switch method {
	case collectPsutil:
		sample, ok := f.reg.HostSample()
		if !ok {
			return errorResult(rorgerr.Internalf("no host metrics sample available yet")), nil
		}
		cpuUsage, memUsage = sample.CPUPercent, sample.MemUsed
	default:
		err := f.query(ctx, func() error {
			var err error
			cpuUsage, err = f.reg.CollectAllServiceCpu(ctx)
			if err != nil {
				return err
			}
			memUsage, err = f.reg.CollectAllServiceMemory(ctx)
			return err
		})
		if err != nil {
			return errorResult(err), nil
		}
	}
	return okResult(map[string]interface{}{"cpu_usage": cpuUsage, "memory_usage": memUsage}), nil
}
