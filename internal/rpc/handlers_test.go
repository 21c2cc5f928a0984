package rpc

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/cogrob/rorg/internal/registry"
	"github.com/cogrob/rorg/internal/runtime"
	"github.com/cogrob/rorg/internal/service"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	cfg := registry.DefaultConfig()
	cfg.StorageBasePath = t.TempDir()
	sim := runtime.NewSimulator()
	reg := registry.New(cfg, service.Drivers{Real: sim, Simulator: sim})

	reg.Lock()
	require.NoError(t, reg.LoadFromDisk(context.Background()))
	reg.EnsureOperator()
	reg.Unlock()

	return NewFacade(reg)
}

// toolRequest builds a mcp.CallToolRequest the way muster's own MCP
// handler tests do, populating only the Arguments field of Params.
func toolRequest(a map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: struct {
			Name      string    `json:"name"`
			Arguments any       `json:"arguments,omitempty"`
			Meta      *mcp.Meta `json:"_meta,omitempty"`
		}{
			Arguments: a,
		},
	}
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &body))
	return body
}

func TestHandleCreateAndQueryService(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	result, err := f.handleCreateService(ctx, toolRequest(map[string]interface{}{
		"id":   "base:roscore",
		"type": "Docker",
		"docker": map[string]interface{}{
			"image": "busybox",
		},
		"run_mode": "Simulation",
	}))
	require.NoError(t, err)
	body := decodeResult(t, result)
	require.Equal(t, "OK", body["result"])

	result, err = f.handleQueryService(ctx, toolRequest(map[string]interface{}{"id": "base:roscore"}))
	require.NoError(t, err)
	body = decodeResult(t, result)
	require.Equal(t, "OK", body["result"])
	svc := body["service"].(map[string]interface{})
	require.Equal(t, "Stopped", svc["status"])
}

func TestHandleCreateServiceDuplicateReturnsErrorResult(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	req := toolRequest(map[string]interface{}{
		"id": "base:roscore", "type": "Docker", "run_mode": "Simulation",
		"docker": map[string]interface{}{"image": "busybox"},
	})

	_, err := f.handleCreateService(ctx, req)
	require.NoError(t, err)

	result, err := f.handleCreateService(ctx, req)
	require.NoError(t, err)
	body := decodeResult(t, result)
	require.Equal(t, "SERVICE_ALREADY_EXIST", body["result"])
}

func TestHandleRequestServiceActivatesTarget(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	_, err := f.handleCreateService(ctx, toolRequest(map[string]interface{}{
		"id": "base:roscore", "type": "Docker", "run_mode": "Simulation",
		"docker": map[string]interface{}{"image": "busybox"},
	}))
	require.NoError(t, err)

	result, err := f.handleRequestService(ctx, toolRequest(map[string]interface{}{
		"issuer":         "__builtin:__operator",
		"uuid":           "r1",
		"targets":        []interface{}{"base:roscore"},
		"wait_for_ready": true,
	}))
	require.NoError(t, err)
	body := decodeResult(t, result)
	require.Equal(t, "OK", body["result"])

	result, err = f.handleQueryService(ctx, toolRequest(map[string]interface{}{"id": "base:roscore"}))
	require.NoError(t, err)
	svc := decodeResult(t, result)["service"].(map[string]interface{})
	require.Equal(t, "Active", svc["status"])

	result, err = f.handleReleaseService(ctx, toolRequest(map[string]interface{}{
		"issuer": "__builtin:__operator",
		"uuid":   "r1",
	}))
	require.NoError(t, err)
	require.Equal(t, "OK", decodeResult(t, result)["result"])

	result, err = f.handleQueryService(ctx, toolRequest(map[string]interface{}{"id": "base:roscore"}))
	require.NoError(t, err)
	svc = decodeResult(t, result)["service"].(map[string]interface{})
	require.Equal(t, "Stopped", svc["status"])
}

func TestHandleListServicesIncludesOperator(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	result, err := f.handleListServices(ctx, toolRequest(nil))
	require.NoError(t, err)
	body := decodeResult(t, result)
	ids := body["services"].([]interface{})
	require.Contains(t, ids, "__builtin:__operator")
}

func TestHandleQueryServiceUnknownIDReturnsErrorResult(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	result, err := f.handleQueryService(ctx, toolRequest(map[string]interface{}{"id": "base:nonexistent"}))
	require.NoError(t, err)
	body := decodeResult(t, result)
	require.Equal(t, "SERVICE_NOT_FOUND", body["result"])
}

func TestHandleQueryTotalResourceUsageSumIndividual(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	_, err := f.handleCreateService(ctx, toolRequest(map[string]interface{}{
		"id": "base:roscore", "type": "Docker", "run_mode": "Simulation",
		"docker": map[string]interface{}{"image": "busybox"},
		"simulation_parameters": map[string]interface{}{
			"cpu_usage":    map[string]interface{}{"kind": "Fixed", "fixed": float64(3)},
			"memory_usage": map[string]interface{}{"kind": "Fixed", "fixed": float64(2048)},
		},
	}))
	require.NoError(t, err)

	_, err = f.handleRequestService(ctx, toolRequest(map[string]interface{}{
		"issuer": "__builtin:__operator", "uuid": "r1",
		"targets": []interface{}{"base:roscore"}, "wait_for_ready": true,
	}))
	require.NoError(t, err)

	result, err := f.handleQueryTotalResourceUsage(ctx, toolRequest(map[string]interface{}{
		"collect_method": "SumIndividual",
	}))
	require.NoError(t, err)
	body := decodeResult(t, result)
	require.Equal(t, float64(3), body["cpu_usage"])
	require.Equal(t, float64(2048), body["memory_usage"])
}

func TestHandleQueryTotalResourceUsagePsutilWithoutSampleErrors(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	result, err := f.handleQueryTotalResourceUsage(ctx, toolRequest(map[string]interface{}{
		"collect_method": "Psutil",
	}))
	require.NoError(t, err)
	body := decodeResult(t, result)
	require.Equal(t, "INTERNAL", body["result"])
}
