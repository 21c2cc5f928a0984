package registry

import (
	"context"
	"os"
	"testing"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/runtime"
	"github.com/cogrob/rorg/internal/service"
	"github.com/cogrob/rorg/internal/serviceid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func testDrivers() service.Drivers {
	sim := runtime.NewSimulator()
	return service.Drivers{Real: sim, Simulator: sim}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := DefaultConfig()
	cfg.StorageBasePath = t.TempDir()
	r := New(cfg, testDrivers())
	r.Lock()
	defer r.Unlock()
	require.NoError(t, r.LoadFromDisk(context.Background()))
	r.EnsureOperator()
	return r
}

func dockerOpts(id serviceid.ServiceId, implied ...serviceid.ServiceId) service.ServiceOptions {
	return service.ServiceOptions{
		ID:                  id,
		Type:                service.TypeDocker,
		Enabled:             true,
		RunMode:             service.RunModeSimulation,
		ImpliedDependencies: implied,
		Docker:              service.DockerOptions{Image: "busybox"},
	}
}

func TestCreateQueryRemoveService(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	id := serviceid.MustParse("base:roscore")

	r.Lock()
	require.NoError(t, r.CreateService(ctx, dockerOpts(id)))
	state, err := r.QueryService(id)
	r.Unlock()
	require.NoError(t, err)
	require.Equal(t, service.StatusStopped, state.Status)

	r.Lock()
	err = r.CreateService(ctx, dockerOpts(id))
	r.Unlock()
	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.ServiceAlreadyExist, code)

	r.Lock()
	require.NoError(t, r.RemoveService(ctx, id))
	_, err = r.QueryService(id)
	r.Unlock()
	require.Error(t, err)
	code, _ = rorgerr.ToResult(err)
	require.Equal(t, rorgerr.ServiceNotFound, code)
}

func TestCreateServiceRejectsCycle(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	a := serviceid.MustParse("base:a")
	b := serviceid.MustParse("base:b")

	r.Lock()
	require.NoError(t, r.CreateService(ctx, dockerOpts(a, b)))
	err := r.CreateService(ctx, dockerOpts(b, a))
	r.Unlock()

	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.ServiceUnsupportedOptions, code)
}

func TestUpdateServiceRejectsSelfIntroducedCycle(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	a := serviceid.MustParse("base:a")
	b := serviceid.MustParse("base:b")

	r.Lock()
	require.NoError(t, r.CreateService(ctx, dockerOpts(a)))
	require.NoError(t, r.CreateService(ctx, dockerOpts(b, a)))
	err := r.UpdateService(ctx, dockerOpts(a, b))
	r.Unlock()

	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.ServiceUnsupportedOptions, code)
}

func TestListServicesSortedByKey(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	r.Lock()
	require.NoError(t, r.CreateService(ctx, dockerOpts(serviceid.MustParse("base:zeta"))))
	require.NoError(t, r.CreateService(ctx, dockerOpts(serviceid.MustParse("base:alpha"))))
	ids := r.ListServices()
	r.Unlock()

	// The built-in operator plus the two created services, sorted; the
	// operator's "__builtin:" key sorts before "base:" since '_' < 'b'.
	require.Len(t, ids, 3)
	require.Equal(t, "base:alpha", ids[1].Key())
	require.Equal(t, "base:zeta", ids[2].Key())
}

func TestRequestReleaseServiceRoutesThroughOperator(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	id := serviceid.MustParse("base:roscore")

	r.Lock()
	require.NoError(t, r.CreateService(ctx, dockerOpts(id)))
	req := serviceid.Request{
		ID:      serviceid.RequestId{Issuer: serviceid.Operator(), UUID: "r1"},
		Targets: []serviceid.ServiceId{id},
	}
	actions, err := r.RequestService(ctx, req)
	r.Unlock()
	require.NoError(t, err)
	require.NoError(t, delayedaction.WaitAll(ctx, actions))

	r.Lock()
	state, err := r.QueryService(id)
	r.Unlock()
	require.NoError(t, err)
	require.Equal(t, service.StatusActive, state.Status)

	r.Lock()
	err = r.ReleaseService(ctx, req.ID)
	state, qerr := r.QueryService(id)
	r.Unlock()
	require.NoError(t, err)
	require.NoError(t, qerr)
	require.Equal(t, service.StatusStopped, state.Status)
}

func TestCollectAllServiceCpuAndMemory(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	id := serviceid.MustParse("base:roscore")
	opts := dockerOpts(id)
	opts.Simulation = service.SimulationParameters{
		CPUUsage:    service.SimDist{Kind: service.SimFixed, Fixed: 2.5},
		MemoryUsage: service.SimDist{Kind: service.SimFixed, Fixed: 1024},
	}

	r.Lock()
	require.NoError(t, r.CreateService(ctx, opts))
	req := serviceid.Request{ID: serviceid.RequestId{Issuer: serviceid.Operator(), UUID: "r1"}, Targets: []serviceid.ServiceId{id}}
	_, err := r.RequestService(ctx, req)
	require.NoError(t, err)
	cpu, err := r.CollectAllServiceCpu(ctx)
	require.NoError(t, err)
	mem, err := r.CollectAllServiceMemory(ctx)
	r.Unlock()

	require.NoError(t, err)
	require.Equal(t, 2.5, cpu)
	require.Equal(t, uint64(1024), mem)
}

func TestWriteAndLoadFromDiskRoundTrips(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.StorageBasePath = t.TempDir()
	drivers := testDrivers()
	id := serviceid.MustParse("base:roscore")

	r1 := New(cfg, drivers)
	r1.Lock()
	require.NoError(t, r1.LoadFromDisk(ctx))
	r1.EnsureOperator()
	require.NoError(t, r1.CreateService(ctx, dockerOpts(id)))
	require.NoError(t, r1.WriteToDisk())
	r1.Unlock()

	r2 := New(cfg, drivers)
	r2.Lock()
	require.NoError(t, r2.LoadFromDisk(ctx))
	state, err := r2.QueryService(id)
	r2.Unlock()

	require.NoError(t, err)
	require.Equal(t, id.Key(), state.ID.Key())
	require.Equal(t, service.StatusStopped, state.Status)
}

func TestWriteToDiskTombstonesRemovedService(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.StorageBasePath = t.TempDir()
	drivers := testDrivers()
	id := serviceid.MustParse("base:roscore")

	r := New(cfg, drivers)
	r.Lock()
	require.NoError(t, r.LoadFromDisk(ctx))
	require.NoError(t, r.CreateService(ctx, dockerOpts(id)))
	require.NoError(t, r.WriteToDisk())
	before := r.statePath(id)
	require.NoError(t, r.RemoveService(ctx, id))
	require.NoError(t, r.WriteToDisk())
	r.Unlock()

	_, statErr := os.Stat(before)
	require.Error(t, statErr, "tombstoned state file must no longer exist at its original path")
	_, statErr = os.Stat(before + removedSuffix)
	require.NoError(t, statErr, "a .removed tombstone must exist in its place")
}

func TestRefreshAggregateMetricsUpdatesGauges(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)
	id := serviceid.MustParse("base:roscore")

	r.Lock()
	require.NoError(t, r.CreateService(ctx, dockerOpts(id)))
	r.Unlock()

	r.RefreshAggregateMetrics(ctx)
	// The operator plus the one created service.
	require.Equal(t, float64(2), testutil.ToFloat64(r.metrics.managedServices))
}
