package service

import (
	"context"
	"testing"
	"time"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/runtime"
	"github.com/cogrob/rorg/internal/serviceid"
	"github.com/stretchr/testify/require"
)

// fakeRegistry is a minimal Registry for exercising the base protocol
// without pulling in the real registry package (which itself imports
// this one).
type fakeRegistry struct {
	services map[string]Service
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{services: make(map[string]Service)}
}

func (r *fakeRegistry) add(svc Service) {
	svc.SetRegistry(r)
	r.services[svc.ID().Key()] = svc
}

func (r *fakeRegistry) Get(id serviceid.ServiceId) (Service, error) {
	svc, ok := r.services[id.Key()]
	if !ok {
		return nil, rorgerr.ServiceNotFoundf("service %s not found", id)
	}
	return svc, nil
}

func (r *fakeRegistry) GetNoRaise(id serviceid.ServiceId) Service {
	return r.services[id.Key()]
}

func newSimDocker(t *testing.T, reg *fakeRegistry, id serviceid.ServiceId, implied []serviceid.ServiceId) *DockerService {
	t.Helper()
	sim := runtime.NewSimulator()
	opts := ServiceOptions{
		ID:                  id,
		Type:                TypeDocker,
		Enabled:             true,
		RunMode:             RunModeSimulation,
		ImpliedDependencies: implied,
		ReadyDetection:      ReadyDetection{Kind: ReadyWaitFixedTime, FixedTimeSeconds: 0},
		Docker:              DockerOptions{Image: "busybox"},
	}
	ds, err := NewDockerService(opts, sim, ContainerName("rorg__", id), time.Second, reg)
	require.NoError(t, err)
	require.NoError(t, ds.CreateContainer(context.Background()))
	reg.add(ds)
	return ds
}

func TestE2ERoscoreTriggerUIScenario(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()

	roscore := newSimDocker(t, reg, serviceid.MustParse("base:roscore"), nil)
	require.Equal(t, StatusStopped, roscore.StatusValue())

	triggerUI := newSimDocker(t, reg, serviceid.MustParse("base:trigger_ui"),
		[]serviceid.ServiceId{serviceid.MustParse("base:roscore")})

	operator := NewMetaService(ServiceOptions{ID: serviceid.Operator(), Type: TypeMeta, Enabled: true}, reg)
	reg.add(operator)

	req := serviceid.Request{
		ID:      serviceid.RequestId{Issuer: serviceid.Operator(), UUID: "r1"},
		Targets: []serviceid.ServiceId{serviceid.MustParse("base:trigger_ui")},
	}
	actions, err := operator.ActRequest(ctx, req)
	require.NoError(t, err)
	require.NoError(t, delayedaction.WaitAll(ctx, actions))

	require.Equal(t, StatusActive, triggerUI.StatusValue())
	require.Equal(t, StatusActive, roscore.StatusValue())
	require.Contains(t, triggerUI.requestedByOthers, req.ID.Key())
	impliedKey := (serviceid.RequestId{Issuer: triggerUI.ID(), UUID: serviceid.ImpliedUUID}).Key()
	require.Contains(t, roscore.requestedByOthers, impliedKey)

	require.NoError(t, operator.ActRelease(ctx, req.ID))
	require.Equal(t, StatusStopped, triggerUI.StatusValue())
	require.Equal(t, StatusStopped, roscore.StatusValue())
	require.Empty(t, triggerUI.requestedByOthers)
	require.Empty(t, roscore.requestedByOthers)
}

func TestRequestUnknownServiceFails(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	operator := NewMetaService(ServiceOptions{ID: serviceid.Operator(), Type: TypeMeta, Enabled: true}, reg)
	reg.add(operator)

	req := serviceid.Request{
		ID:      serviceid.RequestId{Issuer: serviceid.Operator(), UUID: "r2"},
		Targets: []serviceid.ServiceId{serviceid.MustParse("base:nonexistent")},
	}
	_, err := operator.ActRequest(ctx, req)
	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.ServiceNotFound, code)
}

func TestReleaseUnknownRequestFails(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	operator := NewMetaService(ServiceOptions{ID: serviceid.Operator(), Type: TypeMeta, Enabled: true}, reg)
	reg.add(operator)

	err := operator.ActRelease(ctx, serviceid.RequestId{Issuer: serviceid.Operator(), UUID: "bogus"})
	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.ServiceRequestNotExist, code)
}

func TestIdempotentDoubleRequest(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	roscore := newSimDocker(t, reg, serviceid.MustParse("base:roscore"), nil)
	operator := NewMetaService(ServiceOptions{ID: serviceid.Operator(), Type: TypeMeta, Enabled: true}, reg)
	reg.add(operator)

	req := serviceid.Request{
		ID:      serviceid.RequestId{Issuer: serviceid.Operator(), UUID: "r1"},
		Targets: []serviceid.ServiceId{roscore.ID()},
	}
	_, err := operator.ActRequest(ctx, req)
	require.NoError(t, err)
	_, err = operator.ActRequest(ctx, req)
	require.NoError(t, err)
	require.Len(t, roscore.requestedByOthers, 1)
}

func TestDeactivateBlockedByDisableDeactivate(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	sim := runtime.NewSimulator()
	opts := ServiceOptions{
		ID:                serviceid.MustParse("base:pinned"),
		Type:              TypeDocker,
		Enabled:           true,
		RunMode:           RunModeSimulation,
		DisableDeactivate: true,
		Docker:            DockerOptions{Image: "busybox"},
	}
	ds, err := NewDockerService(opts, sim, ContainerName("rorg__", opts.ID), time.Second, reg)
	require.NoError(t, err)
	require.NoError(t, ds.CreateContainer(ctx))
	reg.add(ds)

	_, err = ds.ActivateSelf(ctx)
	require.NoError(t, err)
	require.Equal(t, StatusActive, ds.StatusValue())

	err = ds.DeactivateSelf(ctx, false)
	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.Internal, code)
	require.Equal(t, StatusActive, ds.StatusValue(), "status must not be left in ToBeStopped on a rejected deactivation")
}

func TestRejectsAutoRemoveOption(t *testing.T) {
	reg := newFakeRegistry()
	sim := runtime.NewSimulator()
	opts := ServiceOptions{
		ID:      serviceid.MustParse("base:x"),
		Type:    TypeDocker,
		RunMode: RunModeSimulation,
		Docker:  DockerOptions{Image: "busybox", AutoRemove: true},
	}
	_, err := NewDockerService(opts, sim, ContainerName("rorg__", opts.ID), time.Second, reg)
	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.ServiceUnsupportedOptions, code)
}

func TestGroupServiceActivatesMembers(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	member := newSimDocker(t, reg, serviceid.MustParse("base:member"), nil)

	group := NewGroupService(ServiceOptions{
		ID:    serviceid.MustParse("base:mygroup"),
		Type:  TypeGroup,
		Group: GroupOptions{GroupedServices: []serviceid.ServiceId{member.ID()}},
	}, reg)
	reg.add(group)

	operator := NewMetaService(ServiceOptions{ID: serviceid.Operator(), Type: TypeMeta, Enabled: true}, reg)
	reg.add(operator)

	req := serviceid.Request{
		ID:      serviceid.RequestId{Issuer: serviceid.Operator(), UUID: "g1"},
		Targets: []serviceid.ServiceId{group.ID()},
	}
	_, err := operator.ActRequest(ctx, req)
	require.NoError(t, err)
	require.Equal(t, StatusActive, group.StatusValue())
	require.Equal(t, StatusActive, member.StatusValue())

	memberRequesters := member.ToState().RequestedByOthers
	require.Len(t, memberRequesters, 1)
	require.Equal(t, group.ID(), memberRequesters[0].Issuer)
	require.Equal(t, "", memberRequesters[0].UUID,
		"a group's combined request uses the literal empty-string uuid, distinct from __IMPLIED")

	require.NoError(t, operator.ActRelease(ctx, req.ID))
	require.Equal(t, StatusStopped, group.StatusValue())
	require.Equal(t, StatusStopped, member.StatusValue())
}

func TestGroupForceRestartRejected(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	group := NewGroupService(ServiceOptions{ID: serviceid.MustParse("base:g"), Type: TypeGroup}, reg)
	reg.add(group)
	err := group.ForceRestart(ctx)
	require.Error(t, err)
	code, _ := rorgerr.ToResult(err)
	require.Equal(t, rorgerr.Internal, code)
}

func TestMetaServiceAlwaysActiveAndImmutable(t *testing.T) {
	ctx := context.Background()
	reg := newFakeRegistry()
	m := NewMetaService(ServiceOptions{ID: serviceid.MustParse("base:m"), Type: TypeMeta}, reg)
	require.Equal(t, StatusActive, m.StatusValue())
	require.True(t, m.Options().DisableDeactivate)

	require.Error(t, m.DeactivateSelf(ctx, false))
	require.Error(t, m.DeactivateSelf(ctx, true))
	require.Error(t, m.Update(ctx, ServiceOptions{}))
	require.Error(t, m.Remove(ctx))
	require.Error(t, m.ForceRestart(ctx))
	_, err := m.HandleRequest(ctx, serviceid.Request{})
	require.Error(t, err)
}
