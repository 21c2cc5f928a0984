package service

import (
	"context"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/serviceid"
)

// GroupService co-activates a fixed set of member services. It holds no
// runtime resource of its own — activating it is purely a matter of
// requesting its members (and its own implied dependencies).
type GroupService struct {
	Base
}

// NewGroupService constructs a GroupService; there is no option
// validation beyond what ServiceOptions.Group already carries.
func NewGroupService(opts ServiceOptions, reg Registry) *GroupService {
	return &GroupService{Base: NewBase(TypeGroup, opts, reg)}
}

// groupRequestTargets is the implied_dependencies set unioned with
// grouped_services, per §4.3.2.
func (g *GroupService) groupRequestTargets() []serviceid.ServiceId {
	targets := append([]serviceid.ServiceId{}, g.options.ImpliedDependencies...)
	targets = append(targets, g.options.Group.GroupedServices...)
	return targets
}

// groupRequest is the single request a GroupService sends to (and
// releases from) every member on activation/deactivation. Its
// requests_by_self entry is the same canonical Request record form
// DockerService uses — not a bespoke ServiceRequest wrapper, per the
// fixed design note in §9.
func (g *GroupService) groupRequest() serviceid.Request {
	return serviceid.Request{
		ID:      serviceid.RequestId{Issuer: g.ID(), UUID: ""},
		Targets: g.groupRequestTargets(),
	}
}

// ActivateSelf sends one request to every member (implied dependencies
// plus grouped_services) and returns their combined delayed actions.
func (g *GroupService) ActivateSelf(ctx context.Context) ([]delayedaction.DelayedAction, error) {
	if g.StatusValue() == StatusActive {
		return nil, nil
	}
	g.status = StatusActive
	return ActRequestBasic(ctx, &g.Base, g.groupRequest())
}

// DeactivateSelf releases the group request from every member.
func (g *GroupService) DeactivateSelf(ctx context.Context, force bool) error {
	if g.StatusValue() != StatusActive {
		return nil
	}
	if !force {
		if g.options.DisableDeactivate {
			return rorgerr.Internalf("service %s has disable_deactivate set; cannot deactivate", g.ID())
		}
		if len(g.requestedByOthers) > 0 {
			return rorgerr.Internalf("service %s is still requested by others; cannot deactivate", g.ID())
		}
	}
	g.status = StatusToBeStopped
	for _, rid := range g.selfRequestIDsSnapshot() {
		if err := ActReleaseBasic(ctx, &g.Base, rid); err != nil {
			return err
		}
	}
	g.status = StatusStopped
	return nil
}

// Update is rejected for groups in this version.
func (g *GroupService) Update(ctx context.Context, newOptions ServiceOptions) error {
	return rorgerr.ServiceUnsupportedOptionsf("updating a group service (%s) is not supported", g.ID())
}

// Remove force-deactivates; there is no backing resource to release.
func (g *GroupService) Remove(ctx context.Context) error {
	return g.DeactivateSelf(ctx, true)
}

// ForceRestart is rejected — callers must restart members individually.
func (g *GroupService) ForceRestart(ctx context.Context) error {
	return rorgerr.Internalf("ForceRestart is not supported on group service %s; restart its members instead", g.ID())
}

// GetCpu/GetMem: a group has no resource usage of its own.
func (g *GroupService) GetCpu(ctx context.Context) (float64, bool, error) { return 0, false, nil }
func (g *GroupService) GetMem(ctx context.Context) (uint64, bool, error)  { return 0, false, nil }

func (g *GroupService) ActRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	return ActRequestBasic(ctx, &g.Base, req)
}

func (g *GroupService) ActRelease(ctx context.Context, rid serviceid.RequestId) error {
	return ActReleaseBasic(ctx, &g.Base, rid)
}

func (g *GroupService) HandleRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	return HandleRequestBasic(ctx, &g.Base, g.ActivateSelf, req)
}

func (g *GroupService) HandleRelease(ctx context.Context, rid serviceid.RequestId) error {
	return HandleReleaseBasic(ctx, &g.Base, g.DeactivateSelf, rid)
}

func (g *GroupService) ToState() ServiceState {
	return ServiceState{
		ID:                g.ID(),
		Type:              TypeGroup,
		Options:           g.options,
		Status:            g.status,
		RequestedByOthers: g.requestedByOthersList(),
		RequestsBySelf:    g.requestsBySelfList(),
	}
}
