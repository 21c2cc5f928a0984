package service

import (
	"context"
	"sync"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/serviceid"
)

// Registry is the narrow view of the registry a Service needs: enough to
// route requests/releases to other services by id, without owning them.
// It is satisfied by *registry.Registry; defining it here (rather than
// importing the registry package) keeps the dependency direction
// one-way, since the registry package imports Service.
type Registry interface {
	Get(id serviceid.ServiceId) (Service, error)
	GetNoRaise(id serviceid.ServiceId) Service
}

// Service is the capability set every variant implements, dispatched on
// ServiceType rather than through an inheritance tree.
type Service interface {
	ID() serviceid.ServiceId
	Type() ServiceType
	StatusValue() Status
	Options() ServiceOptions

	// ActRequest is called on a request's issuer: it records the
	// request and fans it out to every target's HandleRequest.
	ActRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error)
	// ActRelease is the inverse of ActRequest.
	ActRelease(ctx context.Context, rid serviceid.RequestId) error

	// HandleRequest is called on a request's target: it records being
	// requested and activates itself.
	HandleRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error)
	// HandleRelease is the inverse of HandleRequest.
	HandleRelease(ctx context.Context, rid serviceid.RequestId) error

	ActivateSelf(ctx context.Context) ([]delayedaction.DelayedAction, error)
	DeactivateSelf(ctx context.Context, force bool) error

	Update(ctx context.Context, opts ServiceOptions) error
	Remove(ctx context.Context) error
	ForceRestart(ctx context.Context) error

	// GetCpu/GetMem report resource usage; ok is false when no reading
	// is available (e.g. a real container with no cached stats, or a
	// Group/Meta service, which has no usage of its own).
	GetCpu(ctx context.Context) (usage float64, ok bool, err error)
	GetMem(ctx context.Context) (usageBytes uint64, ok bool, err error)

	ToState() ServiceState

	// SetRegistry rebinds (or, on Remove, nulls) the non-owning
	// back-pointer to the registry. The registry calls this; services
	// never resolve themselves into the map.
	SetRegistry(r Registry)
}

// Base holds the fields and protocol logic common to every variant. It
// is embedded by DockerService/GroupService/MetaService, which each add
// their own type-specific state and ActivateSelf/DeactivateSelf/Update/
// Remove/ForceRestart/GetCpu/GetMem.
//
// Base is not safe for concurrent use on its own: callers (the registry
// and the RPC facade) serialize all access behind the single
// process-wide registry mutex, per the concurrency model.
type Base struct {
	mu sync.Mutex // not used by any variant; DockerService's shared fields are atomic pointers

	id      serviceid.ServiceId
	typ     ServiceType
	options ServiceOptions
	status  Status

	requestedByOthers map[string]serviceid.RequestId
	requestsBySelf    map[string]serviceid.Request

	registry Registry
}

// NewBase constructs a Base in StatusStopped with empty request sets.
func NewBase(typ ServiceType, opts ServiceOptions, reg Registry) Base {
	return Base{
		id:                opts.ID,
		typ:               typ,
		options:           opts,
		status:            StatusStopped,
		requestedByOthers: make(map[string]serviceid.RequestId),
		requestsBySelf:    make(map[string]serviceid.Request),
		registry:          reg,
	}
}

func (b *Base) ID() serviceid.ServiceId    { return b.id }
func (b *Base) Type() ServiceType          { return b.typ }
func (b *Base) StatusValue() Status        { return b.status }
func (b *Base) Options() ServiceOptions    { return b.options }
func (b *Base) SetRegistry(r Registry)     { b.registry = r }

// requestedByOthersList returns a deterministic snapshot for ToState.
func (b *Base) requestedByOthersList() []serviceid.RequestId {
	out := make([]serviceid.RequestId, 0, len(b.requestedByOthers))
	for _, rid := range b.requestedByOthers {
		out = append(out, rid)
	}
	return out
}

func (b *Base) requestsBySelfList() []serviceid.Request {
	out := make([]serviceid.Request, 0, len(b.requestsBySelf))
	for _, r := range b.requestsBySelf {
		out = append(out, r)
	}
	return out
}

// selfRequestIDsSnapshot copies the current self-issued request ids so
// callers can safely range over them while ActReleaseBasic mutates the
// underlying map.
func (b *Base) selfRequestIDsSnapshot() []serviceid.RequestId {
	out := make([]serviceid.RequestId, 0, len(b.requestsBySelf))
	for _, r := range b.requestsBySelf {
		out = append(out, r.ID)
	}
	return out
}

// ImpliedRequest builds this service's own request on its implied
// dependencies, using the reserved __IMPLIED uuid (I2).
func (b *Base) ImpliedRequest() serviceid.Request {
	return serviceid.Request{
		ID:      serviceid.RequestId{Issuer: b.id, UUID: serviceid.ImpliedUUID},
		Targets: b.options.ImpliedDependencies,
	}
}

// ActRequestBasic is the shared ActRequest implementation: preconditions
// status == Active; replaces any prior self-issued request with the
// same RequestId (at-most-one per id); fans the request out to every
// target's HandleRequest and concatenates their delayed actions.
func ActRequestBasic(ctx context.Context, b *Base, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	if b.status != StatusActive {
		return nil, rorgerr.ServiceNotActivef("service %s is not active; cannot ActRequest", b.id)
	}
	deduped := serviceid.Request{ID: req.ID, Targets: req.DedupedTargets()}
	b.requestsBySelf[req.ID.Key()] = deduped

	var actions []delayedaction.DelayedAction
	for _, target := range deduped.Targets {
		targetSvc, err := b.registry.Get(target)
		if err != nil {
			return actions, err
		}
		targetActions, err := targetSvc.HandleRequest(ctx, deduped)
		if err != nil {
			return actions, err
		}
		actions = append(actions, targetActions...)
	}
	return actions, nil
}

// ActReleaseBasic is the shared ActRelease implementation: preconditions
// status ∈ {Active, ToBeStopped}; finds and removes the self-issued
// request by id, failing with ServiceRequestNotExist if absent, then
// calls HandleRelease on every one of its former targets.
func ActReleaseBasic(ctx context.Context, b *Base, rid serviceid.RequestId) error {
	if b.status == StatusStopped {
		return rorgerr.ServiceNotActivef("service %s is not active; cannot ActRelease", b.id)
	}
	req, ok := b.requestsBySelf[rid.Key()]
	if !ok {
		return rorgerr.ServiceRequestNotExistf("service %s has no outstanding self-request %s", b.id, rid.UUID)
	}
	delete(b.requestsBySelf, rid.Key())

	for _, target := range req.Targets {
		targetSvc, err := b.registry.Get(target)
		if err != nil {
			return err
		}
		if err := targetSvc.HandleRelease(ctx, rid); err != nil {
			return err
		}
	}
	return nil
}

// HandleRequestBasic is the shared HandleRequest implementation: it
// ensures req.ID appears exactly once in requestedByOthers (idempotent
// on duplicate delivery; most-recent wins, though the recorded value
// never actually changes for an equal key) and then activates self.
func HandleRequestBasic(ctx context.Context, b *Base, activateSelf func(context.Context) ([]delayedaction.DelayedAction, error), req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	b.requestedByOthers[req.ID.Key()] = req.ID
	return activateSelf(ctx)
}

// HandleReleaseBasic is the shared HandleRelease implementation: it
// removes rid from requestedByOthers, failing with
// ServiceRequestNotExist if it was not present (an exact membership
// check, not a length comparison), and deactivates self once the set
// becomes empty.
func HandleReleaseBasic(ctx context.Context, b *Base, deactivateSelf func(context.Context, bool) error, rid serviceid.RequestId) error {
	if _, ok := b.requestedByOthers[rid.Key()]; !ok {
		return rorgerr.ServiceRequestNotExistf("service %s was not requested by %s", b.id, rid.Key())
	}
	delete(b.requestedByOthers, rid.Key())
	if len(b.requestedByOthers) == 0 {
		return deactivateSelf(ctx, false)
	}
	return nil
}
