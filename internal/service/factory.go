package service

import (
	"time"

	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/runtime"
)

// Drivers holds the two process-wide runtime.Driver singletons; Select
// picks the one a given ServiceOptions.RunMode calls for.
type Drivers struct {
	Real      runtime.Driver
	Simulator runtime.Driver
}

func (d Drivers) Select(mode RunMode) runtime.Driver {
	if mode == RunModeSimulation {
		return d.Simulator
	}
	return d.Real
}

// NewFromOptions dispatches on opts.Type to construct the right variant.
// This is the corrected dispatch noted in §9: the original
// implementation's factory routed the Group case on the Docker type
// code; here each case is matched against its own tag.
func NewFromOptions(opts ServiceOptions, drivers Drivers, containerNamePrefix string, statsValidFor time.Duration, reg Registry) (Service, error) {
	switch opts.Type {
	case TypeDocker:
		name := ContainerName(containerNamePrefix, opts.ID)
		return NewDockerService(opts, drivers.Select(opts.RunMode), name, statsValidFor, reg)
	case TypeGroup:
		return NewGroupService(opts, reg), nil
	case TypeMeta:
		return NewMetaService(opts, reg), nil
	default:
		return nil, rorgerr.ServiceTypeNotSupportedf("unsupported service type %q for %s", opts.Type, opts.ID)
	}
}

// RestoreFromState reconstructs a Service from its persisted
// ServiceState without recreating anything. Requested/self-issued
// request sets are replayed verbatim from the record, per I6. It does
// not resolve a DockerService's container handle; the caller does that
// with RestoreHandle.
func RestoreFromState(state ServiceState, drivers Drivers, statsValidFor time.Duration, reg Registry) (Service, error) {
	var svc Service
	switch state.Type {
	case TypeDocker:
		d, err := NewDockerService(state.Options, drivers.Select(state.Options.RunMode), state.ContainerName, statsValidFor, reg)
		if err != nil {
			return nil, err
		}
		svc = d
	case TypeGroup:
		svc = NewGroupService(state.Options, reg)
	case TypeMeta:
		svc = NewMetaService(state.Options, reg)
	default:
		return nil, rorgerr.ServiceTypeNotSupportedf("unsupported service type %q for %s", state.Type, state.ID)
	}
	restoreBase(svc, state)
	return svc, nil
}

// restoreBase replays a persisted ServiceState's status and request
// sets onto a freshly constructed variant.
func restoreBase(svc Service, state ServiceState) {
	var base *Base
	switch s := svc.(type) {
	case *DockerService:
		base = &s.Base
	case *GroupService:
		base = &s.Base
	case *MetaService:
		base = &s.Base
	}
	if base == nil {
		return
	}
	base.status = state.Status
	for _, rid := range state.RequestedByOthers {
		base.requestedByOthers[rid.Key()] = rid
	}
	for _, req := range state.RequestsBySelf {
		base.requestsBySelf[req.ID.Key()] = req
	}
}
