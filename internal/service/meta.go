package service

import (
	"context"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/serviceid"
)

// MetaService is a stateless sentinel representing an external actor
// (operator, scripts). It is always Active and never actually handles a
// request or release — it exists only to be a valid RequestId.Issuer, so
// the protocol can attribute outside requests to something in the
// registry.
type MetaService struct {
	Base
}

// NewMetaService constructs an always-Active, non-deactivatable Meta
// service (I5).
func NewMetaService(opts ServiceOptions, reg Registry) *MetaService {
	opts.DisableDeactivate = true
	base := NewBase(TypeMeta, opts, reg)
	base.status = StatusActive
	return &MetaService{Base: base}
}

// ActivateSelf is a no-op: a Meta service is always already Active.
func (m *MetaService) ActivateSelf(ctx context.Context) ([]delayedaction.DelayedAction, error) {
	return nil, nil
}

// DeactivateSelf always fails: Meta services cannot be deactivated (I5).
func (m *MetaService) DeactivateSelf(ctx context.Context, force bool) error {
	return rorgerr.Internalf("meta service %s cannot be deactivated", m.ID())
}

func (m *MetaService) Update(ctx context.Context, newOptions ServiceOptions) error {
	return rorgerr.Internalf("meta service %s does not support Update", m.ID())
}

func (m *MetaService) Remove(ctx context.Context) error {
	return rorgerr.Internalf("meta service %s does not support Remove", m.ID())
}

func (m *MetaService) ForceRestart(ctx context.Context) error {
	return rorgerr.Internalf("meta service %s does not support ForceRestart", m.ID())
}

func (m *MetaService) GetCpu(ctx context.Context) (float64, bool, error) { return 0, false, nil }
func (m *MetaService) GetMem(ctx context.Context) (uint64, bool, error)  { return 0, false, nil }

// ActRequest/ActRelease still use the shared base protocol: a Meta
// service is a legitimate request issuer (it's how external actors make
// claims), it just never receives requests itself.
func (m *MetaService) ActRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	return ActRequestBasic(ctx, &m.Base, req)
}

func (m *MetaService) ActRelease(ctx context.Context, rid serviceid.RequestId) error {
	return ActReleaseBasic(ctx, &m.Base, rid)
}

func (m *MetaService) HandleRequest(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	return nil, rorgerr.Internalf("meta service %s cannot be a request target", m.ID())
}

func (m *MetaService) HandleRelease(ctx context.Context, rid serviceid.RequestId) error {
	return rorgerr.Internalf("meta service %s cannot be a request target", m.ID())
}

func (m *MetaService) ToState() ServiceState {
	return ServiceState{
		ID:                m.ID(),
		Type:              TypeMeta,
		Options:           m.options,
		Status:            m.status,
		RequestedByOthers: m.requestedByOthersList(),
		RequestsBySelf:    m.requestsBySelfList(),
	}
}
