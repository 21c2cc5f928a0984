package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/cogrob/rorg/internal/delayedaction"
	"github.com/cogrob/rorg/internal/rorgerr"
	"github.com/cogrob/rorg/internal/service"
	"github.com/cogrob/rorg/internal/serviceid"
	"github.com/cogrob/rorg/pkg/logging"
)

const subsystem = "registry"

// Registry is the process-wide owner of every Service: the map
// ServiceId → Service, the persistence coordinator, and the host of the
// two background tasks. Per the concurrency model in §5, it is guarded
// by a single mutex that the RPC facade holds across an entire handler
// body including the post-mutation WriteToDisk call — Lock/Unlock are
// exported for exactly that purpose.
//
// Every other exported method assumes its caller already holds Lock:
// the RPC facade takes it once per request and calls straight through
// to Get/CreateService/RequestService/etc, and the background loops
// (stats refresh, aggregate metrics) take it themselves before touching
// registry state. Apart from Lock/Unlock, only the background-loop entry
// points in stats_refresh.go (refreshAllStats, RefreshAggregateMetrics)
// lock internally; those must be called without the lock held, and
// every other method here only with it held.
type Registry struct {
	mu sync.Mutex

	services map[string]service.Service
	cfg      Config
	drivers  service.Drivers
	metrics  *metricsSet

	stopStats chan struct{}
	stopHost  chan struct{}
	wg        sync.WaitGroup

	host *hostMetricsSampler
}

// New constructs an empty Registry. Callers should follow with
// LoadFromDisk and EnsureOperator before serving RPCs.
func New(cfg Config, drivers service.Drivers) *Registry {
	return &Registry{
		services: make(map[string]service.Service),
		cfg:      cfg,
		drivers:  drivers,
		metrics:  newMetricsSet(),
	}
}

// Lock acquires the single global registry mutex. Callers (the RPC
// facade) must hold it across dispatch and the subsequent WriteToDisk.
func (r *Registry) Lock() { r.mu.Lock() }

// Unlock releases the global registry mutex.
func (r *Registry) Unlock() { r.mu.Unlock() }

// Get resolves id to its Service, failing with ServiceNotFound if
// absent. Satisfies service.Registry.
func (r *Registry) Get(id serviceid.ServiceId) (service.Service, error) {
	svc, ok := r.services[id.Key()]
	if !ok {
		return nil, rorgerr.ServiceNotFoundf("service %s not found", id)
	}
	return svc, nil
}

// GetNoRaise resolves id to its Service, or nil if absent. Satisfies
// service.Registry.
func (r *Registry) GetNoRaise(id serviceid.ServiceId) service.Service {
	return r.services[id.Key()]
}

// CreateService validates, constructs, and registers a new service.
// Fails with ServiceAlreadyExist on a duplicate id, or
// ServiceUnsupportedOptions if its implied_dependencies would close a
// cycle (I4).
func (r *Registry) CreateService(ctx context.Context, opts service.ServiceOptions) error {
	if r.GetNoRaise(opts.ID) != nil {
		return rorgerr.ServiceAlreadyExistf("service %s already exists", opts.ID)
	}
	if err := r.checkAcyclic(opts.ID, opts.ImpliedDependencies); err != nil {
		return err
	}

	svc, err := service.NewFromOptions(opts, r.drivers, r.cfg.ContainerNamePrefix, r.cfg.DockerStatsValidTime, r)
	if err != nil {
		return err
	}
	if ds, ok := svc.(*service.DockerService); ok {
		if err := ds.CreateContainer(ctx); err != nil {
			return err
		}
	}
	r.services[opts.ID.Key()] = svc
	logging.Info(subsystem, "created service %s (type=%s)", opts.ID, opts.Type)
	return nil
}

// QueryService returns the current ServiceState for id.
func (r *Registry) QueryService(id serviceid.ServiceId) (service.ServiceState, error) {
	svc, err := r.Get(id)
	if err != nil {
		return service.ServiceState{}, err
	}
	return svc.ToState(), nil
}

// UpdateService re-validates the cycle invariant against the proposed
// new options, then delegates to the service's own Update.
func (r *Registry) UpdateService(ctx context.Context, opts service.ServiceOptions) error {
	svc, err := r.Get(opts.ID)
	if err != nil {
		return err
	}
	if err := r.checkAcyclic(opts.ID, opts.ImpliedDependencies); err != nil {
		return err
	}
	return svc.Update(ctx, opts)
}

// RemoveService deactivates and drops a service from the registry,
// nulling its non-owning back-pointer.
func (r *Registry) RemoveService(ctx context.Context, id serviceid.ServiceId) error {
	svc, err := r.Get(id)
	if err != nil {
		return err
	}
	if err := svc.Remove(ctx); err != nil {
		return err
	}
	delete(r.services, id.Key())
	svc.SetRegistry(nil)
	logging.Info(subsystem, "removed service %s", id)
	return nil
}

// ListServices returns every managed id, sorted for deterministic
// output.
func (r *Registry) ListServices() []serviceid.ServiceId {
	ids := make([]serviceid.ServiceId, 0, len(r.services))
	for _, svc := range r.services {
		ids = append(ids, svc.ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Key() < ids[j].Key() })
	return ids
}

// RequestService routes a Request to its issuer's ActRequest.
func (r *Registry) RequestService(ctx context.Context, req serviceid.Request) ([]delayedaction.DelayedAction, error) {
	issuer, err := r.Get(req.ID.Issuer)
	if err != nil {
		return nil, err
	}
	return issuer.ActRequest(ctx, req)
}

// ReleaseService routes a release to its issuer's ActRelease.
func (r *Registry) ReleaseService(ctx context.Context, rid serviceid.RequestId) error {
	issuer, err := r.Get(rid.Issuer)
	if err != nil {
		return err
	}
	return issuer.ActRelease(ctx, rid)
}

// EnsureOperator idempotently creates the built-in operator Meta
// service, the reserved proxy identity external actors issue requests
// as.
func (r *Registry) EnsureOperator() {
	id := serviceid.Operator()
	if r.GetNoRaise(id) != nil {
		return
	}
	opts := service.ServiceOptions{ID: id, Type: service.TypeMeta, Enabled: true}
	r.services[id.Key()] = service.NewMetaService(opts, r)
	logging.Info(subsystem, "ensured built-in operator service %s", id)
}

// CollectAllServiceCpu sums GetCpu across every managed service. Like
// the rest of Registry's core operations, it assumes the caller already
// holds Lock — the RPC facade for an on-demand query, or the background
// metrics loop which takes the lock itself before calling in.
func (r *Registry) CollectAllServiceCpu(ctx context.Context) (float64, error) {
	var total float64
	for _, svc := range r.services {
		usage, ok, err := svc.GetCpu(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			total += usage
		}
	}
	return total, nil
}

// CollectAllServiceMemory sums GetMem across every managed service.
// Assumes the caller holds Lock; see CollectAllServiceCpu.
func (r *Registry) CollectAllServiceMemory(ctx context.Context) (uint64, error) {
	var total uint64
	for _, svc := range r.services {
		usage, ok, err := svc.GetMem(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			total += usage
		}
	}
	return total, nil
}

// realModeDockerServices returns every real-mode DockerService currently
// managed, for the stats-refresh sweep.
func (r *Registry) realModeDockerServices() []*service.DockerService {
	var out []*service.DockerService
	for _, svc := range r.services {
		if ds, ok := svc.(*service.DockerService); ok && ds.IsRealMode() {
			out = append(out, ds)
		}
	}
	return out
}
