package registry

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/cogrob/rorg/pkg/logging"
)

// refreshAllStats snapshots every real-mode DockerService and refreshes
// each one's stats cache concurrently, bounded by
// Config.RefreshStatsNumThreads. A single slow or erroring container
// must never stall the rest of the sweep, so individual errors are
// logged rather than propagated.
func (r *Registry) refreshAllStats(ctx context.Context) {
	r.mu.Lock()
	services := r.realModeDockerServices()
	r.mu.Unlock()
	if len(services) == 0 {
		return
	}

	sem := semaphore.NewWeighted(int64(r.cfg.RefreshStatsNumThreads))
	g, gctx := errgroup.WithContext(ctx)
	for _, ds := range services {
		ds := ds
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := ds.RefreshStats(gctx); err != nil {
				logging.Warn(subsystem, "stats refresh failed for %s: %v", ds.ID(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// RunStatsRefreshLoop sweeps all real-mode docker services' stats
// repeatedly, never starting a sweep sooner than
// Config.MinimalTimeBetweenRefreshStats after the previous sweep began.
// It blocks until ctx is cancelled or Stop is called; run it in its own
// goroutine.
func (r *Registry) RunStatsRefreshLoop(ctx context.Context) {
	r.stopStats = make(chan struct{})
	r.wg.Add(1)
	defer r.wg.Done()

	for {
		start := time.Now()
		r.refreshAllStats(ctx)
		r.RefreshAggregateMetrics(ctx)

		elapsed := time.Since(start)
		wait := r.cfg.MinimalTimeBetweenRefreshStats - elapsed
		if wait < 0 {
			wait = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-r.stopStats:
			return
		case <-time.After(wait):
		}
	}
}

// RunHostMetricsLoop samples host-wide CPU/memory utilization
// repeatedly, publishing each sample to the Prometheus gauges. It blocks
// until ctx is cancelled or Stop is called; run it in its own goroutine.
func (r *Registry) RunHostMetricsLoop(ctx context.Context) {
	r.stopHost = make(chan struct{})
	r.host = newHostMetricsSampler()
	r.wg.Add(1)
	defer r.wg.Done()

	r.host.run(ctx, r.stopHost, func(s hostSample) {
		r.metrics.hostCPUPercent.Set(s.cpuPercent)
		r.metrics.hostMemUsedByte.Set(float64(s.memUsed))
	})
}

// Stop signals both background loops to exit and waits for them to
// return.
func (r *Registry) Stop() {
	if r.stopStats != nil {
		close(r.stopStats)
	}
	if r.stopHost != nil {
		close(r.stopHost)
	}
	r.wg.Wait()
}

// RefreshAggregateMetrics recomputes the managed-service count and
// summed CPU/memory gauges. It is called by the background stats-refresh
// loop, which does not already hold the registry lock, so it takes Lock
// itself for the duration of the snapshot.
func (r *Registry) RefreshAggregateMetrics(ctx context.Context) {
	r.mu.Lock()
	count := len(r.services)
	cpuTotal, cpuErr := r.CollectAllServiceCpu(ctx)
	memTotal, memErr := r.CollectAllServiceMemory(ctx)
	r.mu.Unlock()

	r.metrics.managedServices.Set(float64(count))
	if cpuErr == nil {
		r.metrics.totalCPUUsage.Set(cpuTotal)
	}
	if memErr == nil {
		r.metrics.totalMemUsage.Set(float64(memTotal))
	}
}
