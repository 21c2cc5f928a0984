package registry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/cogrob/rorg/pkg/logging"
)

const hostSampleInterval = time.Second

// hostSample is a single host-wide reading, replaced as a whole pointer
// so readers outside the registry mutex never see a torn update.
type hostSample struct {
	cpuPercent float64
	memUsed    uint64
	sampledAt  time.Time
}

// hostMetricsSampler periodically reads host-wide CPU and memory
// utilization via gopsutil. It self-throttles: if a sample takes less
// than hostSampleInterval, the remainder is slept off so this task never
// dominates the process's own CPU budget.
type hostMetricsSampler struct {
	latest atomic.Pointer[hostSample]
}

func newHostMetricsSampler() *hostMetricsSampler {
	return &hostMetricsSampler{}
}

// Latest returns the most recent host sample, or ok=false before the
// first one has completed.
func (h *hostMetricsSampler) Latest() (hostSample, bool) {
	s := h.latest.Load()
	if s == nil {
		return hostSample{}, false
	}
	return *s, true
}

// HostSample is the exported view of the latest host-wide reading,
// returned to RPC callers that request the Psutil collection method.
type HostSample struct {
	CPUPercent float64
	MemUsed    uint64
}

// HostSample returns the registry's most recent host-wide CPU/memory
// sample, or ok=false if the host metrics loop has not sampled yet (e.g.
// RunHostMetricsLoop was never started).
func (r *Registry) HostSample() (HostSample, bool) {
	if r.host == nil {
		return HostSample{}, false
	}
	s, ok := r.host.Latest()
	if !ok {
		return HostSample{}, false
	}
	return HostSample{CPUPercent: s.cpuPercent, MemUsed: s.memUsed}, true
}

// run samples in a loop until ctx is cancelled or stop is closed.
func (h *hostMetricsSampler) run(ctx context.Context, stop <-chan struct{}, onSample func(hostSample)) {
	for {
		start := time.Now()

		percents, err := cpu.PercentWithContext(ctx, 0, false)
		var pct float64
		if err != nil {
			logging.Warn(subsystem, "host cpu sample failed: %v", err)
		} else if len(percents) > 0 {
			pct = percents[0]
		}

		var used uint64
		if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
			logging.Warn(subsystem, "host memory sample failed: %v", err)
		} else {
			used = vm.Used
		}

		sample := hostSample{cpuPercent: pct, memUsed: used, sampledAt: time.Now()}
		h.latest.Store(&sample)
		if onSample != nil {
			onSample(sample)
		}

		elapsed := time.Since(start)
		if elapsed < hostSampleInterval {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-time.After(hostSampleInterval - elapsed):
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}
	}
}
