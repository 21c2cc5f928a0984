package registry

import "github.com/prometheus/client_golang/prometheus"

// metricsSet holds the process-wide gauges scraped via /metrics. Values
// are pushed only by the two background tasks; the on-demand
// aggregate-usage RPCs do not update them.
type metricsSet struct {
	managedServices prometheus.Gauge
	totalCPUUsage   prometheus.Gauge
	totalMemUsage   prometheus.Gauge
	hostCPUPercent  prometheus.Gauge
	hostMemUsedByte prometheus.Gauge
}

func newMetricsSet() *metricsSet {
	return &metricsSet{
		managedServices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rorg",
			Name:      "managed_services",
			Help:      "Number of services currently tracked by the registry.",
		}),
		totalCPUUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rorg",
			Name:      "total_cpu_usage_cores",
			Help:      "Sum of GetCpu across every managed service, in logical cores.",
		}),
		totalMemUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rorg",
			Name:      "total_memory_usage_bytes",
			Help:      "Sum of GetMem across every managed service, in bytes.",
		}),
		hostCPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rorg",
			Name:      "host_cpu_percent",
			Help:      "Host-wide CPU utilization percentage, sampled by the host metrics task.",
		}),
		hostMemUsedByte: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rorg",
			Name:      "host_memory_used_bytes",
			Help:      "Host-wide resident memory usage, sampled by the host metrics task.",
		}),
	}
}

// Register adds every gauge to reg. Called once at startup with the
// Prometheus registry that serves /metrics.
func (m *metricsSet) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.managedServices, m.totalCPUUsage, m.totalMemUsage, m.hostCPUPercent, m.hostMemUsedByte)
}

// Register adds the registry's metric set to reg; rorgd passes the
// dedicated Prometheus registry its /metrics mux serves.
func (r *Registry) Register(reg prometheus.Registerer) {
	r.metrics.Register(reg)
}
