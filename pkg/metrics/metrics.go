package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tenant / module metrics
	TenantsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenantd_tenants_total",
			Help: "Total number of registered tenants",
		},
	)

	EnabledModulesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tenantd_enabled_modules_total",
			Help: "Total number of enabled modules per tenant",
		},
		[]string{"tenant_id"},
	)

	// Install job metrics
	JobsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenantd_jobs_in_flight",
			Help: "Number of install/upgrade jobs currently running",
		},
	)

	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantd_jobs_total",
			Help: "Total number of install/upgrade jobs by outcome",
		},
		[]string{"outcome"},
	)

	JobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenantd_job_duration_seconds",
			Help:    "Time taken for an install/upgrade job to complete",
			Buckets: prometheus.DefBuckets,
		},
	)

	ModuleStageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantd_module_stage_transitions_total",
			Help: "Total number of plan-item stage transitions by target stage",
		},
		[]string{"stage"},
	)

	// Dependency resolver metrics
	ResolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenantd_resolver_duration_seconds",
			Help:    "Time taken by a dependency resolver operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Hook invocation metrics
	HookCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantd_hook_calls_total",
			Help: "Total number of module hook calls by hook and outcome",
		},
		[]string{"hook", "outcome"},
	)

	HookCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenantd_hook_call_duration_seconds",
			Help:    "Duration of a module hook call",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"hook"},
	)

	// Timer scheduler metrics
	TimersArmed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenantd_timers_armed",
			Help: "Number of timer keys currently armed in this process",
		},
	)

	TimerFiresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantd_timer_fires_total",
			Help: "Total number of timer fires by whether this process was leader",
		},
		[]string{"leader"},
	)

	// ReplicatedMap / Raft metrics
	RaftLeader = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tenantd_raft_is_leader",
			Help: "Whether this node is the Raft leader (1 = leader, 0 = follower)",
		},
	)

	RaftApplyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenantd_raft_apply_duration_seconds",
			Help:    "Time taken to apply a command to the replicated map",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Admin API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenantd_api_requests_total",
			Help: "Total number of admin API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenantd_api_request_duration_seconds",
			Help:    "Admin API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(
		TenantsTotal,
		EnabledModulesTotal,
		JobsInFlight,
		JobsTotal,
		JobDuration,
		ModuleStageTransitions,
		ResolverDuration,
		HookCallsTotal,
		HookCallDuration,
		TimersArmed,
		TimerFiresTotal,
		RaftLeader,
		RaftApplyDuration,
		APIRequestsTotal,
		APIRequestDuration,
	)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
