package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rostervault"

// Failure phases used as the "phase" label of FailuresTotal.
const (
	PhaseEncode   = "encode"
	PhaseUpload   = "upload"
	PhaseSweep    = "sweep"
	PhaseList     = "list"
	PhaseDownload = "download"
	PhaseDecode   = "decode"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// Backup metrics
	TicksTotal       prometheus.Counter
	FailuresTotal    *prometheus.CounterVec
	LastSuccess      prometheus.Gauge
	SnapshotItems    *prometheus.GaugeVec
	SnapshotBytes    *prometheus.GaugeVec
	CompressDuration prometheus.Histogram
	UploadDuration   prometheus.Histogram

	// Retention metrics
	SweptObjects  prometheus.Counter
	SweepFailures prometheus.Counter

	// Restore metrics
	RestoreTotal *prometheus.CounterVec

	// Ops HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with Go runtime and process collectors
// plus every rostervault metric.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,

		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_ticks_total",
			Help:      "Backup ticks started",
		}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_failures_total",
			Help:      "Backup failures by phase",
		}, []string{"phase"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful upload",
		}),
		SnapshotItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_items",
			Help:      "Items in the last uploaded snapshot by collection",
		}, []string{"collection"}),
		SnapshotBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_bytes",
			Help:      "Size of the last uploaded snapshot (raw or compressed)",
		}, []string{"kind"}),
		CompressDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_compress_duration_seconds",
			Help:      "Time spent serializing and compressing a snapshot",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		UploadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_upload_duration_seconds",
			Help:      "Time spent uploading a snapshot",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),

		SweptObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_objects_total",
			Help:      "Expired backups deleted by the retention sweep",
		}),
		SweepFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_delete_failures_total",
			Help:      "Expired backups the retention sweep failed to delete",
		}),

		RestoreTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restore_total",
			Help:      "Startup restore attempts by outcome",
		}, []string{"outcome"}),

		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Ops HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Ops HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		r.TicksTotal,
		r.FailuresTotal,
		r.LastSuccess,
		r.SnapshotItems,
		r.SnapshotBytes,
		r.CompressDuration,
		r.UploadDuration,
		r.SweptObjects,
		r.SweepFailures,
		r.RestoreTotal,
		r.RequestsTotal,
		r.RequestDuration,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns the /metrics handler for r.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registerer exposes the underlying registry for components that
// register their own metrics.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// IncTick counts a started backup tick.
func (r *Registry) IncTick() {
	r.TicksTotal.Inc()
}

// RecordFailure counts a failure in phase.
func (r *Registry) RecordFailure(phase string) {
	r.FailuresTotal.WithLabelValues(phase).Inc()
}

// SetLastSuccess records the time of a successful upload.
func (r *Registry) SetLastSuccess(t time.Time) {
	r.LastSuccess.Set(float64(t.UnixNano()) / 1e9)
}

// SetSnapshotCounts records the per-collection counts of an upload.
func (r *Registry) SetSnapshotCounts(records, instructors, hosts int) {
	r.SnapshotItems.WithLabelValues("records").Set(float64(records))
	r.SnapshotItems.WithLabelValues("instructors").Set(float64(instructors))
	r.SnapshotItems.WithLabelValues("hosts").Set(float64(hosts))
}

// SetSnapshotSizes records the raw and compressed size of an upload.
func (r *Registry) SetSnapshotSizes(raw, compressed int) {
	r.SnapshotBytes.WithLabelValues("raw").Set(float64(raw))
	r.SnapshotBytes.WithLabelValues("compressed").Set(float64(compressed))
}

// ObserveCompression records serialization plus compression time.
func (r *Registry) ObserveCompression(d time.Duration) {
	r.CompressDuration.Observe(d.Seconds())
}

// ObserveUpload records upload time.
func (r *Registry) ObserveUpload(d time.Duration) {
	r.UploadDuration.Observe(d.Seconds())
}

// RecordSweep adds the outcome of one retention sweep.
func (r *Registry) RecordSweep(deleted, failed int) {
	r.SweptObjects.Add(float64(deleted))
	r.SweepFailures.Add(float64(failed))
}

// RecordRestore counts a restore attempt.
func (r *Registry) RecordRestore(outcome string) {
	r.RestoreTotal.WithLabelValues(outcome).Inc()
}

// RecordRequest counts an ops HTTP request.
func (r *Registry) RecordRequest(method, route, status string) {
	r.RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// ObserveRequestDuration records ops HTTP latency in seconds.
func (r *Registry) ObserveRequestDuration(method, route string, seconds float64) {
	r.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}
