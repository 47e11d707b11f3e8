package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess  = "success"
	OutcomeInput    = "input_error"
	OutcomeUpstream = "upstream_error"
	OutcomeInternal = "internal_error"
)

// Recorder tracks upload outcomes. A nil *Recorder records nothing.
type Recorder struct {
	uploads  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     prometheus.Histogram
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mediadrop_uploads_total",
			Help: "Upload requests by backend, resource type and outcome.",
		}, []string{"backend", "resource_type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mediadrop_upload_duration_seconds",
			Help:    "Time spent forwarding a file to the storage backend.",
			Buckets: prometheus.DefBuckets,
		}, []string{"backend"}),
		size: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mediadrop_upload_size_bytes",
			Help:    "Size of extracted files.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}
	reg.MustRegister(r.uploads, r.duration, r.size)
	return r
}

// Rejected counts a request that never reached the backend.
func (r *Recorder) Rejected(backend, outcome string) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(backend, "none", outcome).Inc()
}

// Observe records one backend upload attempt.
func (r *Recorder) Observe(backend, resourceType, outcome string, size int64, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(backend, resourceType, outcome).Inc()
	r.duration.WithLabelValues(backend).Observe(elapsed.Seconds())
	r.size.Observe(float64(size))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
