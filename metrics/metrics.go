package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upload outcomes used as the "outcome" label.
const (
	OutcomeOK           = "ok"
	OutcomeCached       = "cached"
	OutcomeUnsupported  = "unsupported"
	OutcomeDecodeFailed = "decode_failed"
	OutcomeNoMarks      = "no_marks"
	OutcomeError        = "error"
)

const namespace = "marks"

// Recorder collects upload and classification metrics. A nil *Recorder is a no-op.
type Recorder struct {
	registry *prometheus.Registry
	uploads  *prometheus.CounterVec
	marks    *prometheus.CounterVec
	setSize  prometheus.Histogram
}

// NewRecorder registers the collectors on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by format and outcome.",
		}, []string{"format", "outcome"}),
		marks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classified_total",
			Help:      "Marks classified, by quartile.",
		}, []string{"quartile"}),
		setSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "marks_per_upload",
			Help:      "Number of marks extracted from a successful upload.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	reg.MustRegister(r.uploads, r.marks, r.setSize)
	return r
}

// ObserveUpload counts one upload attempt.
func (r *Recorder) ObserveUpload(format, outcome string) {
	if r == nil {
		return
	}
	r.uploads.WithLabelValues(format, outcome).Inc()
}

// ObserveMarks records a classified mark set by its quartile counts.
func (r *Recorder) ObserveMarks(counts [4]int) {
	if r == nil {
		return
	}
	total := 0
	for i, n := range counts {
		r.marks.WithLabelValues("q" + strconv.Itoa(i+1)).Add(float64(n))
		total += n
	}
	r.setSize.Observe(float64(total))
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
