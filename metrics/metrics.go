package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/CorrelAid/contact_form_guard/guard"
	"github.com/CorrelAid/contact_form_guard/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes of a guarded submission.
const (
	OutcomeAccepted = "accepted"
	OutcomeBlocked  = "blocked"
)

// Metrics holds the service collectors.
type Metrics struct {
	registry     *prometheus.Registry
	submissions  *prometheus.CounterVec
	fieldFailure *prometheus.CounterVec
	reqDuration  *prometheus.HistogramVec
}

// New registers the Go, process and service collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by guard outcome.",
		}, []string{"outcome"}),
		fieldFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contact_field_failures_total",
			Help: "Failed field checks by field.",
		}, []string{"field"}),
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
		}, []string{"path", "method", "status"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.fieldFailure,
		m.reqDuration,
	)
	return m
}

// ObserveGuard records the outcome of one submission.
func (m *Metrics) ObserveGuard(errs models.FieldErrors) {
	if errs.Valid() {
		m.submissions.WithLabelValues(OutcomeAccepted).Inc()
		return
	}
	m.submissions.WithLabelValues(OutcomeBlocked).Inc()
	for _, f := range guard.Fields {
		if _, failed := errs[string(f)]; failed {
			m.fieldFailure.WithLabelValues(string(f)).Inc()
		}
	}
}

// HTTPMetrics records request durations by route pattern.
func (m *Metrics) HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.reqDuration.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
