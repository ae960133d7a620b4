package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exposes Prometheus metrics for the import pipeline and the
// inbound HTTP API.
type Collector struct {
	registry *prometheus.Registry

	eventsFetched   prometheus.Counter
	resolutions     *prometheus.CounterVec
	validations     *prometheus.CounterVec
	storeOps        *prometheus.CounterVec
	unmatchedNames  *prometheus.CounterVec
	dayDuration     prometheus.Histogram
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewCollector constructs a collector with all import and HTTP instruments
// registered on a private registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		eventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tempocal",
			Subsystem: "import",
			Name:      "btc_events_fetched_total",
			Help:      "Total external events fetched from the BTC calendar.",
		}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempocal",
			Subsystem: "import",
			Name:      "resolutions_total",
			Help:      "Per-event entity resolution outcomes.",
		}, []string{"result"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempocal",
			Subsystem: "import",
			Name:      "validations_total",
			Help:      "Per-event validation outcomes.",
		}, []string{"result"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempocal",
			Subsystem: "import",
			Name:      "store_operations_total",
			Help:      "Event store writes by operation (created, deleted, failed).",
		}, []string{"op"}),
		unmatchedNames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempocal",
			Subsystem: "import",
			Name:      "unmatched_names_total",
			Help:      "External names that failed resolution, by entity kind.",
		}, []string{"kind"}),
		dayDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tempocal",
			Subsystem: "import",
			Name:      "day_duration_seconds",
			Help:      "Wall time to import a single calendar day.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tempocal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tempocal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
	}

	for _, collector := range []prometheus.Collector{
		c.eventsFetched,
		c.resolutions,
		c.validations,
		c.storeOps,
		c.unmatchedNames,
		c.dayDuration,
		c.requestDuration,
		c.requestTotal,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// EventsFetched records external events fetched for a day.
func (c *Collector) EventsFetched(n int) {
	if c == nil {
		return
	}
	c.eventsFetched.Add(float64(n))
}

// Resolution records one per-event resolution outcome.
func (c *Collector) Resolution(success bool) {
	if c == nil {
		return
	}
	c.resolutions.WithLabelValues(resultLabel(success)).Inc()
}

// Validation records one per-event validation outcome.
func (c *Collector) Validation(valid bool) {
	if c == nil {
		return
	}
	c.validations.WithLabelValues(resultLabel(valid)).Inc()
}

// StoreOp records store writes by operation name.
func (c *Collector) StoreOp(op string, n int) {
	if c == nil {
		return
	}
	c.storeOps.WithLabelValues(op).Add(float64(n))
}

// Unmatched records an unresolved external name by kind.
func (c *Collector) Unmatched(kind string) {
	if c == nil {
		return
	}
	c.unmatchedNames.WithLabelValues(kind).Inc()
}

// DayImported records the wall time of one day's import.
func (c *Collector) DayImported(d time.Duration) {
	if c == nil {
		return
	}
	c.dayDuration.Observe(d.Seconds())
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// Handler returns an HTTP handler exposing the metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
