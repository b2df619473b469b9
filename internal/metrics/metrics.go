package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks premium calculations by line and outcome.
	RatingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_ratings_total",
			Help: "Total number of premium calculations (by line and result).",
		},
		[]string{"line", "result"}, // result = "ok" | "validation" | "rating"
	)

	// Measures time spent in the dispatcher, resolver lookup included.
	RatingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quotation_rating_duration_seconds",
			Help:    "Duration of premium calculations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15), // 100µs → ~1.6s
		},
		[]string{"line"},
	)

	// Tracks persisted quotes by line.
	QuotesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_quotes_created_total",
			Help: "Total number of quotes persisted.",
		},
		[]string{"line"},
	)

	// Tracks quote status changes.
	QuoteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_quote_transitions_total",
			Help: "Total number of quote status transitions.",
		},
		[]string{"from", "to"},
	)

	// Tracks NATS messages published by subject and result.
	NATSMessageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages processed.",
		},
		[]string{"subject", "result"}, // result = "ok" | "error"
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Time taken to publish NATS messages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	// Tracks cache hits and misses for catalogue snapshots and quotes.
	CacheAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_cache_access_total",
			Help: "Number of cache hits/misses by cache.",
		},
		[]string{"cache", "result"}, // hit | miss
	)

	// Tracks total errors (aggregated).
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quotation_errors_total",
			Help: "Count of service-level errors by component.",
		},
		[]string{"component", "reason"},
	)

	// Gauges the last completed expiry sweep (seconds since epoch).
	LastSweepTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quotation_last_sweep_timestamp",
			Help: "Timestamp (unix seconds) of the last completed background sweep.",
		},
		[]string{"component"},
	)
)

// ObserveDuration records the time taken for a function and updates the given histogram.
func ObserveDuration(v interface{}, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// silently ignore counters; they're not meant for duration tracking
	}
}

func IncRating(line, result string) {
	RatingsTotal.WithLabelValues(line, result).Inc()
}

func IncQuoteCreated(line string) {
	QuotesCreated.WithLabelValues(line).Inc()
}

func IncTransition(from, to string) {
	QuoteTransitions.WithLabelValues(from, to).Inc()
}

func IncNATSMessage(subject, result string) {
	NATSMessageCount.WithLabelValues(subject, result).Inc()
}

func IncCache(cache, result string) {
	CacheAccess.WithLabelValues(cache, result).Inc()
}

func IncError(component, reason string) {
	ErrorsTotal.WithLabelValues(component, reason).Inc()
}

func SetLastSweep(component string, t time.Time) {
	LastSweepTimestamp.WithLabelValues(component).Set(float64(t.Unix()))
}
