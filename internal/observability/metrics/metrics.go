package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking wizard.
type BookingMetrics struct {
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	staleResults    *prometheus.CounterVec
	sessionsStarted prometheus.Counter
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberq",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total BarberQ API calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "barberq",
			Subsystem: "upstream",
			Name:      "latency_seconds",
			Help:      "Latency of BarberQ API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberq",
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard commands by operation and result",
		}, []string{"operation", "result"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberq",
			Subsystem: "wizard",
			Name:      "bookings_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		staleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberq",
			Subsystem: "wizard",
			Name:      "stale_results_total",
			Help:      "Fetch results dropped because a newer selection superseded them",
		}, []string{"kind"}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "barberq",
			Subsystem: "wizard",
			Name:      "sessions_started_total",
			Help:      "Wizard sessions started",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.upstreamTotal, m.upstreamLatency, m.transitions, m.bookingsTotal, m.staleResults, m.sessionsStarted)
	return m
}

func (m *BookingMetrics) ObserveUpstream(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamTotal.WithLabelValues(operation, outcome).Inc()
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveTransition(operation, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, result).Inc()
}

func (m *BookingMetrics) ObserveBooking(confirmed bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if confirmed {
		outcome = "confirmed"
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStale(kind string) {
	if m == nil {
		return
	}
	m.staleResults.WithLabelValues(kind).Inc()
}

func (m *BookingMetrics) ObserveSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}
