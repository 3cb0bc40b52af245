package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveUpstream("get_slots", nil, 0.2)
	m.ObserveUpstream("get_slots", errors.New("boom"), 1.5)
	m.ObserveTransition("select_service", "ok")
	m.ObserveBooking(true)
	m.ObserveBooking(false)
	m.ObserveBooking(false)
	m.ObserveStale("slots")
	m.ObserveSessionStarted()

	if got := testutil.ToFloat64(m.upstreamTotal.WithLabelValues("get_slots", "error")); got != 1 {
		t.Fatalf("upstream error count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("failed")); got != 2 {
		t.Fatalf("failed bookings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.sessionsStarted); got != 1 {
		t.Fatalf("sessions started = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	latency := findFamily(families, "barberq_upstream_latency_seconds")
	if latency == nil {
		t.Fatal("latency histogram not registered")
	}
	if n := latency.GetMetric()[0].GetHistogram().GetSampleCount(); n != 2 {
		t.Fatalf("latency samples = %d, want 2", n)
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveUpstream("get_services", nil, 0.1)
	m.ObserveTransition("confirm", "rejected")
	m.ObserveBooking(true)
	m.ObserveStale("booking")
	m.ObserveSessionStarted()
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}
