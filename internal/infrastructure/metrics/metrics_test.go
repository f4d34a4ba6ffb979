package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Replace the global default registry so the test can inspect it.
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry

	m := New()

	if m.OrdersConfirmed == nil || m.LoansApproved == nil || m.PointsConversions == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.OrdersConfirmed.Inc()
	m.ConsistencyFailures.Inc()
	m.DisputesResolved.WithLabelValues("refund_buyer").Inc()

	if got := testutil.ToFloat64(m.OrdersConfirmed); got != 1 {
		t.Fatalf("OrdersConfirmed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.DisputesResolved.WithLabelValues("refund_buyer")); got != 1 {
		t.Fatalf("DisputesResolved[refund_buyer] = %v, want 1", got)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metrics, got none")
	}

	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "treasury_") {
			t.Fatalf("metric %q missing treasury_ prefix", mf.GetName())
		}
	}
}
