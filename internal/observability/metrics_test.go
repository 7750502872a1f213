package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage in the printer and http packages.
func TestMetrics_Usable(t *testing.T) {
	PrintsQueuedTotal.WithLabelValues(KindTemporary).Inc()
	PrintsQueuedTotal.WithLabelValues(KindPersistent).Inc()
	PrintsDisplayedTotal.WithLabelValues(KindTemporary).Inc()
	PrintsSkippedTotal.Inc()
	PrintsRejectedTotal.WithLabelValues("control_chars").Inc()
	PrintQueueDepth.Set(3)
	PrintQueueDepth.Set(0)
	PrintDisplaySeconds.Observe(0.5)
	HTTPRequestsTotal.WithLabelValues("POST", "/print", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("POST", "/print").Observe(0.01)
	HTTPRequestsInFlight.Inc()
	HTTPRequestsInFlight.Dec()
	RateLimitDeniedTotal.Inc()
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format with correct HTTP status and metric output.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	PrintsQueuedTotal.WithLabelValues(KindTemporary).Inc()

	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{"printsQueuedTotal", "printQueueDepth"} {
		if !strings.Contains(body, name) {
			t.Errorf("MetricsHandler response missing %s", name)
		}
	}
}
