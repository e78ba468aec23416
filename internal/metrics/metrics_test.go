package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ProductsProcessed("forecast", "succeeded", 3)
	m.ProductsProcessed("forecast", "skipped", 0)
	m.SuggestionWritten("critical")
	m.SuggestionWritten("critical")
	m.StatusTransition("approved")
	m.ObserveBatch("forecast", 250*time.Millisecond)
	m.ObserveConfidence(0.7)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.productsProcessed.WithLabelValues("forecast", "succeeded")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.suggestions.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusTransitions.WithLabelValues("approved")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.batchDuration))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ProductsProcessed("reorder", "failed", 1)
		m.SuggestionWritten("low")
		m.StatusTransition("rejected")
		m.ObserveBatch("reorder", time.Second)
		m.ObserveConfidence(0.5)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SuggestionWritten("high")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `stocksense_reorder_suggestions_total{urgency="high"} 1`))
}
