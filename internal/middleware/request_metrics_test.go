package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/rapidfit/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	promcl "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMetrics(t *testing.T) {
	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	r.HandleFunc("/api/auth/user", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET").Name("get-user")
	r.Use(RequestMetrics(metricsManager))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/auth/user", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRequests.WithLabelValues("GET", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metricsManager.GaugeRequests))
	assert.Equal(t, 1, testutil.CollectAndCount(metricsManager.HistogramRequestDuration))
}

func TestRequestMetrics_HistogramLabels(t *testing.T) {
	metricsManager, reg := metrics.NewTestManagerAndRegistry()

	r := mux.NewRouter()
	r.HandleFunc("/api/rapid-tree", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET").Name("get-rapid-tree")
	r.Use(RequestMetrics(metricsManager))

	for range 3 {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/rapid-tree", nil))
	}

	gathered, err := reg.Gather()
	require.NoError(t, err)

	var durationHistogram *promcl.MetricFamily
	for _, m := range gathered {
		if m.GetName() == "backend_test_server_request_duration_seconds" {
			durationHistogram = m
			break
		}
	}
	require.NotNil(t, durationHistogram)
	require.Len(t, durationHistogram.GetMetric(), 1)

	metric := durationHistogram.GetMetric()[0]
	assert.Equal(t, uint64(3), metric.GetHistogram().GetSampleCount())

	labels := make(map[string]string)
	for _, lp := range metric.GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, map[string]string{
		"route":       "get-rapid-tree",
		"method":      "GET",
		"status_code": "200",
	}, labels)
}
