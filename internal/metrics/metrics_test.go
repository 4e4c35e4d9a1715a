package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igvf/catalog-llm/internal/models"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP("/query", 200, time.Second)
		m.IncRateLimited()
		m.ObserveAsk(OutcomeAnswered, 2, 1, models.Usage{}, time.Second)
		m.SetHealthy("arangodb", true)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObserveHTTP(t *testing.T) {
	m := New()

	m.ObserveHTTP("/query", 200, 10*time.Millisecond)
	m.ObserveHTTP("/query", 403, 10*time.Millisecond)
	m.ObserveHTTP("/query", 429, 10*time.Millisecond)
	m.ObserveHTTP("/health", 503, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/query", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/query", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/health", "5xx")))
}

func TestObserveAsk(t *testing.T) {
	m := New()

	m.ObserveAsk(OutcomeAnswered, 3, 2, models.Usage{PromptTokens: 100, CompletionTokens: 20}, time.Second)
	m.ObserveAsk(OutcomeError, -1, 0, models.Usage{PromptTokens: 5}, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Questions.WithLabelValues(OutcomeAnswered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Questions.WithLabelValues(OutcomeError)))
	assert.Equal(t, 105.0, testutil.ToFloat64(m.Tokens.WithLabelValues("prompt")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.Tokens.WithLabelValues("completion")))
}

func TestSetHealthyAndRateLimited(t *testing.T) {
	m := New()

	m.SetHealthy("arangodb", false)
	m.SetHealthy("llm", true)
	m.IncRateLimited()

	assert.Equal(t, 0.0, testutil.ToFloat64(m.ComponentHealthy.WithLabelValues("arangodb")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComponentHealthy.WithLabelValues("llm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.IncRateLimited()

	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "catalog_llm_http_rate_limited_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
