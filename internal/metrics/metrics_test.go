package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegister_ExposesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)

	AuthFailuresTotal.WithLabelValues("missing_token").Inc()
	ComplaintsCreatedTotal.WithLabelValues("Billing").Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `resolvenow_auth_failures_total{reason="missing_token"}`)
	assert.Contains(t, rec.Body.String(), `resolvenow_complaints_created_total{category="Billing"}`)
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(AuthzDenialsTotal.WithLabelValues("feedback", "read"))
	AuthzDenialsTotal.WithLabelValues("feedback", "read").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AuthzDenialsTotal.WithLabelValues("feedback", "read")))
}
