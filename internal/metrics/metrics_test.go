package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("direct"))
	ProviderRequestsTotal.WithLabelValues("direct").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("direct")))

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `crowdrouter_provider_requests_total{branch="direct"}`)
	assert.Contains(t, string(body), "crowdrouter_people_added_total")
}
