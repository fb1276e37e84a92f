package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStoreOp(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		result string
	}{
		{name: "success", err: nil, result: ResultOK},
		{name: "not found", err: perrors.ErrProductNotFound, result: ResultNotFound},
		{name: "wrapped option not found", err: fmt.Errorf("lookup: %w", perrors.ErrProductOptionNotFound), result: ResultNotFound},
		{name: "fault", err: errors.New("connection refused"), result: ResultError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			m := New(prometheus.NewRegistry())

			// when
			m.ObserveStoreOp("get_product", 5*time.Millisecond, tc.err)

			// then
			assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("get_product", tc.result)))
			assert.Equal(t, 1, testutil.CollectAndCount(m.storeDuration))
		})
	}
}

func TestObserveAuthDecision(t *testing.T) {
	// given
	m := New(prometheus.NewRegistry())

	// when
	m.ObserveAuthDecision("Product", true, nil)
	m.ObserveAuthDecision("Product", false, nil)
	m.ObserveAuthDecision("Product", false, nil)
	m.ObserveAuthDecision("ProductOption", false, errors.New("db down"))

	// then
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("Product", "allowed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("Product", "denied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("ProductOption", ResultError)))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	// given
	m := New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	// when
	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	// then
	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/products/{id}", http.MethodGet, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpRequests))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	// given
	m := New(prometheus.NewRegistry())
	m.ObserveStoreOp("delete_product", time.Millisecond, nil)

	// when
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `catalog_store_operations_total{op="delete_product",result="ok"} 1`))
}
