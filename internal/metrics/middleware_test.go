package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newInstrumentedRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Patch("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Delete("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}

func TestMiddlewareCountsByMethodAndCode(t *testing.T) {
	t.Parallel()
	Init()

	okCounter := httpRequestsTotal.WithLabelValues(http.MethodPatch, "200")
	missingCounter := httpRequestsTotal.WithLabelValues(http.MethodDelete, "404")
	okBefore := testutil.ToFloat64(okCounter)
	missingBefore := testutil.ToFloat64(missingCounter)

	router := newInstrumentedRouter()
	for _, method := range []string{http.MethodPatch, http.MethodDelete} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, "/items/7", nil))
	}

	require.InDelta(t, 1, testutil.ToFloat64(okCounter)-okBefore, 0)
	require.InDelta(t, 1, testutil.ToFloat64(missingCounter)-missingBefore, 0)
	require.Positive(t, testutil.CollectAndCount(httpRequestDurationSeconds))
}

func TestMiddlewareDefaultsStatusToOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}
	_, err := ww.Write([]byte("body"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, ww.status)

	ww.WriteHeader(http.StatusTeapot)
	require.Equal(t, http.StatusTeapot, ww.status)
	require.Equal(t, http.StatusTeapot, rec.Code)
}
