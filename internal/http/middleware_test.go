package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shortontech/gosniff/internal/metrics"
)

func TestRequestLogger(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	RequestLogger(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if !called {
		t.Error("next handler not called")
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	t.Run("nil metrics is a pass-through", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		w := httptest.NewRecorder()
		MetricsMiddleware(nil)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("records request count with status", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewMetricsWithRegistry(reg)

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		})
		w := httptest.NewRecorder()
		MetricsMiddleware(m)(next).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/collect", nil))

		count := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/collect", http.MethodPost, "202"))
		if count != 1 {
			t.Errorf("request count = %v, want 1", count)
		}
	})

	t.Run("default status is 200", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.NewMetricsWithRegistry(reg)

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
		w := httptest.NewRecorder()
		MetricsMiddleware(m)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		count := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/healthz", http.MethodGet, "200"))
		if count != 1 {
			t.Errorf("request count = %v, want 1", count)
		}
	})
}
