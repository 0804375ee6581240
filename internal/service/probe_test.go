package service_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pharmadesk/launchpad/internal/service"
)

func TestHTTPProbe(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		t.Cleanup(srv.Close)

		probe := service.NewHTTPProbe(time.Second)
		require.True(t, probe.Check(ctx, srv.URL))
	})

	t.Run("redirect counts as success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/docs", http.StatusFound)
		})
		mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		probe := service.NewHTTPProbe(time.Second)
		require.True(t, probe.Check(ctx, srv.URL))
	})

	t.Run("error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		probe := service.NewHTTPProbe(time.Second)
		require.False(t, probe.Check(ctx, srv.URL))
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NewServeMux())
		url := srv.URL
		srv.Close()

		probe := service.NewHTTPProbe(time.Second)
		require.False(t, probe.Check(ctx, url))
	})

	t.Run("hung service folds into false", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			srv.Close()
		})

		probe := service.NewHTTPProbe(50 * time.Millisecond)
		start := time.Now()
		require.False(t, probe.Check(ctx, srv.URL))
		require.Less(t, time.Since(start), time.Second, "a hung request must not stall the caller")
	})

	t.Run("bogus url", func(t *testing.T) {
		probe := service.NewHTTPProbe(time.Second)
		require.False(t, probe.Check(ctx, "http://127.0.0.1:1/%zz"))
	})
}
