package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipe-pages/backend/config"
)

func testConfig(metricsEnabled bool) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            3000,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 2 * time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: metricsEnabled, Port: 9090},
	}
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func fetch(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestNew(t *testing.T) {
	s := New(testConfig(true), http.NotFoundHandler(), nil)
	assert.Equal(t, "127.0.0.1:3000", s.http.Addr)
	require.NotNil(t, s.metrics)
	assert.Equal(t, "127.0.0.1:9090", s.metrics.Addr)

	s = New(testConfig(false), http.NotFoundHandler(), nil)
	assert.Nil(t, s.metrics)
}

func TestMetricsRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := MetricsRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServeAndShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "form")
	})
	s := New(testConfig(true), handler, nil)
	ln, metricsLn := listen(t), listen(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, metricsLn) }()

	status, body := fetch(t, "http://"+ln.Addr().String()+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "form", body)

	status, _ = fetch(t, "http://"+metricsLn.Addr().String()+"/healthz")
	assert.Equal(t, http.StatusOK, status)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
