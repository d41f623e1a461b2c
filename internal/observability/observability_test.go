package observability_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/d9705996/tasksync/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Logger(t *testing.T) {
	var buf bytes.Buffer
	obs, log, err := observability.New(context.Background(), &observability.Config{
		ServiceName: "tasksync-test",
		LogLevel:    "warn",
		LogFormat:   "text",
		LogOutput:   &buf,
	})
	require.NoError(t, err)
	t.Cleanup(func() { obs.Shutdown(context.Background()) })

	log.Info("hidden")
	log.Warn("shown", "user", "ada")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN msg=shown user=ada")
}

func TestProvider_MetricsReachRegistry(t *testing.T) {
	ctx := context.Background()
	obs, _, err := observability.New(ctx, &observability.Config{
		ServiceName: "tasksync-test",
		LogOutput:   io.Discard,
	})
	require.NoError(t, err)
	t.Cleanup(func() { obs.Shutdown(context.Background()) })

	counter, err := obs.Meter("test").Int64Counter("tasksync.test.events")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	families, err := obs.Gatherer().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tasksync_test_events_total")
}

func TestPush(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gw.Close)

	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "tasksync_runs_total", Help: "Runs."})
	reg.MustRegister(c)
	c.Inc()

	require.NoError(t, observability.Push(context.Background(), gw.URL, "tasksync", reg))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/tasksync", path)
	assert.NotEmpty(t, body)
}

func TestPush_GatewayError(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(gw.Close)

	err := observability.Push(context.Background(), gw.URL, "tasksync", prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push metrics")
}
