package observability

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/orwellctl/internal/controller"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
	"github.com/danmuck/orwellctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStatus struct{ st controller.Status }

func (s staticStatus) Status() controller.Status { return s.st }

func newTestServer(t *testing.T, st controller.Status) (*Server, *Metrics) {
	t.Helper()
	log := testlog.Start(t)
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, log)
	require.NoError(t, err)
	srv := NewServer(ServerConfig{Addr: "127.0.0.1:0", Version: "test"}, staticStatus{st}, m, reg, log)
	return srv, m
}

func TestStatusRoute(t *testing.T) {
	srv, _ := newTestServer(t, controller.Status{
		State:       controller.StateGameRunning,
		RoutingID:   "42",
		Robot:       "R7",
		Team:        "red",
		PendingPing: true,
		Game: &messages.GameState{
			Playing: true,
			Running: true,
			Teams:   []messages.Team{{Name: "red", NumPlayers: 1, Score: 3}},
		},
	})

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body statusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "game_running", body.State)
	assert.Equal(t, "42", body.RoutingID)
	assert.True(t, body.PendingPing)
	require.NotNil(t, body.Game)
	assert.Equal(t, []teamResponse{{Name: "red", NumPlayers: 1, Score: 3}}, body.Game.Teams)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	srv, m := newTestServer(t, controller.Status{})
	m.EnvelopeDropped(controller.DropMalformed)

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `orwellctl_bus_envelopes_dropped_total{reason="malformed"} 1`)
	assert.Contains(t, body, `orwellctl_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestServeListenerStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, controller.Status{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	srv, _ := newTestServer(t, controller.Status{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	assert.True(t, strings.Contains(rr.Header().Get("Access-Control-Allow-Origin"), "localhost:3000"))
}

func TestAccessLogCountsRoutes(t *testing.T) {
	srv, m := newTestServer(t, controller.Status{})
	for _, path := range []string{"/status", "/status", "/nope"} {
		srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/status", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}
