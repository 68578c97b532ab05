package observability

import (
	"testing"
	"time"

	"github.com/danmuck/orwellctl/internal/controller"
	"github.com/danmuck/orwellctl/internal/latency"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
	"github.com/danmuck/orwellctl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordEngineActivity(t *testing.T) {
	log := testlog.Start(t)
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, log)
	require.NoError(t, err)

	m.EnvelopeSent(schema.MsgHello)
	m.EnvelopeSent(schema.MsgHello)
	m.EnvelopeReceived(schema.MsgWelcome)
	m.EnvelopeDropped(controller.DropRecipient)
	m.StateChanged(controller.StateWelcome, controller.StateGameRunning)
	m.GameStateUpdated(messages.GameState{
		Playing: true,
		Running: true,
		Seconds: 120,
		Teams:   []messages.Team{{Name: "red", NumPlayers: 2, Score: 7}},
	})
	m.ReportLatency(latency.Sample{Logger: "C1treason", Elapsed: 40 * time.Millisecond, SelfMeasured: true})
	m.RecordHTTPRequest("GET", "/status", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sent.WithLabelValues("Hello")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.received.WithLabelValues("Welcome")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("recipient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("welcome", "game_running")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.state))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.playing))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.secondsLeft))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.teamScore.WithLabelValues("red")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rtt))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/status", "200")))
}

func TestNewMetricsRejectsDoubleRegistration(t *testing.T) {
	log := testlog.Start(t)
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg, log)
	require.NoError(t, err)
	_, err = NewMetrics(reg, log)
	require.Error(t, err)

	_, err = NewMetrics(prometheus.NewRegistry(), log)
	require.NoError(t, err, "separate registries stay independent")
}

func TestRegisterInboxDrops(t *testing.T) {
	testlog.Start(t)
	reg := prometheus.NewRegistry()
	var drops uint64 = 3
	require.NoError(t, RegisterInboxDrops(reg, func() uint64 { return drops }))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "orwellctl_bus_inbox_overflow_total", families[0].GetName())
	assert.Equal(t, 3.0, families[0].GetMetric()[0].GetCounter().GetValue())
}
