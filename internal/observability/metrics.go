package observability

import (
	"strconv"
	"time"

	"github.com/danmuck/orwellctl/internal/controller"
	"github.com/danmuck/orwellctl/internal/latency"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const namespace = "orwellctl"

// Metrics records protocol activity on an explicit registry and doubles as
// the engine's Observer and latency Reporter.
type Metrics struct {
	log zerolog.Logger

	sent        *prometheus.CounterVec
	received    *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	state       prometheus.Gauge
	rtt         *prometheus.HistogramVec
	playing     prometheus.Gauge
	running     prometheus.Gauge
	secondsLeft prometheus.Gauge
	teamScore   *prometheus.GaugeVec
	teamPlayers *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var (
	_ controller.Observer = (*Metrics)(nil)
	_ latency.Reporter    = (*Metrics)(nil)
)

func NewMetrics(reg prometheus.Registerer, logger zerolog.Logger) (*Metrics, error) {
	m := &Metrics{
		log: logger,
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "envelopes_sent_total",
			Help:      "Envelopes sent by message type.",
		}, []string{"type"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "envelopes_received_total",
			Help:      "Envelopes accepted by message type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bus",
			Name:      "envelopes_dropped_total",
			Help:      "Inbound envelopes dropped by reason.",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions.",
		}, []string{"from", "to"}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "state",
			Help:      "Current session state (0 init, 1 welcome, 2 waiting_game_start, 3 game_running).",
		}),
		rtt: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ping",
			Name:      "elapsed_seconds",
			Help:      "Elapsed time per pong timing event.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"logger", "self"}),
		playing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "playing",
			Help:      "1 while the last game state reported playing.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "running",
			Help:      "1 while the last game state reported running.",
		}),
		secondsLeft: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "seconds",
			Help:      "Seconds reported by the last game state.",
		}),
		teamScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "team_score",
			Help:      "Score per team.",
		}, []string{"team"}),
		teamPlayers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "team_players",
			Help:      "Players per team.",
		}, []string{"team"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	for _, c := range []prometheus.Collector{
		m.sent, m.received, m.dropped, m.transitions, m.state, m.rtt,
		m.playing, m.running, m.secondsLeft, m.teamScore, m.teamPlayers,
		m.httpRequests, m.httpDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterInboxDrops exposes a counter read from fn, typically the
// subscription's overflow count.
func RegisterInboxDrops(reg prometheus.Registerer, fn func() uint64) error {
	return reg.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bus",
		Name:      "inbox_overflow_total",
		Help:      "Inbound envelopes discarded because the receive buffer was full.",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) EnvelopeSent(t schema.MessageType) {
	m.sent.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) EnvelopeReceived(t schema.MessageType) {
	m.received.WithLabelValues(t.String()).Inc()
}

func (m *Metrics) EnvelopeDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) StateChanged(from, to controller.State) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
	m.state.Set(float64(to))
}

func (m *Metrics) GameStateUpdated(gs messages.GameState) {
	m.playing.Set(boolGauge(gs.Playing))
	m.running.Set(boolGauge(gs.Running))
	m.secondsLeft.Set(float64(gs.Seconds))
	for _, t := range gs.Teams {
		m.teamScore.WithLabelValues(t.Name).Set(float64(t.Score))
		m.teamPlayers.WithLabelValues(t.Name).Set(float64(t.NumPlayers))
	}
	m.log.Info().
		Bool("playing", gs.Playing).
		Bool("running", gs.Running).
		Uint64("seconds", gs.Seconds).
		Int("teams", len(gs.Teams)).
		Msg("observability.Metrics.game state")
}

func (m *Metrics) ReportLatency(s latency.Sample) {
	m.rtt.WithLabelValues(s.Logger, strconv.FormatBool(s.SelfMeasured)).Observe(s.Elapsed.Seconds())
	m.log.Info().
		Str("logger", s.Logger).
		Uint64("timestamp", s.Timestamp).
		Dur("elapsed", s.Elapsed).
		Bool("self", s.SelfMeasured).
		Msg("observability.Metrics.latency")
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	m.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
