package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/orwellctl/internal/controller"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StatusSource is read by the /status route.
type StatusSource interface {
	Status() controller.Status
}

type ServerConfig struct {
	Addr        string
	CORSOrigins []string
	Version     string
}

// Server is the local HTTP surface: health, session status and metrics.
type Server struct {
	cfg     ServerConfig
	log     zerolog.Logger
	router  *gin.Engine
	started time.Time
}

func NewServer(cfg ServerConfig, source StatusSource, metrics *Metrics, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog(logger, metrics))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{cfg: cfg, log: logger, router: r, started: time.Now()}
	s.registerRoutes(source, gatherer)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes(source StatusSource, gatherer prometheus.Gatherer) {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"version": s.cfg.Version,
		})
	})

	s.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, newStatusResponse(source.Status()))
	})

	if gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// Serve listens on cfg.Addr until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("observability.Server.Serve listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type teamResponse struct {
	Name       string `json:"name"`
	NumPlayers uint32 `json:"num_players"`
	Score      uint32 `json:"score"`
}

type gameResponse struct {
	Playing bool           `json:"playing"`
	Running bool           `json:"running"`
	Seconds uint64         `json:"seconds"`
	Teams   []teamResponse `json:"teams"`
}

type statusResponse struct {
	State       string        `json:"state"`
	RoutingID   string        `json:"routing_id"`
	Robot       string        `json:"robot,omitempty"`
	Team        string        `json:"team,omitempty"`
	PendingPing bool          `json:"pending_ping"`
	Aborted     bool          `json:"aborted"`
	Game        *gameResponse `json:"game,omitempty"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func newStatusResponse(st controller.Status) statusResponse {
	resp := statusResponse{
		State:       st.State.String(),
		RoutingID:   st.RoutingID,
		Robot:       st.Robot,
		Team:        st.Team,
		PendingPing: st.PendingPing,
		Aborted:     st.Aborted,
		UpdatedAt:   st.UpdatedAt,
	}
	if st.Game != nil {
		g := &gameResponse{
			Playing: st.Game.Playing,
			Running: st.Game.Running,
			Seconds: st.Game.Seconds,
			Teams:   make([]teamResponse, 0, len(st.Game.Teams)),
		}
		for _, t := range st.Game.Teams {
			g.Teams = append(g.Teams, teamResponse{Name: t.Name, NumPlayers: t.NumPlayers, Score: t.Score})
		}
		resp.Game = g
	}
	return resp
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
