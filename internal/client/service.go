package client

import (
	"context"
	"io"
	"os"

	"github.com/benbjohnson/clock"
	"github.com/danmuck/orwellctl/internal/config"
	"github.com/danmuck/orwellctl/internal/controller"
	"github.com/danmuck/orwellctl/internal/device"
	"github.com/danmuck/orwellctl/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// JoystickReader is an opened joystick backend.
type JoystickReader interface {
	device.AxisReader
	io.Closer
}

type Options struct {
	Version string
	Stdin   io.Reader
	Dialer  Dialer
	Clock   clock.Clock
	// Scan and Open replace the /dev/input joystick backend.
	Scan func() ([]string, error)
	Open func(path string) (JoystickReader, error)
}

// Service runs one session from config to Goodbye or cancellation.
type Service struct {
	cfg     config.Config
	log     zerolog.Logger
	version string
	stdin   io.Reader
	dialer  Dialer
	clock   clock.Clock
	scan    func() ([]string, error)
	open    func(path string) (JoystickReader, error)
}

func NewService(cfg config.Config, logger zerolog.Logger, opts Options) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		cfg:     cfg,
		log:     logger,
		version: opts.Version,
		stdin:   opts.Stdin,
		dialer:  opts.Dialer,
		clock:   opts.Clock,
		scan:    opts.Scan,
		open:    opts.Open,
	}
	if s.stdin == nil {
		s.stdin = os.Stdin
	}
	if s.dialer == nil {
		s.dialer = NewBusDialer(cfg, logger)
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.scan == nil {
		s.scan = device.ScanJoysticks
	}
	if s.open == nil {
		s.open = func(path string) (JoystickReader, error) {
			js, err := device.OpenJoystick(path, logger)
			if err != nil {
				return nil, err
			}
			return js, nil
		}
	}
	return s, nil
}

// Run blocks until the server says Goodbye, ctx is cancelled or a channel
// fails. Every opened resource is closed before returning.
func (s *Service) Run(ctx context.Context) (err error) {
	resolver, err := s.cfg.Resolver()
	if err != nil {
		return err
	}
	endpoints, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	s.log.Info().
		Str("push", endpoints.Push).
		Str("subscribe", endpoints.Subscribe).
		Str("reply", endpoints.Reply).
		Msg("client.Service.Run endpoints")

	devices, err := s.buildDevices()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, devices.Close()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg, s.log)
	if err != nil {
		return err
	}

	channels, err := s.dialer.Dial(ctx, endpoints)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, channels.Close()) }()

	if counter, ok := channels.Sub.(interface{ Dropped() uint64 }); ok {
		if err := observability.RegisterInboxDrops(reg, counter.Dropped); err != nil {
			return err
		}
	}

	engine, err := controller.New(controller.Config{
		Name:             s.cfg.Name,
		PollInterval:     s.cfg.PollInterval,
		HandshakeTimeout: s.cfg.HandshakeTimeout,
		PingTimeout:      s.cfg.PingTimeout,
	}, controller.Deps{
		Channels: channels,
		Devices:  devices.registry,
		Logger:   s.log,
		Clock:    s.clock,
		Reporter: metrics,
		Observer: metrics,
	})
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if s.cfg.StatusAddr != "" {
		srv := observability.NewServer(observability.ServerConfig{
			Addr:        s.cfg.StatusAddr,
			CORSOrigins: s.cfg.CORSOrigins,
			Version:     s.version,
		}, engine, metrics, reg, s.log)
		g.Go(func() error { return srv.Serve(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		return engine.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if engine.Aborted() {
		s.log.Info().Msg("client.Service.Run server said goodbye")
	}
	return nil
}
