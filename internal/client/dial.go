package client

import (
	"context"

	"github.com/danmuck/orwellctl/internal/config"
	"github.com/danmuck/orwellctl/internal/discovery"
	"github.com/danmuck/orwellctl/internal/transport"
	"github.com/danmuck/orwellctl/internal/transport/reqrep"
	"github.com/danmuck/orwellctl/internal/transport/wsbus"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Dialer opens the three session channels.
type Dialer interface {
	Dial(ctx context.Context, endpoints discovery.Endpoints) (transport.Channels, error)
}

// BusDialer dials websocket push/subscribe channels and the framed TCP
// request channel.
type BusDialer struct {
	WS  wsbus.Config
	Req reqrep.Config
	Log zerolog.Logger
}

func NewBusDialer(cfg config.Config, logger zerolog.Logger) BusDialer {
	tls := cfg.TLS.Transport()
	return BusDialer{
		WS:  wsbus.Config{InboxSize: cfg.InboxSize, TLS: tls},
		Req: reqrep.Config{RequestTimeout: cfg.RequestTimeout, TLS: tls},
		Log: logger,
	}
}

func (d BusDialer) Dial(ctx context.Context, endpoints discovery.Endpoints) (transport.Channels, error) {
	push, err := wsbus.DialPublisher(ctx, endpoints.Push, d.WS, d.Log)
	if err != nil {
		return transport.Channels{}, err
	}
	sub, err := wsbus.DialSubscriber(ctx, endpoints.Subscribe, d.WS, d.Log)
	if err != nil {
		return transport.Channels{}, multierr.Append(err, push.Close())
	}
	req, err := reqrep.Dial(ctx, endpoints.Reply, d.Req, d.Log)
	if err != nil {
		return transport.Channels{}, multierr.Combine(err, push.Close(), sub.Close())
	}
	return transport.Channels{Push: push, Sub: sub, Req: req}, nil
}
