package wsbus

import (
	"context"
	"sync"
	"time"

	"github.com/danmuck/orwellctl/internal/transport"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Publisher is the push channel. Safe for concurrent use.
type Publisher struct {
	cfg    Config
	log    zerolog.Logger
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

var _ transport.Pusher = (*Publisher)(nil)

func DialPublisher(ctx context.Context, rawURL string, cfg Config, logger zerolog.Logger) (*Publisher, error) {
	cfg = cfg.WithDefaults()
	conn, err := dial(ctx, rawURL, cfg)
	if err != nil {
		return nil, transport.Unavailable("push", err)
	}
	logger.Debug().Str("url", rawURL).Msg("wsbus.Publisher.dial connected")
	return &Publisher{cfg: cfg, log: logger, conn: conn}, nil
}

func (p *Publisher) Push(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return transport.Unavailable("push", transport.ErrClosed)
	}
	_ = p.conn.SetWriteDeadline(writeDeadline(ctx, p.cfg.WriteTimeout))
	if err := p.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		return transport.Unavailable("push", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	_ = p.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(p.cfg.WriteTimeout),
	)
	return p.conn.Close()
}
