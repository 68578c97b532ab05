// Package reqrep implements the synchronous request/reply channel: one TCP
// connection carrying framed requests, each answered by exactly one reply
// frame with the same request id.
package reqrep

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/orwellctl/internal/protocol/frame"
	"github.com/danmuck/orwellctl/internal/transport"
	"github.com/rs/zerolog"
)

var (
	ErrAddressRequired = errors.New("reqrep: address required")
	ErrRemote          = errors.New("reqrep: remote error")
)

type Config struct {
	DialTimeout time.Duration
	// RequestTimeout bounds one request; 0 waits until ctx ends.
	RequestTimeout time.Duration
	Limits         frame.Limits
	TLS            transport.TLSConfig
}

func DefaultConfig() Config {
	return Config{
		DialTimeout: 5 * time.Second,
		Limits:      frame.DefaultLimits(),
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = d.Limits
	}
	return c
}

// Client is a Requester over one framed TCP connection. Requests are
// serialized; a failed or cancelled request poisons the connection.
type Client struct {
	cfg    Config
	log    zerolog.Logger
	addr   string
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	nextID uint64
	broken error
	closed bool
}

var _ transport.Requester = (*Client)(nil)

func Dial(ctx context.Context, addr string, cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, ErrAddressRequired
	}
	cfg = cfg.WithDefaults()

	dialer := net.Dialer{Timeout: cfg.DialTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, transport.Unavailable("request", err)
	}
	conn := rawConn
	tlsCfg, err := cfg.TLS.ClientConfig(addr)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	if tlsCfg != nil {
		tlsConn := tls.Client(rawConn, tlsCfg)
		handshakeCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
			_ = rawConn.Close()
			return nil, transport.Unavailable("request", err)
		}
		conn = tlsConn
	}
	logger.Debug().Str("addr", addr).Bool("tls", tlsCfg != nil).Msg("reqrep.Client.dial connected")
	return &Client{
		cfg:    cfg,
		log:    logger,
		addr:   addr,
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// Request writes msg and blocks for its reply. Cancelling ctx unblocks the
// read; the error is then ctx.Err().
func (c *Client) Request(ctx context.Context, msg []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, transport.Unavailable("request", transport.ErrClosed)
	}
	if c.broken != nil {
		return nil, transport.Unavailable("request", c.broken)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.nextID++
	id := c.nextID
	_ = c.conn.SetDeadline(c.deadline(ctx))
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	req := frame.Frame{Header: frame.Header{RequestID: id}, Payload: msg}
	if err := frame.WriteFrame(c.conn, req, c.cfg.Limits); err != nil {
		return nil, c.fail(ctx, err)
	}

	for {
		reply, err := frame.ReadFrame(c.reader, c.cfg.Limits)
		if err != nil {
			return nil, c.fail(ctx, err)
		}
		if !reply.IsResponse() || reply.Header.RequestID != id {
			c.log.Debug().
				Uint64("want", id).
				Uint64("got", reply.Header.RequestID).
				Msg("reqrep.Client.Request skip stale frame")
			continue
		}
		if reply.Header.Flags&frame.FlagIsError != 0 {
			return nil, fmt.Errorf("%w: %s", ErrRemote, reply.Payload)
		}
		return reply.Payload, nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) deadline(ctx context.Context) time.Time {
	var deadline time.Time
	if c.cfg.RequestTimeout > 0 {
		deadline = time.Now().Add(c.cfg.RequestTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}

func (c *Client) fail(ctx context.Context, err error) error {
	c.broken = err
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.log.Warn().Err(err).Str("addr", c.addr).Msg("reqrep.Client.Request failed")
	return transport.Unavailable("request", err)
}
