package wsbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/orwellctl/internal/transport"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Subscription is the subscribe channel. Subscribe, Unsubscribe and
// TryReceive belong to the protocol loop; the read pump runs on its own.
type Subscription struct {
	cfg  Config
	log  zerolog.Logger
	conn *websocket.Conn

	writeMu sync.Mutex
	inbox   chan []byte
	done    chan struct{}

	closeOnce sync.Once
	closing   atomic.Bool
	readErr   error
	dropped   atomic.Uint64
	received  atomic.Uint64
}

var _ transport.Subscriber = (*Subscription)(nil)

func DialSubscriber(ctx context.Context, rawURL string, cfg Config, logger zerolog.Logger) (*Subscription, error) {
	cfg = cfg.WithDefaults()
	conn, err := dial(ctx, rawURL, cfg)
	if err != nil {
		return nil, transport.Unavailable("subscribe", err)
	}
	s := &Subscription{
		cfg:   cfg,
		log:   logger,
		conn:  conn,
		inbox: make(chan []byte, cfg.InboxSize),
		done:  make(chan struct{}),
	}
	if cfg.ReadTimeout > 0 {
		s.extendReadDeadline()
		conn.SetPongHandler(func(string) error {
			s.extendReadDeadline()
			return nil
		})
		go s.keepalive()
	}
	go s.readPump()
	logger.Debug().Str("url", rawURL).Int("inbox", cfg.InboxSize).Msg("wsbus.Subscription.dial connected")
	return s, nil
}

func (s *Subscription) Subscribe(topic string) error {
	return s.control(ControlSubscribe, topic)
}

func (s *Subscription) Unsubscribe(topic string) error {
	return s.control(ControlUnsubscribe, topic)
}

// TryReceive returns a queued envelope without blocking. Queued envelopes
// are still delivered after the connection failed; the failure surfaces once
// the inbox is empty.
func (s *Subscription) TryReceive() ([]byte, bool, error) {
	select {
	case msg := <-s.inbox:
		return msg, true, nil
	default:
	}
	select {
	case <-s.done:
		if s.closing.Load() {
			return nil, false, transport.Unavailable("subscribe", transport.ErrClosed)
		}
		return nil, false, transport.Unavailable("subscribe", s.readErr)
	default:
		return nil, false, nil
	}
}

// Dropped reports envelopes discarded because the inbox was full.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Received reports envelopes accepted into the inbox.
func (s *Subscription) Received() uint64 { return s.received.Load() }

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		s.writeMu.Lock()
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(s.cfg.WriteTimeout),
		)
		s.writeMu.Unlock()
		err = s.conn.Close()
		<-s.done
	})
	return err
}

func (s *Subscription) control(op byte, topic string) error {
	select {
	case <-s.done:
		return transport.Unavailable("subscribe", transport.ErrClosed)
	default:
	}
	frame := make([]byte, 0, len(topic)+1)
	frame = append(frame, op)
	frame = append(frame, topic...)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return transport.Unavailable("subscribe", err)
	}
	s.log.Debug().Str("topic", topic).Bool("subscribe", op == ControlSubscribe).Msg("wsbus.Subscription.control sent")
	return nil
}

func (s *Subscription) readPump() {
	defer close(s.done)
	for {
		kind, msg, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr = err
			if !s.closing.Load() && !errors.Is(err, websocket.ErrCloseSent) {
				s.log.Warn().Err(err).Msg("wsbus.Subscription.readPump stopped")
			}
			return
		}
		if s.cfg.ReadTimeout > 0 {
			s.extendReadDeadline()
		}
		if kind != websocket.BinaryMessage && kind != websocket.TextMessage {
			continue
		}
		select {
		case s.inbox <- msg:
			s.received.Add(1)
		default:
			n := s.dropped.Add(1)
			s.log.Warn().Uint64("dropped", n).Int("bytes", len(msg)).Msg("wsbus.Subscription.readPump inbox full")
		}
	}
}

func (s *Subscription) extendReadDeadline() {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
}

// keepalive pings the bus so a half-open connection hits the read deadline.
func (s *Subscription) keepalive() {
	ticker := time.NewTicker(s.cfg.ReadTimeout * 2 / 5)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout))
			s.writeMu.Unlock()
			if err != nil {
				s.log.Debug().Err(err).Msg("wsbus.Subscription.keepalive ping failed")
				return
			}
		}
	}
}
