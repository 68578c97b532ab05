package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

var (
	ErrTransportUnavailable = errors.New("transport: unavailable")
	ErrChannelMissing       = errors.New("transport: channel missing")
	ErrClosed               = errors.New("transport: channel closed")
)

// Pusher sends envelopes without waiting for any answer.
type Pusher interface {
	Push(ctx context.Context, msg []byte) error
}

// Subscriber receives envelopes for the topics it subscribed to. TryReceive
// never blocks: ok is false when nothing is queued.
type Subscriber interface {
	Subscribe(topic string) error
	Unsubscribe(topic string) error
	TryReceive() (msg []byte, ok bool, err error)
}

// Requester sends one request and blocks for exactly one reply.
type Requester interface {
	Request(ctx context.Context, msg []byte) ([]byte, error)
}

// Channels bundles the three channels one session uses.
type Channels struct {
	Push Pusher
	Sub  Subscriber
	Req  Requester
}

func (c Channels) Validate() error {
	if c.Push == nil {
		return fmt.Errorf("%w: push", ErrChannelMissing)
	}
	if c.Sub == nil {
		return fmt.Errorf("%w: subscribe", ErrChannelMissing)
	}
	if c.Req == nil {
		return fmt.Errorf("%w: request", ErrChannelMissing)
	}
	return nil
}

// Close closes every channel that is an io.Closer and reports all failures.
func (c Channels) Close() error {
	var err error
	for _, ch := range []any{c.Push, c.Sub, c.Req} {
		if closer, ok := ch.(io.Closer); ok && closer != nil {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}

// Unavailable marks err as a system-level failure of the named channel.
func Unavailable(channel string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransportUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrTransportUnavailable, channel, err)
}
