// Package fakebus provides in-memory push, subscribe and request channels
// for engine tests. Everything the engine sends is recorded.
package fakebus

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/danmuck/orwellctl/internal/transport"
)

var ErrNoReply = errors.New("fakebus: no reply queued")

// ReplyFunc answers one request.
type ReplyFunc func(req []byte) ([]byte, error)

// Bus implements transport.Pusher, transport.Subscriber and
// transport.Requester.
type Bus struct {
	mu       sync.Mutex
	pushed   [][]byte
	requests [][]byte
	inbox    [][]byte
	topics   map[string]bool
	ops      []string
	replies  [][]byte
	replyFn  ReplyFunc
	pushErr  error
	recvErr  error
	closed   bool
	// PrefixFilter drops inbound envelopes whose recipient has no subscribed
	// prefix, like a topic-filtering bus.
	PrefixFilter bool
}

func New() *Bus {
	return &Bus{topics: make(map[string]bool)}
}

// Channels returns the bus wired as all three channels.
func (b *Bus) Channels() transport.Channels {
	return transport.Channels{Push: b, Sub: b, Req: b}
}

func (b *Bus) Push(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pushErr != nil {
		return b.pushErr
	}
	b.pushed = append(b.pushed, append([]byte(nil), msg...))
	return nil
}

func (b *Bus) Subscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = true
	b.ops = append(b.ops, "+"+topic)
	return nil
}

func (b *Bus) Unsubscribe(topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.topics, topic)
	b.ops = append(b.ops, "-"+topic)
	return nil
}

func (b *Bus) TryReceive() ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.inbox) > 0 {
		msg := b.inbox[0]
		b.inbox = b.inbox[1:]
		if b.PrefixFilter && !b.matchesLocked(msg) {
			continue
		}
		return msg, true, nil
	}
	if b.recvErr != nil {
		return nil, false, b.recvErr
	}
	return nil, false, nil
}

func (b *Bus) Request(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.requests = append(b.requests, append([]byte(nil), msg...))
	fn := b.replyFn
	var reply []byte
	queued := len(b.replies) > 0
	if queued {
		reply = b.replies[0]
		b.replies = b.replies[1:]
	}
	b.mu.Unlock()

	if queued {
		return reply, nil
	}
	if fn != nil {
		return fn(msg)
	}
	return nil, ErrNoReply
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Deliver queues inbound envelopes for TryReceive.
func (b *Bus) Deliver(msgs ...[]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, msg := range msgs {
		b.inbox = append(b.inbox, append([]byte(nil), msg...))
	}
}

// QueueReply queues replies returned by Request in order.
func (b *Bus) QueueReply(replies ...[]byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies = append(b.replies, replies...)
}

// OnRequest answers requests once the reply queue is empty.
func (b *Bus) OnRequest(fn ReplyFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replyFn = fn
}

func (b *Bus) FailPush(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushErr = err
}

// FailReceive makes TryReceive return err once the inbox is empty.
func (b *Bus) FailReceive(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recvErr = err
}

func (b *Bus) Pushed() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.pushed...)
}

// TakePushed returns and forgets everything pushed so far.
func (b *Bus) TakePushed() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pushed
	b.pushed = nil
	return out
}

func (b *Bus) Requests() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.requests...)
}

func (b *Bus) Subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.topics[topic]
}

// SubscriptionOps lists subscribe ("+topic") and unsubscribe ("-topic")
// calls in order.
func (b *Bus) SubscriptionOps() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ops...)
}

func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Bus) matchesLocked(msg []byte) bool {
	for topic := range b.topics {
		if strings.HasPrefix(string(msg), topic) {
			return true
		}
	}
	return false
}
