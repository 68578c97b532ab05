package transport

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingPusher struct {
	err    error
	closed bool
}

func (p *closingPusher) Push(context.Context, []byte) error { return nil }
func (p *closingPusher) Close() error {
	p.closed = true
	return p.err
}

type closingSub struct {
	err    error
	closed bool
}

func (s *closingSub) Subscribe(string) error            { return nil }
func (s *closingSub) Unsubscribe(string) error          { return nil }
func (s *closingSub) TryReceive() ([]byte, bool, error) { return nil, false, nil }
func (s *closingSub) Close() error                      { s.closed = true; return s.err }

type plainReq struct{}

func (plainReq) Request(context.Context, []byte) ([]byte, error) { return nil, nil }

func TestChannelsValidate(t *testing.T) {
	err := Channels{}.Validate()
	require.ErrorIs(t, err, ErrChannelMissing)

	err = Channels{Push: &closingPusher{}, Sub: &closingSub{}}.Validate()
	require.ErrorIs(t, err, ErrChannelMissing)
	assert.Contains(t, err.Error(), "request")

	require.NoError(t, Channels{Push: &closingPusher{}, Sub: &closingSub{}, Req: plainReq{}}.Validate())
}

func TestChannelsCloseAggregatesErrors(t *testing.T) {
	push := &closingPusher{err: errors.New("push boom")}
	sub := &closingSub{err: io.ErrClosedPipe}
	err := Channels{Push: push, Sub: sub, Req: plainReq{}}.Close()

	require.Error(t, err)
	assert.True(t, push.closed)
	assert.True(t, sub.closed)
	assert.Contains(t, err.Error(), "push boom")
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestUnavailableWrapsBoth(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := Unavailable("subscribe", cause)
	require.ErrorIs(t, err, ErrTransportUnavailable)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "subscribe")

	assert.Same(t, err, Unavailable("push", err))
	assert.NoError(t, Unavailable("push", nil))
}

func TestTLSConfig(t *testing.T) {
	cfg, err := TLSConfig{}.ClientConfig("bus.local:9001")
	require.NoError(t, err)
	assert.Nil(t, cfg)

	_, err = TLSConfig{Enabled: true}.ClientConfig("bus.local:9001")
	require.ErrorIs(t, err, ErrTLSCAFileRequired)

	cfg, err = TLSConfig{Enabled: true, InsecureSkipVerify: true}.ClientConfig("bus.local:9001")
	require.NoError(t, err)
	assert.Equal(t, "bus.local", cfg.ServerName)
	assert.True(t, cfg.InsecureSkipVerify)
}
