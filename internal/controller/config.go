package controller

import (
	"errors"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/danmuck/orwellctl/internal/device"
	"github.com/danmuck/orwellctl/internal/latency"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
	"github.com/danmuck/orwellctl/internal/transport"
	"github.com/rs/zerolog"
)

var ErrNameRequired = errors.New("controller: name required")

type Config struct {
	// Name is sent in Hello and logged in every ping timing event.
	Name string
	// PollInterval paces Run; 0 polls without pause.
	PollInterval time.Duration
	// HandshakeTimeout bounds each Hello round trip; 0 waits forever.
	HandshakeTimeout time.Duration
	// PingTimeout releases a ping whose pong never came; 0 never releases.
	PingTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Name:         "orwellctl",
		PollInterval: 10 * time.Millisecond,
		PingTimeout:  5 * time.Second,
	}
}

func (c Config) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrNameRequired
	}
	if c.PollInterval < 0 || c.HandshakeTimeout < 0 || c.PingTimeout < 0 {
		return errors.New("controller: durations must be >= 0")
	}
	return nil
}

// Devices lists the input sources to poll, in polling order.
type Devices interface {
	List() []device.Source
}

// Drop reasons passed to Observer.EnvelopeDropped.
const (
	DropMalformed  = "malformed"
	DropRecipient  = "recipient"
	DropPayload    = "payload"
	DropUnexpected = "unexpected"
)

// Observer is told about everything the engine does on the wire.
type Observer interface {
	EnvelopeSent(t schema.MessageType)
	EnvelopeReceived(t schema.MessageType)
	EnvelopeDropped(reason string)
	StateChanged(from, to State)
	GameStateUpdated(gs messages.GameState)
}

// Deps are the collaborators an Engine is built from.
type Deps struct {
	Channels transport.Channels
	Devices  Devices
	Logger   zerolog.Logger
	Clock    clock.Clock
	Reporter latency.Reporter
	Observer Observer
}

type nopObserver struct{}

func (nopObserver) EnvelopeSent(schema.MessageType)     {}
func (nopObserver) EnvelopeReceived(schema.MessageType) {}
func (nopObserver) EnvelopeDropped(string)              {}
func (nopObserver) StateChanged(State, State)           {}
func (nopObserver) GameStateUpdated(messages.GameState) {}

type nopReporter struct{}

func (nopReporter) ReportLatency(latency.Sample) {}

type noDevices struct{}

func (noDevices) List() []device.Source { return nil }
