package controller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/danmuck/orwellctl/internal/device"
	"github.com/danmuck/orwellctl/internal/latency"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
	"github.com/danmuck/orwellctl/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrUnexpectedMessageType = errors.New("controller: unexpected message type")
	ErrAlreadyStarted        = errors.New("controller: already started")
	ErrNotStarted            = errors.New("controller: not started")
)

const temporaryIDPrefix = "temporary_id_"

// Status is a point-in-time copy of the session, safe to read from any
// goroutine.
type Status struct {
	State       State
	RoutingID   string
	Robot       string
	Team        string
	PendingPing bool
	Aborted     bool
	Game        *messages.GameState
	UpdatedAt   time.Time
}

type Engine struct {
	cfg      Config
	ch       transport.Channels
	devices  Devices
	log      zerolog.Logger
	clock    clock.Clock
	tracker  *latency.Tracker
	reporter latency.Reporter
	observer Observer

	state           State
	routingID       string
	robot           string
	team            string
	started         bool
	aborted         bool
	broadcastJoined bool
	game            *messages.GameState

	status atomic.Pointer[Status]
}

func New(cfg Config, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := deps.Channels.Validate(); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Devices == nil {
		deps.Devices = noDevices{}
	}
	if deps.Reporter == nil {
		deps.Reporter = nopReporter{}
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	e := &Engine{
		cfg:       cfg,
		ch:        deps.Channels,
		devices:   deps.Devices,
		log:       deps.Logger,
		clock:     deps.Clock,
		tracker:   latency.NewTracker(deps.Clock, cfg.Name, cfg.PingTimeout),
		reporter:  deps.Reporter,
		observer:  deps.Observer,
		state:     StateInit,
		routingID: temporaryIDPrefix + uuid.NewString(),
	}
	e.publishStatus()
	return e, nil
}

func (e *Engine) State() State      { return e.state }
func (e *Engine) RoutingID() string { return e.routingID }
func (e *Engine) Aborted() bool     { return e.aborted }
func (e *Engine) PendingPing() bool { return e.tracker.Pending() }

// Status returns the last published snapshot.
func (e *Engine) Status() Status {
	s := *e.status.Load()
	if s.Game != nil {
		gs := *s.Game
		gs.Teams = append([]messages.Team(nil), s.Game.Teams...)
		s.Game = &gs
	}
	return s
}

// Start subscribes to the temporary identity and performs the not-ready
// handshake. It blocks until the reply arrives, ctx ends or the handshake
// timeout fires. A Welcome that embeds a GameState escalates at once with a
// ready Hello, as if that GameState had arrived while in Welcome.
func (e *Engine) Start(ctx context.Context) error {
	if e.started {
		return ErrAlreadyStarted
	}
	e.started = true
	defer e.publishStatus()

	if err := e.ch.Sub.Subscribe(e.routingID); err != nil {
		return transport.Unavailable("subscribe", err)
	}
	e.log.Info().Str("routing_id", e.routingID).Str("name", e.cfg.Name).Msg("controller.Engine.Start hello")

	reply, err := e.handshake(ctx, false)
	if err != nil {
		return err
	}
	switch m := reply.(type) {
	case messages.Goodbye:
		e.abort("handshake")
		return nil
	case messages.Welcome:
		if err := e.adopt(m); err != nil {
			return err
		}
		if m.GameState != nil {
			return e.escalate(ctx, *m.GameState)
		}
		e.setState(StateWelcome)
		return nil
	default:
		e.observer.EnvelopeDropped(DropUnexpected)
		return fmt.Errorf("%w: handshake reply %s", ErrUnexpectedMessageType, reply.Type())
	}
}

// Step runs one poll iteration: every device once, then at most one
// inbound envelope. Only transport failures are returned.
func (e *Engine) Step(ctx context.Context) error {
	if !e.started {
		return ErrNotStarted
	}
	if e.aborted {
		return nil
	}
	defer e.publishStatus()

	for _, src := range e.devices.List() {
		src.Process()
		if e.state == StateGameRunning && src.HasNewValues() {
			if err := e.sendInput(ctx, src.BuildInput()); err != nil {
				return err
			}
		}
		if src.ConsumePendingPingRequest() {
			if err := e.maybePing(ctx, src.ID()); err != nil {
				return err
			}
		}
	}

	raw, ok, err := e.ch.Sub.TryReceive()
	if err != nil {
		return transport.Unavailable("subscribe", err)
	}
	if !ok {
		return nil
	}
	return e.dispatch(ctx, raw)
}

// Run starts the session and polls until Goodbye, ctx cancellation or a
// transport failure. Cancellation is not an error.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	var tick <-chan time.Time
	if e.cfg.PollInterval > 0 {
		ticker := e.clock.Ticker(e.cfg.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		if e.aborted {
			e.log.Info().Str("routing_id", e.routingID).Msg("controller.Engine.Run session ended")
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := e.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if tick != nil && !e.aborted {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
	}
}

func (e *Engine) sendInput(ctx context.Context, snap device.Snapshot) error {
	in := messages.Input{
		Left:    snap.Left,
		Right:   snap.Right,
		Weapon1: snap.FireWeapon1,
		Weapon2: snap.FireWeapon2,
	}
	return e.push(ctx, in)
}

func (e *Engine) maybePing(ctx context.Context, source string) error {
	if e.tracker.Expired() {
		e.log.Warn().Dur("timeout", e.cfg.PingTimeout).Msg("controller.Engine.ping released stale ping")
	}
	if e.tracker.Pending() {
		e.log.Debug().Str("device", source).Msg("controller.Engine.ping already outstanding")
		return nil
	}
	ev := e.tracker.Begin()
	e.log.Debug().Str("device", source).Uint64("timestamp", ev.Timestamp).Msg("controller.Engine.ping sent")
	return e.push(ctx, messages.Ping{Timing: []messages.Timing{ev}})
}

func (e *Engine) push(ctx context.Context, m messages.Message) error {
	raw, err := messages.EncodeEnvelope(e.routingID, m)
	if err != nil {
		return err
	}
	if err := e.ch.Push.Push(ctx, raw); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transport.Unavailable("push", err)
	}
	e.observer.EnvelopeSent(m.Type())
	return nil
}

func (e *Engine) setState(next State) {
	if next == e.state {
		return
	}
	prev := e.state
	e.state = next
	e.log.Info().Str("from", prev.String()).Str("to", next.String()).Msg("controller.Engine.state transition")
	e.observer.StateChanged(prev, next)
}

func (e *Engine) abort(origin string) {
	e.aborted = true
	e.setState(StateInit)
	e.log.Info().Str("origin", origin).Str("routing_id", e.routingID).Msg("controller.Engine.abort goodbye")
}

func (e *Engine) publishStatus() {
	s := &Status{
		State:       e.state,
		RoutingID:   e.routingID,
		Robot:       e.robot,
		Team:        e.team,
		PendingPing: e.tracker.Pending(),
		Aborted:     e.aborted,
		UpdatedAt:   e.clock.Now(),
	}
	if e.game != nil {
		gs := *e.game
		s.Game = &gs
	}
	e.status.Store(s)
}
