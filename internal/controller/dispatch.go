package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/orwellctl/internal/latency"
	"github.com/danmuck/orwellctl/internal/protocol/envelope"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
)

// dispatch decodes one inbound envelope and applies it to the session.
// Only transport failures from a triggered escalation are returned.
func (e *Engine) dispatch(ctx context.Context, raw []byte) error {
	env, err := envelope.Decode(raw)
	if err != nil {
		e.log.Warn().Err(err).Int("bytes", len(raw)).Msg("controller.Engine.dispatch dropped")
		e.observer.EnvelopeDropped(DropMalformed)
		return nil
	}
	if !env.IsFor(e.routingID) {
		e.log.Debug().Str("recipient", env.Recipient).Str("routing_id", e.routingID).Msg("controller.Engine.dispatch not for us")
		e.observer.EnvelopeDropped(DropRecipient)
		return nil
	}
	msg, err := messages.DecodeEnvelope(env)
	if err != nil {
		e.log.Warn().Err(err).Str("envelope", env.String()).Msg("controller.Engine.dispatch dropped")
		e.observer.EnvelopeDropped(DropPayload)
		return nil
	}
	e.observer.EnvelopeReceived(msg.Type())
	e.log.Debug().Str("state", e.state.String()).Str("envelope", env.String()).Msg("controller.Engine.dispatch")

	switch m := msg.(type) {
	case messages.Goodbye:
		e.abort("dispatch")
		return nil
	case messages.GameState:
		return e.onGameState(ctx, m)
	case messages.Pong:
		if env.Recipient != e.routingID {
			e.unexpected(msg, "pong not addressed to self")
			return nil
		}
		e.onPong(m)
		return nil
	case messages.Welcome:
		e.unexpected(msg, "welcome outside handshake")
		return nil
	case messages.Hello:
		e.unexpected(msg, "client message")
		return nil
	case messages.Input:
		e.unexpected(msg, "client message")
		return nil
	case messages.Ping:
		e.unexpected(msg, "client message")
		return nil
	default:
		e.unexpected(msg, "unknown message")
		return nil
	}
}

func (e *Engine) onGameState(ctx context.Context, gs messages.GameState) error {
	switch e.state {
	case StateWelcome:
		return e.escalate(ctx, gs)
	case StateWaitingGameStart:
		e.observeGame(gs)
		if gs.Playing {
			e.setState(StateGameRunning)
		}
		return nil
	case StateGameRunning:
		e.observeGame(gs)
		if !gs.Running {
			e.setState(StateWaitingGameStart)
		}
		return nil
	case StateInit:
		e.unexpected(gs, "no session")
		return nil
	default:
		e.unexpected(gs, "unknown state")
		return nil
	}
}

func (e *Engine) onPong(p messages.Pong) {
	samples, err := e.tracker.Reconcile(p.Timing)
	if err != nil {
		if errors.Is(err, latency.ErrNoTimingEvents) {
			e.log.Warn().Err(err).Msg("controller.Engine.pong")
			return
		}
		e.log.Error().Err(err).Msg("controller.Engine.pong")
		return
	}
	for _, s := range samples {
		e.log.Info().
			Str("logger", s.Logger).
			Uint64("timestamp", s.Timestamp).
			Dur("elapsed", s.Elapsed).
			Bool("self", s.SelfMeasured).
			Msg("controller.Engine.pong timing")
		e.reporter.ReportLatency(s)
	}
}

func (e *Engine) observeGame(gs messages.GameState) {
	cp := gs
	cp.Teams = append([]messages.Team(nil), gs.Teams...)
	e.game = &cp
	e.observer.GameStateUpdated(cp)
	for _, t := range gs.Teams {
		e.log.Debug().Str("team", t.Name).Uint32("players", t.NumPlayers).Uint32("score", t.Score).Msg("controller.Engine.game team")
	}
}

func (e *Engine) unexpected(msg messages.Message, detail string) {
	e.observer.EnvelopeDropped(DropUnexpected)
	e.log.Warn().
		Err(fmt.Errorf("%w: %s", ErrUnexpectedMessageType, msg.Type())).
		Str("state", e.state.String()).
		Str("detail", detail).
		Msg("controller.Engine.dispatch ignored")
}
