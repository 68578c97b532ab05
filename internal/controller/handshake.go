package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/orwellctl/internal/protocol/envelope"
	"github.com/danmuck/orwellctl/internal/protocol/messages"
	"github.com/danmuck/orwellctl/internal/transport"
)

// handshake sends Hello and decodes exactly one reply. Transport and ctx
// failures come back as-is; anything wrong with the reply itself is a
// decode error.
func (e *Engine) handshake(ctx context.Context, ready bool) (messages.Message, error) {
	req, err := messages.EncodeEnvelope(e.routingID, messages.Hello{Name: e.cfg.Name, Ready: ready})
	if err != nil {
		return nil, err
	}

	hctx := ctx
	if e.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, e.cfg.HandshakeTimeout)
		defer cancel()
	}
	raw, err := e.ch.Req.Request(hctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, transport.Unavailable("request", err)
	}
	e.observer.EnvelopeSent(messages.Hello{}.Type())

	env, err := envelope.Decode(raw)
	if err != nil {
		e.observer.EnvelopeDropped(DropMalformed)
		return nil, fmt.Errorf("controller: handshake reply: %w", err)
	}
	reply, err := messages.DecodeEnvelope(env)
	if err != nil {
		e.observer.EnvelopeDropped(DropPayload)
		return nil, fmt.Errorf("controller: handshake reply %s: %w", env.MessageType, err)
	}
	e.observer.EnvelopeReceived(reply.Type())
	e.log.Debug().Bool("ready", ready).Str("reply", reply.Type().String()).Msg("controller.Engine.handshake reply")
	return reply, nil
}

// escalate performs the ready handshake once a first GameState was seen
// in Welcome, then settles on the freshest game state available.
func (e *Engine) escalate(ctx context.Context, trigger messages.GameState) error {
	e.log.Info().Bool("playing", trigger.Playing).Msg("controller.Engine.escalate hello ready")
	e.observeGame(trigger)

	reply, err := e.handshake(ctx, true)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, transport.ErrTransportUnavailable) {
			return err
		}
		e.log.Warn().Err(err).Msg("controller.Engine.escalate dropped reply")
		e.landInWelcome()
		return nil
	}

	switch m := reply.(type) {
	case messages.Goodbye:
		e.abort("escalate")
		return nil
	case messages.Welcome:
		if err := e.adopt(m); err != nil {
			return err
		}
		gs := trigger
		if m.GameState != nil {
			gs = *m.GameState
			e.observeGame(gs)
		}
		if gs.Playing {
			e.setState(StateGameRunning)
		} else {
			e.setState(StateWaitingGameStart)
		}
		return nil
	default:
		e.observer.EnvelopeDropped(DropUnexpected)
		e.log.Warn().
			Err(fmt.Errorf("%w: %s", ErrUnexpectedMessageType, reply.Type())).
			Msg("controller.Engine.escalate ignored reply")
		e.landInWelcome()
		return nil
	}
}

// landInWelcome keeps a failed escalation retryable on the next GameState.
func (e *Engine) landInWelcome() {
	if e.state == StateInit {
		e.setState(StateWelcome)
	}
}

// adopt applies the identity and metadata of a Welcome.
func (e *Engine) adopt(w messages.Welcome) error {
	e.robot = w.Robot
	e.team = w.Team

	id := w.RoutingID()
	if id != e.routingID {
		prev := e.routingID
		if err := e.ch.Sub.Unsubscribe(prev); err != nil {
			return transport.Unavailable("subscribe", err)
		}
		e.routingID = id
		if err := e.ch.Sub.Subscribe(id); err != nil {
			return transport.Unavailable("subscribe", err)
		}
		e.log.Info().
			Str("from", prev).
			Str("to", id).
			Str("robot", w.Robot).
			Str("team", w.Team).
			Msg("controller.Engine.adopt routing id")
	}
	if !e.broadcastJoined {
		if err := e.ch.Sub.Subscribe(envelope.BroadcastRecipient); err != nil {
			return transport.Unavailable("subscribe", err)
		}
		e.broadcastJoined = true
	}
	return nil
}
