// Package controller is the client-side protocol engine.
//
// Ownership boundary:
// - session state machine (Init, Welcome, WaitingGameStart, GameRunning)
// - routing identity lifecycle and the topic subscriptions that follow it
// - the two-phase Hello handshake over the request/reply channel
// - input gating and ping emission per poll iteration
// - dispatch of inbound envelopes
//
// An Engine is driven from a single goroutine. Only Status may be called
// from other goroutines.
package controller
