// Package messages owns the typed payloads carried inside bus envelopes.
//
// Ownership boundary:
// - controller -> server messages: Hello, Input, Ping
// - server -> controller messages: Welcome, Goodbye, GameState, Pong
// - decoding one envelope into exactly one typed Message
package messages
