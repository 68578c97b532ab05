// Package envelope owns the bus wire unit: "<recipient> <type> <payload>".
//
// Ownership boundary:
// - splitting raw bus messages into recipient / message type / payload
// - building outbound messages with exactly two separating spaces
// - the reserved broadcast recipient
//
// Payload bytes are opaque here; see internal/protocol/messages for decoding.
package envelope
