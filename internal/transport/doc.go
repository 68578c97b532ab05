// Package transport owns the channel contracts the protocol engine talks to.
//
// Ownership boundary:
// - Pusher: fire-and-forget outbound envelopes
// - Subscriber: topic-filtered inbound envelopes, non-blocking receive
// - Requester: synchronous request/reply used for the handshake only
// - client TLS configuration shared by the concrete channels
//
// Concrete channels live in wsbus (push, subscribe) and reqrep (request/reply).
package transport
