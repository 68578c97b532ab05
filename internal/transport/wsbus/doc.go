// Package wsbus implements the push and subscribe channels over websockets.
//
// Every binary message carries exactly one bus envelope. The subscribe side
// manages prefix topics with one-byte control frames:
// - 0x01<topic> subscribes
// - 0x00<topic> unsubscribes
//
// A Subscription runs one read pump that hands envelopes to the caller
// through a bounded inbox. When the inbox is full the newest envelope is
// dropped and counted.
package wsbus
