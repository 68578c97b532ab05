// Package client wires one orwellctl session: endpoint resolution, channel
// dialing, input devices, the protocol engine and the local status server.
package client
