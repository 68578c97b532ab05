// Package device adapts physical input into snapshots the protocol engine
// can send.
//
// Ownership boundary:
// - the Source contract polled once per engine iteration
// - the Registry that memoizes sources by id
// - joystick and keyboard adapters with their change detection
// - key and axis backends (console lines, linux /dev/input/js*)
//
// Sources are polled from the engine goroutine only. Backends that read
// hardware in the background guard their state internally.
package device
