package device

// Snapshot is one complete input sample. Wheel speeds are in [-1, 1].
type Snapshot struct {
	Left        float64
	Right       float64
	FireWeapon1 bool
	FireWeapon2 bool
}

// Source is one polled input device.
type Source interface {
	ID() string
	// Process samples the device and updates change detection.
	Process()
	// HasNewValues reports whether the last Process changed the snapshot.
	HasNewValues() bool
	BuildInput() Snapshot
	// ConsumePendingPingRequest returns true at most once per physical request.
	ConsumePendingPingRequest() bool
}
