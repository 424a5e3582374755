package monitor

import "context"

// Occupancy is a snapshot of device slot usage.
type Occupancy struct {
	// Active is the number of measurements currently holding a slot.
	Active int64
	// Slots is the number of measurements allowed on the device at once.
	Slots int64
	// Completed counts released slots since the monitor was created.
	Completed int64
	// LoadPercentage is Active/Slots as a percentage (0-100).
	LoadPercentage float64
}

// DeviceMonitor guards exclusive use of an accelerator. A measurement holds
// a slot for its whole duration so that timings are not perturbed by other
// work issued through the same process.
type DeviceMonitor interface {
	Occupancy() Occupancy

	// Busy reports whether every slot is taken.
	Busy() bool

	// Acquire blocks until a slot is free or ctx is done.
	Acquire(ctx context.Context) error

	// TryAcquire takes a slot without blocking. The caller MUST call
	// Release when the measurement completes.
	TryAcquire() bool

	Release()

	// Changed returns a channel closed at the next Acquire or Release.
	Changed() <-chan struct{}
}
