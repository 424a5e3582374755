package monitor

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// SemaphoreMonitor implements DeviceMonitor with a weighted semaphore.
type SemaphoreMonitor struct {
	sem       *semaphore.Weighted
	slots     int64
	active    atomic.Int64
	completed atomic.Int64

	mu      sync.Mutex
	changed chan struct{}
}

var _ DeviceMonitor = (*SemaphoreMonitor)(nil)

// NewSemaphoreMonitor creates a monitor with the given number of slots.
// Values below one are raised to one.
func NewSemaphoreMonitor(slots int64) *SemaphoreMonitor {
	if slots < 1 {
		slots = 1
	}
	return &SemaphoreMonitor{
		sem:     semaphore.NewWeighted(slots),
		slots:   slots,
		changed: make(chan struct{}),
	}
}

func (m *SemaphoreMonitor) Occupancy() Occupancy {
	active := m.active.Load()
	return Occupancy{
		Active:         active,
		Slots:          m.slots,
		Completed:      m.completed.Load(),
		LoadPercentage: float64(active) / float64(m.slots) * 100.0,
	}
}

func (m *SemaphoreMonitor) Busy() bool {
	return m.active.Load() >= m.slots
}

func (m *SemaphoreMonitor) Acquire(ctx context.Context) error {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	m.active.Add(1)
	m.notify()
	return nil
}

func (m *SemaphoreMonitor) TryAcquire() bool {
	if !m.sem.TryAcquire(1) {
		return false
	}
	m.active.Add(1)
	m.notify()
	return true
}

func (m *SemaphoreMonitor) Release() {
	m.active.Add(-1)
	m.completed.Add(1)
	m.sem.Release(1)
	m.notify()
}

func (m *SemaphoreMonitor) Changed() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

func (m *SemaphoreMonitor) notify() {
	m.mu.Lock()
	defer m.mu.Unlock()
	close(m.changed)
	m.changed = make(chan struct{})
}
