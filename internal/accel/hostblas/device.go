// Package hostblas implements accel.Device on the host CPU. GEMM runs through
// gonum's BLAS; events are host timestamps, which are exact because every
// call completes before it returns.
package hostblas

import (
	"sync"
	"time"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/timing"
)

const Name = "hostblas"

type Option func(d *Device)

// WithClock replaces the clock used to stamp recorded events.
func WithClock(c timing.Clock) Option {
	return func(d *Device) { d.clock = c }
}

type Device struct {
	mu      sync.Mutex
	clock   timing.Clock
	nextID  uint64
	handles map[accel.Handle]struct{}
	buffers map[accel.Buffer][]byte
	events  map[accel.Event]time.Time
}

var _ accel.Device = (*Device)(nil)

func New(opts ...Option) *Device {
	d := &Device{
		clock:   time.Now,
		handles: make(map[accel.Handle]struct{}),
		buffers: make(map[accel.Buffer][]byte),
		events:  make(map[accel.Event]time.Time),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Device) Name() string { return Name }

func (d *Device) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) CreateHandle() (accel.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := accel.Handle(d.id())
	d.handles[h] = struct{}{}
	return h, nil
}

func (d *Device) DestroyHandle(h accel.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handles[h]; !ok {
		return accel.StatusNotInitialized
	}
	delete(d.handles, h)
	return nil
}

func (d *Device) Malloc(size int) (accel.Buffer, error) {
	if size <= 0 {
		return 0, accel.StatusInvalidValue
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	b := accel.Buffer(d.id())
	d.buffers[b] = make([]byte, size)
	return b, nil
}

func (d *Device) Free(b accel.Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[b]; !ok {
		return accel.StatusInvalidValue
	}
	delete(d.buffers, b)
	return nil
}

func (d *Device) CopyHostToDevice(dst accel.Buffer, src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	mem, ok := d.buffers[dst]
	if !ok || len(src) > len(mem) {
		return accel.StatusInvalidValue
	}
	copy(mem, src)
	return nil
}

// CopyDeviceToHost returns a copy of a buffer's contents.
func (d *Device) CopyDeviceToHost(src accel.Buffer) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mem, ok := d.buffers[src]
	if !ok {
		return nil, accel.StatusInvalidValue
	}
	return append([]byte(nil), mem...), nil
}

func (d *Device) GemmEx(h accel.Handle, p accel.GemmParams) error {
	d.mu.Lock()
	if _, ok := d.handles[h]; !ok {
		d.mu.Unlock()
		return accel.StatusNotInitialized
	}
	a, okA := d.buffers[p.A]
	b, okB := d.buffers[p.B]
	c, okC := d.buffers[p.C]
	d.mu.Unlock()
	if !okA || !okB || !okC {
		return accel.StatusInvalidValue
	}
	return gemm(p, a, b, c)
}

func (d *Device) EventCreate() (accel.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := accel.Event(d.id())
	d.events[e] = time.Time{}
	return e, nil
}

func (d *Device) EventRecord(e accel.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.events[e]; !ok {
		return accel.StatusInvalidValue
	}
	d.events[e] = d.clock()
	return nil
}

func (d *Device) EventSynchronize(e accel.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	ts, ok := d.events[e]
	if !ok || ts.IsZero() {
		return accel.StatusInvalidValue
	}
	return nil
}

func (d *Device) EventElapsedTime(start, stop accel.Event) (float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	beg, ok1 := d.events[start]
	end, ok2 := d.events[stop]
	if !ok1 || !ok2 || beg.IsZero() || end.IsZero() {
		return 0, accel.StatusInvalidValue
	}
	return float32(timing.Elapsed(beg, end)), nil
}

func (d *Device) EventDestroy(e accel.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.events[e]; !ok {
		return accel.StatusInvalidValue
	}
	delete(d.events, e)
	return nil
}
