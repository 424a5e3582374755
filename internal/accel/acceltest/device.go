// Package acceltest provides an in-memory accel.Device that counts calls,
// reports a fixed elapsed time per event pair and fails on demand.
package acceltest

import (
	"sync"

	"github.com/ciricc/go-gemm-bench/internal/accel"
)

// Op names accepted by FailOn and Calls.
const (
	OpCreateHandle     = "CreateHandle"
	OpDestroyHandle    = "DestroyHandle"
	OpMalloc           = "Malloc"
	OpFree             = "Free"
	OpCopyHostToDevice = "CopyHostToDevice"
	OpGemmEx           = "GemmEx"
	OpEventCreate      = "EventCreate"
	OpEventRecord      = "EventRecord"
	OpEventSynchronize = "EventSynchronize"
	OpEventElapsedTime = "EventElapsedTime"
	OpEventDestroy     = "EventDestroy"
)

type failure struct {
	after  int
	status accel.Status
}

type Device struct {
	mu        sync.Mutex
	elapsedMs float32
	nextID    uint64
	calls     map[string]int
	failures  map[string]failure
	buffers   map[accel.Buffer]int
	handles   map[accel.Handle]struct{}
	events    map[accel.Event]struct{}
	gemms     []accel.GemmParams
	mallocs   []int
}

var _ accel.Device = (*Device)(nil)

// New returns a device whose EventElapsedTime always reports elapsedMs.
func New(elapsedMs float32) *Device {
	return &Device{
		elapsedMs: elapsedMs,
		calls:     make(map[string]int),
		failures:  make(map[string]failure),
		buffers:   make(map[accel.Buffer]int),
		handles:   make(map[accel.Handle]struct{}),
		events:    make(map[accel.Event]struct{}),
	}
}

// FailOn makes the (after+1)-th call of op return status.
func (d *Device) FailOn(op string, after int, status accel.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[op] = failure{after: after, status: status}
}

func (d *Device) SetElapsed(ms float32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elapsedMs = ms
}

func (d *Device) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

// Gemms returns the parameters of every successful GemmEx call.
func (d *Device) Gemms() []accel.GemmParams {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]accel.GemmParams(nil), d.gemms...)
}

// Live reports resources that were created and not yet released.
func (d *Device) Live() (handles, buffers, events int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handles), len(d.buffers), len(d.events)
}

// MallocSizes returns the size of every successful Malloc in call order.
func (d *Device) MallocSizes() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int(nil), d.mallocs...)
}

func (d *Device) Name() string { return "acceltest" }

// enter counts a call and reports an injected failure. Caller holds mu.
func (d *Device) enter(op string) error {
	n := d.calls[op]
	d.calls[op] = n + 1
	if f, ok := d.failures[op]; ok && n == f.after {
		return f.status
	}
	return nil
}

func (d *Device) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) CreateHandle() (accel.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpCreateHandle); err != nil {
		return 0, err
	}
	h := accel.Handle(d.id())
	d.handles[h] = struct{}{}
	return h, nil
}

func (d *Device) DestroyHandle(h accel.Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpDestroyHandle); err != nil {
		return err
	}
	if _, ok := d.handles[h]; !ok {
		return accel.StatusInvalidValue
	}
	delete(d.handles, h)
	return nil
}

func (d *Device) Malloc(size int) (accel.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpMalloc); err != nil {
		return 0, err
	}
	if size <= 0 {
		return 0, accel.StatusInvalidValue
	}
	b := accel.Buffer(d.id())
	d.buffers[b] = size
	d.mallocs = append(d.mallocs, size)
	return b, nil
}

func (d *Device) Free(b accel.Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpFree); err != nil {
		return err
	}
	if _, ok := d.buffers[b]; !ok {
		return accel.StatusInvalidValue
	}
	delete(d.buffers, b)
	return nil
}

func (d *Device) CopyHostToDevice(dst accel.Buffer, src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpCopyHostToDevice); err != nil {
		return err
	}
	size, ok := d.buffers[dst]
	if !ok || len(src) > size {
		return accel.StatusInvalidValue
	}
	return nil
}

func (d *Device) GemmEx(h accel.Handle, p accel.GemmParams) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpGemmEx); err != nil {
		return err
	}
	if _, ok := d.handles[h]; !ok {
		return accel.StatusNotInitialized
	}
	d.gemms = append(d.gemms, p)
	return nil
}

func (d *Device) EventCreate() (accel.Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpEventCreate); err != nil {
		return 0, err
	}
	e := accel.Event(d.id())
	d.events[e] = struct{}{}
	return e, nil
}

func (d *Device) EventRecord(e accel.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enter(OpEventRecord)
}

func (d *Device) EventSynchronize(e accel.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enter(OpEventSynchronize)
}

func (d *Device) EventElapsedTime(start, stop accel.Event) (float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpEventElapsedTime); err != nil {
		return 0, err
	}
	return d.elapsedMs, nil
}

func (d *Device) EventDestroy(e accel.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enter(OpEventDestroy); err != nil {
		return err
	}
	if _, ok := d.events[e]; !ok {
		return accel.StatusInvalidValue
	}
	delete(d.events, e)
	return nil
}
