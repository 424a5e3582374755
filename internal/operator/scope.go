package operator

import (
	"errors"
	"slices"

	"github.com/ciricc/go-gemm-bench/internal/accel"
)

// scope tracks device resources acquired during one measurement so they can
// be released on every exit path.
type scope struct {
	dev       accel.Device
	handle    accel.Handle
	hasHandle bool
	buffers   []accel.Buffer
	events    []accel.Event
}

func newScope(dev accel.Device) *scope {
	return &scope{dev: dev}
}

func (s *scope) createHandle() (accel.Handle, error) {
	h, err := s.dev.CreateHandle()
	if err != nil {
		return 0, accel.Check("CreateHandle", err)
	}
	s.handle, s.hasHandle = h, true
	return h, nil
}

func (s *scope) malloc(size int) (accel.Buffer, error) {
	b, err := s.dev.Malloc(size)
	if err != nil {
		return 0, accel.Check("Malloc", err)
	}
	s.buffers = append(s.buffers, b)
	return b, nil
}

func (s *scope) event() (accel.Event, error) {
	e, err := s.dev.EventCreate()
	if err != nil {
		return 0, accel.Check("EventCreate", err)
	}
	s.events = append(s.events, e)
	return e, nil
}

// release frees everything in reverse acquisition order and is idempotent.
// Every resource is attempted even if an earlier release fails.
func (s *scope) release() error {
	var errs []error
	for _, e := range slices.Backward(s.events) {
		errs = append(errs, accel.Check("EventDestroy", s.dev.EventDestroy(e)))
	}
	for _, b := range slices.Backward(s.buffers) {
		errs = append(errs, accel.Check("Free", s.dev.Free(b)))
	}
	if s.hasHandle {
		errs = append(errs, accel.Check("DestroyHandle", s.dev.DestroyHandle(s.handle)))
	}
	s.events, s.buffers, s.hasHandle = nil, nil, false
	return errors.Join(errs...)
}
