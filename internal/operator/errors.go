package operator

import (
	"errors"
	"fmt"

	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
)

var (
	ErrUnsupportedKind    = errors.New("operator kind is not supported")
	ErrInvalidDims        = errors.New("matrix dimensions must be positive")
	ErrInvalidRepetitions = errors.New("repetitions must be positive")
	ErrInvalidTranspose   = errors.New("invalid transpose selector")
	ErrInvalidTensorOp    = errors.New("invalid tensor-op mode")
	ErrInvalidAlgo        = errors.New("invalid algorithm selector")
	ErrNonPositiveTime    = errors.New("device reported non-positive elapsed time")
)

// ErrorKind classifies why a measurement failed.
type ErrorKind int

const (
	// KindConfig: the configuration itself is malformed.
	KindConfig ErrorKind = iota + 1
	// KindSelector: a transpose, tensor-op, algorithm or precision selector
	// is out of range.
	KindSelector
	// KindDevice: the accelerator library returned a non-success status.
	KindDevice
	// KindUnsupported: the operator kind has no implementation.
	KindUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindSelector:
		return "selector"
	case KindDevice:
		return "device"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is returned by New and PerformanceMeasuring. No result is recorded
// for a configuration that produced an Error.
type Error struct {
	Kind   ErrorKind
	Op     string
	Config opconfig.Config
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in %s for %s: %v", e.Kind, e.Op, e.Config, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var oe *Error
	return errors.As(err, &oe) && oe.Kind == kind
}
