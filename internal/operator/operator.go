package operator

import (
	"context"
	"log/slog"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/samber/lo"
)

// Recorder receives one result per successful measurement.
type Recorder interface {
	UpdatePfMap(cfg opconfig.Config, avgDurationMs, throughput float64, extra map[string]float64)
}

// Operator is a unit of work bound to one Config.
type Operator interface {
	Config() opconfig.Config
	// PerformanceMeasuring runs the workload repetitions times on the device
	// and reports the averaged result to rec. On error nothing is reported
	// and every device resource acquired by the call has been released.
	PerformanceMeasuring(ctx context.Context, rec Recorder, repetitions int) error
}

// RepetitionObserver is called after each timed repetition, rep counting
// from zero.
type RepetitionObserver func(cfg opconfig.Config, rep int, elapsedMs float32)

// LatencyRecorder exports per-repetition timings, e.g. as a metric.
type LatencyRecorder interface {
	RecordRepetition(ctx context.Context, p opconfig.MatMulParams, elapsedMs float64)
}

type Options struct {
	Logger   *slog.Logger
	Seed     *uint64
	Observer RepetitionObserver
	Latency  LatencyRecorder
}

type Option func(opts *Options)

func WithLogger(l *slog.Logger) Option {
	return func(opts *Options) { opts.Logger = l }
}

// WithSeed fixes the pseudo-random input data.
func WithSeed(seed uint64) Option {
	return func(opts *Options) { opts.Seed = &seed }
}

func WithRepetitionObserver(fn RepetitionObserver) Option {
	return func(opts *Options) { opts.Observer = fn }
}

func WithLatencyRecorder(r LatencyRecorder) Option {
	return func(opts *Options) { opts.Latency = r }
}

func buildOpts(defaultOpts Options, opts ...Option) Options {
	o := defaultOpts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New binds cfg to the operator implementation for its kind.
func New(cfg opconfig.Config, dev accel.Device, opts ...Option) (Operator, error) {
	o := buildOpts(Options{
		Logger: slog.New(slog.DiscardHandler),
		Seed:   lo.ToPtr(uint64(1)),
	}, opts...)

	switch cfg.Kind() {
	case opconfig.KindMatMul:
		return &MatMul{cfg: cfg, dev: dev, opts: o}, nil
	default:
		return nil, &Error{Kind: KindUnsupported, Op: "New", Config: cfg, Err: ErrUnsupportedKind}
	}
}
