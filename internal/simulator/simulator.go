package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/ciricc/go-gemm-bench/internal/model/perf"
	"github.com/ciricc/go-gemm-bench/internal/monitor"
	"github.com/ciricc/go-gemm-bench/internal/operator"
)

var (
	ErrNoOperators = errors.New("no operators initialised")
	ErrFreed       = errors.New("simulator operators already freed")
)

type Options struct {
	Logger          *slog.Logger
	Monitor         monitor.DeviceMonitor
	ContinueOnError bool
	OperatorOptions []operator.Option
}

type Option func(opts *Options)

func WithLogger(l *slog.Logger) Option {
	return func(opts *Options) { opts.Logger = l }
}

// WithMonitor makes every measurement hold a slot of m.
func WithMonitor(m monitor.DeviceMonitor) Option {
	return func(opts *Options) { opts.Monitor = m }
}

// WithContinueOnError keeps measuring the remaining operators after one
// fails. Failures are returned joined once all operators have run.
func WithContinueOnError(v bool) Option {
	return func(opts *Options) { opts.ContinueOnError = v }
}

// WithOperatorOptions are passed to every operator created by InitOp.
func WithOperatorOptions(o ...operator.Option) Option {
	return func(opts *Options) { opts.OperatorOptions = append(opts.OperatorOptions, o...) }
}

// Simulator owns the operators of one benchmark run and their results. It
// measures operators strictly one after another.
type Simulator struct {
	dev   accel.Device
	log   *slog.Logger
	opts  Options
	ops   []operator.Operator
	pf    *PfMap
	fails map[opconfig.Key]error
	freed bool
}

var _ operator.Recorder = (*Simulator)(nil)

func New(dev accel.Device, opts ...Option) *Simulator {
	o := Options{
		Logger:  slog.New(slog.DiscardHandler),
		Monitor: monitor.NewSemaphoreMonitor(1),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Simulator{
		dev:   dev,
		log:   o.Logger,
		opts:  o,
		pf:    NewPfMap(),
		fails: make(map[opconfig.Key]error),
	}
}

// InitOp creates one operator per config, in order. If any config has an
// unsupported kind, no operators are retained, including those of an
// earlier InitOp.
func (s *Simulator) InitOp(configs []opconfig.Config) error {
	ops := make([]operator.Operator, 0, len(configs))
	for _, cfg := range configs {
		op, err := operator.New(cfg, s.dev, s.opts.OperatorOptions...)
		if err != nil {
			s.ops = nil
			s.fails = make(map[opconfig.Key]error)
			return fmt.Errorf("init operator %s: %w", cfg, err)
		}
		ops = append(ops, op)
	}
	s.ops = ops
	s.fails = make(map[opconfig.Key]error)
	s.freed = false
	s.log.Debug("operators initialised", "count", len(ops), "device", s.dev.Name())
	return nil
}

// MeasureAllOp measures every operator with the given repetition count and
// returns a snapshot of the results table. Without WithContinueOnError the
// first failure stops the run; the snapshot then holds the results recorded
// before it.
func (s *Simulator) MeasureAllOp(ctx context.Context, repetitions int) (*PfMap, error) {
	if s.freed {
		return nil, ErrFreed
	}
	if len(s.ops) == 0 {
		return nil, ErrNoOperators
	}

	var errs []error
	for _, op := range s.ops {
		if err := ctx.Err(); err != nil {
			return s.pf.Clone(), errors.Join(append(errs, err)...)
		}
		err := s.measure(ctx, op, repetitions)
		if err == nil {
			delete(s.fails, op.Config().Key())
		}
		if err != nil {
			s.log.ErrorContext(ctx, "measurement failed", "config", op.Config().String(), "error", err)
			s.fails[op.Config().Key()] = err
			err = fmt.Errorf("measure %s: %w", op.Config(), err)
			if !s.opts.ContinueOnError {
				return s.pf.Clone(), err
			}
			errs = append(errs, err)
		}
	}
	return s.pf.Clone(), errors.Join(errs...)
}

func (s *Simulator) measure(ctx context.Context, op operator.Operator, repetitions int) error {
	if err := s.opts.Monitor.Acquire(ctx); err != nil {
		return err
	}
	defer s.opts.Monitor.Release()
	return op.PerformanceMeasuring(ctx, s, repetitions)
}

// UpdatePfMap records a result, overwriting any earlier one for cfg.
func (s *Simulator) UpdatePfMap(cfg opconfig.Config, avgDurationMs, throughput float64, extra map[string]float64) {
	s.pf.Put(cfg, perf.NewRecord(avgDurationMs, throughput, extra))
	s.log.Info("recorded", "config", cfg.String(), "avg_ms", avgDurationMs, "throughput", throughput)
}

// Failure returns the error of the latest measurement of cfg, or nil if it
// succeeded or has not run since InitOp.
func (s *Simulator) Failure(cfg opconfig.Config) error {
	return s.fails[cfg.Key()]
}

// Results returns a snapshot of the results table.
func (s *Simulator) Results() *PfMap {
	return s.pf.Clone()
}

// FreeOp releases all operators. MeasureAllOp fails afterwards until InitOp
// is called again.
func (s *Simulator) FreeOp() {
	s.ops = nil
	s.freed = true
}
