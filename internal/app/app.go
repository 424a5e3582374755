package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/accel/hostblas"
	"github.com/ciricc/go-gemm-bench/internal/config"
	"github.com/ciricc/go-gemm-bench/internal/health"
	"github.com/ciricc/go-gemm-bench/internal/monitor"
	"github.com/ciricc/go-gemm-bench/internal/operator"
	"github.com/ciricc/go-gemm-bench/internal/service/bench_svc"
	"github.com/ciricc/go-gemm-bench/internal/simulator"
	"github.com/ciricc/go-gemm-bench/internal/telemetry"
	"github.com/ciricc/go-gemm-bench/pkg/benchreport"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type Options struct {
	LogOutput       io.Writer
	Device          accel.Device
	OperatorOptions []operator.Option
	// GPUSampleInterval enables nvidia-smi sampling during RunBatch.
	GPUSampleInterval time.Duration
}

type Option func(opts *Options)

func WithLogOutput(w io.Writer) Option {
	return func(opts *Options) { opts.LogOutput = w }
}

// WithDevice overrides the device selected by device.backend.
func WithDevice(d accel.Device) Option {
	return func(opts *Options) { opts.Device = d }
}

func WithOperatorOptions(o ...operator.Option) Option {
	return func(opts *Options) { opts.OperatorOptions = append(opts.OperatorOptions, o...) }
}

func WithGPUSampling(interval time.Duration) Option {
	return func(opts *Options) { opts.GPUSampleInterval = interval }
}

type Application struct {
	Config        config.Config
	Log           *slog.Logger
	Device        accel.Device
	Monitor       monitor.DeviceMonitor
	Simulator     *simulator.Simulator
	Bench         bench_svc.BenchService
	HealthChecker *health.HealthChecker
	telemetry     *telemetry.Telemetry
	opts          Options
}

// NewDevice opens the accelerator named by backend.
func NewDevice(backend string) (accel.Device, error) {
	switch backend {
	case hostblas.Name:
		return hostblas.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, backend)
	}
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*Application, error) {
	o := Options{LogOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(o.LogOutput, &slog.HandlerOptions{
		Level: level,
	}))

	dev := o.Device
	if dev == nil {
		if dev, err = NewDevice(cfg.Device.Backend); err != nil {
			return nil, err
		}
	}

	tel, err := telemetry.Setup(ctx, cfg.Telemetry.ConfigPath, log)
	if err != nil {
		return nil, err
	}

	opOpts := []operator.Option{
		operator.WithLogger(log),
		operator.WithLatencyRecorder(tel.Repetitions),
	}
	if cfg.Bench.Seed != nil {
		opOpts = append(opOpts, operator.WithSeed(*cfg.Bench.Seed))
	}
	opOpts = append(opOpts, o.OperatorOptions...)

	// One slot: measurements never share the device.
	mon := monitor.NewSemaphoreMonitor(1)

	newSim := func() *simulator.Simulator {
		return simulator.New(dev,
			simulator.WithLogger(log),
			simulator.WithMonitor(mon),
			simulator.WithContinueOnError(cfg.Bench.ContinueOnError),
			simulator.WithOperatorOptions(opOpts...),
		)
	}

	healthChecker := health.NewHealthChecker(mon)
	healthChecker.SetServingStatus(health.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &Application{
		Config:        cfg,
		Log:           log,
		Device:        dev,
		Monitor:       mon,
		Simulator:     newSim(),
		Bench:         bench_svc.NewBenchService(newSim, dev, log),
		HealthChecker: healthChecker,
		telemetry:     tel,
		opts:          o,
	}, nil
}

// RunBatch measures bench.configs through the bench service.
func (a *Application) RunBatch(ctx context.Context) (benchreport.Report, error) {
	configs, err := a.Config.Bench.OpConfigs()
	if err != nil {
		return benchreport.Report{}, err
	}
	opts := []bench_svc.RunOpt{
		bench_svc.WithIterations(a.Config.Bench.Iterations),
		bench_svc.WithLabel(a.Config.Bench.Label),
		bench_svc.WithGPUDevice(a.Config.Device.Index),
		bench_svc.WithGPUSampling(a.opts.GPUSampleInterval),
	}
	if a.Config.Bench.Seed != nil {
		opts = append(opts, bench_svc.WithSeed(*a.Config.Bench.Seed))
	}
	return a.Bench.RunBatch(ctx, configs, opts...)
}

func (a *Application) Close() error {
	a.Simulator.FreeOp()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.telemetry.Shutdown(ctx)
}
