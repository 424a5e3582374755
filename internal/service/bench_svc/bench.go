package bench_svc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/gpuinfo"
	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/ciricc/go-gemm-bench/internal/monitor"
	"github.com/ciricc/go-gemm-bench/internal/simulator"
	"github.com/ciricc/go-gemm-bench/pkg/benchreport"
	"github.com/samber/lo"
)

var (
	ErrBenchServiceBusy = errors.New("bench service is busy")
	ErrNotMeasured      = errors.New("not measured")
)

type BenchService interface {
	// RunBatch measures configs and builds the report. The returned error is
	// the measurement error; the report is filled in either way, with failed
	// configurations carrying their error text.
	RunBatch(ctx context.Context, configs []opconfig.Config, opts ...RunOpt) (benchreport.Report, error)
}

type BenchServiceImpl struct {
	newSim func() *simulator.Simulator
	dev    accel.Device
	logger *slog.Logger
	runs   monitor.DeviceMonitor
}

// NewBenchService runs every batch on a fresh simulator from newSim, so a
// report only ever holds results of its own run.
func NewBenchService(
	newSim func() *simulator.Simulator,
	dev accel.Device,
	logger *slog.Logger,
) *BenchServiceImpl {
	return &BenchServiceImpl{
		newSim: newSim,
		dev:    dev,
		logger: logger,
		runs:   monitor.NewSemaphoreMonitor(1),
	}
}

func (s *BenchServiceImpl) RunBatch(
	ctx context.Context,
	configs []opconfig.Config,
	opts ...RunOpt,
) (benchreport.Report, error) {
	if !s.runs.TryAcquire() {
		return benchreport.Report{}, ErrBenchServiceBusy
	}
	defer s.runs.Release()

	o := buildOpts(RunOpts{
		Iterations: lo.ToPtr(2000),
		GPUDevice:  lo.ToPtr(0),
	}, opts...)

	sim := s.newSim()
	if err := sim.InitOp(configs); err != nil {
		return benchreport.Report{}, err
	}
	defer sim.FreeOp()

	env := s.env(ctx, *o.GPUDevice)

	gpuCtx, stopGPU := context.WithCancel(ctx)
	peakCh := make(chan gpuinfo.Peak, 1)
	if interval := lo.FromPtr(o.GPUSampleInterval); interval > 0 && env.GPU.Present {
		go func() {
			peakCh <- gpuinfo.Watch(gpuCtx, *o.GPUDevice, interval, func(err error) {
				s.logger.WarnContext(ctx, "gpu sample failed", "error", err)
			})
		}()
	} else {
		peakCh <- gpuinfo.Peak{}
	}

	s.logger.InfoContext(ctx, "running batch", "configs", len(configs), "iterations", *o.Iterations, "device", s.dev.Name())
	start := time.Now()
	pf, runErr := sim.MeasureAllOp(ctx, *o.Iterations)
	wall := time.Since(start)
	stopGPU()
	peak := <-peakCh

	results := buildResults(configs, pf, sim.Failure)
	failed := lo.CountBy(results, func(r benchreport.Result) bool { return r.Failed() })

	rep := benchreport.Report{
		Version:          benchreport.Version,
		TimestampRFC3339: start.UTC().Format(time.RFC3339),
		Label:            lo.FromPtr(o.Label),
		Env:              env,
		Params: benchreport.ReportParams{
			Iterations: *o.Iterations,
			Seed:       o.Seed,
		},
		Results: results,
		Metrics: benchreport.ReportMetrics{
			Measured:          len(results) - failed,
			Failed:            failed,
			WallSecondsTotal:  wall.Seconds(),
			GPUUtilMaxPercent: peak.UtilMaxPercent,
			GPUUtilAvgPercent: peak.UtilAvgPercent,
			GPUVRAMUsedMaxMB:  peak.MemUsedMaxMB,
			GPUPowerMaxWatt:   peak.PowerMaxWatt,
		},
	}
	return rep, runErr
}

func (s *BenchServiceImpl) env(ctx context.Context, device int) benchreport.ReportEnv {
	env := benchreport.DetectEnv(s.dev.Name())
	if !gpuinfo.Available() {
		return env
	}
	qctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	smi, err := gpuinfo.Query(qctx, device)
	if err != nil {
		s.logger.WarnContext(ctx, "nvidia-smi query failed", "error", err)
		return env
	}
	env.GPU = benchreport.ReportGPU{
		Present:       true,
		Device:        smi.Index,
		Name:          smi.Name,
		DriverVersion: smi.DriverVersion,
		CUDAVersion:   smi.CUDAVersion,
		VRAMTotalMB:   smi.MemTotalMB,
	}
	return env
}

// buildResults emits one result per distinct configuration in input order.
// Configurations neither recorded nor failed were never reached.
func buildResults(configs []opconfig.Config, pf *simulator.PfMap, failure func(opconfig.Config) error) []benchreport.Result {
	configs = lo.UniqBy(configs, func(c opconfig.Config) opconfig.Key { return c.Key() })
	return lo.Map(configs, func(cfg opconfig.Config, _ int) benchreport.Result {
		r := benchreport.Result{
			Kind:   cfg.Kind().String(),
			Params: cfg.Params(),
		}
		if mp, err := opconfig.DecodeMatMul(cfg); err == nil {
			r.M, r.N, r.K = mp.M, mp.N, mp.K
			r.TransA, r.TransB = mp.TransA, mp.TransB
			r.TensorOp, r.Algo = mp.TensorOp, mp.AlgoID
			r.Precision = mp.Precision.String()
			r.Unit = mp.Precision.ThroughputUnit()
		}
		if rec, ok := pf.Get(cfg); ok {
			r.AvgMs = rec.AvgDurationMs
			r.Throughput = rec.Throughput
			r.Extra = rec.Extra
			return r
		}
		if err := failure(cfg); err != nil {
			r.Error = err.Error()
		} else {
			r.Error = ErrNotMeasured.Error()
		}
		return r
	})
}

var _ BenchService = (*BenchServiceImpl)(nil)
