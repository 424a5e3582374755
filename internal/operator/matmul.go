package operator

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/ciricc/go-gemm-bench/internal/model/perf"
)

// MatMul measures C = op(A)·op(B) through the device's GemmEx entry point.
type MatMul struct {
	cfg  opconfig.Config
	dev  accel.Device
	opts Options
}

var _ Operator = (*MatMul)(nil)

func (m *MatMul) Config() opconfig.Config { return m.cfg }

func (m *MatMul) fail(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Config: m.cfg, Err: err}
}

// PerformanceMeasuring validates and resolves the configuration before any
// device call, then times repetitions GemmEx calls between event pairs.
// Every repetition counts, including the first.
func (m *MatMul) PerformanceMeasuring(ctx context.Context, rec Recorder, repetitions int) (err error) {
	if repetitions < 1 {
		return m.fail(KindConfig, "PerformanceMeasuring", ErrInvalidRepetitions)
	}
	mp, err := opconfig.DecodeMatMul(m.cfg)
	if err != nil {
		return m.fail(KindConfig, "DecodeMatMul", err)
	}
	plan, kind, err := planMatMul(mp)
	if err != nil {
		return m.fail(kind, "planMatMul", err)
	}

	log := m.opts.Logger.With("config", m.cfg.String())
	log.DebugContext(ctx, "measuring",
		"transa", plan.transA.String(), "transb", plan.transB.String(),
		"lda", plan.lda, "ldb", plan.ldb, "ldc", plan.ldc,
		"algo", plan.algo.String(), "precision", mp.Precision.String(),
		"repetitions", repetitions)

	res := newScope(m.dev)
	defer func() {
		if relErr := res.release(); relErr != nil {
			err = errors.Join(err, m.fail(KindDevice, "release", relErr))
		}
	}()

	samples, err := m.run(ctx, res, plan, repetitions)
	if err != nil {
		return err
	}

	var total float64
	for _, s := range samples {
		total += s
	}
	avg := total / float64(repetitions)
	if !(avg > 0) {
		return m.fail(KindDevice, "EventElapsedTime", ErrNonPositiveTime)
	}
	throughput := perf.GEMMThroughput(mp.M, mp.N, mp.K, avg)

	if err := res.release(); err != nil {
		return m.fail(KindDevice, "release", err)
	}

	log.DebugContext(ctx, "measured", "avg_ms", avg, "throughput", throughput)
	rec.UpdatePfMap(m.cfg, avg, throughput, summarize(samples))
	return nil
}

// run allocates and populates operands and returns per-repetition
// milliseconds.
func (m *MatMul) run(ctx context.Context, res *scope, plan gemmPlan, repetitions int) ([]float64, error) {
	h, err := res.createHandle()
	if err != nil {
		return nil, m.fail(KindDevice, "CreateHandle", err)
	}

	r := rand.New(rand.NewPCG(*m.opts.Seed, *m.opts.Seed))
	var bufs [3]accel.Buffer
	for i, operand := range []struct {
		size  int
		dt    accel.DataType
		elems int
	}{
		{plan.sizeA(), plan.inType, plan.M * plan.K},
		{plan.sizeB(), plan.inType, plan.K * plan.N},
		{plan.sizeC(), plan.outType, plan.M * plan.N},
	} {
		if bufs[i], err = res.malloc(operand.size); err != nil {
			return nil, m.fail(KindDevice, "Malloc", err)
		}
		host := fillHost(r, operand.dt, operand.elems)
		if err := accel.Check("CopyHostToDevice", m.dev.CopyHostToDevice(bufs[i], host)); err != nil {
			return nil, m.fail(KindDevice, "CopyHostToDevice", err)
		}
	}

	start, err := res.event()
	if err != nil {
		return nil, m.fail(KindDevice, "EventCreate", err)
	}
	stop, err := res.event()
	if err != nil {
		return nil, m.fail(KindDevice, "EventCreate", err)
	}

	gp := plan.params(bufs[0], bufs[1], bufs[2])
	samples := make([]float64, 0, repetitions)
	for i := 0; i < repetitions; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := accel.Check("EventRecord", m.dev.EventRecord(start)); err != nil {
			return nil, m.fail(KindDevice, "EventRecord", err)
		}
		if err := accel.Check("GemmEx", m.dev.GemmEx(h, gp)); err != nil {
			return nil, m.fail(KindDevice, "GemmEx", err)
		}
		if err := accel.Check("EventRecord", m.dev.EventRecord(stop)); err != nil {
			return nil, m.fail(KindDevice, "EventRecord", err)
		}
		if err := accel.Check("EventSynchronize", m.dev.EventSynchronize(stop)); err != nil {
			return nil, m.fail(KindDevice, "EventSynchronize", err)
		}
		ms, err := m.dev.EventElapsedTime(start, stop)
		if err := accel.Check("EventElapsedTime", err); err != nil {
			return nil, m.fail(KindDevice, "EventElapsedTime", err)
		}

		samples = append(samples, float64(ms))
		if m.opts.Observer != nil {
			m.opts.Observer(m.cfg, i, ms)
		}
		if m.opts.Latency != nil {
			m.opts.Latency.RecordRepetition(ctx, plan.MatMulParams, float64(ms))
		}
	}
	return samples, nil
}
