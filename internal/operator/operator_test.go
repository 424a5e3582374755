package operator

import (
	"context"
	"errors"
	"testing"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/accel/acceltest"
	"github.com/ciricc/go-gemm-bench/internal/accel/hostblas"
	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	cfg        opconfig.Config
	avg        float64
	throughput float64
	extra      map[string]float64
}

type recorder struct {
	results []result
}

func (r *recorder) UpdatePfMap(cfg opconfig.Config, avg, throughput float64, extra map[string]float64) {
	r.results = append(r.results, result{cfg, avg, throughput, extra})
}

func matmul(m, n, k int, p opconfig.Precision) opconfig.Config {
	return opconfig.MatMul(opconfig.MatMulParams{M: m, N: n, K: k, TransA: 0, TransB: 1, AlgoID: -1, Precision: p})
}

func measure(t *testing.T, dev accel.Device, cfg opconfig.Config, reps int, opts ...Option) (*recorder, error) {
	t.Helper()
	op, err := New(cfg, dev, opts...)
	require.NoError(t, err)
	rec := &recorder{}
	return rec, op.PerformanceMeasuring(context.Background(), rec, reps)
}

func assertReleased(t *testing.T, dev *acceltest.Device) {
	t.Helper()
	h, b, e := dev.Live()
	assert.Zero(t, h, "live handles")
	assert.Zero(t, b, "live buffers")
	assert.Zero(t, e, "live events")
}

func TestMatMulFixedElapsed(t *testing.T) {
	dev := acceltest.New(1.0)
	cfg := matmul(2, 2, 2, opconfig.PrecisionFP32)

	rec, err := measure(t, dev, cfg, 1)
	require.NoError(t, err)
	require.Len(t, rec.results, 1)

	got := rec.results[0]
	assert.True(t, got.cfg.Equal(cfg))
	assert.Equal(t, 1.0, got.avg)
	assert.InDelta(t, 1.6e-8, got.throughput, 1e-20)
	assert.Equal(t, 1.0, got.extra["median_ms"])
	assertReleased(t, dev)
}

func TestMatMulIssuesExactlyRepetitionsGemms(t *testing.T) {
	for _, reps := range []int{1, 3, 17} {
		dev := acceltest.New(0.5)
		_, err := measure(t, dev, matmul(8, 4, 2, opconfig.PrecisionFP16), reps)
		require.NoError(t, err)

		assert.Equal(t, reps, dev.Calls(acceltest.OpGemmEx))
		assert.Equal(t, 2*reps, dev.Calls(acceltest.OpEventRecord))
		assert.Equal(t, reps, dev.Calls(acceltest.OpEventElapsedTime))
		assert.Equal(t, 3, dev.Calls(acceltest.OpMalloc))
		assert.Equal(t, 3, dev.Calls(acceltest.OpFree))
		assertReleased(t, dev)
	}
}

func TestMatMulGemmArguments(t *testing.T) {
	cases := []struct {
		name           string
		transA, transB int
		lda, ldb       int
		opA, opB       accel.Operation
	}{
		{"NN", 0, 0, 6, 4, accel.OpN, accel.OpN},
		{"NT", 0, 1, 6, 5, accel.OpN, accel.OpT},
		{"TN", 1, 0, 4, 4, accel.OpT, accel.OpN},
		{"TT", 1, 1, 4, 5, accel.OpT, accel.OpT},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dev := acceltest.New(1)
			cfg := opconfig.MatMul(opconfig.MatMulParams{
				M: 6, N: 5, K: 4, TransA: tc.transA, TransB: tc.transB,
				TensorOp: 1, AlgoID: 3, Precision: opconfig.PrecisionINT8,
			})
			_, err := measure(t, dev, cfg, 1)
			require.NoError(t, err)

			gemms := dev.Gemms()
			require.Len(t, gemms, 1)
			g := gemms[0]
			assert.Equal(t, tc.opA, g.TransA)
			assert.Equal(t, tc.opB, g.TransB)
			assert.Equal(t, tc.lda, g.LDA)
			assert.Equal(t, tc.ldb, g.LDB)
			assert.Equal(t, 6, g.LDC)
			assert.Equal(t, accel.Algo3TensorOp, g.Algo)
			assert.Equal(t, accel.R8I, g.AType)
			assert.Equal(t, accel.R32I, g.CType)
		})
	}
}

func TestMatMulBufferSizes(t *testing.T) {
	cases := map[opconfig.Precision][]int{
		opconfig.PrecisionFP64: {3 * 4 * 8, 4 * 5 * 8, 3 * 5 * 8},
		opconfig.PrecisionFP32: {3 * 4 * 4, 4 * 5 * 4, 3 * 5 * 4},
		opconfig.PrecisionFP16: {3 * 4 * 2, 4 * 5 * 2, 3 * 5 * 2},
		opconfig.PrecisionINT8: {3 * 4, 4 * 5, 3 * 5 * 4},
	}
	for p, want := range cases {
		dev := acceltest.New(1)
		_, err := measure(t, dev, matmul(3, 5, 4, p), 1)
		require.NoError(t, err, p.String())
		assert.Equal(t, want, dev.MallocSizes(), p.String())
		assertReleased(t, dev)
	}
}

func TestMatMulRejectsBeforeDeviceWork(t *testing.T) {
	cases := []struct {
		name string
		cfg  opconfig.Config
		reps int
		kind ErrorKind
		err  error
	}{
		{"too few params", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, 1, 0, -1), 1, KindConfig, opconfig.ErrTooFewParams},
		{"zero dim", matmul(0, 2, 2, opconfig.PrecisionFP32), 1, KindConfig, ErrInvalidDims},
		{"zero repetitions", matmul(2, 2, 2, opconfig.PrecisionFP32), 0, KindConfig, ErrInvalidRepetitions},
		{"transa", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 2, 1, 0, -1, 0), 1, KindSelector, ErrInvalidTranspose},
		{"transb", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, -1, 0, -1, 0), 1, KindSelector, ErrInvalidTranspose},
		{"tensor op", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, 1, 2, -1, 0), 1, KindSelector, ErrInvalidTensorOp},
		{"plain algo", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, 1, 0, 24, 0), 1, KindSelector, ErrInvalidAlgo},
		{"tensor algo", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, 1, 1, 16, 0), 1, KindSelector, ErrInvalidAlgo},
		{"algo below default", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, 1, 0, -2, 0), 1, KindSelector, ErrInvalidAlgo},
		{"precision", opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, 1, 0, -1, 7), 1, KindSelector, opconfig.ErrUnsupportedPrecision},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dev := acceltest.New(1)
			rec, err := measure(t, dev, tc.cfg, tc.reps)
			require.Error(t, err)
			assert.True(t, IsKind(err, tc.kind), err.Error())
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, rec.results)
			assert.Zero(t, dev.Calls(acceltest.OpCreateHandle))
			assert.Zero(t, dev.Calls(acceltest.OpMalloc))
			assert.Zero(t, dev.Calls(acceltest.OpGemmEx))
		})
	}
}

func TestMatMulAcceptsSelectorBoundaries(t *testing.T) {
	for _, c := range []struct{ tensorOp, algo int }{{0, -1}, {0, 0}, {0, 23}, {1, -1}, {1, 0}, {1, 15}} {
		dev := acceltest.New(1)
		cfg := opconfig.New(opconfig.KindMatMul, 2, 2, 2, 0, 1, c.tensorOp, c.algo, 0)
		_, err := measure(t, dev, cfg, 1)
		assert.NoError(t, err, "tensorOp=%d algo=%d", c.tensorOp, c.algo)
	}
}

func TestMatMulDeviceFailureReleasesResources(t *testing.T) {
	for _, op := range []string{
		acceltest.OpCreateHandle,
		acceltest.OpMalloc,
		acceltest.OpCopyHostToDevice,
		acceltest.OpEventCreate,
		acceltest.OpGemmEx,
		acceltest.OpEventSynchronize,
		acceltest.OpEventElapsedTime,
	} {
		t.Run(op, func(t *testing.T) {
			dev := acceltest.New(1)
			dev.FailOn(op, 1, accel.StatusExecutionFailed)
			if op == acceltest.OpCreateHandle {
				dev.FailOn(op, 0, accel.StatusNotInitialized)
			}

			rec, err := measure(t, dev, matmul(4, 4, 4, opconfig.PrecisionFP32), 3)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindDevice), err.Error())

			var se *accel.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, op, se.Op)
			assert.Contains(t, []string{"matmul.go", "scope.go"}, se.File)
			assert.Empty(t, rec.results)
			assertReleased(t, dev)
		})
	}
}

func TestMatMulReleaseFailure(t *testing.T) {
	dev := acceltest.New(1)
	dev.FailOn(acceltest.OpFree, 0, accel.StatusInternalError)

	rec, err := measure(t, dev, matmul(2, 2, 2, opconfig.PrecisionFP32), 2)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindDevice))
	assert.ErrorIs(t, err, accel.StatusInternalError)
	assert.Empty(t, rec.results)

	h, b, e := dev.Live()
	assert.Zero(t, h)
	assert.Equal(t, 1, b)
	assert.Zero(t, e)
}

func TestMatMulNonPositiveTime(t *testing.T) {
	dev := acceltest.New(0)
	rec, err := measure(t, dev, matmul(2, 2, 2, opconfig.PrecisionFP32), 2)
	assert.ErrorIs(t, err, ErrNonPositiveTime)
	assert.Empty(t, rec.results)
	assertReleased(t, dev)
}

func TestMatMulObserverAndLatency(t *testing.T) {
	dev := acceltest.New(2)
	var reps []int
	lat := &latencies{}
	_, err := measure(t, dev, matmul(2, 2, 2, opconfig.PrecisionFP64), 4,
		WithRepetitionObserver(func(_ opconfig.Config, rep int, ms float32) {
			reps = append(reps, rep)
			assert.Equal(t, float32(2), ms)
		}),
		WithLatencyRecorder(lat),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, reps)
	assert.Equal(t, []float64{2, 2, 2, 2}, lat.values)
}

type latencies struct{ values []float64 }

func (l *latencies) RecordRepetition(_ context.Context, _ opconfig.MatMulParams, ms float64) {
	l.values = append(l.values, ms)
}

func TestMatMulContextCancelled(t *testing.T) {
	dev := acceltest.New(1)
	op, err := New(matmul(2, 2, 2, opconfig.PrecisionFP32), dev)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = op.PerformanceMeasuring(ctx, &recorder{}, 5)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, dev.Calls(acceltest.OpGemmEx))
	assertReleased(t, dev)
}

func TestNewRejectsConv2D(t *testing.T) {
	_, err := New(opconfig.New(opconfig.KindConv2D, 1, 64, 64, 28, 28, 128, 3, 3, 1, 1, 1, 1, 1, 1), acceltest.New(1))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnsupported))
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestMatMulOnHostDevice(t *testing.T) {
	for _, p := range []opconfig.Precision{opconfig.PrecisionFP64, opconfig.PrecisionFP32, opconfig.PrecisionFP16, opconfig.PrecisionINT8} {
		rec, err := measure(t, hostblas.New(), matmul(16, 8, 32, p), 3, WithSeed(42))
		require.NoError(t, err, p.String())
		require.Len(t, rec.results, 1)
		r := rec.results[0]
		assert.Positive(t, r.avg)
		assert.InEpsilon(t, 2*16.0*8*32/r.avg/1e9, r.throughput, 1e-12)
	}
}
