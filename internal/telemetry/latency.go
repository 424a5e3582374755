package telemetry

import (
	"context"
	"fmt"

	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ciricc/go-gemm-bench/internal/operator"

// RepetitionHistogram records the elapsed time of every timed GEMM call.
type RepetitionHistogram struct {
	hist metric.Float64Histogram
}

// NewRepetitionHistogram registers the histogram on mp, or on the global
// meter provider when mp is nil.
func NewRepetitionHistogram(mp metric.MeterProvider) (*RepetitionHistogram, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	hist, err := mp.Meter(meterName).Float64Histogram(
		"gemm.repetition.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Device time of one GEMM repetition"),
	)
	if err != nil {
		return nil, fmt.Errorf("create repetition histogram: %w", err)
	}
	return &RepetitionHistogram{hist: hist}, nil
}

func (r *RepetitionHistogram) RecordRepetition(ctx context.Context, p opconfig.MatMulParams, elapsedMs float64) {
	r.hist.Record(ctx, elapsedMs, metric.WithAttributes(
		attribute.Int("gemm.m", p.M),
		attribute.Int("gemm.n", p.N),
		attribute.Int("gemm.k", p.K),
		attribute.Int("gemm.trans_a", p.TransA),
		attribute.Int("gemm.trans_b", p.TransB),
		attribute.Int("gemm.algo", p.AlgoID),
		attribute.String("gemm.precision", p.Precision.String()),
	))
}
