package operator

import (
	"math"

	"golang.org/x/perf/benchmath"
)

const summaryConfidence = 0.95

// summarize describes the per-repetition distribution. Confidence bounds
// are omitted when the sample is too small for them to be finite.
func summarize(samples []float64) map[string]float64 {
	if len(samples) == 0 {
		return nil
	}
	s := benchmath.NewSample(samples, &benchmath.DefaultThresholds)
	sum := benchmath.AssumeNothing.Summary(s, summaryConfidence)

	out := map[string]float64{
		"min_ms":    s.Values[0],
		"max_ms":    s.Values[len(s.Values)-1],
		"median_ms": sum.Center,
	}
	if finite(sum.Lo) && finite(sum.Hi) {
		out["ci_lo_ms"] = sum.Lo
		out["ci_hi_ms"] = sum.Hi
	}
	return out
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
