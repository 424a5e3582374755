package perf

import "maps"

// Record is the result of measuring one configuration.
type Record struct {
	// AvgDurationMs is the mean device time per repetition in milliseconds.
	AvgDurationMs float64
	// Throughput is in units of 1e12 operations per second (TFLOPS/TOPS).
	Throughput float64
	// Extra holds optional per-run diagnostics, keyed by metric name.
	Extra map[string]float64
}

func NewRecord(avgDurationMs, throughput float64, extra map[string]float64) Record {
	return Record{
		AvgDurationMs: avgDurationMs,
		Throughput:    throughput,
		Extra:         maps.Clone(extra),
	}
}

// Throughput derives TFLOPS from an operation count and an average duration
// in milliseconds: ops / ms / 1e9 == ops / s / 1e12.
func Throughput(ops, avgDurationMs float64) float64 {
	return ops / avgDurationMs / 1e9
}

// GEMMThroughput is Throughput for one M×N×K multiply counted as 2*M*N*K.
func GEMMThroughput(m, n, k int, avgDurationMs float64) float64 {
	return Throughput(float64(m)*float64(n)*float64(k)*2, avgDurationMs)
}
