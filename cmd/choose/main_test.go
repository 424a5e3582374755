package main

import (
	"bytes"
	"testing"

	"github.com/ciricc/go-gemm-bench/pkg/benchreport"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(m, n, k int, prec string, algo int, avg, tp float64) benchreport.Result {
	return benchreport.Result{Kind: "matmul", M: m, N: n, K: k, Precision: prec, Algo: algo, AvgMs: avg, Throughput: tp, Unit: "TFLOPS"}
}

func loadedReports() []benchreport.Loaded {
	failed := result(64, 64, 64, "fp32", 3, 0, 0)
	failed.Error = "device error"
	return []benchreport.Loaded{
		{Path: "a.json", Report: benchreport.Report{Label: "box-a", Results: []benchreport.Result{
			result(64, 64, 64, "fp32", -1, 2, 1.0),
			result(64, 64, 64, "fp16", -1, 1, 2.0),
			result(128, 128, 128, "fp32", -1, 4, 4.0),
			failed,
		}}},
		{Path: "b.json", Report: benchreport.Report{Label: "box-b", Results: []benchreport.Result{
			result(64, 64, 64, "fp32", 5, 1, 2.0),
			result(64, 64, 64, "fp32", 6, 1.5, 2.0),
		}}},
	}
}

func TestCollectSkipsFailuresAndFilters(t *testing.T) {
	all := collect(loadedReports(), "")
	assert.Len(t, all, 5)

	fp16 := collect(loadedReports(), "FP16")
	require.Len(t, fp16, 1)
	assert.Equal(t, "a.json", fp16[0].Path)
	assert.Equal(t, "box-a", fp16[0].Label)
}

func TestRankOrdersByThroughput(t *testing.T) {
	groups := rank(collect(loadedReports(), ""))
	shapes := lo.Map(groups, func(g Group, _ int) string { return g.Shape.String() })
	assert.Equal(t, []string{
		"M=64 N=64 K=64 fp16",
		"M=64 N=64 K=64 fp32",
		"M=128 N=128 K=128 fp32",
	}, shapes)

	fp32 := groups[1].Choices
	algos := lo.Map(fp32, func(c Choice, _ int) int { return c.Result.Algo })
	assert.Equal(t, []int{5, 6, -1}, algos)
}

func TestPrintLimitsResults(t *testing.T) {
	var buf bytes.Buffer
	printGroups(&buf, rank(collect(loadedReports(), "fp32")), 1)
	out := buf.String()
	assert.Contains(t, out, "M=64 N=64 K=64 fp32\n1) b.json\n   label=box-b trans_a=0 trans_b=0 tensor_op=0 algo=5\n")
	assert.Contains(t, out, "tflops=2.0000")
	assert.NotContains(t, out, "2) ")
}
