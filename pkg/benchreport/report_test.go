package benchreport

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Report {
	return Report{
		Version:          Version,
		TimestampRFC3339: "2026-01-02T03:04:05Z",
		Label:            "box",
		Env:              DetectEnv("hostblas"),
		Params:           ReportParams{Iterations: 10, Seed: lo.ToPtr(uint64(7))},
		Results: []Result{
			{Kind: "matmul", Params: []int{2, 2, 2, 0, 1, 0, -1, 0}, M: 2, N: 2, K: 2, TransB: 1, Algo: -1, Precision: "fp32", AvgMs: 0.5, Throughput: 3.2e-8, Unit: "TFLOPS", Extra: map[string]float64{"median_ms": 0.5}},
			{Kind: "matmul", M: 4, N: 4, K: 4, Precision: "int8", Unit: "TOPS", Error: "device: boom"},
		},
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.json")
	want := sample()
	require.NoError(t, Write(want, path, nil))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, got.Results[0].Failed())
	assert.True(t, got.Results[1].Failed())
}

func TestWriteToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(sample(), "", &buf))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, Version, raw["version"])
	assert.Len(t, raw["results"], 2)
}

func TestLoadDirSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(sample(), filepath.Join(dir, "a.json"), nil))
	require.NoError(t, Write(sample(), filepath.Join(dir, "sub", "b.JSON"), nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{"version":"x"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`hi`), 0o644))

	loaded, err := LoadDir(dir)
	require.NoError(t, err)
	paths := lo.Map(loaded, func(l Loaded, _ int) string { return filepath.Base(l.Path) })
	assert.ElementsMatch(t, []string{"a.json", "b.JSON"}, paths)
}

func TestDetectEnv(t *testing.T) {
	env := DetectEnv("hostblas")
	assert.Equal(t, runtime.GOOS, env.OS)
	assert.Equal(t, runtime.GOARCH, env.Arch)
	assert.Equal(t, "hostblas", env.Backend)
	assert.Equal(t, runtime.NumCPU(), env.CPUNumLogical)
	assert.NotEmpty(t, env.CPUModel)
	assert.NotNil(t, env.CPUFeatures)
	if runtime.GOARCH == "amd64" {
		assert.Subset(t, []string{"sse4.2", "avx", "avx2", "fma", "avx512f", "avx512vnni"}, env.CPUFeatures)
	}
}
