package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
log:
  level: debug
bench:
  iterations: 10
  continue_on_error: true
  label: box-1
  seed: 7
  configs:
    - {m: 64, n: 32, k: 16, trans_b: 1, precision: fp16}
    - {kind: matmul, m: 8, n: 8, k: 8, tensor_op: 1, algo: 3, precision: int8}
    - {kind: conv2d, params: [1, 64, 64, 28, 28, 128, 3, 3, 1, 1, 1, 1, 1, 1]}
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, c.Server.Address)
	assert.Equal(t, DefaultBackend, c.Device.Backend)
	assert.Equal(t, 10, c.Bench.Iterations)
	assert.True(t, c.Bench.ContinueOnError)
	require.NotNil(t, c.Bench.Seed)
	assert.Equal(t, uint64(7), *c.Bench.Seed)

	cfgs, err := c.Bench.OpConfigs()
	require.NoError(t, err)
	require.Len(t, cfgs, 3)

	assert.True(t, cfgs[0].Equal(opconfig.New(opconfig.KindMatMul, 64, 32, 16, 0, 1, 0, -1, int(opconfig.PrecisionFP16))))
	assert.True(t, cfgs[1].Equal(opconfig.New(opconfig.KindMatMul, 8, 8, 8, 0, 0, 1, 3, int(opconfig.PrecisionINT8))))
	assert.Equal(t, opconfig.KindConv2D, cfgs[2].Kind())
	assert.Equal(t, 14, cfgs[2].NumParams())

	lvl, err := ParseLevel(c.Log.Level)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(write(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, c.Bench.Iterations)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(write(t, "bench: {iterations: -1}\n"))
	assert.ErrorIs(t, err, ErrInvalidIterations)

	_, err = Load(write(t, "device: {backend: cuda}\n"))
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Load(write(t, "log: {level: loud}\n"))
	assert.ErrorIs(t, err, ErrInvalidLogLevel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpConfigsRejectsBadEntries(t *testing.T) {
	b := Bench{Configs: []OpEntry{{M: 1, N: 1, K: 1, Precision: "bf16"}}}
	_, err := b.OpConfigs()
	assert.ErrorIs(t, err, opconfig.ErrUnsupportedPrecision)

	b = Bench{Configs: []OpEntry{{Kind: "pool"}}}
	_, err = b.OpConfigs()
	assert.ErrorIs(t, err, opconfig.ErrUnknownKind)
}
