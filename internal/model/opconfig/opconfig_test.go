package opconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigIsImmutable(t *testing.T) {
	params := []int{2, 2, 2, 0, 1, 0, -1, 0}
	c := New(KindMatMul, params...)
	params[0] = 99

	assert.Equal(t, 2, c.Params()[0])

	got := c.Params()
	got[1] = 42
	assert.Equal(t, 2, c.Params()[1])
}

func TestConfigEqualityAndKey(t *testing.T) {
	a := New(KindMatMul, 1, 2, 3)
	b := New(KindMatMul, 1, 2, 3)
	c := New(KindMatMul, 1, 2, 4)
	d := New(KindConv2D, 1, 2, 3)
	e := New(KindMatMul, 1, 2)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	for _, other := range []Config{c, d, e} {
		assert.False(t, a.Equal(other))
		assert.NotEqual(t, a.Key(), other.Key())
	}
	assert.Equal(t, "matmul[1,2,3]", a.String())
}

func TestDecodeMatMul(t *testing.T) {
	want := MatMulParams{M: 64, N: 32, K: 16, TransA: 1, TransB: 0, TensorOp: 1, AlgoID: 7, Precision: PrecisionFP16}
	got, err := DecodeMatMul(MatMul(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 64.0*32*16*2, got.FLOPs())
}

func TestDecodeMatMulRejectsShortParams(t *testing.T) {
	_, err := DecodeMatMul(New(KindMatMul, 1, 2, 3, 0, 0, 0, -1))
	assert.ErrorIs(t, err, ErrTooFewParams)

	_, err = DecodeMatMul(New(KindConv2D, 1, 2, 3, 0, 0, 0, -1, 0))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParsePrecision(t *testing.T) {
	cases := map[string]Precision{
		"fp64": PrecisionFP64,
		"fp32": PrecisionFP32,
		"FP16": PrecisionFP16,
		"int8": PrecisionINT8,
	}
	for in, want := range cases {
		got, err := ParsePrecision(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParsePrecision("bf16")
	assert.ErrorIs(t, err, ErrUnsupportedPrecision)
	assert.Contains(t, err.Error(), "fp64, fp32, fp16, int8")
}

func TestPrecisionCodesAndUnits(t *testing.T) {
	assert.Equal(t, 0, int(PrecisionFP32))
	assert.Equal(t, 1, int(PrecisionFP16))
	assert.Equal(t, 2, int(PrecisionFP64))
	assert.Equal(t, 3, int(PrecisionINT8))

	_, err := PrecisionFromCode(4)
	assert.ErrorIs(t, err, ErrUnsupportedPrecision)

	assert.Equal(t, "TOPS", PrecisionINT8.ThroughputUnit())
	assert.Equal(t, "TFLOPS", PrecisionFP16.ThroughputUnit())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("conv2d")
	require.NoError(t, err)
	assert.Equal(t, KindConv2D, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindMatMul, k)

	_, err = ParseKind("pool")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
