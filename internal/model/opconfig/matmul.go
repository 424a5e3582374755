package opconfig

import "fmt"

// MatMulNumParams is the minimum parameter count of a KindMatMul config.
const MatMulNumParams = 8

// MatMulParams is the decoded parameter list of a KindMatMul config:
// [M, N, K, transA, transB, tensorOp, algo, precision].
type MatMulParams struct {
	M, N, K   int
	TransA    int
	TransB    int
	TensorOp  int
	AlgoID    int
	Precision Precision
}

// MatMul encodes p as a Config. The precision is stored as its integer code.
func MatMul(p MatMulParams) Config {
	return New(KindMatMul, p.M, p.N, p.K, p.TransA, p.TransB, p.TensorOp, p.AlgoID, int(p.Precision))
}

// DecodeMatMul reads the positional parameters of c. Selector values are not
// range-checked here; that happens when they are resolved to device enums.
func DecodeMatMul(c Config) (MatMulParams, error) {
	if c.kind != KindMatMul {
		return MatMulParams{}, fmt.Errorf("%w: %s is not %s", ErrUnknownKind, c.kind, KindMatMul)
	}
	if len(c.params) < MatMulNumParams {
		return MatMulParams{}, fmt.Errorf("%w: %s needs %d, got %d", ErrTooFewParams, c.kind, MatMulNumParams, len(c.params))
	}
	a := c.params
	return MatMulParams{
		M:         a[0],
		N:         a[1],
		K:         a[2],
		TransA:    a[3],
		TransB:    a[4],
		TensorOp:  a[5],
		AlgoID:    a[6],
		Precision: Precision(a[7]),
	}, nil
}

// FLOPs is the operation count of one GEMM: one multiply and one add per
// inner-product term.
func (p MatMulParams) FLOPs() float64 {
	return float64(p.M) * float64(p.N) * float64(p.K) * 2
}
