package operator

import (
	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
)

// gemmPlan is a MatMul config resolved to device enums. Building it touches
// no device state.
type gemmPlan struct {
	opconfig.MatMulParams

	transA, transB accel.Operation
	lda, ldb, ldc  int
	algo           accel.GemmAlgo

	inType, outType, computeType accel.DataType
}

func (p gemmPlan) sizeA() int { return p.M * p.K * p.inType.Size() }
func (p gemmPlan) sizeB() int { return p.K * p.N * p.inType.Size() }
func (p gemmPlan) sizeC() int { return p.M * p.N * p.outType.Size() }

func (p gemmPlan) params(a, b, c accel.Buffer) accel.GemmParams {
	return accel.GemmParams{
		TransA: p.transA, TransB: p.transB,
		M: p.M, N: p.N, K: p.K,
		Alpha: 1, Beta: 0,
		A: a, AType: p.inType, LDA: p.lda,
		B: b, BType: p.inType, LDB: p.ldb,
		C: c, CType: p.outType, LDC: p.ldc,
		ComputeType: p.computeType,
		Algo:        p.algo,
	}
}

// transpose maps a 0/1 flag to an operation and the matching leading
// dimension.
func transpose(flag, ldN, ldT int) (accel.Operation, int, bool) {
	switch flag {
	case 0:
		return accel.OpN, ldN, true
	case 1:
		return accel.OpT, ldT, true
	default:
		return 0, 0, false
	}
}

func resolveAlgo(tensorOp, id int) (accel.GemmAlgo, error) {
	var (
		algo accel.GemmAlgo
		ok   bool
	)
	switch tensorOp {
	case 0:
		algo, ok = accel.PlainAlgo(id)
	case 1:
		algo, ok = accel.TensorOpAlgo(id)
	default:
		return 0, ErrInvalidTensorOp
	}
	if !ok {
		return 0, ErrInvalidAlgo
	}
	return algo, nil
}

// dataTypes returns operand, result and compute types. int8 GEMM
// accumulates into 32-bit integers.
func dataTypes(p opconfig.Precision) (in, out, compute accel.DataType) {
	switch p {
	case opconfig.PrecisionFP64:
		return accel.R64F, accel.R64F, accel.R64F
	case opconfig.PrecisionFP16:
		return accel.R16F, accel.R16F, accel.R16F
	case opconfig.PrecisionINT8:
		return accel.R8I, accel.R32I, accel.R32I
	default:
		return accel.R32F, accel.R32F, accel.R32F
	}
}

func planMatMul(mp opconfig.MatMulParams) (gemmPlan, ErrorKind, error) {
	if mp.M < 1 || mp.N < 1 || mp.K < 1 {
		return gemmPlan{}, KindConfig, ErrInvalidDims
	}
	if _, err := opconfig.PrecisionFromCode(int(mp.Precision)); err != nil {
		return gemmPlan{}, KindSelector, err
	}

	p := gemmPlan{MatMulParams: mp, ldc: mp.M}
	var ok bool
	if p.transA, p.lda, ok = transpose(mp.TransA, mp.M, mp.K); !ok {
		return gemmPlan{}, KindSelector, ErrInvalidTranspose
	}
	if p.transB, p.ldb, ok = transpose(mp.TransB, mp.K, mp.N); !ok {
		return gemmPlan{}, KindSelector, ErrInvalidTranspose
	}

	algo, err := resolveAlgo(mp.TensorOp, mp.AlgoID)
	if err != nil {
		return gemmPlan{}, KindSelector, err
	}
	p.algo = algo
	p.inType, p.outType, p.computeType = dataTypes(mp.Precision)
	return p, 0, nil
}
