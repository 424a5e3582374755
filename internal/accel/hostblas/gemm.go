package hostblas

import (
	"fmt"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// stored returns the column-major shape of an operand whose logical shape
// after op is rows×cols.
func stored(op accel.Operation, rows, cols int) (int, int) {
	if op == accel.OpT {
		return cols, rows
	}
	return rows, cols
}

// fits reports whether a column-major rows×cols matrix with leading
// dimension ld fits in n elements.
func fits(rows, cols, ld, n int) bool {
	return ld >= max(1, rows) && ld*(cols-1)+rows <= n
}

func trans(op accel.Operation) blas.Transpose {
	if op == accel.OpT {
		return blas.Trans
	}
	return blas.NoTrans
}

func validate(p accel.GemmParams, a, b, c []byte) error {
	if p.M <= 0 || p.N <= 0 || p.K <= 0 {
		return accel.StatusInvalidValue
	}
	if p.AType.Size() == 0 || p.BType.Size() == 0 || p.CType.Size() == 0 {
		return accel.StatusInvalidValue
	}
	ar, ac := stored(p.TransA, p.M, p.K)
	br, bc := stored(p.TransB, p.K, p.N)
	if !fits(ar, ac, p.LDA, len(a)/p.AType.Size()) ||
		!fits(br, bc, p.LDB, len(b)/p.BType.Size()) ||
		!fits(p.M, p.N, p.LDC, len(c)/p.CType.Size()) {
		return accel.StatusInvalidValue
	}
	return nil
}

func gemm(p accel.GemmParams, a, b, c []byte) (err error) {
	if err := validate(p, a, b, c); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", accel.StatusExecutionFailed, r)
		}
	}()

	switch {
	case p.AType == accel.R64F && p.BType == accel.R64F && p.CType == accel.R64F && p.ComputeType == accel.R64F:
		cv := decodeF64(c)
		gemm64(p, decodeF64(a), decodeF64(b), cv)
		encodeF64(c, cv)
	case p.AType == accel.R32F && p.BType == accel.R32F && p.CType == accel.R32F && p.ComputeType == accel.R32F:
		cv := decodeF32(c)
		gemm32(p, decodeF32(a), decodeF32(b), cv)
		encodeF32(c, cv)
	case p.AType == accel.R16F && p.BType == accel.R16F && p.CType == accel.R16F &&
		(p.ComputeType == accel.R16F || p.ComputeType == accel.R32F):
		// Widened to float32; results are rounded back to half on store.
		cv := decodeF16(c)
		gemm32(p, decodeF16(a), decodeF16(b), cv)
		encodeF16(c, cv)
	case p.AType == accel.R8I && p.BType == accel.R8I && p.CType == accel.R32I && p.ComputeType == accel.R32I:
		cv := decodeI32(c)
		gemmI8(p, decodeI8(a), decodeI8(b), cv)
		encodeI32(c, cv)
	default:
		return accel.StatusNotSupported
	}
	return nil
}

// gonum's General is row-major, and a column-major r×c matrix with leading
// dimension ld is the row-major c×r matrix with stride ld, i.e. its
// transpose. C = op(A)·op(B) is therefore computed as Cᵀ = op(B)ᵀ·op(A)ᵀ.

func gemm32(p accel.GemmParams, a, b, c []float32) {
	ar, ac := stored(p.TransA, p.M, p.K)
	br, bc := stored(p.TransB, p.K, p.N)
	blas32.Gemm(trans(p.TransB), trans(p.TransA), float32(p.Alpha),
		blas32.General{Rows: bc, Cols: br, Stride: p.LDB, Data: b},
		blas32.General{Rows: ac, Cols: ar, Stride: p.LDA, Data: a},
		float32(p.Beta),
		blas32.General{Rows: p.N, Cols: p.M, Stride: p.LDC, Data: c})
}

func gemm64(p accel.GemmParams, a, b, c []float64) {
	ar, ac := stored(p.TransA, p.M, p.K)
	br, bc := stored(p.TransB, p.K, p.N)
	blas64.Gemm(trans(p.TransB), trans(p.TransA), p.Alpha,
		blas64.General{Rows: bc, Cols: br, Stride: p.LDB, Data: b},
		blas64.General{Rows: ac, Cols: ar, Stride: p.LDA, Data: a},
		p.Beta,
		blas64.General{Rows: p.N, Cols: p.M, Stride: p.LDC, Data: c})
}

// gemmI8 has no BLAS counterpart; it accumulates in int32 like the vendor
// int8 path.
func gemmI8(p accel.GemmParams, a, b []int8, c []int32) {
	alpha, beta := int32(p.Alpha), int32(p.Beta)
	at := func(i, l int) int32 {
		if p.TransA == accel.OpT {
			return int32(a[l+i*p.LDA])
		}
		return int32(a[i+l*p.LDA])
	}
	bt := func(l, j int) int32 {
		if p.TransB == accel.OpT {
			return int32(b[j+l*p.LDB])
		}
		return int32(b[l+j*p.LDB])
	}
	for j := 0; j < p.N; j++ {
		for i := 0; i < p.M; i++ {
			var sum int32
			for l := 0; l < p.K; l++ {
				sum += at(i, l) * bt(l, j)
			}
			idx := i + j*p.LDC
			c[idx] = alpha*sum + beta*c[idx]
		}
	}
}
