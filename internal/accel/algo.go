package accel

import "fmt"

// GemmAlgo is a library GEMM algorithm enum. Values follow the vendor
// numbering: plain algorithms 0..23, tensor-op algorithms 100..115, and a
// default for each family.
type GemmAlgo int

const (
	NumPlainAlgos    = 24
	NumTensorOpAlgos = 16

	// AlgoDefaultID is the selector asking the library to choose.
	AlgoDefaultID = -1
)

const (
	AlgoDefault         GemmAlgo = -1
	AlgoDefaultTensorOp GemmAlgo = 99
)

const (
	Algo0 GemmAlgo = iota
	Algo1
	Algo2
	Algo3
	Algo4
	Algo5
	Algo6
	Algo7
	Algo8
	Algo9
	Algo10
	Algo11
	Algo12
	Algo13
	Algo14
	Algo15
	Algo16
	Algo17
	Algo18
	Algo19
	Algo20
	Algo21
	Algo22
	Algo23
)

const (
	Algo0TensorOp GemmAlgo = iota + 100
	Algo1TensorOp
	Algo2TensorOp
	Algo3TensorOp
	Algo4TensorOp
	Algo5TensorOp
	Algo6TensorOp
	Algo7TensorOp
	Algo8TensorOp
	Algo9TensorOp
	Algo10TensorOp
	Algo11TensorOp
	Algo12TensorOp
	Algo13TensorOp
	Algo14TensorOp
	Algo15TensorOp
)

var plainAlgos = [NumPlainAlgos]GemmAlgo{
	Algo0, Algo1, Algo2, Algo3, Algo4, Algo5, Algo6, Algo7,
	Algo8, Algo9, Algo10, Algo11, Algo12, Algo13, Algo14, Algo15,
	Algo16, Algo17, Algo18, Algo19, Algo20, Algo21, Algo22, Algo23,
}

var tensorOpAlgos = [NumTensorOpAlgos]GemmAlgo{
	Algo0TensorOp, Algo1TensorOp, Algo2TensorOp, Algo3TensorOp,
	Algo4TensorOp, Algo5TensorOp, Algo6TensorOp, Algo7TensorOp,
	Algo8TensorOp, Algo9TensorOp, Algo10TensorOp, Algo11TensorOp,
	Algo12TensorOp, Algo13TensorOp, Algo14TensorOp, Algo15TensorOp,
}

// PlainAlgo maps a selector in [-1, NumPlainAlgos) to its enum.
func PlainAlgo(id int) (GemmAlgo, bool) {
	if id == AlgoDefaultID {
		return AlgoDefault, true
	}
	if id < 0 || id >= NumPlainAlgos {
		return 0, false
	}
	return plainAlgos[id], true
}

// TensorOpAlgo maps a selector in [-1, NumTensorOpAlgos) to its enum.
func TensorOpAlgo(id int) (GemmAlgo, bool) {
	if id == AlgoDefaultID {
		return AlgoDefaultTensorOp, true
	}
	if id < 0 || id >= NumTensorOpAlgos {
		return 0, false
	}
	return tensorOpAlgos[id], true
}

func (a GemmAlgo) TensorOp() bool {
	return a == AlgoDefaultTensorOp || (a >= Algo0TensorOp && a <= Algo15TensorOp)
}

func (a GemmAlgo) String() string {
	switch {
	case a == AlgoDefault:
		return "GEMM_DEFAULT"
	case a == AlgoDefaultTensorOp:
		return "GEMM_DEFAULT_TENSOR_OP"
	case a >= Algo0 && a <= Algo23:
		return fmt.Sprintf("GEMM_ALGO%d", int(a))
	case a >= Algo0TensorOp && a <= Algo15TensorOp:
		return fmt.Sprintf("GEMM_ALGO%d_TENSOR_OP", int(a-Algo0TensorOp))
	default:
		return fmt.Sprintf("gemmalgo(%d)", int(a))
	}
}
