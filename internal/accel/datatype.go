package accel

import "fmt"

// DataType tags the element type of a device buffer or the GEMM compute type.
type DataType int

const (
	R64F DataType = iota
	R32F
	R16F
	R8I
	R32I
)

// Size is the element width in bytes.
func (d DataType) Size() int {
	switch d {
	case R64F:
		return 8
	case R32F, R32I:
		return 4
	case R16F:
		return 2
	case R8I:
		return 1
	default:
		return 0
	}
}

func (d DataType) String() string {
	switch d {
	case R64F:
		return "R_64F"
	case R32F:
		return "R_32F"
	case R16F:
		return "R_16F"
	case R8I:
		return "R_8I"
	case R32I:
		return "R_32I"
	default:
		return fmt.Sprintf("datatype(%d)", int(d))
	}
}
