package opconfig

import (
	"fmt"
	"strings"
)

// Precision is the numeric representation of GEMM operands. The integer
// values are the codes stored in a Config's parameter list.
type Precision int

const (
	PrecisionFP32 Precision = 0
	PrecisionFP16 Precision = 1
	PrecisionFP64 Precision = 2
	PrecisionINT8 Precision = 3
)

var precisionNames = map[string]Precision{
	"fp64": PrecisionFP64,
	"fp32": PrecisionFP32,
	"fp16": PrecisionFP16,
	"int8": PrecisionINT8,
}

// PrecisionNames lists the accepted precision strings in display order.
var PrecisionNames = []string{"fp64", "fp32", "fp16", "int8"}

func ParsePrecision(s string) (Precision, error) {
	p, ok := precisionNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedPrecision, s, strings.Join(PrecisionNames, ", "))
	}
	return p, nil
}

// PrecisionFromCode validates an integer code taken from a parameter list.
func PrecisionFromCode(code int) (Precision, error) {
	p := Precision(code)
	if !p.Valid() {
		return 0, fmt.Errorf("%w: code %d", ErrUnsupportedPrecision, code)
	}
	return p, nil
}

func (p Precision) Valid() bool {
	switch p {
	case PrecisionFP32, PrecisionFP16, PrecisionFP64, PrecisionINT8:
		return true
	}
	return false
}

func (p Precision) String() string {
	switch p {
	case PrecisionFP64:
		return "fp64"
	case PrecisionFP32:
		return "fp32"
	case PrecisionFP16:
		return "fp16"
	case PrecisionINT8:
		return "int8"
	default:
		return fmt.Sprintf("precision(%d)", int(p))
	}
}

// ThroughputUnit is the display label for throughput figures. Only the label
// changes for int8; the figure is always computed as 2*M*N*K per repetition.
func (p Precision) ThroughputUnit() string {
	if p == PrecisionINT8 {
		return "TOPS"
	}
	return "TFLOPS"
}
