package operator

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/ciricc/go-gemm-bench/internal/accel"
	"github.com/x448/float16"
)

// inputRange bounds the pseudo-random operand values: [0, inputRange).
const inputRange = 5

// fillHost returns n little-endian elements of type dt holding small random
// integers.
func fillHost(r *rand.Rand, dt accel.DataType, n int) []byte {
	size := dt.Size()
	buf := make([]byte, n*size)
	for i := 0; i < n; i++ {
		v := r.IntN(inputRange)
		dst := buf[i*size:]
		switch dt {
		case accel.R64F:
			binary.LittleEndian.PutUint64(dst, math.Float64bits(float64(v)))
		case accel.R32F:
			binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
		case accel.R16F:
			binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(float32(v)).Bits())
		case accel.R8I:
			dst[0] = byte(int8(v))
		case accel.R32I:
			binary.LittleEndian.PutUint32(dst, uint32(int32(v)))
		}
	}
	return buf
}
