package accel

// Handle, Buffer and Event are opaque identifiers issued by a Device.
type (
	Handle uint64
	Buffer uint64
	Event  uint64
)

// Operation selects whether a GEMM operand is used as stored or transposed.
type Operation int

const (
	OpN Operation = iota
	OpT
)

func (o Operation) String() string {
	if o == OpT {
		return "T"
	}
	return "N"
}

// GemmParams mirrors a handle-based GemmEx call on column-major operands:
// C = alpha*op(A)*op(B) + beta*C.
type GemmParams struct {
	TransA, TransB Operation
	M, N, K        int
	Alpha, Beta    float64

	A     Buffer
	AType DataType
	LDA   int

	B     Buffer
	BType DataType
	LDB   int

	C     Buffer
	CType DataType
	LDC   int

	ComputeType DataType
	Algo        GemmAlgo
}

// Device is the accelerator math library boundary: memory management, a
// GemmEx entry point and event timers. Every method returns nil or a Status.
type Device interface {
	Name() string

	CreateHandle() (Handle, error)
	DestroyHandle(h Handle) error

	Malloc(size int) (Buffer, error)
	Free(b Buffer) error
	CopyHostToDevice(dst Buffer, src []byte) error

	GemmEx(h Handle, p GemmParams) error

	EventCreate() (Event, error)
	EventRecord(e Event) error
	EventSynchronize(e Event) error
	// EventElapsedTime reports milliseconds between two recorded events.
	EventElapsedTime(start, stop Event) (float32, error)
	EventDestroy(e Event) error
}
