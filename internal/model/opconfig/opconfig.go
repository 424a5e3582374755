package opconfig

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrTooFewParams         = errors.New("too few parameters for operator kind")
	ErrUnsupportedPrecision = errors.New("unsupported precision")
	ErrUnknownKind          = errors.New("unknown operator kind")
)

// Kind identifies the operator a Config describes.
type Kind int

const (
	KindMatMul Kind = iota
	KindConv2D
)

func (k Kind) String() string {
	switch k {
	case KindMatMul:
		return "matmul"
	case KindConv2D:
		return "conv2d"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind maps the names used in configuration files to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "matmul", "gemm", "":
		return KindMatMul, nil
	case "conv2d":
		return KindConv2D, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Key is the comparable identity of a Config. Two configs have the same key
// iff their kinds and parameter lists are element-wise equal.
type Key string

// Config is an immutable description of one operator instance. The meaning
// of each parameter is positional and depends on Kind.
type Config struct {
	kind   Kind
	params []int
}

// New copies params, so later changes to the caller's slice are not visible.
func New(kind Kind, params ...int) Config {
	return Config{kind: kind, params: slices.Clone(params)}
}

func (c Config) Kind() Kind { return c.kind }

// Params returns a copy of the positional parameters.
func (c Config) Params() []int { return slices.Clone(c.params) }

func (c Config) NumParams() int { return len(c.params) }

func (c Config) Equal(o Config) bool {
	return c.kind == o.kind && slices.Equal(c.params, o.params)
}

func (c Config) Key() Key {
	return Key(c.String())
}

func (c Config) String() string {
	var b strings.Builder
	b.WriteString(c.kind.String())
	b.WriteByte('[')
	for i, p := range c.params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(p))
	}
	b.WriteByte(']')
	return b.String()
}
