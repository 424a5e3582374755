package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIterations = 2000
	DefaultBackend    = "hostblas"
	DefaultAddress    = ":50051"
)

var (
	ErrInvalidIterations = errors.New("bench.iterations must be positive")
	ErrUnknownBackend    = errors.New("unknown device backend")
	ErrInvalidLogLevel   = errors.New("invalid log level")
)

// Backends lists the device.backend values New understands.
var Backends = []string{"hostblas"}

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`

	Device struct {
		Backend string `yaml:"backend"`
		// Index selects the GPU reported by nvidia-smi in benchmark reports.
		Index int `yaml:"index"`
	} `yaml:"device"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Bench Bench `yaml:"bench"`

	Telemetry struct {
		ConfigPath string `yaml:"config_path"`
	} `yaml:"telemetry"`
}

type Bench struct {
	Iterations      int       `yaml:"iterations"`
	ContinueOnError bool      `yaml:"continue_on_error"`
	ReportPath      string    `yaml:"report_path"`
	Label           string    `yaml:"label"`
	Seed            *uint64   `yaml:"seed"`
	Configs         []OpEntry `yaml:"configs"`
}

// OpEntry describes one operator. MatMul entries use the named fields;
// Params, when set, is taken verbatim as the positional parameter list.
type OpEntry struct {
	Kind      string `yaml:"kind"`
	M         int    `yaml:"m"`
	N         int    `yaml:"n"`
	K         int    `yaml:"k"`
	TransA    int    `yaml:"trans_a"`
	TransB    int    `yaml:"trans_b"`
	TensorOp  int    `yaml:"tensor_op"`
	Algo      *int   `yaml:"algo"`
	Precision string `yaml:"precision"`
	Params    []int  `yaml:"params"`
}

func (e OpEntry) OpConfig() (opconfig.Config, error) {
	kind, err := opconfig.ParseKind(e.Kind)
	if err != nil {
		return opconfig.Config{}, err
	}
	if len(e.Params) > 0 || kind != opconfig.KindMatMul {
		return opconfig.New(kind, e.Params...), nil
	}
	prec, err := opconfig.ParsePrecision(lo.CoalesceOrEmpty(e.Precision, "fp32"))
	if err != nil {
		return opconfig.Config{}, err
	}
	return opconfig.MatMul(opconfig.MatMulParams{
		M:         e.M,
		N:         e.N,
		K:         e.K,
		TransA:    e.TransA,
		TransB:    e.TransB,
		TensorOp:  e.TensorOp,
		AlgoID:    lo.FromPtrOr(e.Algo, -1),
		Precision: prec,
	}), nil
}

// OpConfigs converts every entry, stopping at the first invalid one.
func (b Bench) OpConfigs() ([]opconfig.Config, error) {
	out := make([]opconfig.Config, 0, len(b.Configs))
	for i, e := range b.Configs {
		c, err := e.OpConfig()
		if err != nil {
			return nil, fmt.Errorf("bench.configs[%d]: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func Load(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	c.Defaults()
	return c, c.Validate()
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	c.Server.Address = lo.CoalesceOrEmpty(c.Server.Address, DefaultAddress)
	c.Device.Backend = lo.CoalesceOrEmpty(c.Device.Backend, DefaultBackend)
	c.Log.Level = lo.CoalesceOrEmpty(c.Log.Level, "info")
	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = DefaultIterations
	}
}

func (c Config) Validate() error {
	if c.Bench.Iterations < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidIterations, c.Bench.Iterations)
	}
	if !lo.Contains(Backends, c.Device.Backend) {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Device.Backend)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return l, nil
}
