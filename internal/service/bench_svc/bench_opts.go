package bench_svc

import "time"

type RunOpts struct {
	Iterations *int
	Label      *string
	Seed       *uint64
	GPUDevice  *int
	// GPUSampleInterval enables nvidia-smi sampling while measuring.
	GPUSampleInterval *time.Duration
}

type RunOpt func(opts *RunOpts)

func WithIterations(v int) RunOpt {
	return func(opts *RunOpts) { opts.Iterations = &v }
}

func WithLabel(v string) RunOpt {
	return func(opts *RunOpts) { opts.Label = &v }
}

// WithSeed records the input data seed in the report.
func WithSeed(v uint64) RunOpt {
	return func(opts *RunOpts) { opts.Seed = &v }
}

func WithGPUDevice(v int) RunOpt {
	return func(opts *RunOpts) { opts.GPUDevice = &v }
}

func WithGPUSampling(v time.Duration) RunOpt {
	return func(opts *RunOpts) { opts.GPUSampleInterval = &v }
}

func buildOpts(defaultOpts RunOpts, opts ...RunOpt) RunOpts {
	o := defaultOpts
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
