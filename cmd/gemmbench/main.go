package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ciricc/go-gemm-bench/internal/app"
	"github.com/ciricc/go-gemm-bench/internal/config"
	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/ciricc/go-gemm-bench/internal/operator"
)

const (
	exitOK = iota
	exitUsage
	exitMeasure
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func usage(stderr io.Writer, prog string) int {
	fmt.Fprintf(stderr, "Usage: %s [flags] M N K [fp64|fp32|fp16|int8] [iterations]\n", prog)
	fmt.Fprintf(stderr, "Example: %s 2048 2048 2048 fp32 2000\n", prog)
	return exitUsage
}

func positive(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil && v > 0
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts ...app.Option) int {
	prog := args[0]
	fs := flag.NewFlagSet(prog, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		backend  = fs.String("device", config.DefaultBackend, "device backend")
		logLevel = fs.String("log-level", "warn", "log level: debug|info|warn|error")
		seed     = fs.Uint64("seed", 1, "seed of the pseudo-random input data")
		otelPath = fs.String("otel", "", "OpenTelemetry configuration file")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}
	pos := fs.Args()
	if len(pos) != 4 && len(pos) != 5 {
		return usage(stderr, prog)
	}

	var dims [3]int
	for i := range dims {
		v, ok := positive(pos[i])
		if !ok {
			fmt.Fprintln(stderr, "Error: M, N and K must be positive integers.")
			return exitUsage
		}
		dims[i] = v
	}
	m, n, k := dims[0], dims[1], dims[2]

	dtype := pos[3]
	prec, err := opconfig.ParsePrecision(dtype)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	iterations := config.DefaultIterations
	if len(pos) == 5 {
		v, ok := positive(pos[4])
		if !ok {
			fmt.Fprintln(stderr, "Error: Iterations must be a positive integer.")
			return exitUsage
		}
		iterations = v
	}

	fmt.Fprintf(stdout, "Parsed parameters: M=%d, N=%d, K=%d, dtype=%s, iterations=%d\n", m, n, k, dtype, iterations)

	var cfg config.Config
	cfg.Device.Backend = *backend
	cfg.Log.Level = *logLevel
	cfg.Telemetry.ConfigPath = *otelPath
	cfg.Bench.Iterations = iterations
	cfg.Bench.Seed = seed
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	matMul := opconfig.MatMul(opconfig.MatMulParams{
		M:         m,
		N:         n,
		K:         k,
		TransA:    0,
		TransB:    1,
		TensorOp:  0,
		AlgoID:    -1,
		Precision: prec,
	})

	printRep := operator.WithRepetitionObserver(func(_ opconfig.Config, _ int, elapsedMs float32) {
		fmt.Fprintf(stdout, "time: %.6g\n", elapsedMs)
	})
	opts = append([]app.Option{app.WithLogOutput(stderr), app.WithOperatorOptions(printRep)}, opts...)
	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer application.Close()

	sim := application.Simulator
	if err := sim.InitOp([]opconfig.Config{matMul}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitMeasure
	}

	fmt.Fprintln(stdout, "Test performance of Gemm")
	fmt.Fprintf(stdout, "M=%d N=%d K=%d\n", m, n, k)
	fmt.Fprintf(stdout, "Iterations: %d\n", iterations)

	pf, err := sim.MeasureAllOp(ctx, iterations)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitMeasure
	}
	rec, _ := pf.Get(matMul)
	fmt.Fprintf(stdout, "Avg time: %f ms  %s: %f\n", rec.AvgDurationMs, prec.ThroughputUnit(), rec.Throughput)
	sim.FreeOp()

	fmt.Fprintln(stdout, "End of test")
	return exitOK
}
