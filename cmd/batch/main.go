package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ciricc/go-gemm-bench/internal/app"
	"github.com/ciricc/go-gemm-bench/internal/config"
	"github.com/ciricc/go-gemm-bench/pkg/benchreport"
	"github.com/samber/lo"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to YAML configuration")
		outPath     = flag.String("out", "", "path to write JSON report (overrides bench.report_path; defaults to stdout)")
		label       = flag.String("label", "", "label for this machine/config (overrides bench.label)")
		iterations  = flag.Int("iterations", 0, "repetitions per configuration (overrides bench.iterations)")
		gpuMonitor  = flag.Bool("gpu_monitor", false, "sample nvidia-smi during the run and record peaks")
		gpuInterval = flag.Duration("gpu_interval", 500*time.Millisecond, "nvidia-smi sampling interval")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	cfg.Bench.ReportPath = lo.CoalesceOrEmpty(*outPath, cfg.Bench.ReportPath)
	cfg.Bench.Label = lo.CoalesceOrEmpty(*label, cfg.Bench.Label)
	if *iterations != 0 {
		cfg.Bench.Iterations = *iterations
	}
	if err := cfg.Validate(); err != nil {
		fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []app.Option
	if *gpuMonitor {
		opts = append(opts, app.WithGPUSampling(*gpuInterval))
	}
	application, err := app.New(ctx, cfg, opts...)
	if err != nil {
		fatalf("init error: %v", err)
	}
	defer application.Close()

	rep, runErr := application.RunBatch(ctx)
	if rep.Version == "" {
		fatalf("batch: %v", runErr)
	}
	if err := benchreport.Write(rep, cfg.Bench.ReportPath, os.Stdout); err != nil {
		fatalf("write report: %v", err)
	}
	if runErr != nil {
		application.Log.Error("batch finished with failures", "failed", rep.Metrics.Failed, "error", runErr)
		_ = application.Close()
		os.Exit(2)
	}
}

func fatalf(format string, a ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
