package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/ciricc/go-gemm-bench/internal/app"
	"github.com/ciricc/go-gemm-bench/internal/config"
	"github.com/ciricc/go-gemm-bench/internal/service/bench_svc"
	"github.com/ciricc/go-gemm-bench/pkg/benchreport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer application.Close()

	lis, err := net.Listen("tcp", application.Config.Server.Address)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}

	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, application.HealthChecker)

	go runBatch(ctx, application)

	// SIGHUP measures the batch again.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				go runBatch(ctx, application)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		application.Log.Info("shutting down")
		grpcServer.GracefulStop()
	}()

	application.Log.Info("listening", "address", application.Config.Server.Address)
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// runBatch measures the configured batch once. Health keeps being served
// afterwards.
func runBatch(ctx context.Context, a *app.Application) {
	if len(a.Config.Bench.Configs) == 0 {
		a.Log.InfoContext(ctx, "no bench configs, serving health only")
		return
	}
	rep, err := a.RunBatch(ctx)
	if errors.Is(err, bench_svc.ErrBenchServiceBusy) {
		a.Log.WarnContext(ctx, "batch already running")
		return
	}
	if err != nil {
		a.Log.ErrorContext(ctx, "batch failed", "error", err)
	}
	if rep.Version == "" {
		return
	}
	for _, r := range rep.Results {
		if r.Failed() {
			continue
		}
		a.Log.InfoContext(ctx, "result",
			"m", r.M, "n", r.N, "k", r.K,
			"precision", r.Precision,
			"avg_ms", r.AvgMs,
			r.Unit, r.Throughput)
	}
	if a.Config.Bench.ReportPath == "" {
		return
	}
	if err := benchreport.Write(rep, a.Config.Bench.ReportPath, nil); err != nil {
		a.Log.ErrorContext(ctx, "write report", "error", err)
		return
	}
	a.Log.InfoContext(ctx, "report written", "path", a.Config.Bench.ReportPath, "measured", rep.Metrics.Measured, "failed", rep.Metrics.Failed)
}
