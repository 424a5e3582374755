package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ciricc/go-gemm-bench/internal/config"
	"github.com/ciricc/go-gemm-bench/internal/health"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var (
		cfgPath  = flag.String("config", "config.yaml", "path to config.yaml for server address")
		dialAddr = flag.String("addr", "", "override server address (e.g., localhost:50051)")
		service  = flag.String("service", health.ServiceName, "health service name; empty for the device status")
		watch    = flag.Bool("watch", false, "stream status changes until interrupted")
		timeout  = flag.Duration("timeout", 5*time.Second, "check timeout")
	)

	flag.Parse()

	addr := strings.TrimSpace(*dialAddr)
	if addr == "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		addr = cfg.Server.Address
	}

	client, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("new client: %v", err)
	}
	defer client.Close()

	healthClient := grpc_health_v1.NewHealthClient(client)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})).With("service", *service)

	req := &grpc_health_v1.HealthCheckRequest{Service: *service}
	if !*watch {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		resp, err := healthClient.Check(ctx, req)
		if err != nil {
			log.Fatalf("check: %v", err)
		}
		logger.InfoContext(ctx, "status", "status", resp.GetStatus().String())
		if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()
	stream, err := healthClient.Watch(ctx, req)
	if err != nil {
		log.Fatalf("watch: %v", err)
	}
	for {
		resp, rerr := stream.Recv()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			log.Fatalf("recv: %v", rerr)
		}
		logger.InfoContext(ctx, "status", "status", resp.GetStatus().String())
	}
}
