package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	otelconf "go.opentelemetry.io/contrib/otelconf/v0.3.0"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

// Telemetry holds the OpenTelemetry SDK built from the configuration file
// and the benchmark instruments registered on it. Without an SDK the
// instruments record into the global provider, a no-op unless something
// else installed one.
type Telemetry struct {
	sdk         *otelconf.SDK
	Repetitions *RepetitionHistogram
}

// Setup initializes OpenTelemetry from a YAML file in the
// opentelemetry-configuration schema and registers the repetition histogram.
// An empty path, a missing file, OTEL_SDK_DISABLED=true or `disabled: true`
// leave the SDK off.
func Setup(ctx context.Context, configPath string, log *slog.Logger) (*Telemetry, error) {
	sdk, err := newSDK(ctx, configPath, log)
	if err != nil {
		return nil, err
	}

	var mp metric.MeterProvider
	if sdk != nil {
		mp = sdk.MeterProvider()
	}
	reps, err := NewRepetitionHistogram(mp)
	if err != nil {
		if sdk != nil {
			_ = sdk.Shutdown(ctx)
		}
		return nil, err
	}
	return &Telemetry{sdk: sdk, Repetitions: reps}, nil
}

func newSDK(ctx context.Context, configPath string, log *slog.Logger) (*otelconf.SDK, error) {
	if configPath == "" || os.Getenv("OTEL_SDK_DISABLED") == "true" {
		return nil, nil
	}

	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.DebugContext(ctx, "telemetry config not found, telemetry disabled", "path", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read otel config file: %w", err)
	}

	config, err := otelconf.ParseYAML(configBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse otel config: %w", err)
	}
	if config.Disabled != nil && *config.Disabled {
		return nil, nil
	}

	sdk, err := otelconf.NewSDK(
		otelconf.WithContext(ctx),
		otelconf.WithOpenTelemetryConfiguration(*config),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create otel SDK: %w", err)
	}

	otel.SetTracerProvider(sdk.TracerProvider())
	otel.SetMeterProvider(sdk.MeterProvider())
	global.SetLoggerProvider(sdk.LoggerProvider())

	log.InfoContext(ctx, "OpenTelemetry initialized",
		"config", configPath,
		"meter_provider", fmt.Sprintf("%T", sdk.MeterProvider()))

	return &sdk, nil
}

// Enabled reports whether an SDK was built from configuration.
func (t *Telemetry) Enabled() bool {
	return t != nil && t.sdk != nil
}

// Shutdown flushes and stops the SDK, if any.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if !t.Enabled() {
		return nil
	}
	return t.sdk.Shutdown(ctx)
}
