package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"akleg-data/lib/configutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const ConfigName = "telemetry.json5"

var (
	providerLock   sync.Mutex
	tracerProvider *trace.TracerProvider
	meterProvider  *metric.MeterProvider
)

// Tracer returns a tracer from the global provider, it is a no-op tracer until Setup is called.
func Tracer(name string) oteltrace.Tracer {
	return otel.Tracer(name)
}

// InitSlog sets the default slog logger to a text handler on stderr.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry. no config means no exporters,
// which is not an error.
func SetupFromEnv(ctx context.Context, serviceName string) error {
	cfg, err := configutil.ReadRecursively[config](ConfigName)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("no telemetry config found, otel exporters disabled", "service", serviceName)
		return nil
	}
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, cfg)
}

func Setup(ctx context.Context, serviceName string, cfg config) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	r, err := newResource(serviceName, cfg)
	if err != nil {
		return err
	}

	tp, err := newTraceProvider(ctx, r, cfg)
	if err != nil {
		return err
	}
	mp, err := newMetricProvider(ctx, r, cfg)
	if err != nil {
		return errors.Join(err, tp.Shutdown(ctx))
	}

	providerLock.Lock()
	defer providerLock.Unlock()
	tracerProvider = tp
	meterProvider = mp
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return nil
}

// Shutdown flushes and stops the providers created by Setup, it is a no-op if Setup was never called.
func Shutdown(ctx context.Context) error {
	providerLock.Lock()
	defer providerLock.Unlock()

	var errs []error
	if tracerProvider != nil {
		errs = append(errs, tracerProvider.Shutdown(ctx))
		tracerProvider = nil
	}
	if meterProvider != nil {
		errs = append(errs, meterProvider.Shutdown(ctx))
		meterProvider = nil
	}
	return errors.Join(errs...)
}

var (
	setupTestLock         sync.Mutex
	setupTestEnvironments = map[string]bool{}
)

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once
func SetupForTesting(serviceName string) func() {
	setupTestLock.Lock()
	defer setupTestLock.Unlock()
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	err := SetupFromEnv(context.Background(), serviceName)
	if err != nil {
		panic(err)
	}

	return func() {
		err := Shutdown(context.Background())
		if err != nil {
			panic(err)
		}
	}
}
