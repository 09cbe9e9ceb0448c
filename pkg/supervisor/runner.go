package supervisor

import (
	"context"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/core-tools/hsu-companion-go/pkg/config"
	"github.com/core-tools/hsu-companion-go/pkg/deployment"
	"github.com/core-tools/hsu-companion-go/pkg/errors"
	"github.com/core-tools/hsu-companion-go/pkg/host"
	"github.com/core-tools/hsu-companion-go/pkg/logging"
	"github.com/core-tools/hsu-companion-go/pkg/metrics"
)

const metricsShutdownTimeout = 5 * time.Second

type RunOptions struct {
	Config *config.Config
	Mode   deployment.Mode

	// RunDuration closes the main window after the given time, zero runs
	// until a signal arrives
	RunDuration time.Duration

	// Executable overrides os.Executable
	Executable ExecutableFunc
}

// Run hosts the supervisor inside the shell until the main window is closed
func Run(options RunOptions, logger logging.Logger) error {
	logger.Infof("Companion host starting...")
	logger.Infof("Platform: OS=%s, Arch=%s, CPUs=%d, Go=%s, mode: %s",
		runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.Version(), options.Mode)

	cfg := options.Config
	if cfg == nil {
		cfg = config.DefaultConfig(options.Mode)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return errors.NewValidationError("configuration validation failed", err)
	}

	ctx := context.Background()
	if options.RunDuration > 0 {
		logger.Infof("Using RUN DURATION of %v", options.RunDuration)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.RunDuration)
		defer cancel()
	}

	var collector metrics.Collector = metrics.NewNoopCollector()
	if cfg.Metrics.Enabled {
		prometheusCollector := metrics.NewPrometheusCollector(metrics.DefaultNamespace)
		stop, err := serveMetrics(cfg.Metrics.Address, prometheusCollector.Handler(), logger)
		if err != nil {
			return err
		}
		defer stop()
		collector = prometheusCollector
	}

	sup := New(Options{
		Config:     cfg,
		Mode:       options.Mode,
		Metrics:    collector,
		Executable: options.Executable,
	}, logger)

	shell := host.NewShell(logger).
		Setup(func(ctx context.Context) error {
			state := sup.Setup(ctx)
			logger.Infof("Supervisor setup finished, state: %s", state)
			return nil
		}).
		OnWindowEvent(sup.OnWindowEvent)

	if err := shell.Run(ctx); err != nil {
		return err
	}

	logger.Infof("Companion host stopped, state: %s", sup.State())
	return nil
}

func serveMetrics(address string, handler http.Handler, logger logging.Logger) (func(), error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, errors.NewIOError("failed to listen for metrics", err).WithContext("address", address)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Metrics server failed: %v", err)
		}
	}()
	logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warnf("Metrics server shutdown failed: %v", err)
		}
	}, nil
}
