// Package cmd holds startup helpers shared by the command entry points.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	"github.com/louisbranch/cardtrainer/internal/platform/otel"
	"go.uber.org/zap"
)

const defaultOTelShutdownTimeout = 5 * time.Second

// ServiceServer is the service name reported to tracing.
const ServiceServer = "cardtrainer"

// RunOptions controls shared entrypoint behavior for service commands.
type RunOptions struct {
	// OTel selects the trace exporter; the zero value disables tracing.
	OTel otel.Config
	// ShutdownTimeout bounds the final span flush.
	ShutdownTimeout time.Duration
	Logger          *zap.Logger
}

// RunWithTelemetry configures tracing, executes run, and flushes spans on
// the way out.
func RunWithTelemetry(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	logger := logging.OrNop(options.Logger)

	shutdown, err := otel.Setup(ctx, service, options.OTel)
	if err != nil {
		return fmt.Errorf("set up tracing: %w", err)
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultOTelShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", zap.String("service", service), zap.Error(err))
		}
	}()
	return run(ctx)
}
