package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/cardtrainer/internal/platform/otel"
)

func TestRunWithTelemetryRunsLoop(t *testing.T) {
	called := false
	err := RunWithTelemetry(context.Background(), ServiceServer, RunOptions{}, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("expected run function to be called")
	}
}

func TestRunWithTelemetryPropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := RunWithTelemetry(context.Background(), ServiceServer, RunOptions{OTel: otel.Config{Enabled: false}}, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestRunWithTelemetryValidatesArguments(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), " ", RunOptions{}, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error for blank service name")
	}
	if err := RunWithTelemetry(context.Background(), ServiceServer, RunOptions{}, nil); err == nil {
		t.Fatal("expected error for nil run function")
	}
}
