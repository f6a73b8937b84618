package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/cardtrainer/internal/cmd/cardctl"
	"github.com/louisbranch/cardtrainer/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cardctl.NewRootCommand(os.LookupEnv).ExecuteContext(ctx); err != nil {
		config.Exitf("cardctl: %v", err)
	}
}
