package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimasrn/hire-gateway/internal/cli"
	"github.com/nimasrn/hire-gateway/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(nil).ExecuteContext(ctx); err != nil {
		logger.Error("hirectl failed", "error", err)
		stop()
		os.Exit(1)
	}
}
