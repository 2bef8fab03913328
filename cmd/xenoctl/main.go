package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xenolab/xenolab-relay/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.Prepare().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
