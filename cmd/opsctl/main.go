package main

import (
	"context"
	"os"
	"os/signal"

	"skylark/opscommand/internal/cli"
	"skylark/opscommand/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCmd().ExecuteContext(ctx)
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}
