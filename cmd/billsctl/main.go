package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bills/internal/cli"
	"bills/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Shares .env with the server so both see the same AMQP settings.
	_ = config.LoadEnvFile(os.Getenv("ENV_FILE"))

	err := cli.Execute(ctx, cli.NewApp(), os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
