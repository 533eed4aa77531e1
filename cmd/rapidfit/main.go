package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/2beens/rapidfit/internal/cli"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetLevel(log.WarnLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
