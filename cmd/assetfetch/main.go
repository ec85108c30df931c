package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"assetfetch/internal/logger"
)

func main() {
	log := logger.NewColoredLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received exit signal, stopping downloads...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			log.Error("%v", err)
		}
		os.Exit(1)
	}
}
