package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"cutroom/internal/config"
	"cutroom/internal/logging"
	"cutroom/internal/rendersim"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	sim := rendersim.NewServer(rendersim.Options{
		Bind: cfg.Simulator.Bind,
		Tick: cfg.SimulatorTick(),
	}, logger)

	if err := sim.Run(ctx); err != nil {
		logger.Error("render simulator exited", logging.Error(err))
	}
}
