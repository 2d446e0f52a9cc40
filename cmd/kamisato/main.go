package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/kamisato/app"
	"github.com/Black-And-White-Club/kamisato/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := &app.App{}
	if err := application.Initialize(ctx, cfg); err != nil {
		_ = application.Close()
		log.Fatalf("failed to initialize application: %v", err)
	}

	runErr := application.Run(ctx)
	if runErr != nil {
		log.Printf("application stopped: %v", runErr)
	}

	if err := application.Close(); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	if runErr != nil {
		os.Exit(1)
	}
}
