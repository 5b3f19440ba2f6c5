package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/app"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a KEY=VALUE config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("starting USBL producer (acoustic stream → MQTT)")

	if err := app.RunUSBLProducer(ctx, cfg); err != nil && ctx.Err() == nil {
		log.Fatalf("fatal: %v", err)
	}
}
