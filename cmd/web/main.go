package main

import (
	"flag"
	"log"

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

	log.Println("starting docking web monitor")

	if err := app.RunWeb(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
