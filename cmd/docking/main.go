package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/app"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to a KEY=VALUE config file")

		droneIP      = flag.String("drone-ip", "", "IP address of the drone")
		droneTimeout = flag.Int("drone-timeout", 0, "drone connection timeout in seconds")

		usblIP      = flag.String("usbl-ip", "", "IP address of the USBL system")
		usblPort    = flag.Int("usbl-port", 0, "port number of the USBL system")
		usblSamples = flag.Int("usbl-samples", 0, "number of USBL samples to average")

		dockingLat   = flag.Float64("docking-lat", 0, "docking station latitude in decimal degrees")
		dockingLon   = flag.Float64("docking-lon", 0, "docking station longitude in decimal degrees")
		dockingDepth = flag.Float64("docking-depth", 0, "docking station depth in meters")

		timeout       = flag.Int("timeout", 0, "maximum mission duration in seconds")
		approachSpeed = flag.Float64("approach-speed", 0, "horizontal movement speed in m/s")
		descentSpeed  = flag.Float64("descent-speed", 0, "vertical movement speed in m/s")

		directApproach = flag.Bool("direct-approach", false, "use direct approach instead of three-stage approach")
		noUSBL         = flag.Bool("no-usbl", false, "skip USBL reading and use a surface GPS fix or the docking station coordinates")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Printf("docking: %v", err)
			return 1
		}
		cfg = loaded
	}

	// Flags override the config file, matching the original tool's
	// precedence.
	if *droneIP != "" {
		cfg.DroneIP = *droneIP
	}
	if *droneTimeout > 0 {
		cfg.DroneConnectTimeout = *droneTimeout
	}
	if *usblIP != "" {
		cfg.USBLIP = *usblIP
	}
	if *usblPort > 0 {
		cfg.USBLPort = *usblPort
	}
	if *usblSamples > 0 {
		cfg.USBLSamples = *usblSamples
	}
	if *dockingLat != 0 {
		cfg.DockingLat = *dockingLat
	}
	if *dockingLon != 0 {
		cfg.DockingLon = *dockingLon
	}
	if *dockingDepth != 0 {
		cfg.DockingDepth = *dockingDepth
	}
	if *timeout > 0 {
		cfg.MaxMissionDuration = *timeout
	}
	if *approachSpeed > 0 {
		cfg.ApproachSpeed = *approachSpeed
	}
	if *descentSpeed > 0 {
		cfg.DescentSpeed = *descentSpeed
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("docking: invalid configuration: %v", err)
		return 1
	}

	// Tee the log to the configured file alongside stdout.
	if cfg.LogFile != "" {
		logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("docking: cannot open log file %s: %v", cfg.LogFile, err)
			return 1
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	// Ctrl+C cancels the mission cooperatively; the executor stops the
	// vehicle on the next poll tick.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.RunDockingMission(ctx, cfg, app.DockingOptions{
		DirectApproach: *directApproach,
		SkipUSBL:       *noUSBL,
	})
	if err != nil {
		log.Printf("docking: %v", err)
		if errors.Is(ctx.Err(), context.Canceled) {
			return 130
		}
		return 1
	}
	return 0
}
