package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/config"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/geo"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/gps"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/mission"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/runlog"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/vehicle"
)

// DockingOptions selects how the docking mission is planned and where
// the vehicle's starting position comes from.
type DockingOptions struct {
	// DirectApproach selects the single-leg plan instead of the
	// three-stage approach.
	DirectApproach bool
	// SkipUSBL bypasses the acoustic fix; the origin then comes from
	// the surface GPS if configured, otherwise the docking station
	// coordinates are assumed.
	SkipUSBL bool
}

// telemetryEvent is the JSON payload published on the telemetry topic
// each poll tick.
type telemetryEvent struct {
	Status    mission.Status    `json:"status"`
	Telemetry mission.Telemetry `json:"telemetry"`
}

// RunDockingMission executes one full docking run: acquire the
// vehicle's position, build the mission, drive the vehicle and record
// the run log. Telemetry is published on the MQTT bus for the console
// and web monitors when a broker is reachable.
func RunDockingMission(ctx context.Context, cfg *config.Config, opts DockingOptions) error {
	log.Printf("docking: starting mission")

	origin, err := resolveOrigin(cfg, opts)
	if err != nil {
		return err
	}
	target := cfg.DockingTarget()
	log.Printf("docking: vehicle at lat=%.6f lon=%.6f, target lat=%.6f lon=%.6f depth=%.1fm (%.1fm away)",
		origin.Lat, origin.Lon, target.Lat, target.Lon, target.Depth,
		geo.Distance(origin, target.Position))

	var builder mission.Builder
	if opts.DirectApproach {
		log.Printf("docking: using direct navigation approach")
		builder = mission.Direct{}
	} else {
		log.Printf("docking: using three-stage navigation approach")
		builder = mission.ThreeStage{}
	}
	plan := builder.CreateMission(origin, target, cfg.NavParams())

	drone, err := vehicle.Connect(cfg.DroneIP, time.Duration(cfg.DroneConnectTimeout)*time.Second)
	if err != nil {
		return err
	}
	defer func() {
		if err := drone.Disconnect(); err != nil {
			log.Printf("docking: disconnect: %v", err)
		}
	}()

	if err := drone.TakeControl(); err != nil {
		return fmt.Errorf("docking: take control: %w", err)
	}

	// Monitoring is best effort: a missing broker must never block the
	// mission itself.
	publish := newPublisher(cfg)
	if publish != nil {
		defer publish.close()
	}

	runLog := runlog.New(cfg.MissionLogDir)
	runLog.Start(plan.Name, origin, target)

	onTick := func(status mission.Status, telemetry mission.Telemetry) {
		runLog.Tick(status, telemetry)
		if publish != nil {
			publish.tick(status, telemetry)
		}
	}

	executor := mission.NewExecutor(drone)
	result := executor.Run(ctx, plan, time.Duration(cfg.MaxMissionDuration)*time.Second, onTick)

	path, err := runLog.End(result.Success, result.Reason)
	if err != nil {
		log.Printf("docking: saving run log: %v", err)
	}

	if publish != nil {
		publish.finalState(result)
	}

	if !result.Success {
		return fmt.Errorf("docking: mission %s: %s (log: %s)", result.State, result.Reason, path)
	}
	log.Printf("docking: mission completed successfully (log: %s)", path)
	return nil
}

// resolveOrigin determines the vehicle's current surface position:
// USBL fix converted to absolute coordinates, or a surface GPS fix,
// or the docking station coordinates as a last resort.
func resolveOrigin(cfg *config.Config, opts DockingOptions) (geo.Position, error) {
	if !opts.SkipUSBL {
		log.Printf("docking: acquiring vehicle position from USBL")
		reader := cfg.USBLReader()
		fix, err := reader.AcquireFix(cfg.USBLSamples, time.Duration(cfg.USBLTimeout)*time.Second)
		if err != nil {
			return geo.Position{}, fmt.Errorf("docking: usbl fix: %w", err)
		}
		origin := geo.RelativeToAbsolute(cfg.DockingPosition(), fix.X, fix.Y)
		log.Printf("docking: converted relative position (%.2fm, %.2fm) to lat/lon: %.6f, %.6f",
			fix.X, fix.Y, origin.Lat, origin.Lon)
		return origin, nil
	}

	if cfg.GPSSerialPort != "" {
		log.Printf("docking: skipping USBL, taking surface GPS fix")
		fix, err := gps.ReadFix(cfg.GPSSerialPort, cfg.GPSBaudRate,
			time.Duration(cfg.USBLTimeout)*time.Second)
		if err != nil {
			return geo.Position{}, fmt.Errorf("docking: surface gps: %w", err)
		}
		return fix.Position(), nil
	}

	log.Printf("docking: skipping USBL, assuming vehicle at docking station coordinates")
	return cfg.DockingPosition(), nil
}

// publisher fans mission progress out to the MQTT monitoring topics.
type publisher struct {
	client      mqtt.Client
	statusTopic string
	dataTopic   string
}

func newPublisher(cfg *config.Config) *publisher {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDocking).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("docking: MQTT broker unavailable, running without monitoring: %v", token.Error())
		return nil
	}
	log.Printf("docking: connected to MQTT broker at %s", cfg.MQTTBroker)

	return &publisher{
		client:      client,
		statusTopic: cfg.TopicMissionStatus,
		dataTopic:   cfg.TopicTelemetry,
	}
}

func (p *publisher) tick(status mission.Status, telemetry mission.Telemetry) {
	payload, err := json.Marshal(telemetryEvent{Status: status, Telemetry: telemetry})
	if err != nil {
		log.Printf("docking: telemetry marshal error: %v", err)
		return
	}
	p.client.Publish(p.dataTopic, 0, true, payload)
}

func (p *publisher) finalState(result mission.Result) {
	payload, err := json.Marshal(map[string]any{
		"state":   result.State.String(),
		"success": result.Success,
		"reason":  result.Reason,
	})
	if err != nil {
		return
	}
	token := p.client.Publish(p.statusTopic, 0, true, payload)
	token.Wait()
}

func (p *publisher) close() {
	p.client.Disconnect(250)
}
