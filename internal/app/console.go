package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/config"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/usbl"
)

// RunConsole subscribes to the docking MQTT topics and prints live
// position and mission telemetry until interrupted.
func RunConsole(cfg *config.Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to USBL position samples
	usblToken := client.Subscribe(cfg.TopicUSBL, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s usbl.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: usbl unmarshal error: %v", err)
			return
		}

		fmt.Printf("[USBL] x=%7.2fm  y=%7.2fm  heading=%5.1f°\n", s.X, s.Y, s.Heading)
	})
	usblToken.Wait()
	if usblToken.Error() != nil {
		return usblToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicUSBL)

	// Subscribe to mission telemetry
	telToken := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev telemetryEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: telemetry unmarshal error: %v", err)
			return
		}

		line := fmt.Sprintf("[MISS] %-14s %2d/%2d instructions  %6.0fs elapsed  %6.1fm to go",
			ev.Status.State, len(ev.Status.CompletedIDs), ev.Status.TotalInstructions,
			ev.Status.Elapsed, ev.Status.DistanceRemaining)
		if ev.Telemetry.Depth != nil {
			line += fmt.Sprintf("  depth=%.1fm", *ev.Telemetry.Depth)
		}
		if ev.Telemetry.Battery != nil {
			line += fmt.Sprintf("  battery=%.0f%%", *ev.Telemetry.Battery)
		}
		fmt.Println(line)
	})
	telToken.Wait()
	if telToken.Error() != nil {
		return telToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicTelemetry)

	// Subscribe to the final mission state
	statusToken := client.Subscribe(cfg.TopicMissionStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Printf("[DONE] %s\n", msg.Payload())
	})
	statusToken.Wait()
	if statusToken.Error() != nil {
		return statusToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicMissionStatus)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
