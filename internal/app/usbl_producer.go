package app

import (
	"context"
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/config"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/usbl"
)

// RunUSBLProducer connects to the USBL transducer, decodes position
// samples from its byte stream, and publishes each one as JSON to the
// MQTT bus so the console and web monitors can show a live position.
func RunUSBLProducer(ctx context.Context, cfg *config.Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDUSBL)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("usbl-producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	reader := cfg.USBLReader()
	return reader.Stream(ctx, func(s usbl.Sample) {
		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("usbl-producer: marshal error: %v", err)
			return
		}

		token := client.Publish(cfg.TopicUSBL, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("usbl-producer: publish error: %v", token.Error())
			return
		}

		log.Printf("usbl-producer: published sample x=%.2fm y=%.2fm heading=%.0f°",
			s.X, s.Y, s.Heading)
	})
}
