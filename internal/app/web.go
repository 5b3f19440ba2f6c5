package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/config"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/usbl"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// webState holds the latest data received from the MQTT bus plus the
// set of live websocket subscribers.
type webState struct {
	mu            sync.RWMutex
	lastSample    usbl.Sample
	haveSample    bool
	lastTelemetry telemetryEvent
	haveTelemetry bool

	connsMu sync.Mutex
	conns   map[*websocket.Conn]struct{}
}

func (s *webState) broadcast(payload []byte) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

// RunWeb serves the monitoring web UI: a JSON API with the latest USBL
// sample and mission telemetry, plus a websocket feed pushing every
// update live to the browser.
func RunWeb(cfg *config.Config) error {
	state := &webState{conns: make(map[*websocket.Conn]struct{})}

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Mirror USBL samples and telemetry into local state, pushing
	// each update to websocket subscribers
	usblToken := client.Subscribe(cfg.TopicUSBL, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s usbl.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: usbl unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.lastSample = s
		state.haveSample = true
		state.mu.Unlock()

		state.broadcast(wsEnvelope("usbl", msg.Payload()))
	})
	usblToken.Wait()
	if usblToken.Error() != nil {
		return usblToken.Error()
	}

	telToken := client.Subscribe(cfg.TopicTelemetry, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev telemetryEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("web: telemetry unmarshal error: %v", err)
			return
		}
		state.mu.Lock()
		state.lastTelemetry = ev
		state.haveTelemetry = true
		state.mu.Unlock()

		state.broadcast(wsEnvelope("telemetry", msg.Payload()))
	})
	telToken.Wait()
	if telToken.Error() != nil {
		return telToken.Error()
	}
	log.Printf("web: subscribed to %s and %s", cfg.TopicUSBL, cfg.TopicTelemetry)

	// 3) JSON API endpoints: latest data
	http.HandleFunc("/api/position", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()

		if !state.haveSample {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.lastSample); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/api/telemetry", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()

		if !state.haveTelemetry {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.lastTelemetry); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Websocket live feed
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}

		state.connsMu.Lock()
		state.conns[conn] = struct{}{}
		state.connsMu.Unlock()
		log.Printf("web: websocket client connected from %s", r.RemoteAddr)

		// Drain reads so close frames are processed; writes happen
		// from the broadcast path.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					state.connsMu.Lock()
					delete(state.conns, conn)
					state.connsMu.Unlock()
					conn.Close()
					return
				}
			}
		}()
	})

	// 5) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}

func wsEnvelope(kind string, payload []byte) []byte {
	env, err := json.Marshal(map[string]json.RawMessage{
		kind: json.RawMessage(payload),
	})
	if err != nil {
		return payload
	}
	return env
}
