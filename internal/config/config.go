package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/geo"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/mission"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/usbl"
)

// Config holds all application configuration values. The core packages
// never read it directly; callers derive plain parameter structs from
// it and pass those in.
type Config struct {
	// Drone connection
	DroneIP             string
	DroneConnectTimeout int // seconds

	// USBL
	USBLIP      string
	USBLPort    int
	USBLTimeout int // seconds
	USBLSamples int

	// Docking station
	DockingLat   float64
	DockingLon   float64
	DockingDepth float64

	// Mission
	MaxMissionDuration int // seconds

	// Navigation
	ApproachSpeed       float64 // m/s
	DescentSpeed        float64 // m/s
	AcceptanceRadius    float64 // m
	ApproachDepthOffset float64 // m

	// Surface GPS (optional; used when the USBL is bypassed)
	GPSSerialPort string
	GPSBaudRate   uint

	// MQTT
	MQTTBroker          string
	MQTTClientIDDocking string
	MQTTClientIDUSBL    string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string
	TopicUSBL           string
	TopicMissionStatus  string
	TopicTelemetry      string

	// Web server
	WebServerPort int

	// Logging
	MissionLogDir string
	LogFile       string
}

// Default returns the configuration preloaded with the standard
// deployment values. A config file and flags override these.
func Default() *Config {
	return &Config{
		DroneIP:             "192.168.1.101",
		DroneConnectTimeout: 30,

		USBLIP:      "192.168.1.189",
		USBLPort:    9200,
		USBLTimeout: 10,
		USBLSamples: 5,

		DockingLat:   66.442387,
		DockingLon:   10.369335,
		DockingDepth: 80.0,

		MaxMissionDuration: 1800,

		ApproachSpeed:       0.3,
		DescentSpeed:        0.2,
		AcceptanceRadius:    2.0,
		ApproachDepthOffset: 10.0,

		GPSBaudRate: 9600,

		MQTTBroker:          "tcp://localhost:1883",
		MQTTClientIDDocking: "docking-mission",
		MQTTClientIDUSBL:    "docking-usbl-producer",
		MQTTClientIDConsole: "docking-console",
		MQTTClientIDWeb:     "docking-web",
		TopicUSBL:           "docking/usbl",
		TopicMissionStatus:  "docking/status",
		TopicTelemetry:      "docking/telemetry",

		WebServerPort: 8080,

		MissionLogDir: "mission_logs",
		LogFile:       "docking_mission.log",
	}
}

// Load reads a KEY=VALUE configuration file over the defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Drone
	case "DRONE_IP":
		c.DroneIP = value
	case "DRONE_CONNECT_TIMEOUT":
		return setInt(&c.DroneConnectTimeout, key, value)

	// USBL
	case "USBL_IP":
		c.USBLIP = value
	case "USBL_PORT":
		return setInt(&c.USBLPort, key, value)
	case "USBL_TIMEOUT":
		return setInt(&c.USBLTimeout, key, value)
	case "USBL_SAMPLES":
		return setInt(&c.USBLSamples, key, value)

	// Docking station
	case "DOCKING_LAT":
		return setFloat(&c.DockingLat, key, value)
	case "DOCKING_LON":
		return setFloat(&c.DockingLon, key, value)
	case "DOCKING_DEPTH":
		return setFloat(&c.DockingDepth, key, value)

	// Mission
	case "MAX_MISSION_DURATION":
		return setInt(&c.MaxMissionDuration, key, value)

	// Navigation
	case "APPROACH_SPEED":
		return setFloat(&c.ApproachSpeed, key, value)
	case "DESCENT_SPEED":
		return setFloat(&c.DescentSpeed, key, value)
	case "ACCEPTANCE_RADIUS":
		return setFloat(&c.AcceptanceRadius, key, value)
	case "APPROACH_DEPTH_OFFSET":
		return setFloat(&c.ApproachDepthOffset, key, value)

	// Surface GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = uint(rate)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DOCKING":
		c.MQTTClientIDDocking = value
	case "MQTT_CLIENT_ID_USBL":
		c.MQTTClientIDUSBL = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "TOPIC_USBL":
		c.TopicUSBL = value
	case "TOPIC_MISSION_STATUS":
		c.TopicMissionStatus = value
	case "TOPIC_TELEMETRY":
		c.TopicTelemetry = value

	// Web server
	case "WEB_SERVER_PORT":
		return setInt(&c.WebServerPort, key, value)

	// Logging
	case "MISSION_LOG_DIR":
		c.MissionLogDir = value
	case "LOG_FILE":
		c.LogFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// Validate checks that the configuration can drive a mission.
func (c *Config) Validate() error {
	if c.DroneIP == "" {
		return fmt.Errorf("DRONE_IP is required")
	}
	if c.USBLIP == "" {
		return fmt.Errorf("USBL_IP is required")
	}
	if c.USBLPort <= 0 {
		return fmt.Errorf("USBL_PORT is required")
	}
	if c.USBLSamples < 1 {
		return fmt.Errorf("USBL_SAMPLES must be at least 1")
	}
	if c.DockingDepth < 0 {
		return fmt.Errorf("DOCKING_DEPTH must not be negative")
	}
	if c.MaxMissionDuration <= 0 {
		return fmt.Errorf("MAX_MISSION_DURATION must be positive")
	}
	if c.ApproachSpeed <= 0 {
		return fmt.Errorf("APPROACH_SPEED must be positive")
	}
	if c.DescentSpeed <= 0 {
		return fmt.Errorf("DESCENT_SPEED must be positive")
	}
	if c.AcceptanceRadius <= 0 {
		return fmt.Errorf("ACCEPTANCE_RADIUS must be positive")
	}
	return nil
}

// DockingPosition returns the docking station's surface coordinate.
func (c *Config) DockingPosition() geo.Position {
	return geo.Position{Lat: c.DockingLat, Lon: c.DockingLon}
}

// DockingTarget returns the docking target including depth.
func (c *Config) DockingTarget() mission.Target {
	return mission.Target{Position: c.DockingPosition(), Depth: c.DockingDepth}
}

// NavParams returns the navigation parameters for the mission builders.
func (c *Config) NavParams() mission.NavParams {
	return mission.NavParams{
		ApproachSpeed:       c.ApproachSpeed,
		DescentSpeed:        c.DescentSpeed,
		AcceptanceRadius:    c.AcceptanceRadius,
		ApproachDepthOffset: c.ApproachDepthOffset,
	}
}

// USBLReader returns a reader for the configured USBL endpoint.
func (c *Config) USBLReader() *usbl.Reader {
	return &usbl.Reader{
		Host:        c.USBLIP,
		Port:        c.USBLPort,
		DialTimeout: time.Duration(c.USBLTimeout) * time.Second,
	}
}
