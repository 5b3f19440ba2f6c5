// Package gps acquires a surface GPS fix from a serial NMEA receiver.
// It is used for the vehicle's origin position when the mission is run
// without a USBL fix (the vehicle is still on the surface).
package gps

import (
	"bufio"
	"fmt"
	"log"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/geo"
)

// Fix is one valid GPS position report.
type Fix struct {
	Time       string  `json:"time"` // e.g. "12:34:56"
	Date       string  `json:"date"` // e.g. "2025-12-06"
	Latitude   float64 `json:"lat"`  // decimal degrees
	Longitude  float64 `json:"lon"`  // decimal degrees
	SpeedKnots float64 `json:"speed_knots"`
	CourseDeg  float64 `json:"course_deg"`
}

// Position returns the fix as a geographic position.
func (f Fix) Position() geo.Position {
	return geo.Position{Lat: f.Latitude, Lon: f.Longitude}
}

// ReadFix opens the serial port and parses NMEA sentences until a valid
// RMC fix arrives or timeout elapses. The port is closed on every exit
// path.
func ReadFix(portName string, baudRate uint, timeout time.Duration) (Fix, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return Fix{}, fmt.Errorf("gps: open %s: %w", portName, err)
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", portName, baudRate)

	reader := bufio.NewReader(port)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		line, err := reader.ReadString('\n')
		if err != nil {
			return Fix{}, fmt.Errorf("gps: read: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy receiver or partial sentence, keep reading
			continue
		}

		if sentence.DataType() != nmea.TypeRMC {
			continue
		}
		m := sentence.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			continue
		}

		fix := Fix{
			Time:       m.Time.String(),
			Date:       m.Date.String(),
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			SpeedKnots: m.Speed,
			CourseDeg:  m.Course,
		}
		log.Printf("gps: surface fix lat=%.6f lon=%.6f", fix.Latitude, fix.Longitude)
		return fix, nil
	}

	return Fix{}, fmt.Errorf("gps: no valid RMC fix within %s", timeout)
}
