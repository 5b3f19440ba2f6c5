// Package vehicle is the concrete binding to the drone's onboard
// control service: newline-delimited JSON request/response over TCP.
// It implements the mission.Vehicle port.
package vehicle

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/mission"
)

// DefaultPort is the drone control service port.
const DefaultPort = 9875

type request struct {
	Command string           `json:"command"`
	Mission *mission.Mission `json:"mission,omitempty"`
}

type response struct {
	OK              bool               `json:"ok"`
	Error           string             `json:"error,omitempty"`
	SerialNumber    string             `json:"serial_number,omitempty"`
	SoftwareVersion string             `json:"software_version,omitempty"`
	Status          *mission.Status    `json:"status,omitempty"`
	Telemetry       *mission.Telemetry `json:"telemetry,omitempty"`
}

// Client is a connected drone control session. It is single-owner: one
// client per vehicle, not safe for concurrent use.
type Client struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Connect dials the drone's control service, performs the hello
// exchange and returns a connected client.
func Connect(ip string, timeout time.Duration) (*Client, error) {
	addr := net.JoinHostPort(ip, strconv.Itoa(DefaultPort))
	log.Printf("vehicle: connecting to drone at %s", addr)

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("vehicle: connect %s: %w", addr, err)
	}

	c := &Client{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}

	resp, err := c.roundTrip(request{Command: "hello"})
	if err != nil {
		conn.Close()
		return nil, err
	}
	log.Printf("vehicle: connected to drone %s (software %s)",
		resp.SerialNumber, resp.SoftwareVersion)

	return c, nil
}

func (c *Client) roundTrip(req request) (*response, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("vehicle: set deadline: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("vehicle: marshal %s: %w", req.Command, err)
	}
	payload = append(payload, '\n')
	if _, err := c.conn.Write(payload); err != nil {
		return nil, fmt.Errorf("vehicle: send %s: %w", req.Command, err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("vehicle: read %s response: %w", req.Command, err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("vehicle: decode %s response: %w", req.Command, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("vehicle: %s rejected: %s", req.Command, resp.Error)
	}
	return &resp, nil
}

// TakeControl requests command authority over the drone.
func (c *Client) TakeControl() error {
	_, err := c.roundTrip(request{Command: "take_control"})
	return err
}

// ClearMission removes any loaded mission from the drone.
func (c *Client) ClearMission() error {
	_, err := c.roundTrip(request{Command: "clear_mission"})
	return err
}

// SendMission loads m onto the drone.
func (c *Client) SendMission(m mission.Mission) error {
	_, err := c.roundTrip(request{Command: "send_mission", Mission: &m})
	return err
}

// Status fetches the drone's current mission status.
func (c *Client) Status() (mission.Status, error) {
	resp, err := c.roundTrip(request{Command: "get_status"})
	if err != nil {
		return mission.Status{}, err
	}
	if resp.Status == nil {
		return mission.Status{}, fmt.Errorf("vehicle: get_status response missing status")
	}
	return *resp.Status, nil
}

// RunMission starts the loaded mission.
func (c *Client) RunMission() error {
	_, err := c.roundTrip(request{Command: "run_mission"})
	return err
}

// StopMission stops the running mission.
func (c *Client) StopMission() error {
	_, err := c.roundTrip(request{Command: "stop_mission"})
	return err
}

// Telemetry fetches a sensor snapshot. Readings the drone could not
// provide come back nil in the snapshot.
func (c *Client) Telemetry() (mission.Telemetry, error) {
	resp, err := c.roundTrip(request{Command: "get_telemetry"})
	if err != nil {
		return mission.Telemetry{}, err
	}
	if resp.Telemetry == nil {
		return mission.Telemetry{}, nil
	}
	return *resp.Telemetry, nil
}

// Disconnect stops any running mission best-effort and closes the
// connection.
func (c *Client) Disconnect() error {
	log.Printf("vehicle: disconnecting from drone")

	if status, err := c.Status(); err == nil && status.State == mission.StateRunning {
		log.Printf("vehicle: stopping active mission before disconnect")
		if err := c.StopMission(); err != nil {
			log.Printf("vehicle: stop before disconnect failed: %v", err)
		}
	}

	return c.conn.Close()
}
