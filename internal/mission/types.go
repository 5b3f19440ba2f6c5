// Package mission models vehicle mission plans, builds them from a
// navigation strategy, and drives their execution.
package mission

import (
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/geo"
)

// DepthReference is the datum a depth setpoint is measured from.
type DepthReference int

const (
	// DepthReferenceSurface measures depth downward from the surface.
	DepthReferenceSurface DepthReference = iota
)

// DepthSetpoint is a commanded depth and descent rate.
type DepthSetpoint struct {
	Depth        float64        `json:"depth"`
	DescentSpeed float64        `json:"descent_speed"`
	Reference    DepthReference `json:"reference"`
}

// Waypoint is a target horizontal position with an acceptance radius,
// approach speed and a depth to hold while transiting.
type Waypoint struct {
	ID               int           `json:"id"`
	Name             string        `json:"name"`
	Position         geo.Position  `json:"position"`
	AcceptanceRadius float64       `json:"acceptance_radius"`
	Speed            float64       `json:"speed"`
	Depth            DepthSetpoint `json:"depth"`
}

// VerticalMode selects how the vehicle holds its depth.
type VerticalMode int

// HorizontalMode selects how the vehicle holds its horizontal position.
type HorizontalMode int

const (
	VerticalModeAutoDepth VerticalMode = iota
	VerticalModeManual
)

const (
	HorizontalModeManual HorizontalMode = iota
	HorizontalModeAutoHeading
)

// ControlModeCommand switches the vehicle's control modes.
type ControlModeCommand struct {
	Vertical   VerticalMode   `json:"vertical"`
	Horizontal HorizontalMode `json:"horizontal"`
}

// DepthSetpointCommand commands the vehicle to a depth.
type DepthSetpointCommand struct {
	Setpoint DepthSetpoint `json:"setpoint"`
}

// WaypointCommand commands the vehicle to a waypoint.
type WaypointCommand struct {
	Waypoint Waypoint `json:"waypoint"`
}

// Instruction is one step of a mission. Exactly one of the command
// fields is set.
type Instruction struct {
	ID           int                   `json:"id"`
	AutoContinue bool                  `json:"auto_continue"`
	ControlMode  *ControlModeCommand   `json:"control_mode,omitempty"`
	SetDepth     *DepthSetpointCommand `json:"set_depth,omitempty"`
	GoTo         *WaypointCommand      `json:"go_to,omitempty"`
}

// Mission is an ordered sequence of instructions executed sequentially
// by the vehicle. Instruction ids are 1-based and contiguous. A mission
// is immutable once built.
type Mission struct {
	ID                      int           `json:"id"`
	Name                    string        `json:"name"`
	Instructions            []Instruction `json:"instructions"`
	DefaultSpeed            float64       `json:"default_speed"`
	DefaultDescentSpeed     float64       `json:"default_descent_speed"`
	DefaultAcceptanceRadius float64       `json:"default_acceptance_radius"`
}

// Target is the docking target: an absolute position plus its depth.
type Target struct {
	geo.Position
	Depth float64 `json:"depth"`
}

// NavParams holds the navigation tuning the builders consume.
type NavParams struct {
	ApproachSpeed       float64 // horizontal speed, m/s
	DescentSpeed        float64 // vertical speed, m/s
	AcceptanceRadius    float64 // waypoint circle of acceptance, m
	ApproachDepthOffset float64 // meters above the target for the first approach
}

// State is the executor / vehicle mission state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateRunning
	StateCompleted
	StateAborted
	StateFailedToLoad
	StateFailedToStart
	StateTimedOut
	StateErrored
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StateLoading:       "loading",
	StateReady:         "ready",
	StateRunning:       "running",
	StateCompleted:     "completed",
	StateAborted:       "aborted",
	StateFailedToLoad:  "failed_to_load",
	StateFailedToStart: "failed_to_start",
	StateTimedOut:      "timed_out",
	StateErrored:       "errored",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether s is a terminal execution state.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateAborted, StateFailedToLoad,
		StateFailedToStart, StateTimedOut, StateErrored:
		return true
	}
	return false
}

// Status is the vehicle's view of mission progress, fetched each poll.
type Status struct {
	State              State   `json:"state"`
	Elapsed            float64 `json:"elapsed"`             // seconds
	EstimatedRemaining float64 `json:"estimated_remaining"` // seconds
	DistanceRemaining  float64 `json:"distance_remaining"`  // meters
	CompletedIDs       []int   `json:"completed_ids"`
	TotalInstructions  int     `json:"total_instructions"`
}

// Telemetry is a best-effort snapshot of vehicle sensors. A nil field
// means the reading was unavailable this tick, which is a normal
// outcome rather than an error.
type Telemetry struct {
	Depth     *float64 `json:"depth,omitempty"`      // meters
	WaterTemp *float64 `json:"water_temp,omitempty"` // °C
	Battery   *float64 `json:"battery,omitempty"`    // percent
	DiveTime  *float64 `json:"dive_time,omitempty"`  // seconds
}
