package mission

import (
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/geo"
)

// Builder turns an origin, a docking target and navigation parameters
// into a mission plan.
type Builder interface {
	CreateMission(origin geo.Position, target Target, p NavParams) Mission
}

// Direct builds the simplest possible plan: switch to auto-depth, dive
// to the target depth, then transit straight to the target.
type Direct struct{}

// CreateMission returns a three-instruction mission with ids 1..3.
func (Direct) CreateMission(origin geo.Position, target Target, p NavParams) Mission {
	setpoint := DepthSetpoint{
		Depth:        target.Depth,
		DescentSpeed: p.DescentSpeed,
		Reference:    DepthReferenceSurface,
	}

	instructions := []Instruction{
		{
			ID:           1,
			AutoContinue: true,
			ControlMode: &ControlModeCommand{
				Vertical:   VerticalModeAutoDepth,
				Horizontal: HorizontalModeManual,
			},
		},
		{
			ID:           2,
			AutoContinue: true,
			SetDepth:     &DepthSetpointCommand{Setpoint: setpoint},
		},
		{
			ID:           3,
			AutoContinue: true,
			GoTo: &WaypointCommand{Waypoint: Waypoint{
				ID:               3,
				Name:             "Target",
				Position:         target.Position,
				AcceptanceRadius: p.AcceptanceRadius,
				Speed:            p.ApproachSpeed,
				Depth:            setpoint,
			}},
		},
	}

	return Mission{
		ID:                      1,
		Name:                    "Direct Approach",
		Instructions:            instructions,
		DefaultSpeed:            p.ApproachSpeed,
		DefaultDescentSpeed:     p.DescentSpeed,
		DefaultAcceptanceRadius: p.AcceptanceRadius,
	}
}

// ThreeStage builds an approach that transits above the target first,
// then descends, then refines position, so the vehicle never drives
// horizontally at the docking structure's depth.
type ThreeStage struct{}

// CreateMission returns a five-instruction mission with ids 1..5.
func (ThreeStage) CreateMission(origin geo.Position, target Target, p NavParams) Mission {
	approachDepth := target.Depth - p.ApproachDepthOffset
	if approachDepth < 5.0 {
		approachDepth = 5.0
	}
	initialDepth := approachDepth
	if initialDepth > 5.0 {
		initialDepth = 5.0
	}

	initialSetpoint := DepthSetpoint{
		Depth:        initialDepth,
		DescentSpeed: p.DescentSpeed,
		Reference:    DepthReferenceSurface,
	}
	finalSetpoint := DepthSetpoint{
		Depth:        target.Depth,
		DescentSpeed: p.DescentSpeed,
		Reference:    DepthReferenceSurface,
	}

	instructions := []Instruction{
		{
			ID:           1,
			AutoContinue: true,
			ControlMode: &ControlModeCommand{
				Vertical:   VerticalModeAutoDepth,
				Horizontal: HorizontalModeManual,
			},
		},
		{
			ID:           2,
			AutoContinue: true,
			SetDepth:     &DepthSetpointCommand{Setpoint: initialSetpoint},
		},
		{
			ID:           3,
			AutoContinue: true,
			GoTo: &WaypointCommand{Waypoint: Waypoint{
				ID:               3,
				Name:             "Above Target",
				Position:         target.Position,
				AcceptanceRadius: p.AcceptanceRadius,
				Speed:            p.ApproachSpeed,
				Depth:            initialSetpoint,
			}},
		},
		{
			ID:           4,
			AutoContinue: true,
			SetDepth:     &DepthSetpointCommand{Setpoint: finalSetpoint},
		},
		{
			ID:           5,
			AutoContinue: true,
			GoTo: &WaypointCommand{Waypoint: Waypoint{
				ID:               5,
				Name:             "Target",
				Position:         target.Position,
				AcceptanceRadius: p.AcceptanceRadius,
				Speed:            p.ApproachSpeed,
				Depth:            finalSetpoint,
			}},
		},
	}

	return Mission{
		ID:                      1,
		Name:                    "Three-Stage Approach",
		Instructions:            instructions,
		DefaultSpeed:            p.ApproachSpeed,
		DefaultDescentSpeed:     p.DescentSpeed,
		DefaultAcceptanceRadius: p.AcceptanceRadius,
	}
}
