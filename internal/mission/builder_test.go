package mission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/geo"
)

var (
	testOrigin = geo.Position{Lat: 66.442100, Lon: 10.369000}
	testTarget = Target{
		Position: geo.Position{Lat: 66.442387, Lon: 10.369335},
		Depth:    80.0,
	}
	testParams = NavParams{
		ApproachSpeed:       0.3,
		DescentSpeed:        0.2,
		AcceptanceRadius:    2.0,
		ApproachDepthOffset: 10.0,
	}
)

func instructionIDs(m Mission) []int {
	ids := make([]int, 0, len(m.Instructions))
	for _, inst := range m.Instructions {
		ids = append(ids, inst.ID)
	}
	return ids
}

func TestDirect_CreateMission(t *testing.T) {
	m := Direct{}.CreateMission(testOrigin, testTarget, testParams)

	assert.Equal(t, "Direct Approach", m.Name)
	require.Len(t, m.Instructions, 3)
	assert.Equal(t, []int{1, 2, 3}, instructionIDs(m))

	// 1: control mode change
	require.NotNil(t, m.Instructions[0].ControlMode)
	assert.Equal(t, VerticalModeAutoDepth, m.Instructions[0].ControlMode.Vertical)
	assert.Equal(t, HorizontalModeManual, m.Instructions[0].ControlMode.Horizontal)

	// 2: dive to the target depth
	require.NotNil(t, m.Instructions[1].SetDepth)
	sp := m.Instructions[1].SetDepth.Setpoint
	assert.Equal(t, 80.0, sp.Depth)
	assert.Equal(t, 0.2, sp.DescentSpeed)
	assert.Equal(t, DepthReferenceSurface, sp.Reference)

	// 3: waypoint to the target with the same setpoint
	require.NotNil(t, m.Instructions[2].GoTo)
	wp := m.Instructions[2].GoTo.Waypoint
	assert.Equal(t, "Target", wp.Name)
	assert.Equal(t, testTarget.Position, wp.Position)
	assert.Equal(t, 2.0, wp.AcceptanceRadius)
	assert.Equal(t, 0.3, wp.Speed)
	assert.Equal(t, sp, wp.Depth)

	for _, inst := range m.Instructions {
		assert.True(t, inst.AutoContinue)
	}

	assert.Equal(t, 0.3, m.DefaultSpeed)
	assert.Equal(t, 0.2, m.DefaultDescentSpeed)
	assert.Equal(t, 2.0, m.DefaultAcceptanceRadius)
}

func TestThreeStage_CreateMission(t *testing.T) {
	m := ThreeStage{}.CreateMission(testOrigin, testTarget, testParams)

	assert.Equal(t, "Three-Stage Approach", m.Name)
	require.Len(t, m.Instructions, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, instructionIDs(m))

	require.NotNil(t, m.Instructions[0].ControlMode)

	// Approach depth for an 80 m target with a 10 m offset is 70 m,
	// clamped to the 5 m transit ceiling.
	require.NotNil(t, m.Instructions[1].SetDepth)
	assert.Equal(t, 5.0, m.Instructions[1].SetDepth.Setpoint.Depth)

	require.NotNil(t, m.Instructions[2].GoTo)
	above := m.Instructions[2].GoTo.Waypoint
	assert.Equal(t, "Above Target", above.Name)
	assert.Equal(t, testTarget.Position, above.Position)
	assert.Equal(t, 5.0, above.Depth.Depth)

	require.NotNil(t, m.Instructions[3].SetDepth)
	assert.Equal(t, 80.0, m.Instructions[3].SetDepth.Setpoint.Depth)

	require.NotNil(t, m.Instructions[4].GoTo)
	target := m.Instructions[4].GoTo.Waypoint
	assert.Equal(t, "Target", target.Name)
	assert.Equal(t, testTarget.Position, target.Position)
	assert.Equal(t, 80.0, target.Depth.Depth)
}

func TestThreeStage_ShallowTarget(t *testing.T) {
	shallow := Target{Position: testTarget.Position, Depth: 3.0}

	m := ThreeStage{}.CreateMission(testOrigin, shallow, testParams)

	// max(5, 3-10) = 5, then min(5, 5) = 5: the approach leg still
	// happens at 5 m even when the target is shallower.
	require.Len(t, m.Instructions, 5)
	assert.Equal(t, 5.0, m.Instructions[1].SetDepth.Setpoint.Depth)
	assert.Equal(t, 3.0, m.Instructions[3].SetDepth.Setpoint.Depth)
}

func TestBuilders_Deterministic(t *testing.T) {
	builders := map[string]Builder{
		"direct":      Direct{},
		"three-stage": ThreeStage{},
	}

	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			first := b.CreateMission(testOrigin, testTarget, testParams)
			second := b.CreateMission(testOrigin, testTarget, testParams)
			assert.Equal(t, first, second)
		})
	}
}

func TestInstructions_ExactlyOneCommand(t *testing.T) {
	missions := []Mission{
		Direct{}.CreateMission(testOrigin, testTarget, testParams),
		ThreeStage{}.CreateMission(testOrigin, testTarget, testParams),
	}

	for _, m := range missions {
		for _, inst := range m.Instructions {
			set := 0
			if inst.ControlMode != nil {
				set++
			}
			if inst.SetDepth != nil {
				set++
			}
			if inst.GoTo != nil {
				set++
			}
			assert.Equal(t, 1, set, "instruction %d of %q must carry exactly one command", inst.ID, m.Name)
		}
	}
}
