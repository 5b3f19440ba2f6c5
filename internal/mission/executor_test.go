package mission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVehicle scripts the status sequence the executor will observe
// and counts the commands it receives.
type fakeVehicle struct {
	statuses []Status // consumed one per Status call; last one repeats
	statusAt int

	statusErr    error
	telemetryErr error

	clearCalls int
	sendCalls  int
	runCalls   int
	stopCalls  int
	sent       Mission
}

func (f *fakeVehicle) TakeControl() error { return nil }

func (f *fakeVehicle) ClearMission() error {
	f.clearCalls++
	return nil
}

func (f *fakeVehicle) SendMission(m Mission) error {
	f.sendCalls++
	f.sent = m
	return nil
}

func (f *fakeVehicle) Status() (Status, error) {
	if f.statusErr != nil {
		return Status{}, f.statusErr
	}
	s := f.statuses[f.statusAt]
	if f.statusAt < len(f.statuses)-1 {
		f.statusAt++
	}
	return s, nil
}

func (f *fakeVehicle) RunMission() error {
	f.runCalls++
	return nil
}

func (f *fakeVehicle) StopMission() error {
	f.stopCalls++
	return nil
}

func (f *fakeVehicle) Telemetry() (Telemetry, error) {
	if f.telemetryErr != nil {
		return Telemetry{}, f.telemetryErr
	}
	depth := 12.5
	return Telemetry{Depth: &depth}, nil
}

// newTestExecutor wires a fake clock where sleeping advances simulated
// time instantly.
func newTestExecutor(v Vehicle) *Executor {
	e := NewExecutor(v)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.SetClock(
		func() time.Time { return current },
		func(d time.Duration) { current = current.Add(d) },
	)
	return e
}

func testMission() Mission {
	return Direct{}.CreateMission(testOrigin, testTarget, testParams)
}

func TestRun_Completes(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{
		{State: StateReady},
		{State: StateRunning, TotalInstructions: 3},
		{State: StateCompleted, TotalInstructions: 3, CompletedIDs: []int{1, 2, 3}},
	}}

	var ticks []Status
	e := newTestExecutor(v)
	result := e.Run(context.Background(), testMission(), 30*time.Minute, func(s Status, _ Telemetry) {
		ticks = append(ticks, s)
	})

	assert.True(t, result.Success)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, 1, v.clearCalls)
	assert.Equal(t, 1, v.sendCalls)
	assert.Equal(t, 1, v.runCalls)
	assert.Zero(t, v.stopCalls)

	// One tick per poll, in poll order.
	require.Len(t, ticks, 2)
	assert.Equal(t, StateRunning, ticks[0].State)
	assert.Equal(t, StateCompleted, ticks[1].State)
}

func TestRun_NeverReady_FailsToLoad(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{{State: StateIdle}}}

	e := newTestExecutor(v)
	result := e.Run(context.Background(), testMission(), 30*time.Minute, nil)

	assert.False(t, result.Success)
	assert.Equal(t, StateFailedToLoad, result.State)
	assert.Contains(t, result.Reason, "load")
	assert.Zero(t, v.runCalls, "run must never be issued when the mission did not load")
}

func TestRun_Timeout_StopsExactlyOnce(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{
		{State: StateReady},
		{State: StateRunning},
	}}

	e := newTestExecutor(v)
	result := e.Run(context.Background(), testMission(), 5*time.Second, nil)

	assert.False(t, result.Success)
	assert.Equal(t, StateTimedOut, result.State)
	assert.Contains(t, result.Reason, "timeout")
	assert.Equal(t, 1, v.stopCalls)
}

func TestRun_Aborted(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{
		{State: StateReady},
		{State: StateRunning},
		{State: StateAborted},
	}}

	e := newTestExecutor(v)
	result := e.Run(context.Background(), testMission(), 30*time.Minute, nil)

	assert.False(t, result.Success)
	assert.Equal(t, StateAborted, result.State)
}

func TestRun_MidRunLoadFailure(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{
		{State: StateReady},
		{State: StateFailedToStart},
	}}

	e := newTestExecutor(v)
	result := e.Run(context.Background(), testMission(), 30*time.Minute, nil)

	assert.False(t, result.Success)
	assert.Equal(t, StateFailedToStart, result.State)
}

func TestRun_StatusFault_BestEffortStop(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{{State: StateReady}}}

	// Fail the poll after the mission has started.
	polls := 0
	wrapped := &faultAfter{inner: v, failAfter: 1, polls: &polls}
	e := newTestExecutor(wrapped)

	result := e.Run(context.Background(), testMission(), 30*time.Minute, nil)

	assert.False(t, result.Success)
	assert.Equal(t, StateErrored, result.State)
	assert.Equal(t, 1, v.stopCalls, "a fault must trigger a best-effort stop")
}

// faultAfter passes through to inner but fails Status after n
// successful polls.
type faultAfter struct {
	inner     *fakeVehicle
	failAfter int
	polls     *int
}

func (f *faultAfter) TakeControl() error          { return f.inner.TakeControl() }
func (f *faultAfter) ClearMission() error         { return f.inner.ClearMission() }
func (f *faultAfter) SendMission(m Mission) error { return f.inner.SendMission(m) }
func (f *faultAfter) RunMission() error           { return f.inner.RunMission() }
func (f *faultAfter) StopMission() error          { return f.inner.StopMission() }
func (f *faultAfter) Telemetry() (Telemetry, error) {
	return f.inner.Telemetry()
}

func (f *faultAfter) Status() (Status, error) {
	if *f.polls >= f.failAfter {
		return Status{}, errors.New("connection reset")
	}
	*f.polls++
	return f.inner.Status()
}

func TestRun_Cancellation(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{
		{State: StateReady},
		{State: StateRunning},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestExecutor(v)
	result := e.Run(ctx, testMission(), 30*time.Minute, nil)

	assert.False(t, result.Success)
	assert.Equal(t, "user-stopped", result.Reason)
	assert.Equal(t, 1, v.stopCalls)
}

func TestRun_SendsTheGivenMission(t *testing.T) {
	v := &fakeVehicle{statuses: []Status{
		{State: StateReady},
		{State: StateCompleted},
	}}

	m := testMission()
	e := newTestExecutor(v)
	result := e.Run(context.Background(), m, 30*time.Minute, nil)

	assert.True(t, result.Success)
	assert.Equal(t, m, v.sent)
}
