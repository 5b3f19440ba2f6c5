package mission

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Vehicle is the narrow port the executor drives. Concrete vehicle
// clients (vendor SDK bindings, fakes in tests) implement it. Every
// operation may fail with a connection-level error.
type Vehicle interface {
	TakeControl() error
	ClearMission() error
	SendMission(m Mission) error
	Status() (Status, error)
	RunMission() error
	StopMission() error
	Telemetry() (Telemetry, error)
}

// TickFunc is invoked once per poll with the latest status and
// telemetry. Calls are strictly in poll order, never overlap, and
// never happen after Run returns.
type TickFunc func(Status, Telemetry)

// Result is the outcome of one mission execution.
type Result struct {
	Success bool
	State   State
	Reason  string
}

// DefaultPollInterval is how often the executor polls the vehicle.
const DefaultPollInterval = 2 * time.Second

// Executor drives a vehicle through load, run and poll until the
// mission reaches a terminal state or the duration budget runs out.
// It is single-use per Run call and performs no internal concurrency.
type Executor struct {
	vehicle      Vehicle
	PollInterval time.Duration

	// Injectable clock, so tests can simulate time.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewExecutor returns an executor for the given vehicle with the
// default 2 s poll interval and the real clock.
func NewExecutor(v Vehicle) *Executor {
	return &Executor{
		vehicle:      v,
		PollInterval: DefaultPollInterval,
		now:          time.Now,
		sleep:        time.Sleep,
	}
}

// SetClock replaces the executor's time source and sleep function.
func (e *Executor) SetClock(now func() time.Time, sleep func(time.Duration)) {
	e.now = now
	e.sleep = sleep
}

// Run loads m onto the vehicle, starts it and polls until a terminal
// state. onTick may be nil. Cancellation of ctx is cooperative and
// checked once per poll tick; on cancellation the vehicle is stopped
// and the result carries reason "user-stopped".
func (e *Executor) Run(ctx context.Context, m Mission, maxDuration time.Duration, onTick TickFunc) Result {
	start := e.now()

	log.Printf("mission: clearing any previous mission")
	if err := e.vehicle.ClearMission(); err != nil {
		return e.errored(fmt.Errorf("clear mission: %w", err))
	}

	log.Printf("mission: sending %q (%d instructions)", m.Name, len(m.Instructions))
	if err := e.vehicle.SendMission(m); err != nil {
		return e.errored(fmt.Errorf("send mission: %w", err))
	}

	status, err := e.vehicle.Status()
	if err != nil {
		return e.errored(fmt.Errorf("status after load: %w", err))
	}
	if status.State != StateReady {
		log.Printf("mission: load failed, vehicle state %s", status.State)
		return Result{
			Success: false,
			State:   StateFailedToLoad,
			Reason:  fmt.Sprintf("failed to load mission: vehicle state %s", status.State),
		}
	}

	log.Printf("mission: starting execution, budget %s", maxDuration)
	if err := e.vehicle.RunMission(); err != nil {
		return e.errored(fmt.Errorf("run mission: %w", err))
	}

	for {
		e.sleep(e.PollInterval)

		if ctx.Err() != nil {
			log.Printf("mission: cancelled, stopping vehicle")
			e.bestEffortStop()
			return Result{Success: false, State: StateAborted, Reason: "user-stopped"}
		}

		elapsed := e.now().Sub(start)
		if elapsed > maxDuration {
			log.Printf("mission: timeout after %.1fs, stopping vehicle", elapsed.Seconds())
			e.bestEffortStop()
			return Result{
				Success: false,
				State:   StateTimedOut,
				Reason:  fmt.Sprintf("timeout after %.1fs", elapsed.Seconds()),
			}
		}

		status, err := e.vehicle.Status()
		if err != nil {
			return e.errored(fmt.Errorf("status poll: %w", err))
		}

		telemetry, err := e.vehicle.Telemetry()
		if err != nil {
			return e.errored(fmt.Errorf("telemetry poll: %w", err))
		}

		if onTick != nil {
			onTick(status, telemetry)
		}

		msg := fmt.Sprintf("mission: %s, %d/%d instructions, %.0fs elapsed",
			status.State, len(status.CompletedIDs), status.TotalInstructions,
			status.Elapsed)
		if telemetry.Depth != nil {
			msg += fmt.Sprintf(", depth %.1fm", *telemetry.Depth)
		}
		log.Print(msg)

		switch status.State {
		case StateCompleted:
			log.Printf("mission: completed successfully")
			return Result{Success: true, State: StateCompleted, Reason: "completed"}
		case StateAborted:
			log.Printf("mission: aborted by vehicle")
			return Result{Success: false, State: StateAborted, Reason: "aborted by vehicle"}
		case StateFailedToLoad, StateFailedToStart:
			log.Printf("mission: vehicle reported %s mid-run", status.State)
			return Result{
				Success: false,
				State:   status.State,
				Reason:  fmt.Sprintf("vehicle reported %s", status.State),
			}
		}
	}
}

// errored is the path for unexpected collaborator faults: stop the
// vehicle best-effort, then surface the failure.
func (e *Executor) errored(err error) Result {
	log.Printf("mission: error during execution: %v", err)
	e.bestEffortStop()
	return Result{Success: false, State: StateErrored, Reason: err.Error()}
}

func (e *Executor) bestEffortStop() {
	if err := e.vehicle.StopMission(); err != nil {
		log.Printf("mission: stop failed: %v", err)
	}
}
