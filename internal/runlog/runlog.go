// Package runlog records the events of one mission execution and
// persists them as a single JSON artifact per run.
package runlog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/geo"
	"github.com/AbubakarAliyuBadawi/BlueyeROV-Autonomous-Docking/internal/mission"
)

// Entry is one timestamped event in a run log. Fields irrelevant to the
// event type are omitted from the JSON.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"` // mission_start, telemetry, mission_end

	// mission_start
	RunID       string          `json:"run_id,omitempty"`
	MissionName string          `json:"mission_name,omitempty"`
	Origin      *geo.Position   `json:"origin,omitempty"`
	Target      *mission.Target `json:"target,omitempty"`

	// telemetry
	Status    *mission.Status    `json:"mission_status,omitempty"`
	Telemetry *mission.Telemetry `json:"telemetry,omitempty"`

	// mission_end
	Success *bool  `json:"success,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Log is an append-only recorder for one mission run. Start begins a
// run, Tick appends telemetry, End seals the log and writes the
// artifact. A Log is single-use; it is not safe for concurrent use.
type Log struct {
	dir     string
	runID   string
	start   time.Time
	entries []Entry
	now     func() time.Time
}

// New returns a run log that will persist its artifact under dir.
func New(dir string) *Log {
	return &Log{dir: dir, now: time.Now}
}

// SetClock replaces the log's time source for tests.
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}

// Started reports whether Start has been called.
func (l *Log) Started() bool {
	return !l.start.IsZero()
}

// Start records the beginning of a run.
func (l *Log) Start(name string, origin geo.Position, target mission.Target) {
	l.start = l.now()
	l.runID = uuid.NewString()
	l.entries = l.entries[:0]

	l.entries = append(l.entries, Entry{
		Timestamp:   l.start,
		Event:       "mission_start",
		RunID:       l.runID,
		MissionName: name,
		Origin:      &origin,
		Target:      &target,
	})
	log.Printf("runlog: started logging mission %q (run %s)", name, l.runID)
}

// Tick appends one telemetry event. Without an active run it warns and
// does nothing.
func (l *Log) Tick(status mission.Status, telemetry mission.Telemetry) {
	if !l.Started() {
		log.Printf("runlog: telemetry dropped, no active mission")
		return
	}

	l.entries = append(l.entries, Entry{
		Timestamp: l.now(),
		Event:     "telemetry",
		Status:    &status,
		Telemetry: &telemetry,
	})
}

// End seals the log and writes the full entry list atomically to a new
// artifact named after the run's start time and outcome. The written
// file is never mutated afterwards.
func (l *Log) End(success bool, reason string) (string, error) {
	if !l.Started() {
		log.Printf("runlog: cannot end, no active mission")
		return "", fmt.Errorf("runlog: no active mission")
	}

	l.entries = append(l.entries, Entry{
		Timestamp: l.now(),
		Event:     "mission_end",
		Success:   &success,
		Reason:    reason,
	})

	outcome := "failed"
	if success {
		outcome = "success"
	}
	name := fmt.Sprintf("mission_%s_%s.json", l.start.Format("20060102_150405"), outcome)
	path := filepath.Join(l.dir, name)

	if err := l.write(path); err != nil {
		return "", err
	}

	// Mark the run finished so a stray Tick after End is dropped.
	l.start = time.Time{}

	log.Printf("runlog: mission log saved to %s", path)
	return path, nil
}

func (l *Log) write(path string) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("runlog: create dir: %w", err)
	}

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("runlog: marshal: %w", err)
	}

	// Write to a temp file in the same directory and rename, so the
	// artifact appears atomically.
	tmp, err := os.CreateTemp(l.dir, ".runlog-*.tmp")
	if err != nil {
		return fmt.Errorf("runlog: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("runlog: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("runlog: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("runlog: rename: %w", err)
	}
	return nil
}
