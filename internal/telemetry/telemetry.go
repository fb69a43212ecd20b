// Package telemetry records structured operational events as JSON lines under
// the project's logs directory. Three streams are kept separate: telemetry
// (operation timings), activity (user-visible actions), and import (one line
// per import run). All writes are append-only.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names the kind of telemetry event.
type EventType string

const (
	EventOperationStart EventType = "operation_start"
	EventOperationEnd   EventType = "operation_end"
	EventActivity       EventType = "activity"
	EventImportDryRun   EventType = "import_dry_run"
	EventImportApply    EventType = "import_apply"
	EventImportUndo     EventType = "import_undo"
	EventError          EventType = "error"
)

// Event is one JSON line in a telemetry stream.
type Event struct {
	Timestamp  time.Time      `json:"ts"`
	EventType  EventType      `json:"event"`
	Operation  string         `json:"op,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	Success    bool           `json:"success"`
	DurationMs int64          `json:"dur_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Appender writes JSON lines to a single file, serialized by a mutex. The
// file is opened lazily on first write so that a Recorder can be constructed
// before the logs directory exists.
type Appender struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewAppender returns an appender for the given path.
func NewAppender(path string) *Appender {
	return &Appender{path: path}
}

// Append marshals v and writes it as one line.
func (a *Appender) Append(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		if err := os.MkdirAll(filepath.Dir(a.path), 0755); err != nil {
			return fmt.Errorf("create logs directory: %w", err)
		}
		f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log %s: %w", a.path, err)
		}
		a.file = f
	}

	if _, err := a.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append log %s: %w", a.path, err)
	}
	return nil
}

// Close closes the underlying file if it was opened.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// Recorder owns the three per-project log streams.
type Recorder struct {
	enabled   bool
	telemetry *Appender
	activity  *Appender
	imports   *Appender
}

// NewRecorder builds a recorder for the given log paths. When enabled is
// false every method is a no-op, so callers never need to nil-check.
func NewRecorder(enabled bool, telemetryPath, activityPath, importPath string) *Recorder {
	return &Recorder{
		enabled:   enabled,
		telemetry: NewAppender(telemetryPath),
		activity:  NewAppender(activityPath),
		imports:   NewAppender(importPath),
	}
}

// Disabled returns a recorder that discards everything.
func Disabled() *Recorder {
	return &Recorder{}
}

// Close closes all streams.
func (r *Recorder) Close() error {
	if !r.enabled {
		return nil
	}
	var firstErr error
	for _, a := range []*Appender{r.telemetry, r.activity, r.imports} {
		if err := a.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OperationStart records the start of a named operation and returns a done
// function that records its end with duration and outcome.
func (r *Recorder) OperationStart(op string, fields map[string]any) func(err error) {
	if !r.enabled {
		return func(error) {}
	}

	runID := uuid.New().String()
	start := time.Now()
	r.telemetry.Append(Event{
		Timestamp: start,
		EventType: EventOperationStart,
		Operation: op,
		RunID:     runID,
		Success:   true,
		Fields:    fields,
	})

	return func(err error) {
		ev := Event{
			Timestamp:  time.Now(),
			EventType:  EventOperationEnd,
			Operation:  op,
			RunID:      runID,
			Success:    err == nil,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			ev.Error = err.Error()
		}
		r.telemetry.Append(ev)
	}
}

// Activity records a user-visible action in the activity stream.
func (r *Recorder) Activity(action string, fields map[string]any) {
	if !r.enabled {
		return
	}
	r.activity.Append(Event{
		Timestamp: time.Now(),
		EventType: EventActivity,
		Operation: action,
		Success:   true,
		Fields:    fields,
	})
}

// ImportEvent records one import pipeline run (dry-run, apply, or undo).
func (r *Recorder) ImportEvent(eventType EventType, runID string, success bool, fields map[string]any) {
	if !r.enabled {
		return
	}
	r.imports.Append(Event{
		Timestamp: time.Now(),
		EventType: eventType,
		RunID:     runID,
		Success:   success,
		Fields:    fields,
	})
}

// RecordError records a failed operation in the telemetry stream.
func (r *Recorder) RecordError(op string, err error) {
	if !r.enabled || err == nil {
		return
	}
	r.telemetry.Append(Event{
		Timestamp: time.Now(),
		EventType: EventError,
		Operation: op,
		Success:   false,
		Error:     err.Error(),
	})
}
