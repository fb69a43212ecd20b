package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func readEvents(t *testing.T, path string) []Event {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("parse log line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestOperationStartEnd(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(true,
		filepath.Join(dir, "telemetry.log"),
		filepath.Join(dir, "activity.log"),
		filepath.Join(dir, "import.log"),
	)
	defer r.Close()

	done := r.OperationStart("dry_run", map[string]any{"file": "products.xlsx"})
	done(nil)

	done = r.OperationStart("apply", nil)
	done(errors.New("boom"))

	events := readEvents(t, filepath.Join(dir, "telemetry.log"))
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].EventType != EventOperationStart || events[1].EventType != EventOperationEnd {
		t.Fatalf("unexpected event order: %s, %s", events[0].EventType, events[1].EventType)
	}
	if events[0].RunID == "" || events[0].RunID != events[1].RunID {
		t.Fatal("start and end must share a run_id")
	}
	if events[3].Success || events[3].Error != "boom" {
		t.Fatalf("failed op must record the error, got %+v", events[3])
	}
}

func TestStreamsAreSeparate(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(true,
		filepath.Join(dir, "telemetry.log"),
		filepath.Join(dir, "activity.log"),
		filepath.Join(dir, "import.log"),
	)
	defer r.Close()

	r.Activity("project_created", map[string]any{"name": "shop"})
	r.ImportEvent(EventImportApply, "run-1", true, map[string]any{"rows": 3})

	activity := readEvents(t, filepath.Join(dir, "activity.log"))
	imports := readEvents(t, filepath.Join(dir, "import.log"))
	if len(activity) != 1 || activity[0].Operation != "project_created" {
		t.Fatalf("unexpected activity stream: %+v", activity)
	}
	if len(imports) != 1 || imports[0].EventType != EventImportApply || imports[0].RunID != "run-1" {
		t.Fatalf("unexpected import stream: %+v", imports)
	}
	if _, err := os.Stat(filepath.Join(dir, "telemetry.log")); !os.IsNotExist(err) {
		t.Fatal("telemetry stream must not be created without telemetry events")
	}
}

func TestDisabledRecorderWritesNothing(t *testing.T) {
	dir := t.TempDir()
	r := Disabled()

	done := r.OperationStart("dry_run", nil)
	done(nil)
	r.Activity("noop", nil)
	r.ImportEvent(EventImportDryRun, "run-x", true, nil)
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("disabled recorder must not create files, found %d", len(entries))
	}
}

func TestAppendConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	a := NewAppender(path)
	defer a.Close()

	doneCh := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { doneCh <- struct{}{} }()
			for j := 0; j < 25; j++ {
				if err := a.Append(Event{EventType: EventActivity, Success: true}); err != nil {
					t.Errorf("append: %v", err)
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-doneCh
	}

	events := readEvents(t, path)
	if len(events) != 200 {
		t.Fatalf("expected 200 intact lines, got %d", len(events))
	}
}
