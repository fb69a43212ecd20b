package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcherFiresOnChange(t *testing.T) {
	dir := t.TempDir()
	var fired atomic.Int32

	w, err := New([]string{dir}, 50*time.Millisecond, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return fired.Load() >= 1 })
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	var fired atomic.Int32

	w, err := New([]string{dir}, 150*time.Millisecond, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte{byte(i)}, 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool { return fired.Load() >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("burst must collapse to one rebuild, got %d", n)
	}
}

func TestWatcherCloseStopsCallbacks(t *testing.T) {
	dir := t.TempDir()
	var fired atomic.Int32

	w, err := New([]string{dir}, 50*time.Millisecond, func() { fired.Add(1) })
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("no callback may fire after Close")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	if _, err := New([]string{filepath.Join(t.TempDir(), "absent")}, 0, func() {}); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestWatcherRequiresInput(t *testing.T) {
	if _, err := New(nil, 0, func() {}); err == nil {
		t.Fatal("expected error for empty directory list")
	}
	if _, err := New([]string{t.TempDir()}, 0, nil); err == nil {
		t.Fatal("expected error for nil callback")
	}
}
