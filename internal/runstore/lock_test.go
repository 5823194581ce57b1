package runstore

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireBacklogLock_BlocksConcurrentAcquire(t *testing.T) {
	backlog := filepath.Join(t.TempDir(), "fox.txt")

	lock, err := AcquireBacklogLock(backlog, "run-1")
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}
	defer func() {
		_ = lock.Release()
	}()

	_, err = AcquireBacklogLock(backlog, "run-2")
	if err == nil {
		t.Fatalf("expected second acquire to fail")
	}
	if !strings.Contains(err.Error(), "run_id=run-1") {
		t.Fatalf("expected owner details in lock error, got %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("release lock: %v", err)
	}

	lock2, err := AcquireBacklogLock(backlog, "run-3")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := lock2.Release(); err != nil {
		t.Fatalf("release second lock: %v", err)
	}
}

func TestLockDirFor(t *testing.T) {
	got := LockDirFor(filepath.Join("prompts", "story.csv"))
	want := filepath.Join("prompts", ".story.csv.lock")
	if got != want {
		t.Fatalf("lock dir mismatch: got %q want %q", got, want)
	}
}

func TestRunLockRelease_ZeroValueIsNoop(t *testing.T) {
	if err := (RunLock{}).Release(); err != nil {
		t.Fatalf("zero lock release: %v", err)
	}
}
