package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/calmren/atelier/internal/action"
)

type recorder struct {
	mu   sync.Mutex
	refs []action.WorktreeRef
}

func (r *recorder) notify(ref action.WorktreeRef) {
	r.mu.Lock()
	r.refs = append(r.refs, ref)
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refs)
}

func waitForCount(t *testing.T, r *recorder, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if r.count() >= want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("notifications = %d, want at least %d", r.count(), want)
}

func TestFileChangeNotifies(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(nil, rec.notify)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ref := action.WorktreeRef{ProjectID: "p1", WorktreeID: "w1"}
	if err := w.Add(ref, dir); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForCount(t, rec, 1)

	rec.mu.Lock()
	got := rec.refs[0]
	rec.mu.Unlock()
	if got != ref {
		t.Errorf("ref = %+v, want %+v", got, ref)
	}
}

func TestBurstDebouncesToOne(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(nil, rec.notify)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ref := action.WorktreeRef{ProjectID: "p1", WorktreeID: "w1"}
	if err := w.Add(ref, dir); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		name := filepath.Join(dir, "file"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	waitForCount(t, rec, 1)

	// The burst happened inside one debounce window.
	time.Sleep(2 * debounce)
	if got := rec.count(); got > 2 {
		t.Errorf("notifications = %d, want coalesced", got)
	}
}

func TestRemoveStopsNotifications(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(nil, rec.notify)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ref := action.WorktreeRef{ProjectID: "p1", WorktreeID: "w1"}
	if err := w.Add(ref, dir); err != nil {
		t.Fatal(err)
	}
	w.Remove(ref.WorktreeID)

	if err := os.WriteFile(filepath.Join(dir, "late.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * debounce)
	if rec.count() != 0 {
		t.Errorf("notifications after remove = %d, want 0", rec.count())
	}
}
