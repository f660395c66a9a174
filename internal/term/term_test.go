package term

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSpawnEchoAndClose(t *testing.T) {
	m := NewManager(nil)
	defer m.CloseAll()

	var mu sync.Mutex
	var output strings.Builder
	exited := make(chan struct{})

	s, err := m.Spawn(t.TempDir(), 80, 24,
		func(data []byte) {
			mu.Lock()
			output.Write(data)
			mu.Unlock()
		},
		func() { close(exited) })
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if s.ID == "" {
		t.Fatal("session has no id")
	}
	if m.Count() != 1 {
		t.Fatalf("count = %d, want 1", m.Count())
	}

	if err := m.Write(s.ID, []byte("echo term-roundtrip\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		got := output.String()
		mu.Unlock()
		if strings.Contains(got, "term-roundtrip") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("echo never arrived, output = %q", got)
		}
		time.Sleep(10 * time.Millisecond)
	}

	m.Close(s.ID)
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("exit callback never fired")
	}
	if m.Count() != 0 {
		t.Errorf("count after close = %d, want 0", m.Count())
	}
}

func TestResizeAndUnknownSession(t *testing.T) {
	m := NewManager(nil)
	defer m.CloseAll()

	s, err := m.Spawn(t.TempDir(), 80, 24, nil, nil)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if err := m.Resize(s.ID, 120, 40); err != nil {
		t.Errorf("Resize() error = %v", err)
	}
	if err := m.Resize("no-such-session", 1, 1); err == nil {
		t.Error("resize of unknown session should fail")
	}
	if err := m.Write("no-such-session", []byte("x")); err == nil {
		t.Error("write to unknown session should fail")
	}
	// Closing twice and closing unknown ids is fine.
	m.Close(s.ID)
	m.Close(s.ID)
	m.Close("no-such-session")
}
