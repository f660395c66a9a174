package cmd

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/calmren/atelier/internal/ipc"
	"github.com/calmren/atelier/internal/logging"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "state", "dispatch", "logs", "version"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestRootHasConfigFlag(t *testing.T) {
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("root command should have a --config flag")
	}
}

func TestFormatLogEntry(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	e := logging.LogEntry{
		Timestamp:  ts,
		Level:      "INFO",
		Message:    "task finished",
		Component:  "runner",
		WorktreeID: "wt-1",
	}

	got := formatLogEntry(e)
	for _, part := range []string{"2026-03-04 05:06:07.000", "INFO", "task finished", "component=runner", "worktree=wt-1"} {
		if !strings.Contains(got, part) {
			t.Errorf("formatLogEntry() = %q, missing %q", got, part)
		}
	}
}

func TestDispatchRejectsInvalidPayload(t *testing.T) {
	err := runDispatch(dispatchCmd, []string{"OpenProject", "{not json"})
	if err == nil || !strings.Contains(err.Error(), "valid JSON") {
		t.Errorf("expected invalid JSON error, got %v", err)
	}
}

// fakeDaemon accepts one connection and answers every request with a
// canned response.
func fakeDaemon(t *testing.T, respond func(req ipc.Request) ipc.Response) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "d.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		sc := bufio.NewScanner(conn)
		enc := json.NewEncoder(conn)
		for sc.Scan() {
			var req ipc.Request
			if json.Unmarshal(sc.Bytes(), &req) != nil {
				continue
			}
			if enc.Encode(respond(req)) != nil {
				return
			}
		}
	}()
	return path
}

func dialTest(t *testing.T, path string) *client {
	t.Helper()
	conn, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), 8<<20)
	c := &client{conn: conn, sc: sc, enc: json.NewEncoder(conn)}
	t.Cleanup(c.close)
	return c
}

func TestClientRoundTrip(t *testing.T) {
	path := fakeDaemon(t, func(req ipc.Request) ipc.Response {
		return ipc.Response{ID: req.ID, OK: true, Seq: 7}
	})

	c := dialTest(t, path)
	resp, err := c.roundTrip(ipc.Request{ID: "x", Method: "dispatch"})
	if err != nil {
		t.Fatalf("roundTrip() error: %v", err)
	}
	if resp.Seq != 7 {
		t.Errorf("Seq = %d, want 7", resp.Seq)
	}
}

func TestClientRoundTripSkipsPushFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		sc := bufio.NewScanner(conn)
		if !sc.Scan() {
			return
		}
		enc := json.NewEncoder(conn)
		// A push frame has no id; the client must read past it.
		_ = enc.Encode(ipc.Push{Event: "state", Seq: 2})
		_ = enc.Encode(ipc.Response{ID: "y", OK: true, Seq: 2})
	}()

	c := dialTest(t, path)
	resp, err := c.roundTrip(ipc.Request{ID: "y", Method: "getState"})
	if err != nil {
		t.Fatalf("roundTrip() error: %v", err)
	}
	if resp.ID != "y" {
		t.Errorf("ID = %q, want %q", resp.ID, "y")
	}
}

func TestClientRoundTripSurfacesWireError(t *testing.T) {
	path := fakeDaemon(t, func(req ipc.Request) ipc.Response {
		return ipc.Response{ID: req.ID, OK: false, Error: &ipc.WireError{Kind: "validation", Message: "bad payload"}}
	})

	c := dialTest(t, path)
	_, err := c.roundTrip(ipc.Request{ID: "z", Method: "dispatch"})
	if err == nil || !strings.Contains(err.Error(), "bad payload") {
		t.Errorf("expected wire error, got %v", err)
	}
}
