// Package internal contains integration tests that verify the daemon's
// layers work together: the store commits dispatches, the persister
// survives a restart, and the IPC server bridges both to a client.
package internal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/ipc"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/persist"
	"github.com/calmren/atelier/internal/state"
	"github.com/calmren/atelier/internal/store"
)

// frame is the union of response and push shapes read off the socket.
type frame struct {
	ID    string          `json:"id"`
	OK    bool            `json:"ok"`
	Seq   uint64          `json:"seq"`
	State *state.AppState `json:"state"`
	Error *ipc.WireError  `json:"error"`
	Event string          `json:"event"`
}

type wireClient struct {
	conn net.Conn
	sc   *bufio.Scanner
	enc  *json.Encoder
}

func dialSocket(t *testing.T, path string) *wireClient {
	t.Helper()
	var conn net.Conn
	var err error
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err = net.Dial("unix", path)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial %s: %v", path, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Cleanup(func() { _ = conn.Close() })
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), 8<<20)
	return &wireClient{conn: conn, sc: sc, enc: json.NewEncoder(conn)}
}

func (c *wireClient) send(t *testing.T, req ipc.Request) {
	t.Helper()
	if err := c.enc.Encode(req); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func (c *wireClient) recv(t *testing.T) frame {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if !c.sc.Scan() {
		t.Fatalf("recv: %v", c.sc.Err())
	}
	var f frame
	if err := json.Unmarshal(c.sc.Bytes(), &f); err != nil {
		t.Fatalf("recv unmarshal: %v", err)
	}
	return f
}

func dispatchFrame(id, typ, payload string) ipc.Request {
	return ipc.Request{
		ID:     id,
		Method: "dispatch",
		Action: &action.Envelope{Type: typ, Payload: json.RawMessage(payload)},
	}
}

// TestDaemonComposition drives the full serve-side stack minus the effect
// runner: a client dispatch crosses the socket, commits in the store,
// lands in a subscription push, and survives a persister restart.
func TestDaemonComposition(t *testing.T) {
	dataDir := t.TempDir()
	logger := logging.NopLogger()

	persister, err := persist.Open(dataDir, 10*time.Millisecond, logger)
	if err != nil {
		t.Fatalf("persist.Open: %v", err)
	}

	st := store.New(store.Options{
		Initial: persister.Load(),
		Logger:  logger,
		OnCommit: func(s *state.AppState, seq uint64) {
			persister.Request(s)
		},
	})

	sock := filepath.Join(t.TempDir(), "atelier.sock")
	srv, err := ipc.Listen(sock, st, logger)
	if err != nil {
		t.Fatalf("ipc.Listen: %v", err)
	}
	go func() { _ = srv.Serve() }()

	c := dialSocket(t, sock)
	c.send(t, ipc.Request{ID: "sub", Method: "subscribe"})
	if f := c.recv(t); !f.OK {
		t.Fatalf("subscribe failed: %+v", f.Error)
	}
	// Initial snapshot push.
	if f := c.recv(t); f.Event != "state" {
		t.Fatalf("expected initial snapshot, got %+v", f)
	}

	projectDir := t.TempDir()
	c.send(t, dispatchFrame("d1", "OpenProject", fmt.Sprintf("{%q: %q}", "path", projectDir)))

	var gotCommit bool
	var pushed *state.AppState
	for i := 0; i < 4; i++ {
		f := c.recv(t)
		switch {
		case f.ID == "d1":
			if !f.OK {
				t.Fatalf("dispatch rejected: %+v", f.Error)
			}
			gotCommit = true
		case f.Event == "state" && f.State != nil && len(f.State.Projects) > 0:
			pushed = f.State
		}
		if gotCommit && pushed != nil {
			break
		}
	}
	if !gotCommit || pushed == nil {
		t.Fatal("missed dispatch response or commit push")
	}
	if pushed.Projects[0].Path != projectDir {
		t.Errorf("pushed project path = %q, want %q", pushed.Projects[0].Path, projectDir)
	}

	c.send(t, ipc.Request{ID: "gs", Method: "getState"})
	for {
		f := c.recv(t)
		if f.ID != "gs" {
			continue
		}
		if f.State == nil || len(f.State.Projects) != 1 {
			t.Fatalf("getState returned %+v", f.State)
		}
		break
	}

	// Shut down and verify the project landed on disk.
	srv.Close()
	st.Close()
	if err := persister.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := persister.Close(); err != nil {
		t.Fatalf("close persister: %v", err)
	}

	reopened, err := persist.Open(dataDir, persist.DefaultDebounce, logger)
	if err != nil {
		t.Fatalf("reopen persister: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	restored := reopened.Load()
	found := false
	for _, r := range restored.RecentProjects {
		if r.Path == projectDir {
			found = true
		}
	}
	if !found {
		t.Errorf("recent projects after restart = %+v, want entry for %q", restored.RecentProjects, projectDir)
	}
}

// TestSecondDaemonRefusesDataDir exercises the single-writer lock across
// package boundaries the way two concurrent serves would hit it.
func TestSecondDaemonRefusesDataDir(t *testing.T) {
	dataDir := t.TempDir()
	logger := logging.NopLogger()

	first, err := persist.Open(dataDir, persist.DefaultDebounce, logger)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	defer func() { _ = first.Close() }()

	if _, err := persist.Open(dataDir, persist.DefaultDebounce, logger); err == nil {
		t.Fatal("second open of a locked data dir should fail")
	}
}
