package ipc

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/store"
)

func testRef() action.WorktreeRef {
	return action.WorktreeRef{ProjectID: "p1", WorktreeID: "wt1"}
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// frame is the union of response and push shapes, for decoding either.
type frame struct {
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Seq     uint64          `json:"seq"`
	Event   string          `json:"event"`
	State   json.RawMessage `json:"state"`
	Content string          `json:"content"`
	Error   *WireError      `json:"error"`
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	sc   *bufio.Scanner
	enc  *json.Encoder
}

func startServer(t *testing.T) (*Server, *store.Store, string) {
	t.Helper()
	st := store.New(store.Options{})
	path := filepath.Join(t.TempDir(), "atelier.sock")
	srv, err := Listen(path, st, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		_ = srv.Serve()
	}()
	t.Cleanup(func() {
		srv.Close()
		<-serveDone
		st.Close()
	})
	return srv, st, path
}

func dial(t *testing.T, path string) *testClient {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &testClient{t: t, conn: conn, sc: sc, enc: json.NewEncoder(conn)}
}

func (c *testClient) send(req any) {
	c.t.Helper()
	if err := c.enc.Encode(req); err != nil {
		c.t.Fatalf("send: %v", err)
	}
}

func (c *testClient) sendRaw(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		c.t.Fatalf("sendRaw: %v", err)
	}
}

func (c *testClient) recv() frame {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if !c.sc.Scan() {
		c.t.Fatalf("recv: %v", c.sc.Err())
	}
	var f frame
	if err := json.Unmarshal(c.sc.Bytes(), &f); err != nil {
		c.t.Fatalf("decode frame %q: %v", c.sc.Text(), err)
	}
	return f
}

func dispatchReq(id, actionType, payload string) string {
	return `{"id":"` + id + `","method":"dispatch","action":{"type":"` + actionType + `","payload":` + payload + `}}`
}

func TestGetState(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	c.send(Request{ID: "1", Method: "getState"})
	f := c.recv()
	if !f.OK || f.ID != "1" || len(f.State) == 0 {
		t.Fatalf("frame = %+v", f)
	}
}

func TestDispatchCommitsAndBumpsSeq(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	c.sendRaw(dispatchReq("1", "OpenProject", `{"path":"/work/demo"}`))
	f := c.recv()
	if !f.OK || f.Seq == 0 {
		t.Fatalf("frame = %+v", f)
	}

	c.send(Request{ID: "2", Method: "getState"})
	f = c.recv()
	var st struct {
		Projects []struct {
			Path string `json:"path"`
		} `json:"projects"`
	}
	if err := json.Unmarshal(f.State, &st); err != nil {
		t.Fatal(err)
	}
	if len(st.Projects) != 1 || st.Projects[0].Path != "/work/demo" {
		t.Fatalf("projects = %+v", st.Projects)
	}
}

func TestDispatchRejectionMapsInvariant(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	c.sendRaw(dispatchReq("1", "SwitchProject", `{"index":5}`))
	f := c.recv()
	if f.OK || f.Error == nil {
		t.Fatalf("frame = %+v", f)
	}
	if f.Error.Kind != "invariant" || f.Error.Code != errors.CodeIndexOutOfRange {
		t.Fatalf("error = %+v", f.Error)
	}
}

func TestDispatchUnknownActionMapsValidation(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	c.sendRaw(dispatchReq("1", "Nope", `{}`))
	f := c.recv()
	if f.OK || f.Error == nil || f.Error.Kind != "validation" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestMalformedFrameGetsErrorResponse(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	c.sendRaw("this is not json")
	f := c.recv()
	if f.OK || f.Error == nil || f.Error.Code != errors.CodeInvalidPayload {
		t.Fatalf("frame = %+v", f)
	}
}

func TestSubscribePushesCommits(t *testing.T) {
	_, _, path := startServer(t)
	sub := dial(t, path)
	sub.send(Request{ID: "1", Method: "subscribe"})
	if f := sub.recv(); !f.OK {
		t.Fatalf("subscribe = %+v", f)
	}
	// Initial snapshot arrives first.
	if f := sub.recv(); f.Event != "state" {
		t.Fatalf("first push = %+v", f)
	}

	other := dial(t, path)
	other.sendRaw(dispatchReq("2", "OpenProject", `{"path":"/work/demo"}`))
	if f := other.recv(); !f.OK {
		t.Fatalf("dispatch = %+v", f)
	}

	f := sub.recv()
	if f.Event != "state" || f.Seq == 0 {
		t.Fatalf("push = %+v", f)
	}
	var st struct {
		Projects []json.RawMessage `json:"projects"`
	}
	if err := json.Unmarshal(f.State, &st); err != nil {
		t.Fatal(err)
	}
	if len(st.Projects) != 1 {
		t.Fatalf("pushed state has %d projects", len(st.Projects))
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	c.send(Request{ID: "1", Method: "unsubscribe"})
	if f := c.recv(); !f.OK {
		t.Fatalf("unsubscribe without subscription = %+v", f)
	}

	c.send(Request{ID: "2", Method: "subscribe"})
	if f := c.recv(); !f.OK {
		t.Fatalf("subscribe = %+v", f)
	}
	if f := c.recv(); f.Event != "state" {
		t.Fatalf("initial push = %+v", f)
	}
	c.send(Request{ID: "3", Method: "unsubscribe"})
	if f := c.recv(); !f.OK {
		t.Fatalf("unsubscribe = %+v", f)
	}
	c.send(Request{ID: "4", Method: "unsubscribe"})
	if f := c.recv(); !f.OK {
		t.Fatalf("second unsubscribe = %+v", f)
	}
}

func TestUnknownMethod(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	c.send(Request{ID: "1", Method: "explode"})
	f := c.recv()
	if f.OK || f.Error == nil || f.Error.Kind != "validation" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestReadFileInsideScope(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)

	scope := t.TempDir()
	if err := os.WriteFile(filepath.Join(scope, "notes.md"), []byte("# notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c.send(Request{ID: "1", Method: "readFile", Scope: scope, Path: "notes.md"})
	f := c.recv()
	if !f.OK || f.Content != "# notes\n" {
		t.Fatalf("frame = %+v", f)
	}
}

func TestReadFileErrorCodes(t *testing.T) {
	_, _, path := startServer(t)
	c := dial(t, path)
	scope := t.TempDir()

	c.send(Request{ID: "1", Method: "readFile", Scope: scope, Path: "missing.md"})
	f := c.recv()
	if f.OK || f.Error == nil || f.Error.Code != errors.CodeFileNotFound {
		t.Fatalf("missing file frame = %+v", f)
	}
	if f.Error.Kind != "resource" {
		t.Errorf("kind = %q, want resource", f.Error.Kind)
	}

	c.send(Request{ID: "2", Method: "readFile", Scope: scope, Path: "../escape.md"})
	f = c.recv()
	if f.OK || f.Error == nil || f.Error.Code != errors.CodeSecurityViolation {
		t.Fatalf("escape frame = %+v", f)
	}

	c.send(Request{ID: "3", Method: "readFile"})
	f = c.recv()
	if f.OK || f.Error == nil || f.Error.Code != errors.CodeInvalidPayload {
		t.Fatalf("bare frame = %+v", f)
	}
}

func TestPushTerminalReachesSubscribers(t *testing.T) {
	srv, _, path := startServer(t)
	sub := dial(t, path)
	sub.send(Request{ID: "1", Method: "subscribe"})
	sub.recv() // response
	sub.recv() // initial snapshot

	srv.PushTerminal(testRef(), "sess-1", []byte("$ ls\n"))

	f := sub.recv()
	if f.Event != "terminal" {
		t.Fatalf("push = %+v", f)
	}
}

func TestServerCloseDropsConnections(t *testing.T) {
	srv, _, path := startServer(t)
	c := dial(t, path)
	c.send(Request{ID: "1", Method: "subscribe"})
	c.recv()
	c.recv()

	srv.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for c.sc.Scan() {
	}
	// Scanner stops once the server side hangs up.
}
