package proc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/calmren/atelier/internal/errors"
)

func collect(t *testing.T, spec Spec) ([]Line, Result) {
	t.Helper()
	var mu sync.Mutex
	var lines []Line
	resCh := make(chan Result, 1)

	h, err := Spawn(context.Background(), spec, nil,
		func(line Line) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
		},
		func(res Result) { resCh <- res })
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	select {
	case res := <-resCh:
		<-h.Done()
		mu.Lock()
		defer mu.Unlock()
		return lines, res
	case <-time.After(10 * time.Second):
		t.Fatal("process did not finish")
	}
	return nil, Result{}
}

func TestSpawnStreamsOrderedOutput(t *testing.T) {
	lines, res := collect(t, Spec{
		Command: "sh",
		Args:    []string{"-c", "echo one; echo two; echo three"},
	})
	if res.ExitCode != 0 || res.Err != nil || res.Canceled {
		t.Fatalf("result = %+v", res)
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %+v", lines)
	}
	for i, want := range []string{"one", "two", "three"} {
		if lines[i].Text != want || lines[i].Stream != Stdout {
			t.Errorf("line %d = %+v, want %q on stdout", i, lines[i], want)
		}
	}
}

func TestSpawnSeparatesStderr(t *testing.T) {
	lines, res := collect(t, Spec{
		Command: "sh",
		Args:    []string{"-c", "echo out; echo err 1>&2"},
	})
	if res.ExitCode != 0 {
		t.Fatalf("result = %+v", res)
	}
	streams := map[Stream]string{}
	for _, line := range lines {
		streams[line.Stream] = line.Text
	}
	if streams[Stdout] != "out" || streams[Stderr] != "err" {
		t.Errorf("streams = %+v", streams)
	}
}

func TestNonZeroExitIsNotAnError(t *testing.T) {
	_, res := collect(t, Spec{Command: "sh", Args: []string{"-c", "exit 3"}})
	if res.ExitCode != 3 || res.Err != nil || res.Canceled {
		t.Errorf("result = %+v", res)
	}
}

func TestSpawnFailure(t *testing.T) {
	_, err := Spawn(context.Background(), Spec{Command: "/nonexistent/binary"}, nil, nil, nil)
	if errors.CodeOf(err) != errors.CodeSpawnFailed {
		t.Fatalf("code = %v, want SPAWN_FAILED", errors.CodeOf(err))
	}
}

func TestStdinDelivered(t *testing.T) {
	lines, res := collect(t, Spec{
		Command: "sh",
		Args:    []string{"-c", "cat"},
		Stdin:   "piped\n",
	})
	if res.ExitCode != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(lines) != 1 || lines[0].Text != "piped" {
		t.Errorf("lines = %+v", lines)
	}
}

func TestCancelResolvesExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	doneCount := 0
	resCh := make(chan Result, 2)

	h, err := Spawn(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "sleep 30"},
	}, nil, nil, func(res Result) {
		mu.Lock()
		doneCount++
		mu.Unlock()
		resCh <- res
	})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	h.Cancel()
	h.Cancel()

	select {
	case res := <-resCh:
		if !res.Canceled {
			t.Errorf("result = %+v, want canceled", res)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("cancel did not resolve")
	}
	<-h.Done()

	mu.Lock()
	defer mu.Unlock()
	if doneCount != 1 {
		t.Errorf("done callbacks = %d, want 1", doneCount)
	}
}

func TestCancelAfterExitIsNoop(t *testing.T) {
	resCh := make(chan Result, 1)
	h, err := Spawn(context.Background(), Spec{Command: "true"}, nil, nil,
		func(res Result) { resCh <- res })
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	<-h.Done()
	h.Cancel()

	res := <-resCh
	if res.ExitCode != 0 || res.Canceled {
		t.Errorf("result = %+v", res)
	}
}

func TestRun(t *testing.T) {
	out, res, err := Run(context.Background(), Spec{
		Command: "sh",
		Args:    []string{"-c", "echo hello"},
	}, nil)
	if err != nil || res.ExitCode != 0 {
		t.Fatalf("Run() = %v, %+v", err, res)
	}
	if out != "hello\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunRespectsDir(t *testing.T) {
	dir := t.TempDir()
	out, res, err := Run(context.Background(), Spec{Command: "pwd", Dir: dir}, nil)
	if err != nil || res.ExitCode != 0 {
		t.Fatalf("Run() = %v, %+v", err, res)
	}
	if got := out; got != dir+"\n" {
		// macOS tempdirs resolve through /private; accept a suffix match.
		if len(got) < len(dir) || got[len(got)-len(dir)-1:] != dir+"\n" {
			t.Errorf("pwd = %q, want %q", got, dir)
		}
	}
}
