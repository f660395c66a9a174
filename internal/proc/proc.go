// Package proc is the bridge to external processes: task-runner recipes,
// agent CLI generations, git and docker invocations all go through Spawn.
//
// Delivery guarantees, which the dispatcher depends on:
//   - output lines arrive through a single callback goroutine, in order
//     within each stream;
//   - the done callback fires exactly once, after the last output line;
//   - Cancel is idempotent and always resolves to a canceled result, even
//     when it races normal exit.
package proc

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
)

// Spec describes one process to run.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	// Env entries are appended to the parent environment.
	Env []string
	// Stdin, when non-empty, is written to the process and closed.
	Stdin string
}

// Stream identifies which pipe a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Line is one output line from a running process.
type Line struct {
	Stream Stream
	Text   string
}

// Result is the terminal outcome of a process.
type Result struct {
	ExitCode int
	Canceled bool
	// Err is set when the process could not run or was torn down abnormally.
	// A non-zero exit with a clean run leaves Err nil.
	Err error
}

// killGrace is how long Cancel waits after SIGTERM before SIGKILL.
const killGrace = 5 * time.Second

// Handle controls a spawned process.
type Handle struct {
	logger *logging.Logger

	cmd  *exec.Cmd
	done chan struct{}

	cancelOnce sync.Once
	canceled   chan struct{}
}

// Spawn starts spec and streams its output. onLine runs on a dedicated
// goroutine; onDone runs on the same goroutine after the final line. Both
// may be nil. The ctx only gates startup; use Cancel to stop a running
// process.
func Spawn(ctx context.Context, spec Spec, logger *logging.Logger, onLine func(Line), onDone func(Result)) (*Handle, error) {
	if spec.Command == "" {
		return nil, errors.NewValidationError("command is required").WithField("command")
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceledError("spawn " + spec.Command)
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	// Own process group so Cancel reaches children spawned by shells.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if spec.Stdin != "" {
		cmd.Stdin = strings.NewReader(spec.Stdin)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.NewResourceError(errors.CodeSpawnFailed, "open stdout pipe", err).WithCommand(spec.Command)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.NewResourceError(errors.CodeSpawnFailed, "open stderr pipe", err).WithCommand(spec.Command)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.NewResourceError(errors.CodeSpawnFailed, "spawn process", err).WithCommand(spec.Command)
	}

	h := &Handle{
		logger:   logger.WithComponent("proc"),
		cmd:      cmd,
		done:     make(chan struct{}),
		canceled: make(chan struct{}),
	}

	lines := make(chan Line, 64)
	var readers sync.WaitGroup
	readers.Add(2)
	go h.readStream(&readers, Stdout, stdout, lines)
	go h.readStream(&readers, Stderr, stderr, lines)
	go func() {
		readers.Wait()
		close(lines)
	}()

	go h.finish(spec, lines, onLine, onDone)
	return h, nil
}

// Cancel requests termination. Safe to call multiple times and after exit.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() {
		close(h.canceled)
		pid := h.cmd.Process.Pid
		// Negative pid signals the whole group.
		if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
			h.logger.Debug("sigterm failed", "pid", pid, "error", err)
		}
		go func() {
			select {
			case <-h.done:
			case <-time.After(killGrace):
				if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
					h.logger.Debug("sigkill failed", "pid", pid, "error", err)
				}
			}
		}()
	})
}

// Done is closed once the done callback has run.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) readStream(wg *sync.WaitGroup, stream Stream, r interface{ Read([]byte) (int, error) }, out chan<- Line) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		out <- Line{Stream: stream, Text: scanner.Text()}
	}
}

// finish drains output, waits for exit, and reports the single result.
func (h *Handle) finish(spec Spec, lines <-chan Line, onLine func(Line), onDone func(Result)) {
	for line := range lines {
		if onLine != nil {
			onLine(line)
		}
	}
	err := h.cmd.Wait()

	res := Result{}
	select {
	case <-h.canceled:
		res.Canceled = true
	default:
	}

	if err != nil && !res.Canceled {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.Err = errors.NewResourceError(errors.CodeSpawnFailed, "process wait", err).WithCommand(spec.Command)
		}
	}
	if res.Canceled {
		res.ExitCode = -1
	}

	if onDone != nil {
		onDone(res)
	}
	close(h.done)
}

// Run spawns spec, collects all output, and blocks until exit or ctx
// cancellation. Convenience wrapper for short one-shot commands.
func Run(ctx context.Context, spec Spec, logger *logging.Logger) (string, Result, error) {
	var b strings.Builder
	var mu sync.Mutex
	resCh := make(chan Result, 1)
	h, err := Spawn(ctx, spec, logger,
		func(line Line) {
			mu.Lock()
			b.WriteString(line.Text)
			b.WriteByte('\n')
			mu.Unlock()
		},
		func(res Result) { resCh <- res })
	if err != nil {
		return "", Result{}, err
	}

	select {
	case res := <-resCh:
		mu.Lock()
		defer mu.Unlock()
		return b.String(), res, nil
	case <-ctx.Done():
		h.Cancel()
		res := <-resCh
		mu.Lock()
		defer mu.Unlock()
		return b.String(), res, errors.NewCanceledError("run " + spec.Command)
	}
}
