package runner

import (
	"context"
	"fmt"

	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/proc"
)

// DefaultAgentBinary is the coding-agent CLI invoked for generations.
const DefaultAgentBinary = "claude"

// AgentRequest is one generation request.
type AgentRequest struct {
	Dir    string
	Prompt string
	// Rules, when non-empty, is appended to the agent's system prompt.
	Rules string
}

// AgentHandle controls a running generation.
type AgentHandle interface {
	Cancel()
}

// Agent streams generations from the coding-agent CLI. Start returns once
// the generation is launched; tokens and completion arrive on callbacks.
type Agent interface {
	// Start begins a generation. onToken receives output chunks in order,
	// onDone runs exactly once after the final token. A cancelled
	// generation completes with a CanceledError.
	Start(ctx context.Context, req AgentRequest, onToken func(string), onDone func(error)) (AgentHandle, error)
}

// CLIAgent shells out to the agent binary in print mode, feeding the prompt
// on stdin and streaming stdout lines back as tokens.
type CLIAgent struct {
	Binary string
	Logger *logging.Logger
}

func (a *CLIAgent) Start(ctx context.Context, req AgentRequest, onToken func(string), onDone func(error)) (AgentHandle, error) {
	bin := a.Binary
	if bin == "" {
		bin = DefaultAgentBinary
	}
	logger := a.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	args := []string{"--print"}
	if req.Rules != "" {
		args = append(args, "--append-system-prompt", req.Rules)
	}
	spec := proc.Spec{
		Command: bin,
		Args:    args,
		Dir:     req.Dir,
		Stdin:   req.Prompt,
	}
	h, err := proc.Spawn(ctx, spec, logger, func(ln proc.Line) {
		if ln.Stream == proc.Stdout {
			onToken(ln.Text + "\n")
			return
		}
		logger.Debug("agent stderr", "line", ln.Text)
	}, func(res proc.Result) {
		switch {
		case res.Canceled:
			onDone(errors.NewCanceledError("agent generation"))
		case res.Err != nil:
			onDone(res.Err)
		case res.ExitCode != 0:
			onDone(errors.NewResourceError(errors.CodeSpawnFailed,
				fmt.Sprintf("agent exited with status %d", res.ExitCode), nil).
				WithCommand(bin))
		default:
			onDone(nil)
		}
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}
