// Package justfile discovers task-runner recipes for a worktree. Discovery
// shells out to the `just` binary and parses its --list output; the parser
// is pure so the format handling stays testable without the binary.
package justfile

import (
	"context"
	"strings"

	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/proc"
	"github.com/calmren/atelier/internal/state"
)

// Loader lists the recipes available in a directory. The store wires the
// default implementation; tests substitute a fake.
type Loader interface {
	Load(ctx context.Context, dir string) ([]state.JustCommand, error)
}

// CommandLoader shells out to `just --list`.
type CommandLoader struct {
	// Binary overrides the executable name, mainly for tests.
	Binary string
	Logger *logging.Logger
}

func (l *CommandLoader) Load(ctx context.Context, dir string) ([]state.JustCommand, error) {
	binary := l.Binary
	if binary == "" {
		binary = "just"
	}
	out, res, err := proc.Run(ctx, proc.Spec{
		Command: binary,
		Args:    []string{"--list", "--unsorted"},
		Dir:     dir,
	}, l.Logger)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		// just prints the reason on stderr, which Run folds into out.
		return nil, errors.NewResourceError(errors.CodeSpawnFailed,
			"list recipes", nil).WithCommand(binary).WithOutput(strings.TrimSpace(out))
	}
	return ParseList(out), nil
}

// ParseList parses `just --list` output. The format is a header line
// followed by one indented line per recipe:
//
//	Available recipes:
//	    build            # compile everything
//	    test filter=''   # run the test suite
//	    deploy
//
// Recipe parameters are dropped; the comment after '#' becomes the
// description. Group header lines ("[group]") and blanks are skipped.
func ParseList(out string) []state.JustCommand {
	commands := []state.JustCommand{}
	for _, raw := range strings.Split(out, "\n") {
		if raw == "" || !strings.HasPrefix(raw, " ") {
			continue // header or group text, never a recipe
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "[") || strings.HasPrefix(line, "#") {
			continue
		}

		var description string
		if idx := strings.Index(line, "#"); idx >= 0 {
			description = strings.TrimSpace(line[idx+1:])
			line = strings.TrimSpace(line[:idx])
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		// Aliases render as "alias-name alias for real-name"; keep both
		// visible but strip nothing else.
		commands = append(commands, state.JustCommand{
			Name:        name,
			Description: description,
		})
	}
	return commands
}
