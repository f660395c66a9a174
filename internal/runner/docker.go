package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
	"github.com/calmren/atelier/internal/proc"
	"github.com/calmren/atelier/internal/state"
)

// ComposeCLI shells to the docker binary for daemon probes and compose
// service lifecycle.
type ComposeCLI struct {
	Binary string
	Logger *logging.Logger
	// DefaultTail is the log line count used when a request does not name
	// one. Zero falls back to 100.
	DefaultTail int
}

func (c *ComposeCLI) binary() string {
	if c.Binary == "" {
		return "docker"
	}
	return c.Binary
}

// Available probes the daemon. A false result carries the probe output.
func (c *ComposeCLI) Available(ctx context.Context) (bool, string) {
	out, res, err := proc.Run(ctx, proc.Spec{
		Command: c.binary(),
		Args:    []string{"info", "--format", "{{.ServerVersion}}"},
	}, c.Logger)
	if err != nil {
		return false, err.Error()
	}
	if res.ExitCode != 0 {
		return false, strings.TrimSpace(out)
	}
	return true, ""
}

// Services lists compose services in dir. An empty dir yields an empty
// list; compose needs a project directory to resolve its file.
func (c *ComposeCLI) Services(ctx context.Context, dir string) ([]state.DockerService, error) {
	if dir == "" {
		return []state.DockerService{}, nil
	}
	out, res, err := proc.Run(ctx, proc.Spec{
		Command: c.binary(),
		Args:    []string{"compose", "ps", "--all", "--format", "json"},
		Dir:     dir,
	}, c.Logger)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, errors.NewResourceError(errors.CodeSpawnFailed, "compose ps failed", nil).
			WithCommand(c.binary() + " compose ps").
			WithOutput(strings.TrimSpace(out))
	}
	return ParseComposePS(out), nil
}

// ServiceOp runs one lifecycle op ("start", "stop", "restart") against a
// service. An override port is exported as HOST_PORT for compose files
// that parameterize their published port.
func (c *ComposeCLI) ServiceOp(ctx context.Context, dir, service, op string, portOverride int) (string, error) {
	var args []string
	switch op {
	case "start":
		args = []string{"compose", "up", "-d", service}
	case "stop":
		args = []string{"compose", "stop", service}
	case "restart":
		args = []string{"compose", "restart", service}
	default:
		return "", errors.NewValidationError("unknown docker op " + op)
	}
	spec := proc.Spec{Command: c.binary(), Args: args, Dir: dir}
	if portOverride > 0 {
		spec.Env = []string{fmt.Sprintf("HOST_PORT=%d", portOverride)}
	}
	out, res, err := proc.Run(ctx, spec, c.Logger)
	if err != nil {
		return out, err
	}
	if res.ExitCode != 0 {
		return out, errors.NewResourceError(errors.CodeSpawnFailed,
			fmt.Sprintf("compose %s %s failed", op, service), nil).
			WithCommand(c.binary() + " " + strings.Join(args, " ")).
			WithOutput(strings.TrimSpace(out))
	}
	return out, nil
}

// Logs tails a service's logs.
func (c *ComposeCLI) Logs(ctx context.Context, dir, service string, tail int) ([]string, error) {
	if tail <= 0 {
		tail = c.DefaultTail
	}
	if tail <= 0 {
		tail = 100
	}
	out, res, err := proc.Run(ctx, proc.Spec{
		Command: c.binary(),
		Args:    []string{"compose", "logs", "--no-color", "--tail", strconv.Itoa(tail), service},
		Dir:     dir,
	}, c.Logger)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, errors.NewResourceError(errors.CodeSpawnFailed, "compose logs failed", nil).
			WithCommand(c.binary() + " compose logs").
			WithOutput(strings.TrimSpace(out))
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = []string{}
	}
	return lines, nil
}

// composeService is the JSON shape emitted per line by compose ps.
type composeService struct {
	Service    string `json:"Service"`
	Image      string `json:"Image"`
	State      string `json:"State"`
	Publishers []struct {
		TargetPort    int    `json:"TargetPort"`
		PublishedPort int    `json:"PublishedPort"`
		Protocol      string `json:"Protocol"`
	} `json:"Publishers"`
}

// ParseComposePS parses `compose ps --format json` output, one JSON object
// per line. Unparseable lines are skipped.
func ParseComposePS(out string) []state.DockerService {
	services := []state.DockerService{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}
		var cs composeService
		if err := json.Unmarshal([]byte(line), &cs); err != nil {
			continue
		}
		svc := state.DockerService{
			Name:   cs.Service,
			Image:  cs.Image,
			Status: composeStatus(cs.State),
		}
		for _, p := range cs.Publishers {
			if p.PublishedPort == 0 {
				continue
			}
			svc.Ports = append(svc.Ports, state.PortMapping{
				Host:      p.PublishedPort,
				Container: p.TargetPort,
				Protocol:  p.Protocol,
			})
		}
		services = append(services, svc)
	}
	return services
}

func composeStatus(s string) state.ServiceStatus {
	switch strings.ToLower(s) {
	case "running":
		return state.ServiceRunning
	case "restarting", "created":
		return state.ServiceStarting
	case "removing":
		return state.ServiceStopping
	case "dead":
		return state.ServiceError
	default:
		return state.ServiceStopped
	}
}

var conflictPortRe = regexp.MustCompile(`[0-9.]+:(\d+)`)

// ParsePortConflict inspects a failed compose start for the
// port-already-taken failure mode and extracts the contested host port.
func ParsePortConflict(output string) (int, bool) {
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "port is already allocated") &&
			!strings.Contains(lower, "address already in use") {
			continue
		}
		if m := conflictPortRe.FindStringSubmatch(line); m != nil {
			port, err := strconv.Atoi(m[1])
			if err == nil {
				return port, true
			}
		}
	}
	return 0, false
}
