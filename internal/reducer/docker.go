package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

// composeDir returns the directory compose commands run in: the active
// worktree when a project is open, otherwise empty for daemon-level probes.
func composeDir(s *state.AppState) string {
	if wt := s.ActiveWorktree(); wt != nil {
		return wt.Path
	}
	return ""
}

func checkDockerAvailability(s *state.AppState) ([]effect.Effect, error) {
	return []effect.Effect{effect.CheckDocker{}}, nil
}

func setDockerAvailable(s *state.AppState, a *action.SetDockerAvailable) ([]effect.Effect, error) {
	s.Docker.Checked = true
	s.Docker.Available = a.Available
	s.Docker.Error = a.Error
	if !a.Available {
		s.Docker.Services = []state.DockerService{}
		return nil, nil
	}
	return []effect.Effect{effect.ListDockerServices{Dir: composeDir(s)}}, nil
}

func refreshDockerServices(s *state.AppState) ([]effect.Effect, error) {
	if !s.Docker.Available {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"docker daemon is not available")
	}
	return []effect.Effect{effect.ListDockerServices{Dir: composeDir(s)}}, nil
}

func setDockerServices(s *state.AppState, a *action.SetDockerServices) ([]effect.Effect, error) {
	s.Docker.Error = a.Error
	s.Docker.Services = s.Docker.Services[:0]
	s.Docker.Services = append(s.Docker.Services, a.Services...)
	if s.Docker.SelectedService != "" && s.Docker.ServiceByName(s.Docker.SelectedService) == nil {
		s.Docker.SelectedService = ""
		s.Docker.Logs = []string{}
	}
	return nil, nil
}

func startDockerService(s *state.AppState, a *action.StartDockerService) ([]effect.Effect, error) {
	svc, err := dockerService(s, a.Name)
	if err != nil {
		return nil, err
	}
	if svc.Status == state.ServiceRunning || svc.Status == state.ServiceStarting {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"service "+a.Name+" is already "+string(svc.Status)).
			WithEntity("service", a.Name)
	}
	svc.Status = state.ServiceStarting
	return []effect.Effect{effect.DockerServiceOp{
		Dir:          composeDir(s),
		Service:      a.Name,
		Op:           "start",
		PortOverride: s.Docker.PortOverrides[a.Name],
	}}, nil
}

func stopDockerService(s *state.AppState, a *action.StopDockerService) ([]effect.Effect, error) {
	svc, err := dockerService(s, a.Name)
	if err != nil {
		return nil, err
	}
	if svc.Status == state.ServiceStopped || svc.Status == state.ServiceStopping {
		return nil, nil
	}
	svc.Status = state.ServiceStopping
	return []effect.Effect{effect.DockerServiceOp{
		Dir:     composeDir(s),
		Service: a.Name,
		Op:      "stop",
	}}, nil
}

// restartDockerService shows the service as starting for the whole
// stop-then-start cycle.
func restartDockerService(s *state.AppState, a *action.RestartDockerService) ([]effect.Effect, error) {
	svc, err := dockerService(s, a.Name)
	if err != nil {
		return nil, err
	}
	svc.Status = state.ServiceStarting
	return []effect.Effect{effect.DockerServiceOp{
		Dir:          composeDir(s),
		Service:      a.Name,
		Op:           "restart",
		PortOverride: s.Docker.PortOverrides[a.Name],
	}}, nil
}

func setDockerServiceStatus(s *state.AppState, a *action.SetDockerServiceStatus) ([]effect.Effect, error) {
	svc := s.Docker.ServiceByName(a.Name)
	if svc == nil {
		return nil, nil
	}
	svc.Status = a.Status
	if a.Error != "" {
		s.Docker.Error = a.Error
	}
	return nil, nil
}

// selectDockerService focuses a service. The log pane always reflects the
// selected service, so switching clears it before the fetch lands.
func selectDockerService(s *state.AppState, a *action.SelectDockerService) ([]effect.Effect, error) {
	if a.Name == "" {
		s.Docker.SelectedService = ""
		s.Docker.Logs = []string{}
		return nil, nil
	}
	if _, err := dockerService(s, a.Name); err != nil {
		return nil, err
	}
	s.Docker.SelectedService = a.Name
	s.Docker.Logs = []string{}
	return []effect.Effect{effect.FetchDockerLogs{Dir: composeDir(s), Service: a.Name}}, nil
}

func fetchDockerLogs(s *state.AppState, a *action.FetchDockerLogs) ([]effect.Effect, error) {
	if _, err := dockerService(s, a.Name); err != nil {
		return nil, err
	}
	return []effect.Effect{effect.FetchDockerLogs{
		Dir:     composeDir(s),
		Service: a.Name,
		Tail:    a.Tail,
	}}, nil
}

// setDockerLogs delivers fetched logs. Logs for a service that is no longer
// selected are dropped.
func setDockerLogs(s *state.AppState, a *action.SetDockerLogs) ([]effect.Effect, error) {
	if s.Docker.SelectedService != a.Name {
		return nil, nil
	}
	if a.Error != "" {
		s.Docker.Error = a.Error
		return nil, nil
	}
	s.Docker.SetLogs(a.Lines)
	return nil, nil
}

func setDockerPortOverride(s *state.AppState, a *action.SetDockerPortOverride) ([]effect.Effect, error) {
	if a.Port == 0 {
		delete(s.Docker.PortOverrides, a.Name)
		return nil, nil
	}
	s.Docker.PortOverrides[a.Name] = a.Port
	return nil, nil
}

func reportPortConflict(s *state.AppState, a *action.ReportPortConflict, now time.Time) ([]effect.Effect, error) {
	s.Docker.PendingConflict = &state.PortConflict{
		ServiceName: a.Name,
		Port:        a.Port,
		HeldBy:      a.HeldBy,
		DetectedAt:  now,
	}
	if svc := s.Docker.ServiceByName(a.Name); svc != nil {
		svc.Status = state.ServiceError
	}
	return nil, nil
}

// resolvePortConflict clears the pending conflict. With Retry set the start
// is re-attempted, using the override port when one was chosen.
func resolvePortConflict(s *state.AppState, a *action.ResolvePortConflict) ([]effect.Effect, error) {
	conflict := s.Docker.PendingConflict
	if conflict == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "no pending port conflict")
	}
	s.Docker.PendingConflict = nil
	if a.OverridePort > 0 {
		s.Docker.PortOverrides[conflict.ServiceName] = a.OverridePort
	}
	if !a.Retry {
		if svc := s.Docker.ServiceByName(conflict.ServiceName); svc != nil {
			svc.Status = state.ServiceStopped
		}
		return nil, nil
	}
	if svc := s.Docker.ServiceByName(conflict.ServiceName); svc != nil {
		svc.Status = state.ServiceStarting
	}
	return []effect.Effect{effect.DockerServiceOp{
		Dir:          composeDir(s),
		Service:      conflict.ServiceName,
		Op:           "start",
		PortOverride: s.Docker.PortOverrides[conflict.ServiceName],
	}}, nil
}

func dockerService(s *state.AppState, name string) (*state.DockerService, error) {
	if !s.Docker.Available {
		return nil, errors.NewInvariantError(errors.CodeInvalidTransition,
			"docker daemon is not available")
	}
	svc := s.Docker.ServiceByName(name)
	if svc == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound,
			"unknown docker service "+name).
			WithEntity("service", name)
	}
	return svc, nil
}
