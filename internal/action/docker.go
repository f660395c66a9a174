package action

import "github.com/calmren/atelier/internal/state"

func init() {
	register(func() Action { return &CheckDockerAvailability{} })
	register(func() Action { return &SetDockerAvailable{} })
	register(func() Action { return &RefreshDockerServices{} })
	register(func() Action { return &SetDockerServices{} })
	register(func() Action { return &StartDockerService{} })
	register(func() Action { return &StopDockerService{} })
	register(func() Action { return &RestartDockerService{} })
	register(func() Action { return &SetDockerServiceStatus{} })
	register(func() Action { return &SelectDockerService{} })
	register(func() Action { return &FetchDockerLogs{} })
	register(func() Action { return &SetDockerLogs{} })
	register(func() Action { return &SetDockerPortOverride{} })
	register(func() Action { return &ReportPortConflict{} })
	register(func() Action { return &ResolvePortConflict{} })
}

// CheckDockerAvailability probes for a reachable docker daemon (effect).
type CheckDockerAvailability struct{}

func (*CheckDockerAvailability) ActionType() string { return "CheckDockerAvailability" }

// SetDockerAvailable delivers the probe result.
type SetDockerAvailable struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

func (*SetDockerAvailable) ActionType() string { return "SetDockerAvailable" }

// RefreshDockerServices re-lists compose services (effect).
type RefreshDockerServices struct{}

func (*RefreshDockerServices) ActionType() string { return "RefreshDockerServices" }

// SetDockerServices delivers the service listing.
type SetDockerServices struct {
	Services []state.DockerService `json:"services"`
	Error    string                `json:"error,omitempty"`
}

func (*SetDockerServices) ActionType() string { return "SetDockerServices" }

// StartDockerService starts the named service (effect).
type StartDockerService struct {
	Name string `json:"name"`
}

func (*StartDockerService) ActionType() string { return "StartDockerService" }

func (a *StartDockerService) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// StopDockerService stops the named service (effect).
type StopDockerService struct {
	Name string `json:"name"`
}

func (*StopDockerService) ActionType() string { return "StopDockerService" }

func (a *StopDockerService) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// RestartDockerService restarts the named service (effect).
type RestartDockerService struct {
	Name string `json:"name"`
}

func (*RestartDockerService) ActionType() string { return "RestartDockerService" }

func (a *RestartDockerService) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// SetDockerServiceStatus delivers a service lifecycle update.
type SetDockerServiceStatus struct {
	Name   string              `json:"name"`
	Status state.ServiceStatus `json:"status"`
	Error  string              `json:"error,omitempty"`
}

func (*SetDockerServiceStatus) ActionType() string { return "SetDockerServiceStatus" }

func (a *SetDockerServiceStatus) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// SelectDockerService focuses the named service and clears the log pane.
type SelectDockerService struct {
	Name string `json:"name"`
}

func (*SelectDockerService) ActionType() string { return "SelectDockerService" }

// FetchDockerLogs pulls recent logs for the selected service (effect).
type FetchDockerLogs struct {
	Name string `json:"name"`
	Tail int    `json:"tail,omitempty"`
}

func (*FetchDockerLogs) ActionType() string { return "FetchDockerLogs" }

func (a *FetchDockerLogs) Validate() error {
	if err := requireString(a.ActionType(), "name", a.Name); err != nil {
		return err
	}
	return requireNonNegative(a.ActionType(), "tail", a.Tail)
}

// SetDockerLogs delivers fetched service logs.
type SetDockerLogs struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
	Error string   `json:"error,omitempty"`
}

func (*SetDockerLogs) ActionType() string { return "SetDockerLogs" }

// SetDockerPortOverride remaps a service's host port before its next start.
type SetDockerPortOverride struct {
	Name string `json:"name"`
	Port int    `json:"port"`
}

func (*SetDockerPortOverride) ActionType() string { return "SetDockerPortOverride" }

func (a *SetDockerPortOverride) Validate() error {
	if err := requireString(a.ActionType(), "name", a.Name); err != nil {
		return err
	}
	return requireNonNegative(a.ActionType(), "port", a.Port)
}

// ReportPortConflict records a contested host port detected at service start.
type ReportPortConflict struct {
	Name   string `json:"name"`
	Port   int    `json:"port"`
	HeldBy string `json:"held_by,omitempty"`
}

func (*ReportPortConflict) ActionType() string { return "ReportPortConflict" }

func (a *ReportPortConflict) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// ResolvePortConflict clears the pending conflict, optionally retrying the
// start with an override port.
type ResolvePortConflict struct {
	OverridePort int  `json:"override_port,omitempty"`
	Retry        bool `json:"retry"`
}

func (*ResolvePortConflict) ActionType() string { return "ResolvePortConflict" }

func (a *ResolvePortConflict) Validate() error {
	return requireNonNegative(a.ActionType(), "override_port", a.OverridePort)
}
