package state

import "time"

// DockerService is one compose service visible to the app.
type DockerService struct {
	Name   string        `json:"name"`
	Image  string        `json:"image,omitempty"`
	Status ServiceStatus `json:"status"`
	Ports  []PortMapping `json:"ports,omitempty"`
}

// PortMapping is one host-to-container port binding.
type PortMapping struct {
	Host      int    `json:"host"`
	Container int    `json:"container"`
	Protocol  string `json:"protocol,omitempty"`
}

// PortConflict describes a host port contested by a service about to start.
type PortConflict struct {
	ServiceName string    `json:"service_name"`
	Port        int       `json:"port"`
	HeldBy      string    `json:"held_by,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`
}

// MaxDockerLogs caps the per-service log buffer.
const MaxDockerLogs = 1000

// DockerState is the global docker feature state. Docker is machine-wide, so
// it hangs off the root rather than off a project.
type DockerState struct {
	Available       bool            `json:"available"`
	Checked         bool            `json:"checked"`
	Services        []DockerService `json:"services"`
	SelectedService string          `json:"selected_service,omitempty"`
	Logs            []string        `json:"logs"`
	PortOverrides   map[string]int  `json:"port_overrides"`
	PendingConflict *PortConflict   `json:"pending_conflict,omitempty"`
	Error           string          `json:"error,omitempty"`
}

// NewDockerState returns an unchecked docker state.
func NewDockerState() DockerState {
	return DockerState{
		Services:      []DockerService{},
		Logs:          []string{},
		PortOverrides: map[string]int{},
	}
}

// ServiceByName returns the service with the given name, or nil.
func (d *DockerState) ServiceByName(name string) *DockerService {
	for i := range d.Services {
		if d.Services[i].Name == name {
			return &d.Services[i]
		}
	}
	return nil
}

// SetLogs replaces the log buffer, keeping at most MaxDockerLogs lines.
func (d *DockerState) SetLogs(lines []string) {
	if len(lines) > MaxDockerLogs {
		lines = lines[len(lines)-MaxDockerLogs:]
	}
	d.Logs = lines
}
