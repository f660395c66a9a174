package action

import "github.com/calmren/atelier/internal/state"

func init() {
	register(func() Action { return &OpenProject{} })
	register(func() Action { return &CloseProject{} })
	register(func() Action { return &SwitchProject{} })
	register(func() Action { return &SetActiveView{} })
	register(func() Action { return &SetTheme{} })
	register(func() Action { return &SetDefaultProjectPath{} })
	register(func() Action { return &RestoreProjectConfig{} })
}

// OpenProject opens the project rooted at Path, or switches to it if that
// path is already open.
type OpenProject struct {
	Path string `json:"path"`
}

func (*OpenProject) ActionType() string { return "OpenProject" }

func (a *OpenProject) Validate() error {
	return requireString(a.ActionType(), "path", a.Path)
}

// CloseProject removes the project at Index.
type CloseProject struct {
	Index int `json:"index"`
}

func (*CloseProject) ActionType() string { return "CloseProject" }

func (a *CloseProject) Validate() error {
	return requireNonNegative(a.ActionType(), "index", a.Index)
}

// SwitchProject activates the project at Index.
type SwitchProject struct {
	Index int `json:"index"`
}

func (*SwitchProject) ActionType() string { return "SwitchProject" }

func (a *SwitchProject) Validate() error {
	return requireNonNegative(a.ActionType(), "index", a.Index)
}

// SetActiveView selects the feature surface shown for the active project.
type SetActiveView struct {
	View string `json:"view"`
}

func (*SetActiveView) ActionType() string { return "SetActiveView" }

func (a *SetActiveView) Validate() error {
	return requireString(a.ActionType(), "view", a.View)
}

// SetTheme switches the global color theme.
type SetTheme struct {
	Theme string `json:"theme"`
}

func (*SetTheme) ActionType() string { return "SetTheme" }

func (a *SetTheme) Validate() error {
	return requireString(a.ActionType(), "theme", a.Theme)
}

// SetDefaultProjectPath records the folder-picker starting directory.
type SetDefaultProjectPath struct {
	Path string `json:"path"`
}

func (*SetDefaultProjectPath) ActionType() string { return "SetDefaultProjectPath" }

// RestoreProjectConfig merges the durable per-project config back into the
// matching open project after a restart. Projects are matched by path; a
// restore for a path no longer open is dropped.
type RestoreProjectConfig struct {
	Path             string                     `json:"path"`
	ActiveView       string                     `json:"active_view,omitempty"`
	AgentRules       state.AgentRulesConfig     `json:"agent_rules"`
	Env              state.EnvConfig            `json:"env"`
	Presets          []state.ConstitutionPreset `json:"constitution_presets,omitempty"`
	SelectedPresetID string                     `json:"selected_preset_id,omitempty"`
}

func (*RestoreProjectConfig) ActionType() string { return "RestoreProjectConfig" }

func (a *RestoreProjectConfig) Validate() error {
	return requireString(a.ActionType(), "path", a.Path)
}
