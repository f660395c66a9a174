// Package state defines the authoritative application state tree. The store
// owns the single live instance; everything outside the store sees only
// deep-copied snapshots. All types serialize to the wire as snake_case JSON.
package state

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MaxRecentProjects caps the recent-projects list, most-recent-first.
const MaxRecentProjects = 10

// AppState is the root of the state tree.
type AppState struct {
	Projects           []*Project      `json:"projects"`
	ActiveProjectIndex int             `json:"active_project_index"` // -1 when no project is open
	RecentProjects     []RecentProject `json:"recent_projects"`
	Settings           GlobalSettings  `json:"settings"`
	Notifications      []Notification  `json:"notifications"`
	Docker             DockerState     `json:"docker"`
	DevLogs            []DevLogEntry   `json:"dev_logs"`
	A2UI               json.RawMessage `json:"a2ui,omitempty"`
}

// NewAppState returns an empty state tree with no project open.
func NewAppState() *AppState {
	return &AppState{
		Projects:           []*Project{},
		ActiveProjectIndex: -1,
		RecentProjects:     []RecentProject{},
		Notifications:      []Notification{},
		Settings:           DefaultGlobalSettings(),
		Docker:             NewDockerState(),
		DevLogs:            []DevLogEntry{},
	}
}

// ActiveProject returns the active project, or nil when none is open.
func (s *AppState) ActiveProject() *Project {
	if s.ActiveProjectIndex < 0 || s.ActiveProjectIndex >= len(s.Projects) {
		return nil
	}
	return s.Projects[s.ActiveProjectIndex]
}

// ActiveWorktree returns the active worktree of the active project, or nil.
func (s *AppState) ActiveWorktree() *Worktree {
	p := s.ActiveProject()
	if p == nil {
		return nil
	}
	return p.ActiveWorktree()
}

// ProjectIndexByPath returns the index of the open project with the given
// path, or -1.
func (s *AppState) ProjectIndexByPath(path string) int {
	for i, p := range s.Projects {
		if p.Path == path {
			return i
		}
	}
	return -1
}

// TouchRecent records path at the front of the recent-projects list,
// deduplicated by path and capped at MaxRecentProjects.
func (s *AppState) TouchRecent(path string, now time.Time) {
	entry := RecentProject{
		Path:       path,
		Name:       ProjectNameFromPath(path),
		LastOpened: now,
	}
	out := make([]RecentProject, 0, len(s.RecentProjects)+1)
	out = append(out, entry)
	for _, r := range s.RecentProjects {
		if r.Path == path {
			continue
		}
		out = append(out, r)
	}
	if len(out) > MaxRecentProjects {
		out = out[:MaxRecentProjects]
	}
	s.RecentProjects = out
}

// RecentProject is one entry of the recent-projects list.
type RecentProject struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	LastOpened time.Time `json:"last_opened"`
}

// GlobalSettings holds app-wide preferences.
type GlobalSettings struct {
	Theme              string `json:"theme"`
	DefaultProjectPath string `json:"default_project_path,omitempty"`
}

// DefaultGlobalSettings returns the settings used before any are persisted.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{Theme: "dark"}
}

// NotificationLevel classifies a notification.
type NotificationLevel string

const (
	NotifyInfo    NotificationLevel = "info"
	NotifySuccess NotificationLevel = "success"
	NotifyWarning NotificationLevel = "warning"
	NotifyError   NotificationLevel = "error"
)

// Notification is a user-visible event record.
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification constructs a notification with a fresh id.
func NewNotification(level NotificationLevel, message string, now time.Time) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
	}
}

// DevLogEntry is one line of the in-memory developer action log. The store
// records interesting dispatches here so a renderer debug panel can show
// recent activity without tailing the daemon log.
type DevLogEntry struct {
	ActionType string    `json:"action_type"`
	Summary    string    `json:"summary"`
	Timestamp  time.Time `json:"timestamp"`
}

// MaxDevLogs caps the developer action log ring buffer.
const MaxDevLogs = 200

// AppendDevLog appends an entry, trimming the oldest past MaxDevLogs.
func (s *AppState) AppendDevLog(entry DevLogEntry) {
	s.DevLogs = append(s.DevLogs, entry)
	if len(s.DevLogs) > MaxDevLogs {
		s.DevLogs = s.DevLogs[len(s.DevLogs)-MaxDevLogs:]
	}
}

// Project is one open workspace rooted at a git repository.
type Project struct {
	ID                  string           `json:"id"`
	Path                string           `json:"path"`
	Name                string           `json:"name"`
	Worktrees           []*Worktree      `json:"worktrees"`
	ActiveWorktreeIndex int              `json:"active_worktree_index"`
	ActiveView          string           `json:"active_view"`
	AgentRules          AgentRulesConfig `json:"agent_rules"`
	Env                 EnvConfig        `json:"env"`
	// Branches is the latest branch listing, feeding the add-worktree
	// dialog. Refreshed on FetchBranches, not durable.
	Branches      []Branch `json:"branches,omitempty"`
	BranchesError string   `json:"branches_error,omitempty"`
}

// Branch is one git branch of the project repository.
type Branch struct {
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
	IsRemote  bool   `json:"is_remote"`
}

// NewProject constructs a project for path with a fresh id. Worktrees are
// attached by the caller once discovery finishes; until then the project has
// a single placeholder main worktree rooted at the project path.
func NewProject(path string) *Project {
	wt := NewWorktree(path, "", true)
	return &Project{
		ID:                  uuid.NewString(),
		Path:                path,
		Name:                ProjectNameFromPath(path),
		Worktrees:           []*Worktree{wt},
		ActiveWorktreeIndex: 0,
		ActiveView:          "tasks",
		AgentRules:          DefaultAgentRulesConfig(),
		Env:                 DefaultEnvConfig(),
	}
}

// ProjectNameFromPath derives the display name from the final path element.
func ProjectNameFromPath(path string) string {
	return filepath.Base(filepath.Clean(path))
}

// ActiveWorktree returns the active worktree, or nil if the index is stale.
func (p *Project) ActiveWorktree() *Worktree {
	if p.ActiveWorktreeIndex < 0 || p.ActiveWorktreeIndex >= len(p.Worktrees) {
		return nil
	}
	return p.Worktrees[p.ActiveWorktreeIndex]
}

// MainWorktree returns the primary checkout, or nil before discovery.
func (p *Project) MainWorktree() *Worktree {
	for _, wt := range p.Worktrees {
		if wt.IsMain {
			return wt
		}
	}
	return nil
}

// WorktreeByID returns the worktree with the given id, or nil.
func (p *Project) WorktreeByID(id string) *Worktree {
	for _, wt := range p.Worktrees {
		if wt.ID == id {
			return wt
		}
	}
	return nil
}

// Worktree is one checked-out working copy of a project, carrying all
// per-worktree feature state.
type Worktree struct {
	ID         string        `json:"id"`
	Path       string        `json:"path"`
	Branch     string        `json:"branch"`
	IsMain     bool          `json:"is_main"`
	IsModified bool          `json:"is_modified"`
	Tasks      TasksState    `json:"tasks"`
	Chat       ChatState     `json:"chat"`
	Mcp        McpState      `json:"mcp"`
	Terminal   TerminalState `json:"terminal"`
	Explorer   ExplorerState `json:"explorer"`
	Context    ContextState  `json:"context"`
	Changes    ChangesState  `json:"changes"`
}

// NewWorktree constructs a worktree with a fresh id and empty feature state.
func NewWorktree(path, branch string, isMain bool) *Worktree {
	return &Worktree{
		ID:       uuid.NewString(),
		Path:     path,
		Branch:   branch,
		IsMain:   isMain,
		Tasks:    NewTasksState(),
		Chat:     NewChatState(),
		Mcp:      NewMcpState(),
		Terminal: TerminalState{},
		Explorer: NewExplorerState(),
		Context:  NewContextState(),
		Changes:  NewChangesState(),
	}
}

// Serialize encodes the state tree to its canonical wire format.
func (s *AppState) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

// Deserialize decodes a wire-format snapshot. Unknown fields are ignored so
// newer writers do not break older readers.
func Deserialize(data []byte) (*AppState, error) {
	var st AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	if st.Projects == nil {
		st.Projects = []*Project{}
	}
	if st.RecentProjects == nil {
		st.RecentProjects = []RecentProject{}
	}
	if st.Notifications == nil {
		st.Notifications = []Notification{}
	}
	if st.DevLogs == nil {
		st.DevLogs = []DevLogEntry{}
	}
	return &st, nil
}
