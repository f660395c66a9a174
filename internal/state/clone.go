package state

// Clone returns a deep copy of the state tree. The store hands clones to
// subscribers and keeps the original private, so snapshots are immutable by
// construction.
func (s *AppState) Clone() *AppState {
	out := &AppState{
		ActiveProjectIndex: s.ActiveProjectIndex,
		Settings:           s.Settings,
		Docker:             s.Docker.clone(),
		Projects:           make([]*Project, len(s.Projects)),
		RecentProjects:     append([]RecentProject{}, s.RecentProjects...),
		Notifications:      append([]Notification{}, s.Notifications...),
		DevLogs:            append([]DevLogEntry{}, s.DevLogs...),
	}
	if s.A2UI != nil {
		out.A2UI = append([]byte{}, s.A2UI...)
	}
	for i, p := range s.Projects {
		out.Projects[i] = p.clone()
	}
	return out
}

func (p *Project) clone() *Project {
	out := &Project{
		ID:                  p.ID,
		Path:                p.Path,
		Name:                p.Name,
		ActiveWorktreeIndex: p.ActiveWorktreeIndex,
		ActiveView:          p.ActiveView,
		AgentRules:          p.AgentRules.clone(),
		Env:                 p.Env.clone(),
		BranchesError:       p.BranchesError,
		Worktrees:           make([]*Worktree, len(p.Worktrees)),
	}
	if p.Branches != nil {
		out.Branches = append([]Branch{}, p.Branches...)
	}
	for i, wt := range p.Worktrees {
		out.Worktrees[i] = wt.clone()
	}
	return out
}

func (a AgentRulesConfig) clone() AgentRulesConfig {
	out := a
	out.Profiles = append([]AgentProfile{}, a.Profiles...)
	return out
}

func (e EnvConfig) clone() EnvConfig {
	out := e
	out.TrackedPatterns = append([]string{}, e.TrackedPatterns...)
	if e.LastCopyResult != nil {
		r := *e.LastCopyResult
		r.CopiedFiles = append([]string{}, e.LastCopyResult.CopiedFiles...)
		out.LastCopyResult = &r
	}
	return out
}

func (w *Worktree) clone() *Worktree {
	out := &Worktree{
		ID:         w.ID,
		Path:       w.Path,
		Branch:     w.Branch,
		IsMain:     w.IsMain,
		IsModified: w.IsModified,
		Terminal:   w.Terminal,
		Tasks:      w.Tasks.clone(),
		Chat:       w.Chat.clone(),
		Mcp:        w.Mcp.clone(),
		Explorer:   w.Explorer.clone(),
		Context:    w.Context.clone(),
		Changes:    w.Changes.clone(),
	}
	return out
}

func (t TasksState) clone() TasksState {
	out := t
	out.Commands = append([]JustCommand{}, t.Commands...)
	out.Runs = make(map[string]*TaskRun, len(t.Runs))
	for name, run := range t.Runs {
		r := *run
		r.Output = append([]string{}, run.Output...)
		out.Runs[name] = &r
	}
	out.Constitution = t.Constitution.clone()
	out.ReviewGate = t.ReviewGate.clone()
	return out
}

func (c ConstitutionState) clone() ConstitutionState {
	out := c
	out.Presets = make([]ConstitutionPreset, len(c.Presets))
	for i, p := range c.Presets {
		out.Presets[i] = p
		out.Presets[i].Answers = make(map[string]string, len(p.Answers))
		for k, v := range p.Answers {
			out.Presets[i].Answers[k] = v
		}
	}
	if c.Workflow != nil {
		w := *c.Workflow
		w.Answers = make(map[string]string, len(c.Workflow.Answers))
		for k, v := range c.Workflow.Answers {
			w.Answers[k] = v
		}
		out.Workflow = &w
	}
	return out
}

func (g ReviewGateState) clone() ReviewGateState {
	out := g
	out.Sessions = make([]*ReviewSession, len(g.Sessions))
	for i, s := range g.Sessions {
		cp := *s
		cp.Comments = append([]ReviewComment{}, s.Comments...)
		cp.Content.FileChanges = append([]FileChange{}, s.Content.FileChanges...)
		out.Sessions[i] = &cp
	}
	return out
}

func (c ChatState) clone() ChatState {
	out := c
	out.Messages = append([]ChatMessage{}, c.Messages...)
	out.DebugLogs = append([]string{}, c.DebugLogs...)
	return out
}

func (m McpState) clone() McpState {
	out := m
	out.Logs = append([]McpLogEntry{}, m.Logs...)
	out.Tools = append([]McpTool{}, m.Tools...)
	return out
}

func (e ExplorerState) clone() ExplorerState {
	out := e
	out.Entries = append([]ExplorerEntry{}, e.Entries...)
	return out
}

func (c ContextState) clone() ContextState {
	out := c
	out.Files = append([]ContextFile{}, c.Files...)
	return out
}

func (c ChangesState) clone() ChangesState {
	out := c
	out.Changes = make([]*Change, len(c.Changes))
	for i, ch := range c.Changes {
		cp := *ch
		out.Changes[i] = &cp
	}
	return out
}

func (d DockerState) clone() DockerState {
	out := d
	out.Services = make([]DockerService, len(d.Services))
	for i, svc := range d.Services {
		out.Services[i] = svc
		out.Services[i].Ports = append([]PortMapping{}, svc.Ports...)
	}
	out.Logs = append([]string{}, d.Logs...)
	out.PortOverrides = make(map[string]int, len(d.PortOverrides))
	for k, v := range d.PortOverrides {
		out.PortOverrides[k] = v
	}
	if d.PendingConflict != nil {
		pc := *d.PendingConflict
		out.PendingConflict = &pc
	}
	return out
}
