package action

func init() {
	register(func() Action { return &ExploreDir{} })
	register(func() Action { return &SetExplorerEntries{} })
	register(func() Action { return &SetExplorerSort{} })
	register(func() Action { return &SetExplorerFilter{} })
	register(func() Action { return &SelectExplorerFile{} })
	register(func() Action { return &SetExplorerFileContent{} })
}

// ExploreDir lists a directory relative to the worktree root. An empty path
// means the root itself.
type ExploreDir struct {
	Path string `json:"path"`
}

func (*ExploreDir) ActionType() string { return "ExploreDir" }

// SetExplorerEntries delivers a directory listing.
type SetExplorerEntries struct {
	Ref     WorktreeRef     `json:"ref"`
	Path    string          `json:"path"`
	Entries []ExplorerEntry `json:"entries"`
	Error   string          `json:"error,omitempty"`
}

// ExplorerEntry is one listed file or directory.
type ExplorerEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

func (*SetExplorerEntries) ActionType() string { return "SetExplorerEntries" }

// SetExplorerSort changes the listing order. Valid keys are "name", "size"
// and "modified".
type SetExplorerSort struct {
	SortBy string `json:"sort_by"`
}

func (*SetExplorerSort) ActionType() string { return "SetExplorerSort" }

func (a *SetExplorerSort) Validate() error {
	return requireString(a.ActionType(), "sort_by", a.SortBy)
}

// SetExplorerFilter narrows the listing to entries matching a substring.
type SetExplorerFilter struct {
	Filter string `json:"filter"`
}

func (*SetExplorerFilter) ActionType() string { return "SetExplorerFilter" }

// SelectExplorerFile marks a file as selected and reads its content.
type SelectExplorerFile struct {
	Path string `json:"path"`
}

func (*SelectExplorerFile) ActionType() string { return "SelectExplorerFile" }

func (a *SelectExplorerFile) Validate() error {
	return requireString(a.ActionType(), "path", a.Path)
}

// SetExplorerFileContent delivers the selected file's content, or the read
// failure.
type SetExplorerFileContent struct {
	Ref     WorktreeRef `json:"ref"`
	Path    string      `json:"path"`
	Content string      `json:"content"`
	Error   string      `json:"error,omitempty"`
}

func (*SetExplorerFileContent) ActionType() string { return "SetExplorerFileContent" }
