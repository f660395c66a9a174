package action

func init() {
	register(func() Action { return &StartConstitutionWorkflow{} })
	register(func() Action { return &AnswerConstitutionQuestion{} })
	register(func() Action { return &GenerateConstitution{} })
	register(func() Action { return &AppendConstitutionOutput{} })
	register(func() Action { return &CompleteConstitution{} })
	register(func() Action { return &SetConstitutionError{} })
	register(func() Action { return &ClearConstitutionWorkflow{} })
	register(func() Action { return &ApplyDefaultConstitution{} })
	register(func() Action { return &SetConstitutionExists{} })
	register(func() Action { return &ReadConstitution{} })
	register(func() Action { return &SetConstitutionContent{} })
	register(func() Action { return &ReadClaudeMd{} })
	register(func() Action { return &SetClaudeMd{} })
	register(func() Action { return &ImportClaudeMd{} })
	register(func() Action { return &SkipClaudeMdImport{} })
	register(func() Action { return &SetUseClaudeMdReference{} })
	register(func() Action { return &CreateConstitutionPreset{} })
	register(func() Action { return &UpdateConstitutionPreset{} })
	register(func() Action { return &DeleteConstitutionPreset{} })
	register(func() Action { return &SelectConstitutionPreset{} })
}

// StartConstitutionWorkflow opens the interview at question zero, optionally
// seeded from a preset.
type StartConstitutionWorkflow struct {
	PresetID string `json:"preset_id,omitempty"`
}

func (*StartConstitutionWorkflow) ActionType() string { return "StartConstitutionWorkflow" }

// AnswerConstitutionQuestion records the answer to the current question and
// advances. Empty or whitespace-only answers are rejected.
type AnswerConstitutionQuestion struct {
	Answer string `json:"answer"`
}

func (*AnswerConstitutionQuestion) ActionType() string { return "AnswerConstitutionQuestion" }

func (a *AnswerConstitutionQuestion) Validate() error {
	return requireString(a.ActionType(), "answer", a.Answer)
}

// GenerateConstitution starts the generation effect once every question has
// an answer.
type GenerateConstitution struct{}

func (*GenerateConstitution) ActionType() string { return "GenerateConstitution" }

// AppendConstitutionOutput streams generated text into the workflow.
type AppendConstitutionOutput struct {
	Ref   WorktreeRef `json:"ref"`
	Chunk string      `json:"chunk"`
}

func (*AppendConstitutionOutput) ActionType() string { return "AppendConstitutionOutput" }

// CompleteConstitution marks generation finished and persists the document.
type CompleteConstitution struct {
	Ref WorktreeRef `json:"ref"`
}

func (*CompleteConstitution) ActionType() string { return "CompleteConstitution" }

// SetConstitutionError records a generation failure. Accumulated output
// stays visible.
type SetConstitutionError struct {
	Ref   WorktreeRef `json:"ref"`
	Error string      `json:"error"`
}

func (*SetConstitutionError) ActionType() string { return "SetConstitutionError" }

// ClearConstitutionWorkflow discards the workflow unconditionally, cancelling
// any running generation.
type ClearConstitutionWorkflow struct{}

func (*ClearConstitutionWorkflow) ActionType() string { return "ClearConstitutionWorkflow" }

// ApplyDefaultConstitution writes the stock constitution without running the
// interview.
type ApplyDefaultConstitution struct{}

func (*ApplyDefaultConstitution) ActionType() string { return "ApplyDefaultConstitution" }

// SetConstitutionExists delivers the existence probe for the constitution
// file.
type SetConstitutionExists struct {
	Ref    WorktreeRef `json:"ref"`
	Exists bool        `json:"exists"`
}

func (*SetConstitutionExists) ActionType() string { return "SetConstitutionExists" }

// ReadConstitution loads the constitution document (effect).
type ReadConstitution struct{}

func (*ReadConstitution) ActionType() string { return "ReadConstitution" }

// SetConstitutionContent delivers the loaded constitution document.
type SetConstitutionContent struct {
	Ref     WorktreeRef `json:"ref"`
	Content string      `json:"content"`
	Error   string      `json:"error,omitempty"`
}

func (*SetConstitutionContent) ActionType() string { return "SetConstitutionContent" }

// ReadClaudeMd probes for an existing CLAUDE.md to seed the import flow
// (effect).
type ReadClaudeMd struct{}

func (*ReadClaudeMd) ActionType() string { return "ReadClaudeMd" }

// SetClaudeMd delivers the CLAUDE.md probe result.
type SetClaudeMd struct {
	Ref     WorktreeRef `json:"ref"`
	Exists  bool        `json:"exists"`
	Content string      `json:"content,omitempty"`
}

func (*SetClaudeMd) ActionType() string { return "SetClaudeMd" }

// ImportClaudeMd adopts the CLAUDE.md content as constitution seed material.
type ImportClaudeMd struct{}

func (*ImportClaudeMd) ActionType() string { return "ImportClaudeMd" }

// SkipClaudeMdImport declines the import offer; the question is not asked
// again for this worktree.
type SkipClaudeMdImport struct{}

func (*SkipClaudeMdImport) ActionType() string { return "SkipClaudeMdImport" }

// SetUseClaudeMdReference toggles whether the generated constitution
// references CLAUDE.md instead of inlining it.
type SetUseClaudeMdReference struct {
	Enabled bool `json:"enabled"`
}

func (*SetUseClaudeMdReference) ActionType() string { return "SetUseClaudeMdReference" }

// CreateConstitutionPreset saves the current (or provided) answer set under
// a name.
type CreateConstitutionPreset struct {
	Name    string            `json:"name"`
	Answers map[string]string `json:"answers"`
}

func (*CreateConstitutionPreset) ActionType() string { return "CreateConstitutionPreset" }

func (a *CreateConstitutionPreset) Validate() error {
	return requireString(a.ActionType(), "name", a.Name)
}

// UpdateConstitutionPreset edits a custom preset. Built-in presets are
// immutable.
type UpdateConstitutionPreset struct {
	PresetID string            `json:"preset_id"`
	Name     string            `json:"name,omitempty"`
	Answers  map[string]string `json:"answers,omitempty"`
}

func (*UpdateConstitutionPreset) ActionType() string { return "UpdateConstitutionPreset" }

func (a *UpdateConstitutionPreset) Validate() error {
	return requireString(a.ActionType(), "preset_id", a.PresetID)
}

// DeleteConstitutionPreset removes a custom preset. Built-in presets are
// immutable.
type DeleteConstitutionPreset struct {
	PresetID string `json:"preset_id"`
}

func (*DeleteConstitutionPreset) ActionType() string { return "DeleteConstitutionPreset" }

func (a *DeleteConstitutionPreset) Validate() error {
	return requireString(a.ActionType(), "preset_id", a.PresetID)
}

// SelectConstitutionPreset marks a preset as the interview seed.
type SelectConstitutionPreset struct {
	PresetID string `json:"preset_id"`
}

func (*SelectConstitutionPreset) ActionType() string { return "SelectConstitutionPreset" }
