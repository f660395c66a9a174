package state

import (
	"time"

	"github.com/google/uuid"
)

// ConstitutionQuestionKeys are the interview questions, asked in order.
var ConstitutionQuestionKeys = []string{
	"tech_stack",
	"security",
	"code_quality",
	"architecture",
}

// ConstitutionQuestionCount is the number of interview questions.
const ConstitutionQuestionCount = 4

// ConstitutionWorkflow is the interview-then-generate state machine that
// produces a project constitution.
type ConstitutionWorkflow struct {
	Status               WorkflowStatus    `json:"status"`
	CurrentQuestion      int               `json:"current_question"`
	Answers              map[string]string `json:"answers"`
	Output               string            `json:"output,omitempty"`
	UseClaudeMdReference bool              `json:"use_claude_md_reference"`
}

// NewConstitutionWorkflow starts a workflow at question zero.
func NewConstitutionWorkflow() *ConstitutionWorkflow {
	return &ConstitutionWorkflow{
		Status:  WorkflowCollecting,
		Answers: map[string]string{},
	}
}

// AllAnswered reports whether every question has an answer.
func (w *ConstitutionWorkflow) AllAnswered() bool {
	return w.CurrentQuestion >= ConstitutionQuestionCount
}

// ConstitutionPreset is a reusable answer set for the workflow.
type ConstitutionPreset struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Answers   map[string]string `json:"answers"`
	IsBuiltin bool              `json:"is_builtin"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewConstitutionPreset constructs a custom preset with a fresh id.
func NewConstitutionPreset(name string, answers map[string]string, now time.Time) ConstitutionPreset {
	cp := ConstitutionPreset{
		ID:        uuid.NewString(),
		Name:      name,
		Answers:   map[string]string{},
		UpdatedAt: now,
	}
	for k, v := range answers {
		cp.Answers[k] = v
	}
	return cp
}

// ConstitutionState is the per-worktree constitution feature state.
type ConstitutionState struct {
	Workflow         *ConstitutionWorkflow `json:"workflow,omitempty"`
	Presets          []ConstitutionPreset  `json:"presets"`
	SelectedPresetID string                `json:"selected_preset_id,omitempty"`
	Exists           bool                  `json:"exists"`
	Content          string                `json:"content,omitempty"`
	Error            string                `json:"error,omitempty"`
	// CLAUDE.md import flow: an existing CLAUDE.md may seed the
	// constitution or be referenced from it.
	ClaudeMdExists   bool   `json:"claude_md_exists"`
	ClaudeMdContent  string `json:"claude_md_content,omitempty"`
	ClaudeMdImported bool   `json:"claude_md_imported"`
	ImportDecided    bool   `json:"import_decided"`
}

// NewConstitutionState returns an empty constitution feature state.
func NewConstitutionState() ConstitutionState {
	return ConstitutionState{Presets: []ConstitutionPreset{}}
}

// PresetByID returns the preset with the given id, or nil.
func (c *ConstitutionState) PresetByID(id string) *ConstitutionPreset {
	for i := range c.Presets {
		if c.Presets[i].ID == id {
			return &c.Presets[i]
		}
	}
	return nil
}
