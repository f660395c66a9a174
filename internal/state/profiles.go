package state

import (
	"time"

	"github.com/google/uuid"
)

// AgentProfile is a named system-prompt configuration for the agent CLI.
type AgentProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	IsBuiltin bool      `json:"is_builtin"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAgentProfile constructs a custom profile with a fresh id.
func NewAgentProfile(name, prompt string, now time.Time) AgentProfile {
	return AgentProfile{
		ID:        uuid.NewString(),
		Name:      name,
		Prompt:    prompt,
		UpdatedAt: now,
	}
}

// AgentRulesConfig is the per-project agent behavior configuration.
type AgentRulesConfig struct {
	Enabled           bool           `json:"enabled"`
	Prompt            string         `json:"prompt,omitempty"`
	Profiles          []AgentProfile `json:"profiles"`
	SelectedProfileID string         `json:"selected_profile_id,omitempty"`
}

// DefaultAgentRulesConfig returns the config used before any is persisted.
// Built-in profiles are attached by the store from the embedded catalogue.
func DefaultAgentRulesConfig() AgentRulesConfig {
	return AgentRulesConfig{Profiles: []AgentProfile{}}
}

// ProfileByID returns the profile with the given id, or nil.
func (a *AgentRulesConfig) ProfileByID(id string) *AgentProfile {
	for i := range a.Profiles {
		if a.Profiles[i].ID == id {
			return &a.Profiles[i]
		}
	}
	return nil
}

// EnvCopyResult records the outcome of the last env-file copy between
// worktrees.
type EnvCopyResult struct {
	SourceWorktreeID string    `json:"source_worktree_id"`
	TargetWorktreeID string    `json:"target_worktree_id"`
	CopiedFiles      []string  `json:"copied_files"`
	Error            string    `json:"error,omitempty"`
	CopiedAt         time.Time `json:"copied_at"`
}

// EnvConfig is the per-project env-file tracking configuration. Tracked
// patterns name untracked-by-git files (.env and friends) that should follow
// the developer from worktree to worktree.
type EnvConfig struct {
	TrackedPatterns  []string       `json:"tracked_patterns"`
	AutoCopy         bool           `json:"auto_copy"`
	SourceWorktreeID string         `json:"source_worktree_id,omitempty"`
	LastCopyResult   *EnvCopyResult `json:"last_copy_result,omitempty"`
}

// DefaultEnvConfig returns the config used before any is persisted.
func DefaultEnvConfig() EnvConfig {
	return EnvConfig{
		TrackedPatterns: []string{".env", ".env.*"},
	}
}
