package action

func init() {
	register(func() Action { return &SetAgentRulesEnabled{} })
	register(func() Action { return &SetAgentRulesPrompt{} })
	register(func() Action { return &CreateAgentProfile{} })
	register(func() Action { return &UpdateAgentProfile{} })
	register(func() Action { return &DeleteAgentProfile{} })
	register(func() Action { return &SelectAgentProfile{} })
}

// SetAgentRulesEnabled turns the agent rules injection on or off for the
// active project.
type SetAgentRulesEnabled struct {
	Enabled bool `json:"enabled"`
}

func (*SetAgentRulesEnabled) ActionType() string { return "SetAgentRulesEnabled" }

// SetAgentRulesPrompt replaces the freeform rules prompt.
type SetAgentRulesPrompt struct {
	Prompt string `json:"prompt"`
}

func (*SetAgentRulesPrompt) ActionType() string { return "SetAgentRulesPrompt" }

// CreateAgentProfile saves a named rules profile.
type CreateAgentProfile struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

func (*CreateAgentProfile) ActionType() string { return "CreateAgentProfile" }

func (a *CreateAgentProfile) Validate() error {
	if err := requireString(a.ActionType(), "name", a.Name); err != nil {
		return err
	}
	return requireString(a.ActionType(), "prompt", a.Prompt)
}

// UpdateAgentProfile edits a custom profile. Built-in profiles are
// immutable.
type UpdateAgentProfile struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
}

func (*UpdateAgentProfile) ActionType() string { return "UpdateAgentProfile" }

func (a *UpdateAgentProfile) Validate() error {
	return requireString(a.ActionType(), "profile_id", a.ProfileID)
}

// DeleteAgentProfile removes a custom profile. Built-in profiles are
// immutable.
type DeleteAgentProfile struct {
	ProfileID string `json:"profile_id"`
}

func (*DeleteAgentProfile) ActionType() string { return "DeleteAgentProfile" }

func (a *DeleteAgentProfile) Validate() error {
	return requireString(a.ActionType(), "profile_id", a.ProfileID)
}

// SelectAgentProfile makes a profile's prompt the active one. An empty id
// clears the selection.
type SelectAgentProfile struct {
	ProfileID string `json:"profile_id"`
}

func (*SelectAgentProfile) ActionType() string { return "SelectAgentProfile" }
