package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

// rulesEffect re-materializes the rules file after any rules mutation, so
// running agent sessions pick the change up on their next spawn.
func rulesEffect(p *state.Project) []effect.Effect {
	var rules string
	if p.AgentRules.Enabled {
		rules = p.AgentRules.Prompt
	}
	return []effect.Effect{effect.WriteAgentRules{ProjectID: p.ID, Rules: rules}}
}

func setAgentRulesEnabled(s *state.AppState, a *action.SetAgentRulesEnabled) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	p.AgentRules.Enabled = a.Enabled
	return rulesEffect(p), nil
}

func setAgentRulesPrompt(s *state.AppState, a *action.SetAgentRulesPrompt) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	p.AgentRules.Prompt = a.Prompt
	p.AgentRules.SelectedProfileID = ""
	return rulesEffect(p), nil
}

func createAgentProfile(s *state.AppState, a *action.CreateAgentProfile, now time.Time) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	profile := state.NewAgentProfile(a.Name, a.Prompt, now)
	p.AgentRules.Profiles = append(p.AgentRules.Profiles, profile)
	return nil, nil
}

func updateAgentProfile(s *state.AppState, a *action.UpdateAgentProfile, now time.Time) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	profile := p.AgentRules.ProfileByID(a.ProfileID)
	if profile == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "agent profile not found").
			WithEntity("profile", a.ProfileID)
	}
	if profile.IsBuiltin {
		return nil, errors.NewInvariantError(errors.CodeBuiltinImmutable,
			"built-in profiles cannot be modified").
			WithEntity("profile", profile.ID)
	}
	if a.Name != "" {
		profile.Name = a.Name
	}
	if a.Prompt != "" {
		profile.Prompt = a.Prompt
	}
	profile.UpdatedAt = now

	// An edit to the selected profile changes the live prompt too.
	if p.AgentRules.SelectedProfileID == profile.ID {
		p.AgentRules.Prompt = profile.Prompt
		return rulesEffect(p), nil
	}
	return nil, nil
}

func deleteAgentProfile(s *state.AppState, a *action.DeleteAgentProfile) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	for i := range p.AgentRules.Profiles {
		if p.AgentRules.Profiles[i].ID != a.ProfileID {
			continue
		}
		if p.AgentRules.Profiles[i].IsBuiltin {
			return nil, errors.NewInvariantError(errors.CodeBuiltinImmutable,
				"built-in profiles cannot be deleted").
				WithEntity("profile", a.ProfileID)
		}
		p.AgentRules.Profiles = append(p.AgentRules.Profiles[:i], p.AgentRules.Profiles[i+1:]...)
		if p.AgentRules.SelectedProfileID == a.ProfileID {
			p.AgentRules.SelectedProfileID = ""
		}
		return nil, nil
	}
	return nil, errors.NewInvariantError(errors.CodeNotFound, "agent profile not found").
		WithEntity("profile", a.ProfileID)
}

func selectAgentProfile(s *state.AppState, a *action.SelectAgentProfile) ([]effect.Effect, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, err
	}
	if a.ProfileID == "" {
		p.AgentRules.SelectedProfileID = ""
		return nil, nil
	}
	profile := p.AgentRules.ProfileByID(a.ProfileID)
	if profile == nil {
		return nil, errors.NewInvariantError(errors.CodeNotFound, "agent profile not found").
			WithEntity("profile", a.ProfileID)
	}
	p.AgentRules.SelectedProfileID = profile.ID
	p.AgentRules.Prompt = profile.Prompt
	return rulesEffect(p), nil
}
