// Package builtin carries the embedded catalogue of agent profiles,
// constitution presets, and the stock constitution document. Built-in
// entries are immutable at runtime; the reducer rejects edits to them.
package builtin

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/calmren/atelier/internal/state"
)

//go:embed data/profiles.yaml
var profilesYAML []byte

//go:embed data/presets.yaml
var presetsYAML []byte

//go:embed data/constitution.md
var constitutionMD string

type profileDoc struct {
	Profiles []struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Prompt string `yaml:"prompt"`
	} `yaml:"profiles"`
}

type presetDoc struct {
	Presets []struct {
		ID      string            `yaml:"id"`
		Name    string            `yaml:"name"`
		Answers map[string]string `yaml:"answers"`
	} `yaml:"presets"`
}

var (
	profiles []state.AgentProfile
	presets  []state.ConstitutionPreset
)

func init() {
	var pd profileDoc
	if err := yaml.Unmarshal(profilesYAML, &pd); err != nil {
		panic(fmt.Sprintf("builtin: parse profiles: %v", err))
	}
	for _, p := range pd.Profiles {
		profiles = append(profiles, state.AgentProfile{
			ID:        p.ID,
			Name:      p.Name,
			Prompt:    p.Prompt,
			IsBuiltin: true,
		})
	}

	var cd presetDoc
	if err := yaml.Unmarshal(presetsYAML, &cd); err != nil {
		panic(fmt.Sprintf("builtin: parse presets: %v", err))
	}
	for _, c := range cd.Presets {
		answers := make(map[string]string, len(c.Answers))
		for k, v := range c.Answers {
			answers[k] = v
		}
		presets = append(presets, state.ConstitutionPreset{
			ID:        c.ID,
			Name:      c.Name,
			Answers:   answers,
			IsBuiltin: true,
		})
	}
}

// Profiles returns a copy of the built-in agent profiles.
func Profiles() []state.AgentProfile {
	out := make([]state.AgentProfile, len(profiles))
	copy(out, profiles)
	return out
}

// Presets returns a copy of the built-in constitution presets.
func Presets() []state.ConstitutionPreset {
	out := make([]state.ConstitutionPreset, 0, len(presets))
	for _, p := range presets {
		answers := make(map[string]string, len(p.Answers))
		for k, v := range p.Answers {
			answers[k] = v
		}
		p.Answers = answers
		out = append(out, p)
	}
	return out
}

// DefaultConstitution returns the stock constitution document.
func DefaultConstitution() string {
	return constitutionMD
}

// Attach seeds built-in profiles and presets into a project that does not
// carry them yet. Custom entries are preserved; built-ins are refreshed
// from the catalogue so stale copies never linger in persisted state.
func Attach(p *state.Project) {
	var custom []state.AgentProfile
	for _, prof := range p.AgentRules.Profiles {
		if !prof.IsBuiltin {
			custom = append(custom, prof)
		}
	}
	p.AgentRules.Profiles = append(Profiles(), custom...)

	for _, wt := range p.Worktrees {
		var customPresets []state.ConstitutionPreset
		for _, preset := range wt.Tasks.Constitution.Presets {
			if !preset.IsBuiltin {
				customPresets = append(customPresets, preset)
			}
		}
		wt.Tasks.Constitution.Presets = append(Presets(), customPresets...)
	}
}
