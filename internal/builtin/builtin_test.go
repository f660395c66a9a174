package builtin

import (
	"testing"

	"github.com/calmren/atelier/internal/state"
)

func TestCatalogueLoads(t *testing.T) {
	profiles := Profiles()
	if len(profiles) == 0 {
		t.Fatal("no built-in profiles")
	}
	for _, p := range profiles {
		if p.ID == "" || p.Name == "" || p.Prompt == "" {
			t.Errorf("incomplete profile: %+v", p)
		}
		if !p.IsBuiltin {
			t.Errorf("profile %s not marked builtin", p.ID)
		}
	}

	presets := Presets()
	if len(presets) == 0 {
		t.Fatal("no built-in presets")
	}
	for _, preset := range presets {
		for _, key := range state.ConstitutionQuestionKeys {
			if preset.Answers[key] == "" {
				t.Errorf("preset %s missing answer for %s", preset.ID, key)
			}
		}
	}

	if DefaultConstitution() == "" {
		t.Error("default constitution is empty")
	}
}

func TestProfilesReturnsCopies(t *testing.T) {
	a := Profiles()
	a[0].Name = "mutated"
	b := Profiles()
	if b[0].Name == "mutated" {
		t.Error("catalogue mutated through returned slice")
	}
}

func TestAttach(t *testing.T) {
	p := state.NewProject("/work/demo")
	p.AgentRules.Profiles = append(p.AgentRules.Profiles, state.AgentProfile{
		ID: "custom-1", Name: "Mine", Prompt: "x",
	})
	p.Worktrees[0].Tasks.Constitution.Presets = append(
		p.Worktrees[0].Tasks.Constitution.Presets,
		state.ConstitutionPreset{ID: "custom-p", Name: "Mine"},
	)

	Attach(p)

	var customs, builtins int
	for _, prof := range p.AgentRules.Profiles {
		if prof.IsBuiltin {
			builtins++
		} else {
			customs++
		}
	}
	if builtins == 0 || customs != 1 {
		t.Errorf("profiles after attach: builtins=%d customs=%d", builtins, customs)
	}

	// Attach is idempotent.
	Attach(p)
	if got := len(p.AgentRules.Profiles); got != builtins+customs {
		t.Errorf("profiles duplicated on re-attach: %d", got)
	}
}
