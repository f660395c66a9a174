package runner

import (
	"fmt"
	"strings"

	"github.com/calmren/atelier/internal/state"
)

// Prompt builders for the agent-backed workflows. Each returns the full
// prompt text fed to the agent on stdin.

var constitutionQuestionTitles = map[string]string{
	"tech_stack":   "Tech Stack",
	"security":     "Security",
	"code_quality": "Code Quality",
	"architecture": "Architecture",
}

func constitutionPrompt(answers map[string]string, claudeMd string, referenceMd bool) string {
	var b strings.Builder
	b.WriteString("Write a project constitution in Markdown. It records the ")
	b.WriteString("non-negotiable rules every change to this repository must follow.\n\n")
	b.WriteString("## Interview answers\n\n")
	for _, key := range state.ConstitutionQuestionKeys {
		answer := answers[key]
		if answer == "" {
			continue
		}
		fmt.Fprintf(&b, "### %s\n%s\n\n", constitutionQuestionTitles[key], answer)
	}
	if claudeMd != "" {
		if referenceMd {
			b.WriteString("The repository has a CLAUDE.md; reference it from the ")
			b.WriteString("constitution instead of restating its content.\n\n")
		} else {
			b.WriteString("## Existing CLAUDE.md\n\n")
			b.WriteString("Fold the relevant rules from this document into the constitution:\n\n")
			b.WriteString(claudeMd)
			b.WriteString("\n\n")
		}
	}
	b.WriteString("Output only the Markdown document, starting with a top-level heading.")
	return b.String()
}

func contextPrompt() string {
	return `Analyze this repository and produce its living-context documents.

Write the following files under ` + contextDir + `/:

- product.md: what the product does and who it is for
- tech-stack.md: languages, frameworks, key libraries, build tooling
- system-architecture.md: main components and how they interact
- recent-changes.md: start it with a short "nothing yet" placeholder

Keep each document short and factual. Create the directory if needed.`
}

func proposalPrompt(intent string) string {
	return fmt.Sprintf(`Draft a change proposal for this repository.

## Intent

%s

Cover: what changes, why, the affected areas, and what is explicitly out
of scope. Output only the Markdown proposal.`, intent)
}

func planPrompt(proposal string) string {
	return fmt.Sprintf(`Draft an implementation plan for the approved proposal below.

%s

Break the work into ordered steps with concrete files to touch and how to
verify each step. Output only the Markdown plan.`, proposal)
}

func executePrompt(plan string) string {
	return fmt.Sprintf(`Implement the approved plan below in this repository.

%s

Work through the steps in order. Report progress as you go.`, plan)
}

func revisePrompt(content string, comments []string) string {
	var b strings.Builder
	b.WriteString("Revise the document below to address the review comments.\n\n")
	b.WriteString("## Document\n\n")
	b.WriteString(content)
	b.WriteString("\n\n## Review comments\n\n")
	for _, c := range comments {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\nOutput only the full revised document.")
	return b.String()
}
