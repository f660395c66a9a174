package reducer

import (
	"strconv"

	"github.com/calmren/atelier/internal/action"
)

// devLogSummary reports whether the action is interesting enough for the
// in-state dev log, with a one-line summary. High-frequency actions (tokens,
// output lines, terminal traffic) stay out so the ring holds real activity.
func devLogSummary(a action.Action) (string, bool) {
	switch act := a.(type) {
	case *action.OpenProject:
		return "open " + act.Path, true
	case *action.CloseProject:
		return "close project #" + strconv.Itoa(act.Index), true
	case *action.SwitchProject:
		return "switch to project #" + strconv.Itoa(act.Index), true
	case *action.AddWorktree:
		return "add worktree on " + act.Branch, true
	case *action.RemoveWorktree:
		return "remove worktree " + act.WorktreeID, true
	case *action.SwitchWorktree:
		return "switch to worktree #" + strconv.Itoa(act.Index), true
	case *action.RefreshWorktrees:
		return "refresh worktrees", true
	case *action.StartMcpServer:
		return "start MCP server", true
	case *action.StopMcpServer:
		return "stop MCP server", true
	case *action.SetMcpStatus:
		return "MCP status " + string(act.Status), true
	case *action.StartDockerService:
		return "start service " + act.Name, true
	case *action.StopDockerService:
		return "stop service " + act.Name, true
	case *action.RestartDockerService:
		return "restart service " + act.Name, true
	case *action.ReportPortConflict:
		return "port conflict on " + act.Name + " (" + strconv.Itoa(act.Port) + ")", true
	case *action.ResolvePortConflict:
		return "resolve port conflict", true
	case *action.StartConstitutionWorkflow:
		return "start constitution interview", true
	case *action.ClearConstitutionWorkflow:
		return "clear constitution interview", true
	case *action.AnswerConstitutionQuestion:
		return "answer constitution question", true
	case *action.GenerateConstitution:
		return "generate constitution", true
	case *action.SetConstitutionError:
		return "constitution error: " + act.Error, true
	case *action.ApplyDefaultConstitution:
		return "apply default constitution", true
	case *action.ImportClaudeMd:
		return "import CLAUDE.md", true
	case *action.SkipClaudeMdImport:
		return "skip CLAUDE.md import", true
	case *action.CreateChange:
		return "create change", true
	case *action.ArchiveChange:
		return "archive change " + act.ChangeID, true
	case *action.GenerateProposal:
		return "generate proposal for " + act.ChangeID, true
	case *action.GeneratePlan:
		return "generate plan for " + act.ChangeID, true
	case *action.ExecutePlan:
		return "execute plan for " + act.ChangeID, true
	default:
		return "", false
	}
}
