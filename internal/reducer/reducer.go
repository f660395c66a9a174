// Package reducer contains the pure state transitions. Apply mutates the
// snapshot it is given and returns the side effects the transition requires;
// the store owns cloning, commit, and rejection. A non-nil error means the
// action was rejected and the snapshot must be discarded.
package reducer

import (
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

// Apply runs the transition for a against s. The time source is passed in so
// transitions stay deterministic under test. Committed transitions for
// interesting action types additionally land in the dev log ring.
func Apply(s *state.AppState, a action.Action, now time.Time) ([]effect.Effect, error) {
	effects, err := reduce(s, a, now)
	if err != nil {
		return nil, err
	}
	if summary, ok := devLogSummary(a); ok {
		s.AppendDevLog(state.DevLogEntry{
			ActionType: a.ActionType(),
			Summary:    summary,
			Timestamp:  now,
		})
	}
	return effects, nil
}

func reduce(s *state.AppState, a action.Action, now time.Time) ([]effect.Effect, error) {
	switch act := a.(type) {
	// Projects and global settings.
	case *action.OpenProject:
		return openProject(s, act, now)
	case *action.CloseProject:
		return closeProject(s, act)
	case *action.SwitchProject:
		return switchProject(s, act)
	case *action.SetActiveView:
		return setActiveView(s, act)
	case *action.SetTheme:
		return setTheme(s, act)
	case *action.SetDefaultProjectPath:
		return setDefaultProjectPath(s, act)
	case *action.RestoreProjectConfig:
		return restoreProjectConfig(s, act)

	// Worktrees.
	case *action.SwitchWorktree:
		return switchWorktree(s, act)
	case *action.RefreshWorktrees:
		return refreshWorktrees(s)
	case *action.SetWorktrees:
		return setWorktrees(s, act)
	case *action.AddWorktree:
		return addWorktree(s, act)
	case *action.RemoveWorktree:
		return removeWorktree(s, act)
	case *action.FetchBranches:
		return fetchBranches(s)
	case *action.SetBranches:
		return setBranches(s, act)
	case *action.SetWorktreeModified:
		return setWorktreeModified(s, act)

	// Tasks.
	case *action.LoadJustCommands:
		return loadJustCommands(s)
	case *action.SetJustCommands:
		return setJustCommands(s, act)
	case *action.RunJustCommand:
		return runJustCommand(s, act, now)
	case *action.CancelJustCommand:
		return cancelJustCommand(s, act)
	case *action.AppendTaskOutput:
		return appendTaskOutput(s, act)
	case *action.CompleteTask:
		return completeTask(s, act, now)
	case *action.ClearTaskOutput:
		return clearTaskOutput(s, act)
	case *action.SetTasksError:
		return setTasksError(s, act)

	// Chat.
	case *action.SendChatMessage:
		return sendChatMessage(s, act, now)
	case *action.AppendChatToken:
		return appendChatToken(s, act, now)
	case *action.CompleteChatMessage:
		return completeChatMessage(s, act)
	case *action.SetChatError:
		return setChatError(s, act)
	case *action.ClearChat:
		return clearChat(s)
	case *action.ClearChatError:
		return clearChatError(s)
	case *action.AddChatDebugLog:
		return addChatDebugLog(s, act)
	case *action.ClearChatDebugLogs:
		return clearChatDebugLogs(s)

	// MCP.
	case *action.StartMcpServer:
		return startMcpServer(s)
	case *action.StopMcpServer:
		return stopMcpServer(s)
	case *action.SetMcpStatus:
		return setMcpStatus(s, act)
	case *action.AddMcpLogEntry:
		return addMcpLogEntry(s, act, now)
	case *action.ClearMcpLogs:
		return clearMcpLogs(s)
	case *action.UpdateMcpTools:
		return updateMcpTools(s, act)

	// Docker.
	case *action.CheckDockerAvailability:
		return checkDockerAvailability(s)
	case *action.SetDockerAvailable:
		return setDockerAvailable(s, act)
	case *action.RefreshDockerServices:
		return refreshDockerServices(s)
	case *action.SetDockerServices:
		return setDockerServices(s, act)
	case *action.StartDockerService:
		return startDockerService(s, act)
	case *action.StopDockerService:
		return stopDockerService(s, act)
	case *action.RestartDockerService:
		return restartDockerService(s, act)
	case *action.SetDockerServiceStatus:
		return setDockerServiceStatus(s, act)
	case *action.SelectDockerService:
		return selectDockerService(s, act)
	case *action.FetchDockerLogs:
		return fetchDockerLogs(s, act)
	case *action.SetDockerLogs:
		return setDockerLogs(s, act)
	case *action.SetDockerPortOverride:
		return setDockerPortOverride(s, act)
	case *action.ReportPortConflict:
		return reportPortConflict(s, act, now)
	case *action.ResolvePortConflict:
		return resolvePortConflict(s, act)

	// Terminal.
	case *action.SpawnTerminal:
		return spawnTerminal(s, act)
	case *action.SetTerminalSession:
		return setTerminalSession(s, act)
	case *action.ResizeTerminal:
		return resizeTerminal(s, act)
	case *action.CloseTerminal:
		return closeTerminal(s)

	// Explorer.
	case *action.ExploreDir:
		return exploreDir(s, act)
	case *action.SetExplorerEntries:
		return setExplorerEntries(s, act)
	case *action.SetExplorerSort:
		return setExplorerSort(s, act)
	case *action.SetExplorerFilter:
		return setExplorerFilter(s, act)
	case *action.SelectExplorerFile:
		return selectExplorerFile(s, act)
	case *action.SetExplorerFileContent:
		return setExplorerFileContent(s, act)

	// Constitution.
	case *action.StartConstitutionWorkflow:
		return startConstitutionWorkflow(s, act)
	case *action.AnswerConstitutionQuestion:
		return answerConstitutionQuestion(s, act)
	case *action.GenerateConstitution:
		return generateConstitution(s)
	case *action.AppendConstitutionOutput:
		return appendConstitutionOutput(s, act)
	case *action.CompleteConstitution:
		return completeConstitution(s, act)
	case *action.SetConstitutionError:
		return setConstitutionError(s, act)
	case *action.ClearConstitutionWorkflow:
		return clearConstitutionWorkflow(s)
	case *action.ApplyDefaultConstitution:
		return applyDefaultConstitution(s)
	case *action.SetConstitutionExists:
		return setConstitutionExists(s, act)
	case *action.ReadConstitution:
		return readConstitution(s)
	case *action.SetConstitutionContent:
		return setConstitutionContent(s, act)
	case *action.ReadClaudeMd:
		return readClaudeMd(s)
	case *action.SetClaudeMd:
		return setClaudeMd(s, act)
	case *action.ImportClaudeMd:
		return importClaudeMd(s)
	case *action.SkipClaudeMdImport:
		return skipClaudeMdImport(s)
	case *action.SetUseClaudeMdReference:
		return setUseClaudeMdReference(s, act)
	case *action.CreateConstitutionPreset:
		return createConstitutionPreset(s, act, now)
	case *action.UpdateConstitutionPreset:
		return updateConstitutionPreset(s, act, now)
	case *action.DeleteConstitutionPreset:
		return deleteConstitutionPreset(s, act)
	case *action.SelectConstitutionPreset:
		return selectConstitutionPreset(s, act)

	// Agent rules.
	case *action.SetAgentRulesEnabled:
		return setAgentRulesEnabled(s, act)
	case *action.SetAgentRulesPrompt:
		return setAgentRulesPrompt(s, act)
	case *action.CreateAgentProfile:
		return createAgentProfile(s, act, now)
	case *action.UpdateAgentProfile:
		return updateAgentProfile(s, act, now)
	case *action.DeleteAgentProfile:
		return deleteAgentProfile(s, act)
	case *action.SelectAgentProfile:
		return selectAgentProfile(s, act)

	// Env files.
	case *action.SetEnvTrackedPatterns:
		return setEnvTrackedPatterns(s, act)
	case *action.SetEnvAutoCopy:
		return setEnvAutoCopy(s, act)
	case *action.SetEnvSourceWorktree:
		return setEnvSourceWorktree(s, act)
	case *action.CopyEnvFiles:
		return copyEnvFiles(s, act)
	case *action.SetEnvCopyResult:
		return setEnvCopyResult(s, act, now)

	// Context.
	case *action.InitializeContext:
		return initializeContext(s)
	case *action.SetContextFiles:
		return setContextFiles(s, act)
	case *action.GenerateContext:
		return generateContext(s)
	case *action.AppendContextOutput:
		return appendContextOutput(s, act)
	case *action.CompleteGenerateContext:
		return completeGenerateContext(s, act)
	case *action.FailGenerateContext:
		return failGenerateContext(s, act)
	case *action.SyncContext:
		return syncContext(s)
	case *action.CompleteContextSync:
		return completeContextSync(s, act, now)

	// Changes.
	case *action.CreateChange:
		return createChange(s, act, now)
	case *action.AddChange:
		return addChangeFromDisk(s, act, now)
	case *action.GenerateProposal:
		return generateProposal(s, act, now)
	case *action.AppendProposalOutput:
		return appendProposalOutput(s, act, now)
	case *action.CompleteProposal:
		return completeProposal(s, act, now)
	case *action.GeneratePlan:
		return generatePlan(s, act, now)
	case *action.AppendPlanOutput:
		return appendPlanOutput(s, act, now)
	case *action.CompletePlan:
		return completePlan(s, act, now)
	case *action.ApprovePlan:
		return approvePlan(s, act, now)
	case *action.ExecutePlan:
		return executePlan(s, act, now)
	case *action.AppendImplementationOutput:
		return appendImplementationOutput(s, act, now)
	case *action.CompleteImplementation:
		return completeImplementation(s, act, now)
	case *action.FailChange:
		return failChange(s, act, now)
	case *action.CancelChange:
		return cancelChange(s, act, now)
	case *action.ArchiveChange:
		return archiveChange(s, act)
	case *action.SetChangeArchived:
		return setChangeArchived(s, act, now)

	// Review gate.
	case *action.AddReviewComment:
		return addReviewComment(s, act, now)
	case *action.ResolveReviewComment:
		return resolveReviewComment(s, act, now)
	case *action.SubmitReviewFeedback:
		return submitReviewFeedback(s, act, now)
	case *action.UpdateReviewContent:
		return updateReviewContent(s, act, now)
	case *action.ApproveReview:
		return approveReview(s, act, now)
	case *action.RejectReview:
		return rejectReview(s, act, now)
	case *action.SetActiveReviewSession:
		return setActiveReviewSession(s, act)
	case *action.ClearReviewSession:
		return clearReviewSession(s, act)

	// Notifications and A2UI.
	case *action.AddNotification:
		return addNotification(s, act, now)
	case *action.DismissNotification:
		return dismissNotification(s, act)
	case *action.MarkNotificationRead:
		return markNotificationRead(s, act)
	case *action.MarkAllNotificationsRead:
		return markAllNotificationsRead(s)
	case *action.ClearNotifications:
		return clearNotifications(s)
	case *action.AppendA2UIMessage:
		return appendA2UIMessage(s, act)
	case *action.ClearA2UI:
		return clearA2UI(s)
	}

	return nil, errors.NewUnknownActionError(a.ActionType())
}

// activeProject returns the active project or a rejection when no project is
// open.
func activeProject(s *state.AppState) (*state.Project, error) {
	p := s.ActiveProject()
	if p == nil {
		return nil, errors.NewInvariantError(errors.CodeNoActiveProject, "no project is open")
	}
	return p, nil
}

// activeWorktree returns the active project and worktree or a rejection.
func activeWorktree(s *state.AppState) (*state.Project, *state.Worktree, error) {
	p, err := activeProject(s)
	if err != nil {
		return nil, nil, err
	}
	wt := p.ActiveWorktree()
	if wt == nil {
		return nil, nil, errors.NewInvariantError(errors.CodeNoActiveProject, "project has no active worktree").
			WithEntity("project", p.ID)
	}
	return p, wt, nil
}

// resolveRef locates the worktree a follow-up action targets. A zero ref
// means the active selection. Both nils mean the target vanished while the
// effect ran; the caller drops the result without rejecting, because a stale
// follow-up is not an error.
func resolveRef(s *state.AppState, ref action.WorktreeRef) (*state.Project, *state.Worktree) {
	if ref.IsZero() {
		p := s.ActiveProject()
		if p == nil {
			return nil, nil
		}
		return p, p.ActiveWorktree()
	}
	for _, p := range s.Projects {
		if p.ID != ref.ProjectID {
			continue
		}
		return p, p.WorktreeByID(ref.WorktreeID)
	}
	return nil, nil
}

// refOf builds the explicit follow-up ref for effects emitted on behalf of a
// worktree.
func refOf(p *state.Project, wt *state.Worktree) action.WorktreeRef {
	return action.WorktreeRef{ProjectID: p.ID, WorktreeID: wt.ID}
}
