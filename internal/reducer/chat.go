package reducer

import (
	"time"

	"github.com/google/uuid"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

// sendChatMessage appends the user message plus an empty streaming assistant
// message, then starts the agent effect. A send while a response is still
// streaming is rejected rather than queued; the active rules prompt rides
// along so the effect does not have to re-read state.
func sendChatMessage(s *state.AppState, a *action.SendChatMessage, now time.Time) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	if wt.Chat.IsTyping {
		return nil, errors.NewInvariantError(errors.CodeTaskAlreadyRunning,
			"agent is already responding in this chat").
			WithEntity("worktree", wt.ID)
	}
	wt.Chat.Messages = append(wt.Chat.Messages,
		state.ChatMessage{
			ID:        uuid.NewString(),
			Role:      state.RoleUser,
			Content:   a.Text,
			CreatedAt: now,
		},
		state.ChatMessage{
			ID:        uuid.NewString(),
			Role:      state.RoleAssistant,
			Streaming: true,
			CreatedAt: now,
		},
	)
	wt.Chat.IsTyping = true
	wt.Chat.Error = ""

	var rules string
	if p.AgentRules.Enabled {
		rules = p.AgentRules.Prompt
	}
	return []effect.Effect{effect.StreamAgent{
		Ref:    refOf(p, wt),
		Dir:    wt.Path,
		Prompt: a.Text,
		Rules:  rules,
	}}, nil
}

func appendChatToken(s *state.AppState, a *action.AppendChatToken, now time.Time) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	msg := wt.Chat.LastAssistantMessage()
	if msg == nil || !msg.Streaming {
		// Token raced a ClearChat; the stream was discarded, drop it.
		return nil, nil
	}
	msg.Content += a.Token
	return nil, nil
}

func completeChatMessage(s *state.AppState, a *action.CompleteChatMessage) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	if msg := wt.Chat.LastAssistantMessage(); msg != nil {
		msg.Streaming = false
	}
	wt.Chat.IsTyping = false
	return nil, nil
}

// setChatError surfaces an agent failure. Partial streamed output stays in
// the conversation.
func setChatError(s *state.AppState, a *action.SetChatError) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	if msg := wt.Chat.LastAssistantMessage(); msg != nil {
		msg.Streaming = false
	}
	wt.Chat.IsTyping = false
	wt.Chat.Error = a.Error
	return nil, nil
}

func clearChat(s *state.AppState) ([]effect.Effect, error) {
	p, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	wt.Chat.Messages = []state.ChatMessage{}
	wt.Chat.IsTyping = false
	wt.Chat.Error = ""
	return []effect.Effect{effect.CancelAgent{Ref: refOf(p, wt)}}, nil
}

func clearChatError(s *state.AppState) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	wt.Chat.Error = ""
	return nil, nil
}

func addChatDebugLog(s *state.AppState, a *action.AddChatDebugLog) ([]effect.Effect, error) {
	_, wt := resolveRef(s, a.Ref)
	if wt == nil {
		return nil, nil
	}
	wt.Chat.AppendDebugLog(a.Line)
	return nil, nil
}

func clearChatDebugLogs(s *state.AppState) ([]effect.Effect, error) {
	_, wt, err := activeWorktree(s)
	if err != nil {
		return nil, err
	}
	wt.Chat.DebugLogs = []string{}
	return nil, nil
}
