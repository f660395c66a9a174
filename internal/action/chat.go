package action

func init() {
	register(func() Action { return &SendChatMessage{} })
	register(func() Action { return &AppendChatToken{} })
	register(func() Action { return &CompleteChatMessage{} })
	register(func() Action { return &SetChatError{} })
	register(func() Action { return &ClearChat{} })
	register(func() Action { return &ClearChatError{} })
	register(func() Action { return &AddChatDebugLog{} })
	register(func() Action { return &ClearChatDebugLogs{} })
}

// SendChatMessage appends a user message and starts the agent effect.
type SendChatMessage struct {
	Text string `json:"text"`
}

func (*SendChatMessage) ActionType() string { return "SendChatMessage" }

func (a *SendChatMessage) Validate() error {
	return requireString(a.ActionType(), "text", a.Text)
}

// AppendChatToken streams one token into the trailing assistant message.
type AppendChatToken struct {
	Ref   WorktreeRef `json:"ref"`
	Token string      `json:"token"`
}

func (*AppendChatToken) ActionType() string { return "AppendChatToken" }

// CompleteChatMessage finalizes the streaming assistant message and clears
// the typing flag.
type CompleteChatMessage struct {
	Ref WorktreeRef `json:"ref"`
}

func (*CompleteChatMessage) ActionType() string { return "CompleteChatMessage" }

// SetChatError records an agent failure on the chat surface. Accumulated
// partial output stays visible.
type SetChatError struct {
	Ref   WorktreeRef `json:"ref"`
	Error string      `json:"error"`
}

func (*SetChatError) ActionType() string { return "SetChatError" }

func (a *SetChatError) Validate() error {
	return requireString(a.ActionType(), "error", a.Error)
}

// ClearChat cancels any in-flight agent effect and empties the conversation.
type ClearChat struct{}

func (*ClearChat) ActionType() string { return "ClearChat" }

// ClearChatError dismisses the chat error banner.
type ClearChatError struct{}

func (*ClearChatError) ActionType() string { return "ClearChatError" }

// AddChatDebugLog appends a line to the chat debug log ring buffer.
type AddChatDebugLog struct {
	Ref  WorktreeRef `json:"ref"`
	Line string      `json:"line"`
}

func (*AddChatDebugLog) ActionType() string { return "AddChatDebugLog" }

// ClearChatDebugLogs empties the chat debug log ring buffer.
type ClearChatDebugLogs struct{}

func (*ClearChatDebugLogs) ActionType() string { return "ClearChatDebugLogs" }
