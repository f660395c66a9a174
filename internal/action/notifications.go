package action

func init() {
	register(func() Action { return &AddNotification{} })
	register(func() Action { return &DismissNotification{} })
	register(func() Action { return &MarkNotificationRead{} })
	register(func() Action { return &MarkAllNotificationsRead{} })
	register(func() Action { return &ClearNotifications{} })
	register(func() Action { return &AppendA2UIMessage{} })
	register(func() Action { return &ClearA2UI{} })
}

// AddNotification pushes a toast-style notification. Level is one of
// "info", "success", "warning", "error".
type AddNotification struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

func (*AddNotification) ActionType() string { return "AddNotification" }

func (a *AddNotification) Validate() error {
	if err := requireString(a.ActionType(), "level", a.Level); err != nil {
		return err
	}
	return requireString(a.ActionType(), "title", a.Title)
}

// DismissNotification removes one notification by id.
type DismissNotification struct {
	NotificationID string `json:"notification_id"`
}

func (*DismissNotification) ActionType() string { return "DismissNotification" }

func (a *DismissNotification) Validate() error {
	return requireString(a.ActionType(), "notification_id", a.NotificationID)
}

// MarkNotificationRead flips one notification to read.
type MarkNotificationRead struct {
	NotificationID string `json:"notification_id"`
}

func (*MarkNotificationRead) ActionType() string { return "MarkNotificationRead" }

func (a *MarkNotificationRead) Validate() error {
	return requireString(a.ActionType(), "notification_id", a.NotificationID)
}

// MarkAllNotificationsRead flips every notification to read.
type MarkAllNotificationsRead struct{}

func (*MarkAllNotificationsRead) ActionType() string { return "MarkAllNotificationsRead" }

// ClearNotifications drops all notifications.
type ClearNotifications struct{}

func (*ClearNotifications) ActionType() string { return "ClearNotifications" }

// AppendA2UIMessage stores a raw agent-to-UI payload for the renderer to
// interpret.
type AppendA2UIMessage struct {
	Payload map[string]any `json:"payload"`
}

func (*AppendA2UIMessage) ActionType() string { return "AppendA2UIMessage" }

// ClearA2UI drops the stored agent-to-UI payload.
type ClearA2UI struct{}

func (*ClearA2UI) ActionType() string { return "ClearA2UI" }
