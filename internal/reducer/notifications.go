package reducer

import (
	"encoding/json"
	"time"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/effect"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/state"
)

func addNotification(s *state.AppState, a *action.AddNotification, now time.Time) ([]effect.Effect, error) {
	level := state.NotificationLevel(a.Level)
	switch level {
	case state.NotifyInfo, state.NotifySuccess, state.NotifyWarning, state.NotifyError:
	default:
		return nil, errors.NewValidationError("unknown notification level").
			WithActionType(a.ActionType()).
			WithField("level").
			WithValue(a.Level)
	}
	message := a.Title
	if a.Message != "" {
		message = a.Title + ": " + a.Message
	}
	s.Notifications = append(s.Notifications, state.NewNotification(level, message, now))
	return nil, nil
}

func dismissNotification(s *state.AppState, a *action.DismissNotification) ([]effect.Effect, error) {
	for i := range s.Notifications {
		if s.Notifications[i].ID == a.NotificationID {
			s.Notifications = append(s.Notifications[:i], s.Notifications[i+1:]...)
			return nil, nil
		}
	}
	return nil, nil
}

func markNotificationRead(s *state.AppState, a *action.MarkNotificationRead) ([]effect.Effect, error) {
	for i := range s.Notifications {
		if s.Notifications[i].ID == a.NotificationID {
			s.Notifications[i].Read = true
			return nil, nil
		}
	}
	return nil, nil
}

func markAllNotificationsRead(s *state.AppState) ([]effect.Effect, error) {
	for i := range s.Notifications {
		s.Notifications[i].Read = true
	}
	return nil, nil
}

func clearNotifications(s *state.AppState) ([]effect.Effect, error) {
	s.Notifications = []state.Notification{}
	return nil, nil
}

func appendA2UIMessage(s *state.AppState, a *action.AppendA2UIMessage) ([]effect.Effect, error) {
	raw, err := json.Marshal(a.Payload)
	if err != nil {
		return nil, errors.NewValidationError("a2ui payload is not serializable").
			WithActionType(a.ActionType()).
			WithCause(err)
	}
	s.A2UI = raw
	return nil, nil
}

func clearA2UI(s *state.AppState) ([]effect.Effect, error) {
	s.A2UI = nil
	return nil, nil
}
