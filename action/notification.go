package action

import (
	"context"

	"github.com/mohitkumar/autoflow/model"
)

var _ Handler = new(NotificationHandler)

type NotificationHandler struct {
	notifier Notifier
}

func NewNotificationHandler(notifier Notifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

func (h *NotificationHandler) Kind() model.ActionKind {
	return model.ACTION_NOTIFICATION
}

func (h *NotificationHandler) Validate(params map[string]any) error {
	for _, name := range []string{"userId", "message"} {
		if _, err := requireString(params, name); err != nil {
			return err
		}
	}
	for _, name := range []string{"title", "workspaceId"} {
		if _, err := optionalString(params, name); err != nil {
			return err
		}
	}
	return nil
}

func (h *NotificationHandler) Handle(ctx context.Context, params map[string]any) (any, error) {
	if err := h.Validate(params); err != nil {
		return nil, err
	}
	n := Notification{}
	n.UserId, _ = requireString(params, "userId")
	n.Message, _ = requireString(params, "message")
	n.Title, _ = optionalString(params, "title")
	n.WorkspaceId, _ = optionalString(params, "workspaceId")
	id, err := h.notifier.Notify(ctx, n)
	if err != nil {
		return nil, err
	}
	result := map[string]any{"delivered": true, "userId": n.UserId}
	if id != "" {
		result["notificationId"] = id
	}
	return result, nil
}
