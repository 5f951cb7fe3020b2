package notify

import (
	"context"

	"github.com/google/uuid"

	"campuschat/pkg/logger"
)

// Notification is the payload handed to the delivery collaborator. The
// transport (push, email, in-app) lives outside this service.
type Notification struct {
	UserID   uuid.UUID
	Type     string
	Title    string
	Body     string
	ActorID  uuid.UUID
	Channels []string
	Metadata map[string]any
}

// Notifier is called fire-and-forget, once per recipient, so one failing
// recipient cannot block delivery to the rest.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier is the default implementation: it records the intent and
// leaves delivery to whatever consumes the logs. Used in development and
// as a stand-in until a real transport is wired.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, notification Notification) {
	if n.log == nil {
		return
	}
	n.log.Debugf("notify user=%s type=%s title=%q", notification.UserID, notification.Type, notification.Title)
}

// NopNotifier is used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}
