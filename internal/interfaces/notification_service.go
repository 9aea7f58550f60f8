package interfaces

import (
	"context"

	"github.com/ternarybob/taskpulse/internal/models"
)

// EmailSender delivers digest emails. The default implementation only logs;
// wiring a real SMTP/service sender is a deployment concern.
type EmailSender interface {
	SendEmail(ctx context.Context, to string, subject string, body string) error
}

// NotificationService dispatches messages to users according to their
// notification preferences.
type NotificationService interface {
	Notify(ctx context.Context, user *models.User, notifType string, message string) error
}
