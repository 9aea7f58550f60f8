package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
)

// Service dispatches messages through the channels each user has enabled.
type Service struct {
	storage interfaces.StorageManager
	email   interfaces.EmailSender
	logger  arbor.ILogger
}

// NewService creates a notification service. email may be nil to disable the
// email channel entirely.
func NewService(storage interfaces.StorageManager, email interfaces.EmailSender, logger arbor.ILogger) interfaces.NotificationService {
	return &Service{
		storage: storage,
		email:   email,
		logger:  logger,
	}
}

// Notify delivers a message to a user on every enabled channel. One channel
// failing does not stop the others.
func (s *Service) Notify(ctx context.Context, user *models.User, notifType string, message string) error {
	if user == nil {
		return errors.New("user is required")
	}

	var channelErrs []error

	if user.Preferences.InApp {
		notification := &models.Notification{
			ID:        common.NewNotificationID(),
			UserID:    user.ID,
			Type:      notifType,
			Message:   message,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.storage.NotificationStorage().StoreNotification(ctx, notification); err != nil {
			channelErrs = append(channelErrs, fmt.Errorf("in-app delivery: %w", err))
		}
	}

	if user.Preferences.Email && s.email != nil && user.Email != "" {
		subject := subjectFor(notifType)
		if err := s.email.SendEmail(ctx, user.Email, subject, message); err != nil {
			channelErrs = append(channelErrs, fmt.Errorf("email delivery: %w", err))
		}
	}

	if err := errors.Join(channelErrs...); err != nil {
		return err
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Str("type", notifType).
		Msg("Notification dispatched")
	return nil
}

func subjectFor(notifType string) string {
	switch notifType {
	case "weekly_digest":
		return "Your weekly activity digest"
	default:
		return "TaskPulse notification"
	}
}

// LogEmailSender writes outbound emails to the log instead of sending them.
// It is the default sender when no mail transport is configured.
type LogEmailSender struct {
	logger arbor.ILogger
}

// NewLogEmailSender creates the logging email sender.
func NewLogEmailSender(logger arbor.ILogger) *LogEmailSender {
	return &LogEmailSender{logger: logger}
}

func (s *LogEmailSender) SendEmail(ctx context.Context, to string, subject string, body string) error {
	s.logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("Email suppressed (log-only sender)")
	return nil
}
