package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/models"
)

// ErrEmptyFeedback is returned when a submission has no message body.
var ErrEmptyFeedback = errors.New("feedback message is required")

// feedbackService implements the FeedbackService interface.
type feedbackService struct {
	feedbackRepo db.FeedbackRepository
	mailer       Mailer
	adminEmail   string
	logger       *zap.Logger
}

// NewFeedbackService creates a new FeedbackService instance.
func NewFeedbackService(feedbackRepo db.FeedbackRepository, mailer Mailer, adminEmail string, logger *zap.Logger) FeedbackService {
	return &feedbackService{
		feedbackRepo: feedbackRepo,
		mailer:       mailer,
		adminEmail:   adminEmail,
		logger:       logger,
	}
}

// SubmitFeedback persists the submission, then notifies the operator. The
// email is best-effort; the submission is already durable by then.
func (s *feedbackService) SubmitFeedback(ctx context.Context, feedback *models.Feedback) (string, error) {
	if strings.TrimSpace(feedback.Message) == "" {
		return "", ErrEmptyFeedback
	}

	id, err := s.feedbackRepo.Create(ctx, feedback)
	if err != nil {
		return "", fmt.Errorf("failed to store feedback: %w", err)
	}

	body := fmt.Sprintf(`<h3>New feedback from %s</h3>
<p><b>User:</b> %s (%s)</p>
<p><b>Category:</b> %s | <b>Platform:</b> %s | <b>Version:</b> %s</p>
<p>%s</p>`,
		feedback.DisplayName,
		feedback.UserID,
		feedback.Email,
		feedback.Category,
		feedback.Platform,
		feedback.Version,
		strings.ReplaceAll(feedback.Message, "\n", "<br>"))
	if mailErr := s.mailer.Send(s.adminEmail, "New App Feedback", body); mailErr != nil {
		s.logger.Error("failed to send feedback notification",
			zap.String("feedbackID", id),
			zap.Error(mailErr))
	}
	return id, nil
}
