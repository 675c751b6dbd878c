package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/models"
)

// reportService implements the ReportService interface.
type reportService struct {
	userRepo   db.UserRepository
	usageRepo  db.UsageRepository
	mailer     Mailer
	adminEmail string
	logger     *zap.Logger
}

// NewReportService creates a new ReportService instance.
func NewReportService(
	userRepo db.UserRepository,
	usageRepo db.UsageRepository,
	mailer Mailer,
	adminEmail string,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		userRepo:   userRepo,
		usageRepo:  usageRepo,
		mailer:     mailer,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// BuildReport walks every user's ledger entry for the month and aggregates
// totals. Users with no entry for the month are skipped.
func (s *reportService) BuildReport(ctx context.Context, monthKey string) (*models.UsageReport, error) {
	userIDs, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for report: %w", err)
	}

	report := &models.UsageReport{MonthYear: monthKey, TotalUsers: len(userIDs)}
	for _, userID := range userIDs {
		usage, err := s.usageRepo.Get(ctx, userID, monthKey)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to read usage for user '%s': %w", userID, err)
		}
		report.ActiveUsers++
		report.TotalRequests += usage.Requests
		report.TotalInputTokens += usage.InputTokens
		report.TotalOutputTokens += usage.OutputTokens
		report.TotalCost += usage.Cost
	}
	if report.ActiveUsers > 0 {
		report.AvgRequests = float64(report.TotalRequests) / float64(report.ActiveUsers)
		report.AvgCost = report.TotalCost / float64(report.ActiveUsers)
	}
	return report, nil
}

// SendMonthlyReport emails the previous month's summary to the operator.
func (s *reportService) SendMonthlyReport(ctx context.Context, now time.Time) error {
	monthKey := models.PreviousMonthKey(now)
	report, err := s.BuildReport(ctx, monthKey)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("AI Usage Report for %s", monthKey)
	body := fmt.Sprintf(`<h2>AI Usage Report for %s</h2>
<ul>
  <li>Total users: %d</li>
  <li>Active AI users: %d</li>
  <li>Total requests: %d</li>
  <li>Input tokens: %d</li>
  <li>Output tokens: %d</li>
  <li>Total cost: $%.4f</li>
  <li>Avg requests per active user: %.1f</li>
  <li>Avg cost per active user: $%.4f</li>
</ul>`,
		report.MonthYear,
		report.TotalUsers,
		report.ActiveUsers,
		report.TotalRequests,
		report.TotalInputTokens,
		report.TotalOutputTokens,
		report.TotalCost,
		report.AvgRequests,
		report.AvgCost)

	if err := s.mailer.Send(s.adminEmail, subject, body); err != nil {
		return fmt.Errorf("failed to send monthly report: %w", err)
	}
	s.logger.Info("monthly usage report sent",
		zap.String("month", monthKey),
		zap.Int("activeUsers", report.ActiveUsers))
	return nil
}
