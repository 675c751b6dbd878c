package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/ai"
	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/models"
)

// ErrEmptyPrompt is returned when a generation request carries no prompt text.
var ErrEmptyPrompt = errors.New("prompt is required")

// ErrQuotaExceeded is returned when the user's monthly AI spend has reached
// the configured cap.
var ErrQuotaExceeded = errors.New("monthly usage limit exceeded")

// ErrAIUnavailable is returned when every configured backend failed to
// produce a completion.
var ErrAIUnavailable = errors.New("all AI providers unavailable")

// generationService implements the GenerationService interface.
type generationService struct {
	usageRepo db.UsageRepository
	backends  []ai.TextBackend
	pricing   ai.PricingTable
	costLimit float64
	logger    *zap.Logger
	now       func() time.Time
}

// NewGenerationService creates a new GenerationService instance. costLimitCents
// is the per-user monthly spend cap.
func NewGenerationService(
	usageRepo db.UsageRepository,
	backends []ai.TextBackend,
	pricing ai.PricingTable,
	costLimitCents int64,
	logger *zap.Logger,
) GenerationService {
	return &generationService{
		usageRepo: usageRepo,
		backends:  backends,
		pricing:   pricing,
		costLimit: float64(costLimitCents) / 100,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate runs the prompt against the configured backends in order, stopping
// at the first non-empty completion. The quota check happens before any
// backend is contacted, so a capped user costs nothing.
func (s *generationService) Generate(ctx context.Context, userID, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	if len(s.backends) == 0 {
		return "", ErrAIUnavailable
	}

	monthKey := models.MonthKey(s.now())
	usage, err := s.usageRepo.Get(ctx, userID, monthKey)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("failed to read usage ledger for user '%s': %w", userID, err)
	}
	if usage != nil && usage.Cost >= s.costLimit {
		return "", ErrQuotaExceeded
	}

	var failures []string
	for _, backend := range s.backends {
		completion, genErr := backend.Generate(ctx, prompt)
		if genErr != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", backend.Name(), genErr))
			continue
		}
		text := strings.TrimSpace(completion.Text)
		if text == "" {
			failures = append(failures, fmt.Sprintf("%s: empty completion", backend.Name()))
			continue
		}

		cost := s.pricing.Cost(backend.Model(), completion.InputTokens, completion.OutputTokens)
		delta := models.UsageDelta{
			InputTokens:  completion.InputTokens,
			OutputTokens: completion.OutputTokens,
			Cost:         cost,
		}
		// The completion already happened; a ledger write failure must not
		// withhold it from the user.
		if incErr := s.usageRepo.Increment(ctx, userID, monthKey, delta); incErr != nil {
			s.logger.Error("failed to record AI usage",
				zap.String("userID", userID),
				zap.String("month", monthKey),
				zap.Error(incErr))
		}
		return text, nil
	}

	s.logger.Error("all AI backends failed",
		zap.String("userID", userID),
		zap.Strings("failures", failures))
	return "", ErrAIUnavailable
}
