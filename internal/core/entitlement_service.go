package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/iap"
	"github.com/pegumax/student-suite-backend/internal/models"
)

// ErrInvalidPlatform is returned when a receipt names an unsupported platform.
var ErrInvalidPlatform = errors.New("invalid platform")

// ErrIAPVerification is returned when the store verification call itself fails.
var ErrIAPVerification = errors.New("receipt verification failed")

// entitlementService implements the EntitlementService interface.
type entitlementService struct {
	userRepo db.UserRepository
	claims   db.ClaimWriter
	apple    iap.AppleVerifier
	google   iap.GoogleVerifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewEntitlementService creates a new EntitlementService instance.
func NewEntitlementService(
	userRepo db.UserRepository,
	claims db.ClaimWriter,
	apple iap.AppleVerifier,
	google iap.GoogleVerifier,
	logger *zap.Logger,
) EntitlementService {
	return &entitlementService{
		userRepo: userRepo,
		claims:   claims,
		apple:    apple,
		google:   google,
		logger:   logger,
		now:      time.Now,
	}
}

// ReconcileStripeRole projects a Stripe subscription status onto the user's
// billing role and refreshes the combined entitlement claim.
func (s *entitlementService) ReconcileStripeRole(ctx context.Context, customerID, status string) (*models.User, error) {
	user, err := s.userRepo.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// Webhooks can reference customers created outside this backend.
			s.logger.Warn("stripe customer has no matching user", zap.String("customerID", customerID))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up user by customer '%s': %w", customerID, err)
	}

	role := models.RoleFree
	if status == "active" {
		role = models.RolePro
	}
	if err := s.userRepo.SetStripeRole(ctx, user.ID, role); err != nil {
		return nil, fmt.Errorf("failed to set stripe role for user '%s': %w", user.ID, err)
	}

	updated, err := s.refreshClaim(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ProcessIAPReceipt verifies a purchase receipt with the platform store and
// records the resulting IAP role. A rejected receipt clears nothing and still
// refreshes the claim so the client sees a consistent entitlement.
func (s *entitlementService) ProcessIAPReceipt(ctx context.Context, userID, platform string, receipt ReceiptPayload, sandbox bool) (bool, error) {
	var sub *iap.Subscription
	var err error

	switch platform {
	case "ios":
		sub, err = s.apple.Verify(ctx, receipt.ReceiptData, sandbox)
	case "android":
		sub, err = s.google.Verify(ctx, receipt.SubscriptionID, receipt.PurchaseToken)
	default:
		return false, ErrInvalidPlatform
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrIAPVerification, err)
	}

	subscribed := false
	if sub != nil {
		if sub.Expiry.After(s.now()) {
			if err := s.userRepo.SetIAPSubscription(ctx, userID, sub.SubscriptionID, sub.Expiry); err != nil {
				return false, fmt.Errorf("failed to record IAP subscription for user '%s': %w", userID, err)
			}
			subscribed = true
		} else {
			if err := s.userRepo.ClearIAPSubscription(ctx, userID); err != nil {
				return false, fmt.Errorf("failed to clear IAP subscription for user '%s': %w", userID, err)
			}
		}
	}

	if _, err := s.refreshClaim(ctx, userID); err != nil {
		return false, err
	}
	return subscribed, nil
}

// refreshClaim re-reads the user and publishes the combined entitlement as a
// custom auth claim.
func (s *entitlementService) refreshClaim(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user '%s' for claim refresh: %w", userID, err)
	}
	if err := s.claims.SetProClaim(ctx, userID, user.IsPro()); err != nil {
		return nil, fmt.Errorf("failed to set pro claim for user '%s': %w", userID, err)
	}
	return user, nil
}
