package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pegumax/student-suite-backend/internal/db"
)

// ErrReferrerNotFound is returned when a redemption names a referral code
// with no matching user.
var ErrReferrerNotFound = errors.New("referrer not found")

// referralService implements the ReferralService interface.
type referralService struct {
	userRepo db.UserRepository
}

// NewReferralService creates a new ReferralService instance.
func NewReferralService(userRepo db.UserRepository) ReferralService {
	return &referralService{userRepo: userRepo}
}

// ValidateCode resolves a referral code to the referrer's user ID. Codes are
// matched case-insensitively; an unknown code returns "" without error.
func (s *referralService) ValidateCode(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", nil
	}
	user, err := s.userRepo.FindByReferralPrefix(ctx, code)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to look up referral code '%s': %w", code, err)
	}
	return user.ID, nil
}

// RedeemReferral records the referral for a new subscriber. The repository
// transaction makes this idempotent: a repeat redemption reports success
// without touching the referrer's count again.
func (s *referralService) RedeemReferral(ctx context.Context, subscriberID, referrerID string) (bool, error) {
	applied, err := s.userRepo.RedeemReferral(ctx, referrerID, subscriberID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, ErrReferrerNotFound
		}
		return false, fmt.Errorf("failed to redeem referral for subscriber '%s': %w", subscriberID, err)
	}
	return applied, nil
}
