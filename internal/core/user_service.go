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

// ErrUserNotFound is returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// referralPrefixLength is how many leading characters of the UID form the
// user's referral code.
const referralPrefixLength = 6

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	metadata db.MetadataRepository
	images   db.ProfileImageStore
	gateway  PaymentGateway
	logger   *zap.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(
	userRepo db.UserRepository,
	metadata db.MetadataRepository,
	images db.ProfileImageStore,
	gateway PaymentGateway,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo: userRepo,
		metadata: metadata,
		images:   images,
		gateway:  gateway,
		logger:   logger,
	}
}

// GetOrCreate retrieves a user by ID, creating the profile on first sign-in.
// New profiles receive a referral prefix derived from the UID and compete for
// one of the founder slots.
func (s *userService) GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error) {
	if userID == "" {
		return nil, false, errors.New("userID is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user by ID '%s' from repository: %w", userID, err)
	}

	newUser := &models.User{
		ID:          userID,
		Email:       email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
		StripeRole:  models.RoleFree,
		IAPRole:     models.RoleFree,
		UIDPrefix:   uidPrefix(userID),
	}
	if createErr := s.userRepo.Create(ctx, newUser); createErr != nil {
		return nil, false, fmt.Errorf("failed to create user (id: %s) after not found: %w", userID, createErr)
	}

	// Founder assignment increments the global user counter atomically. A
	// failure here must not fail sign-up.
	isFounder, founderErr := s.metadata.AssignFounder(ctx, userID)
	if founderErr != nil {
		s.logger.Error("failed to assign founder status", zap.String("userID", userID), zap.Error(founderErr))
	} else {
		newUser.IsFounder = isFounder
	}

	return newUser, true, nil
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID '%s': %w", userID, err)
	}
	return user, nil
}

// DeleteAccount removes all server-side traces of the user. Subscription
// cancellation and image removal are best-effort; document deletion is not.
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("failed to load user '%s' for deletion: %w", userID, err)
	}

	if user != nil && user.StripeCustomerID != "" && user.StripeSubscriptionID != "" {
		if cancelErr := s.gateway.CancelSubscription(ctx, user.StripeSubscriptionID); cancelErr != nil {
			s.logger.Error("failed to cancel subscription during account deletion",
				zap.String("userID", userID),
				zap.String("subscriptionID", user.StripeSubscriptionID),
				zap.Error(cancelErr))
		}
	}

	if err := s.userRepo.RecursiveDelete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user documents for '%s': %w", userID, err)
	}

	if imgErr := s.images.Delete(ctx, userID); imgErr != nil && !errors.Is(imgErr, db.ErrImageNotFound) {
		s.logger.Error("failed to delete profile image", zap.String("userID", userID), zap.Error(imgErr))
	}

	return nil
}

func uidPrefix(userID string) string {
	prefix := userID
	if len(prefix) > referralPrefixLength {
		prefix = prefix[:referralPrefixLength]
	}
	return strings.ToUpper(prefix)
}
