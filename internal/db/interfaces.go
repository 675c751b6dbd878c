package db

import (
	"context"
	"time"

	"github.com/pegumax/student-suite-backend/internal/models"
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error

	// Role mutations. Each writes only the fields it owns; claim recomputation
	// is the caller's responsibility and happens after these return.
	SetStripeRole(ctx context.Context, userID, role string) error
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	SetStripeSubscription(ctx context.Context, userID, subscriptionID string) error
	SetIAPSubscription(ctx context.Context, userID, subscriptionID string, expiry time.Time) error
	ClearIAPSubscription(ctx context.Context, userID string) error

	// GetByStripeCustomerID resolves a webhook's customer reference back to a
	// user document. Returns ErrNotFound when no user carries the reference.
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)

	// FindByReferralPrefix looks up a user by referral code. The prefix is
	// stored upper-cased; callers normalize before querying.
	FindByReferralPrefix(ctx context.Context, prefix string) (*models.User, error)

	// RedeemReferral runs the referral-credit transaction. It returns
	// applied=false without error when the subscriber was already credited.
	RedeemReferral(ctx context.Context, referrerID, subscriberID string) (applied bool, err error)

	// MarkReferralCredited stamps the one-time credit flag outside a
	// transaction, used by the checkout-completed webhook path.
	MarkReferralCredited(ctx context.Context, userID string) error

	ListIDs(ctx context.Context) ([]string, error)

	// RecursiveDelete removes the user document and every subcollection
	// beneath it (checkout sessions, portal links, usage ledger, commands).
	RecursiveDelete(ctx context.Context, userID string) error
}

// UsageRepository defines the interface for the per-month AI usage ledger.
type UsageRepository interface {
	// Get returns the ledger entry for (userID, monthKey), or ErrNotFound if
	// no call has been recorded for that month yet.
	Get(ctx context.Context, userID, monthKey string) (*models.MonthlyUsage, error)

	// Increment applies a single successful call's counters atomically,
	// creating the entry when absent. Requests always advances by one.
	Increment(ctx context.Context, userID, monthKey string, delta models.UsageDelta) error
}

// MetadataRepository guards the singleton globals/metadata document.
type MetadataRepository interface {
	// AssignFounder atomically reads the global user count, stamps the founder
	// flag on the given user, and advances the count by one.
	AssignFounder(ctx context.Context, userID string) (isFounder bool, err error)
}

// FeedbackRepository stores feedback submissions.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) (string, error)
}

// BillingJournal records billing command/session documents under a user,
// mirroring what the client observes on its own checkout/portal documents.
type BillingJournal interface {
	RecordCheckoutSession(ctx context.Context, userID, priceID, sessionURL, errMsg string) error
	RecordPortalLink(ctx context.Context, userID, portalURL, errMsg string) error
	RecordCommand(ctx context.Context, userID, command string) error
}

// ClaimWriter publishes the combined entitlement as a Firebase Auth custom claim.
type ClaimWriter interface {
	SetProClaim(ctx context.Context, userID string, isPro bool) error
}

// ProfileImageStore manages the stored profile image for a user.
type ProfileImageStore interface {
	// Delete removes the user's profile image, returning ErrImageNotFound when
	// no image is stored.
	Delete(ctx context.Context, userID string) error
}
