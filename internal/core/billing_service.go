package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/db"
)

// ErrCustomerNotLinked is returned when a billing operation requires a Stripe
// customer the user does not have yet.
var ErrCustomerNotLinked = errors.New("user has no billing customer")

// ErrNoActiveSubscription is returned when a cancellation finds nothing to cancel.
var ErrNoActiveSubscription = errors.New("no active subscription")

// ErrPaymentGateway is returned when the payment provider rejects an operation.
var ErrPaymentGateway = errors.New("payment gateway error")

// ErrWebhookSignature is returned when a webhook payload fails signature
// verification.
var ErrWebhookSignature = errors.New("invalid webhook signature")

// referralCreditCents is the balance credit granted to a referrer when a
// referred user completes checkout.
const referralCreditCents int64 = 599

// billingService implements the BillingService interface.
type billingService struct {
	userRepo     db.UserRepository
	journal      db.BillingJournal
	gateway      PaymentGateway
	entitlements EntitlementService
	logger       *zap.Logger
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(
	userRepo db.UserRepository,
	journal db.BillingJournal,
	gateway PaymentGateway,
	entitlements EntitlementService,
	logger *zap.Logger,
) BillingService {
	return &billingService{
		userRepo:     userRepo,
		journal:      journal,
		gateway:      gateway,
		entitlements: entitlements,
		logger:       logger,
	}
}

// CreateCheckoutSession starts a subscription checkout, creating the Stripe
// customer lazily on first use. The session outcome is journaled under the
// user's document either way.
func (s *billingService) CreateCheckoutSession(ctx context.Context, userID, email, priceID, successURL, cancelURL string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to load user '%s' for checkout: %w", userID, err)
	}

	customerID := user.StripeCustomerID
	if customerID == "" {
		customerID, err = s.gateway.CreateCustomer(ctx, email, userID)
		if err != nil {
			return "", fmt.Errorf("%w: create customer: %v", ErrPaymentGateway, err)
		}
		if err := s.userRepo.SetStripeCustomerID(ctx, userID, customerID); err != nil {
			return "", fmt.Errorf("failed to persist customer ID for user '%s': %w", userID, err)
		}
	}

	sessionURL, err := s.gateway.CreateCheckoutSession(ctx, customerID, priceID, successURL, cancelURL)
	if err != nil {
		s.journalCheckout(ctx, userID, priceID, "", err.Error())
		return "", fmt.Errorf("%w: create checkout session: %v", ErrPaymentGateway, err)
	}
	s.journalCheckout(ctx, userID, priceID, sessionURL, "")
	return sessionURL, nil
}

// CreatePortalSession opens a billing portal session for an existing customer.
func (s *billingService) CreatePortalSession(ctx context.Context, userID, returnURL string) (string, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to load user '%s' for portal: %w", userID, err)
	}
	if user.StripeCustomerID == "" {
		return "", ErrCustomerNotLinked
	}

	portalURL, err := s.gateway.CreatePortalSession(ctx, user.StripeCustomerID, returnURL)
	if err != nil {
		if jErr := s.journal.RecordPortalLink(ctx, userID, "", err.Error()); jErr != nil {
			s.logger.Error("failed to journal portal link", zap.String("userID", userID), zap.Error(jErr))
		}
		return "", fmt.Errorf("%w: create portal session: %v", ErrPaymentGateway, err)
	}
	if jErr := s.journal.RecordPortalLink(ctx, userID, portalURL, ""); jErr != nil {
		s.logger.Error("failed to journal portal link", zap.String("userID", userID), zap.Error(jErr))
	}
	return portalURL, nil
}

// CancelSubscription cancels the user's active subscription immediately and
// journals the command.
func (s *billingService) CancelSubscription(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user '%s' for cancellation: %w", userID, err)
	}
	if user.StripeSubscriptionID == "" {
		return ErrNoActiveSubscription
	}

	if jErr := s.journal.RecordCommand(ctx, userID, "cancel_subscription"); jErr != nil {
		s.logger.Error("failed to journal cancel command", zap.String("userID", userID), zap.Error(jErr))
	}
	cancelErr := s.gateway.CancelSubscription(ctx, user.StripeSubscriptionID)
	if cancelErr != nil {
		return fmt.Errorf("%w: cancel subscription: %v", ErrPaymentGateway, cancelErr)
	}
	return nil
}

// HandleWebhook verifies and dispatches a Stripe webhook event.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ConstructWebhookEvent(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	switch event.Type {
	case WebhookSubscriptionUpdated, WebhookSubscriptionDeleted:
		return s.handleSubscriptionChange(ctx, event)
	case WebhookCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	default:
		// Unhandled event types are acknowledged without action.
		return nil
	}
}

func (s *billingService) handleSubscriptionChange(ctx context.Context, event *WebhookEvent) error {
	status := event.SubscriptionStatus
	if event.Type == WebhookSubscriptionDeleted {
		status = "canceled"
	}
	user, err := s.entitlements.ReconcileStripeRole(ctx, event.CustomerID, status)
	if err != nil {
		return fmt.Errorf("failed to reconcile subscription change: %w", err)
	}
	if user == nil {
		return nil
	}

	subscriptionID := event.SubscriptionID
	if event.Type == WebhookSubscriptionDeleted {
		subscriptionID = ""
	}
	if err := s.userRepo.SetStripeSubscription(ctx, user.ID, subscriptionID); err != nil {
		s.logger.Error("failed to store subscription ID",
			zap.String("userID", user.ID),
			zap.Error(err))
	}
	return nil
}

// handleCheckoutCompleted activates the subscriber and, when the subscriber
// was referred, credits the referrer's balance once.
func (s *billingService) handleCheckoutCompleted(ctx context.Context, event *WebhookEvent) error {
	if event.CheckoutMode != "subscription" {
		return nil
	}

	user, err := s.entitlements.ReconcileStripeRole(ctx, event.CustomerID, "active")
	if err != nil {
		return fmt.Errorf("failed to reconcile completed checkout: %w", err)
	}
	if user == nil {
		return nil
	}

	if event.SubscriptionID != "" {
		if err := s.userRepo.SetStripeSubscription(ctx, user.ID, event.SubscriptionID); err != nil {
			s.logger.Error("failed to store subscription ID",
				zap.String("userID", user.ID),
				zap.Error(err))
		}
	}

	if user.ReferredBy == "" || user.ReferralCreditGiven {
		return nil
	}
	referrer, err := s.userRepo.GetByID(ctx, user.ReferredBy)
	if err != nil || referrer.StripeCustomerID == "" {
		s.logger.Warn("referrer not creditable",
			zap.String("referrerID", user.ReferredBy),
			zap.Error(err))
		return nil
	}
	creditErr := s.gateway.CreditCustomerBalance(ctx, referrer.StripeCustomerID, -referralCreditCents,
		fmt.Sprintf("Referral credit for %s", user.ID))
	if creditErr != nil {
		// Left uncredited so a retried webhook can attempt again.
		s.logger.Error("failed to credit referrer",
			zap.String("referrerID", referrer.ID),
			zap.Error(creditErr))
		return nil
	}
	if err := s.userRepo.MarkReferralCredited(ctx, user.ID); err != nil {
		s.logger.Error("failed to mark referral credited",
			zap.String("userID", user.ID),
			zap.Error(err))
	}
	return nil
}

func (s *billingService) journalCheckout(ctx context.Context, userID, priceID, sessionURL, errMsg string) {
	if err := s.journal.RecordCheckoutSession(ctx, userID, priceID, sessionURL, errMsg); err != nil {
		s.logger.Error("failed to journal checkout session", zap.String("userID", userID), zap.Error(err))
	}
}
