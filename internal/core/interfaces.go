package core

import (
	"context"
	"time"

	"github.com/pegumax/student-suite-backend/internal/models"
)

// UserService defines the interface for user lifecycle operations.
type UserService interface {
	// GetOrCreate retrieves a user by ID. If the user doesn't exist, it
	// creates a new profile with a referral prefix and founder flag.
	GetOrCreate(ctx context.Context, userID, email, displayName, photoURL string) (*models.User, bool, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	// DeleteAccount performs account cleanup: best-effort subscription
	// cancellation, recursive document deletion, profile image removal.
	DeleteAccount(ctx context.Context, userID string) error
}

// EntitlementService merges the two subscription signals into the combined
// "pro" entitlement and publishes it as an auth claim.
type EntitlementService interface {
	// ReconcileStripeRole maps a Stripe subscription status onto the user's
	// billing role and refreshes the claim. A customer reference with no
	// matching user is logged and yields a nil user, not an error.
	ReconcileStripeRole(ctx context.Context, customerID, status string) (*models.User, error)
	// ProcessIAPReceipt verifies a platform receipt, persists the IAP role,
	// refreshes the claim, and reports whether the user is subscribed.
	ProcessIAPReceipt(ctx context.Context, userID, platform string, receipt ReceiptPayload, sandbox bool) (bool, error)
}

// ReceiptPayload carries a platform purchase receipt. ReceiptData is set for
// iOS; SubscriptionID and PurchaseToken are set for Android.
type ReceiptPayload struct {
	ReceiptData    string
	SubscriptionID string
	PurchaseToken  string
}

// GenerationService is the AI text-generation entry point with failover and
// usage metering.
type GenerationService interface {
	Generate(ctx context.Context, userID, prompt string) (string, error)
}

// ReferralService validates and redeems referral codes.
type ReferralService interface {
	// ValidateCode returns the referrer's user ID, or "" when the code is
	// unknown (a normal outcome, not an error).
	ValidateCode(ctx context.Context, code string) (string, error)
	// RedeemReferral records the referral for a new subscriber exactly once.
	// Repeat invocations succeed without mutating anything.
	RedeemReferral(ctx context.Context, subscriberID, referrerID string) (bool, error)
}

// BillingService handles Stripe checkout, portal, cancellation, and webhooks.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID, email, priceID, successURL, cancelURL string) (string, error)
	CreatePortalSession(ctx context.Context, userID, returnURL string) (string, error)
	CancelSubscription(ctx context.Context, userID string) error
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// ReportService aggregates the usage ledger into the monthly summary.
type ReportService interface {
	BuildReport(ctx context.Context, monthKey string) (*models.UsageReport, error)
	// SendMonthlyReport builds the report for the month preceding `now` and
	// emails it to the operator address.
	SendMonthlyReport(ctx context.Context, now time.Time) error
}

// FeedbackService persists a feedback submission and notifies the operator.
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, feedback *models.Feedback) (string, error)
}

// OfferService signs App Store promotional offers.
type OfferService interface {
	SignPromotionalOffer(productID, offerID string) (*OfferSignature, error)
}

// OfferSignature is a signed promotional offer token plus the parameters the
// client must present alongside it.
type OfferSignature struct {
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
	Timestamp int64  `json:"timestamp"`
	KeyID     string `json:"keyId"`
}

// WebhookEventType enumerates the Stripe event types the service acts on.
type WebhookEventType string

const (
	WebhookSubscriptionUpdated WebhookEventType = "customer.subscription.updated"
	WebhookSubscriptionDeleted WebhookEventType = "customer.subscription.deleted"
	WebhookCheckoutCompleted   WebhookEventType = "checkout.session.completed"
)

// WebhookEvent is a Stripe event normalized at the gateway boundary into the
// fields this service actually consumes.
type WebhookEvent struct {
	Type               WebhookEventType
	CustomerID         string
	SubscriptionID     string
	SubscriptionStatus string
	CheckoutMode       string
}

// PaymentGateway abstracts the Stripe API surface used by the services.
type PaymentGateway interface {
	CreateCustomer(ctx context.Context, email, userID string) (customerID string, err error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (sessionURL string, err error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (portalURL string, err error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	// CreditCustomerBalance applies a credit (negative balance transaction)
	// of the given amount in cents to the customer.
	CreditCustomerBalance(ctx context.Context, customerID string, amountCents int64, description string) error
	// ConstructWebhookEvent verifies the payload signature and normalizes the
	// event; signature failures wrap ErrWebhookSignature.
	ConstructWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}

// Mailer sends a single HTML email.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}
