package models

import "time"

// Subscription role values stored on the user document. The Stripe webhook
// and the IAP receipt verifier each own one of the two role fields; the
// externally visible entitlement is always their logical OR.
const (
	RolePro  = "pro"
	RoleFree = "free"
)

// User represents a user in the system. The document ID is the Firebase Auth UID.
type User struct {
	ID          string `json:"id" firestore:"-"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`

	// Stripe subscription state, owned by the billing webhook.
	StripeCustomerID     string `json:"stripeCustomerId,omitempty" firestore:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string `json:"stripeSubscriptionId,omitempty" firestore:"stripeSubscriptionId,omitempty"`
	StripeRole           string `json:"stripeRole" firestore:"stripeRole"`

	// In-app-purchase subscription state, owned by the receipt verifier.
	IAPRole           string    `json:"iapRole" firestore:"iapRole"`
	IAPSubscriptionID string    `json:"iapSubscriptionId,omitempty" firestore:"iapSubscriptionId,omitempty"`
	IAPExpiryDate     time.Time `json:"iapExpiryDate,omitempty" firestore:"iapExpiryDate,omitempty"`

	// Referral tracking. UIDPrefix is the user's shareable referral code.
	UIDPrefix           string    `json:"uidPrefix" firestore:"uid_prefix"`
	ReferredBy          string    `json:"referredBy,omitempty" firestore:"referredBy,omitempty"`
	ReferralCreditGiven bool      `json:"referralCreditGiven" firestore:"referralCreditGiven"`
	ReferralCount       int64     `json:"referralCount" firestore:"referralCount"`
	LastReferralDate    time.Time `json:"lastReferralDate,omitempty" firestore:"lastReferralDate,omitempty"`

	// IsFounder is granted once at creation to the first accounts past the
	// global counter, and never changes afterwards.
	IsFounder bool `json:"isFounder" firestore:"isFounder"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// IsPro reports the combined entitlement derived from both subscription signals.
func (u *User) IsPro() bool {
	return u.StripeRole == RolePro || u.IAPRole == RolePro
}
