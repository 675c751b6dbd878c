// Package iap verifies in-app-purchase receipts against the Apple and Google
// platform endpoints. Responses are decoded into explicit schemas at this
// boundary; callers never see the raw payloads.
package iap

import (
	"context"
	"time"
)

// Subscription is the verified subscription evidence extracted from a
// platform receipt. A zero Expiry means the platform reported none.
type Subscription struct {
	SubscriptionID string
	Expiry         time.Time
}

// AppleVerifier verifies an iOS App Store receipt.
type AppleVerifier interface {
	// Verify returns the receipt record with the latest expiry, or nil when
	// the platform rejects the receipt or reports no subscription records.
	Verify(ctx context.Context, receiptData string, sandbox bool) (*Subscription, error)
}

// GoogleVerifier verifies an Android subscription purchase.
type GoogleVerifier interface {
	Verify(ctx context.Context, subscriptionID, purchaseToken string) (*Subscription, error)
}
