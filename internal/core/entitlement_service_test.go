package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pegumax/student-suite-backend/internal/iap"
	"github.com/pegumax/student-suite-backend/internal/models"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newEntitlementServiceForTest(users *fakeUserRepo, claims *fakeClaimWriter, apple *fakeAppleVerifier, google *fakeGoogleVerifier) *entitlementService {
	svc := NewEntitlementService(users, claims, apple, google, zap.NewNop()).(*entitlementService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestReconcileStripeRole_ActiveGrantsPro(t *testing.T) {
	users := newFakeUserRepo(&models.User{
		ID:               "user-1",
		StripeCustomerID: "cus_123",
		StripeRole:       models.RoleFree,
		IAPRole:          models.RoleFree,
	})
	claims := newFakeClaimWriter()
	svc := newEntitlementServiceForTest(users, claims, &fakeAppleVerifier{}, &fakeGoogleVerifier{})

	user, err := svc.ReconcileStripeRole(context.Background(), "cus_123", "active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.StripeRole != models.RolePro {
		t.Fatalf("expected stripe role pro, got %q", user.StripeRole)
	}
	if !claims.claims["user-1"] {
		t.Fatalf("expected isPro claim to be true")
	}
}

func TestReconcileStripeRole_NonActiveRevokes(t *testing.T) {
	for _, status := range []string{"canceled", "past_due", "unpaid", "incomplete"} {
		users := newFakeUserRepo(&models.User{
			ID:               "user-1",
			StripeCustomerID: "cus_123",
			StripeRole:       models.RolePro,
			IAPRole:          models.RoleFree,
		})
		claims := newFakeClaimWriter()
		svc := newEntitlementServiceForTest(users, claims, &fakeAppleVerifier{}, &fakeGoogleVerifier{})

		user, err := svc.ReconcileStripeRole(context.Background(), "cus_123", status)
		if err != nil {
			t.Fatalf("status %q: unexpected error: %v", status, err)
		}
		if user.StripeRole != models.RoleFree {
			t.Fatalf("status %q: expected stripe role free, got %q", status, user.StripeRole)
		}
		if claims.claims["user-1"] {
			t.Fatalf("status %q: expected isPro claim to be false", status)
		}
	}
}

func TestReconcileStripeRole_IAPKeepsClaimTrue(t *testing.T) {
	users := newFakeUserRepo(&models.User{
		ID:               "user-1",
		StripeCustomerID: "cus_123",
		StripeRole:       models.RolePro,
		IAPRole:          models.RolePro,
	})
	claims := newFakeClaimWriter()
	svc := newEntitlementServiceForTest(users, claims, &fakeAppleVerifier{}, &fakeGoogleVerifier{})

	// Stripe lapses but the IAP subscription still holds the entitlement.
	if _, err := svc.ReconcileStripeRole(context.Background(), "cus_123", "canceled"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claims.claims["user-1"] {
		t.Fatalf("claim must stay true while the IAP role is pro")
	}
}

func TestReconcileStripeRole_UnknownCustomerIsNotAnError(t *testing.T) {
	users := newFakeUserRepo()
	claims := newFakeClaimWriter()
	svc := newEntitlementServiceForTest(users, claims, &fakeAppleVerifier{}, &fakeGoogleVerifier{})

	user, err := svc.ReconcileStripeRole(context.Background(), "cus_nobody", "active")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected nil user for an unknown customer")
	}
	if claims.calls != 0 {
		t.Fatalf("no claim should be written for an unknown customer")
	}
}

func TestProcessIAPReceipt_FutureExpiryGrantsPro(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: "user-1", StripeRole: models.RoleFree, IAPRole: models.RoleFree})
	claims := newFakeClaimWriter()
	apple := &fakeAppleVerifier{sub: &iap.Subscription{SubscriptionID: "t2", Expiry: testNow.Add(24 * time.Hour)}}
	svc := newEntitlementServiceForTest(users, claims, apple, &fakeGoogleVerifier{})

	subscribed, err := svc.ProcessIAPReceipt(context.Background(), "user-1", "ios", ReceiptPayload{ReceiptData: "data"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !subscribed {
		t.Fatalf("expected subscribed=true for a future expiry")
	}
	user := users.users["user-1"]
	if user.IAPRole != models.RolePro || user.IAPSubscriptionID != "t2" {
		t.Fatalf("unexpected IAP state: %+v", user)
	}
	if !claims.claims["user-1"] {
		t.Fatalf("expected isPro claim to be true")
	}
}

func TestProcessIAPReceipt_PastExpiryClears(t *testing.T) {
	users := newFakeUserRepo(&models.User{
		ID:                "user-1",
		StripeRole:        models.RoleFree,
		IAPRole:           models.RolePro,
		IAPSubscriptionID: "t1",
	})
	claims := newFakeClaimWriter()
	apple := &fakeAppleVerifier{sub: &iap.Subscription{SubscriptionID: "t1", Expiry: testNow.Add(-time.Hour)}}
	svc := newEntitlementServiceForTest(users, claims, apple, &fakeGoogleVerifier{})

	subscribed, err := svc.ProcessIAPReceipt(context.Background(), "user-1", "ios", ReceiptPayload{ReceiptData: "data"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subscribed {
		t.Fatalf("expected subscribed=false for an expired receipt")
	}
	user := users.users["user-1"]
	if user.IAPRole != models.RoleFree || user.IAPSubscriptionID != "" {
		t.Fatalf("expected IAP state cleared, got %+v", user)
	}
	if claims.claims["user-1"] {
		t.Fatalf("expected isPro claim to be false")
	}
}

func TestProcessIAPReceipt_RejectedReceiptWritesNothing(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: "user-1", StripeRole: models.RoleFree, IAPRole: models.RolePro})
	claims := newFakeClaimWriter()
	// Apple rejected the receipt: the verifier reports no evidence at all.
	apple := &fakeAppleVerifier{sub: nil}
	svc := newEntitlementServiceForTest(users, claims, apple, &fakeGoogleVerifier{})

	subscribed, err := svc.ProcessIAPReceipt(context.Background(), "user-1", "ios", ReceiptPayload{ReceiptData: "data"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subscribed {
		t.Fatalf("expected subscribed=false without evidence")
	}
	if users.users["user-1"].IAPRole != models.RolePro {
		t.Fatalf("a rejected receipt must not clear the existing role")
	}
	if claims.calls != 1 {
		t.Fatalf("the claim must still be recomputed, got %d calls", claims.calls)
	}
	if !claims.claims["user-1"] {
		t.Fatalf("claim should reflect the untouched pro role")
	}
}

func TestProcessIAPReceipt_AndroidZeroExpiryClears(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: "user-1", StripeRole: models.RoleFree, IAPRole: models.RolePro})
	claims := newFakeClaimWriter()
	google := &fakeGoogleVerifier{sub: &iap.Subscription{SubscriptionID: "sub_monthly"}}
	svc := newEntitlementServiceForTest(users, claims, &fakeAppleVerifier{}, google)

	subscribed, err := svc.ProcessIAPReceipt(context.Background(), "user-1", "android",
		ReceiptPayload{SubscriptionID: "sub_monthly", PurchaseToken: "tok"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subscribed {
		t.Fatalf("a missing expiry means not subscribed")
	}
	if users.users["user-1"].IAPRole != models.RoleFree {
		t.Fatalf("expected IAP role cleared")
	}
}

func TestProcessIAPReceipt_InvalidPlatform(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: "user-1"})
	svc := newEntitlementServiceForTest(users, newFakeClaimWriter(), &fakeAppleVerifier{}, &fakeGoogleVerifier{})

	if _, err := svc.ProcessIAPReceipt(context.Background(), "user-1", "windows", ReceiptPayload{}, false); !errors.Is(err, ErrInvalidPlatform) {
		t.Fatalf("expected ErrInvalidPlatform, got %v", err)
	}
}

func TestProcessIAPReceipt_VerifierError(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: "user-1", IAPRole: models.RolePro})
	claims := newFakeClaimWriter()
	apple := &fakeAppleVerifier{err: errBoom}
	svc := newEntitlementServiceForTest(users, claims, apple, &fakeGoogleVerifier{})

	if _, err := svc.ProcessIAPReceipt(context.Background(), "user-1", "ios", ReceiptPayload{ReceiptData: "data"}, false); !errors.Is(err, ErrIAPVerification) {
		t.Fatalf("expected ErrIAPVerification, got %v", err)
	}
	if users.users["user-1"].IAPRole != models.RolePro {
		t.Fatalf("a verification failure must not mutate the role")
	}
	if claims.calls != 0 {
		t.Fatalf("no claim write on verification failure")
	}
}
