package core

import (
	"context"
	"errors"
	"testing"

	"github.com/pegumax/student-suite-backend/internal/db"
	"github.com/pegumax/student-suite-backend/internal/models"
)

func TestValidateCode_CaseInsensitive(t *testing.T) {
	users := newFakeUserRepo(&models.User{ID: "referrer-1", UIDPrefix: "ABC123"})
	svc := NewReferralService(users)

	for _, code := range []string{"ABC123", "abc123", "  aBc123 "} {
		referrerID, err := svc.ValidateCode(context.Background(), code)
		if err != nil {
			t.Fatalf("code %q: unexpected error: %v", code, err)
		}
		if referrerID != "referrer-1" {
			t.Fatalf("code %q: expected referrer-1, got %q", code, referrerID)
		}
	}
}

func TestValidateCode_UnknownCodeIsNotAnError(t *testing.T) {
	svc := NewReferralService(newFakeUserRepo())

	referrerID, err := svc.ValidateCode(context.Background(), "NOPE99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if referrerID != "" {
		t.Fatalf("expected empty referrer for unknown code, got %q", referrerID)
	}
}

func TestValidateCode_EmptyCode(t *testing.T) {
	svc := NewReferralService(newFakeUserRepo())

	referrerID, err := svc.ValidateCode(context.Background(), "   ")
	if err != nil || referrerID != "" {
		t.Fatalf("expected ('', nil) for empty code, got (%q, %v)", referrerID, err)
	}
}

func TestRedeemReferral_AppliedOnce(t *testing.T) {
	users := newFakeUserRepo()
	users.redeemResult = true
	svc := NewReferralService(users)

	applied, err := svc.RedeemReferral(context.Background(), "subscriber-1", "referrer-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !applied {
		t.Fatalf("expected applied=true on first redemption")
	}
}

func TestRedeemReferral_RepeatIsNoOpSuccess(t *testing.T) {
	users := newFakeUserRepo()
	users.redeemResult = false
	svc := NewReferralService(users)

	applied, err := svc.RedeemReferral(context.Background(), "subscriber-1", "referrer-1")
	if err != nil {
		t.Fatalf("a repeat redemption must not fail, got %v", err)
	}
	if applied {
		t.Fatalf("expected applied=false on a repeat redemption")
	}
}

func TestRedeemReferral_ReferrerNotFound(t *testing.T) {
	users := newFakeUserRepo()
	users.redeemErr = db.ErrNotFound
	svc := NewReferralService(users)

	if _, err := svc.RedeemReferral(context.Background(), "subscriber-1", "ghost"); !errors.Is(err, ErrReferrerNotFound) {
		t.Fatalf("expected ErrReferrerNotFound, got %v", err)
	}
}
