package iap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGoogleVerify_ParsesExpiry(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expiryTimeMillis": "1800000000000"}`))
	}))
	defer server.Close()

	client := NewGoogleClient("com.example.app", "token")
	client.baseURL = server.URL

	sub, err := client.Verify(context.Background(), "sub_monthly", "purchase-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.SubscriptionID != "sub_monthly" {
		t.Fatalf("unexpected subscription ID: %s", sub.SubscriptionID)
	}
	if !sub.Expiry.Equal(time.UnixMilli(1800000000000)) {
		t.Fatalf("unexpected expiry: %v", sub.Expiry)
	}
}

func TestGoogleVerify_MissingExpiryYieldsZeroTime(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewGoogleClient("com.example.app", "token")
	client.baseURL = server.URL

	sub, err := client.Verify(context.Background(), "sub_monthly", "purchase-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.Expiry.IsZero() {
		t.Fatalf("expected zero expiry when the platform reports none, got %v", sub.Expiry)
	}
}

func TestGoogleVerify_APIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 401, "message": "The current user has insufficient permissions"}}`))
	}))
	defer server.Close()

	client := NewGoogleClient("com.example.app", "token")
	client.baseURL = server.URL

	if _, err := client.Verify(context.Background(), "sub_monthly", "purchase-token"); err == nil {
		t.Fatalf("expected an error from the publisher API error payload")
	}
}
