package iap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLatestReceipt_PicksMaxExpiry(t *testing.T) {
	t.Parallel()

	records := []appleReceiptInfo{
		{ExpiresDateMS: "1700000000000", OriginalTransactionID: "t1"},
		{ExpiresDateMS: "1800000000000", OriginalTransactionID: "t2"},
		{ExpiresDateMS: "1750000000000", OriginalTransactionID: "t3"},
	}

	sub := latestReceipt(records)
	if sub == nil {
		t.Fatalf("expected a subscription, got nil")
	}
	if sub.SubscriptionID != "t2" {
		t.Fatalf("expected record t2 with the max expiry, got %s", sub.SubscriptionID)
	}
	if !sub.Expiry.Equal(time.UnixMilli(1800000000000)) {
		t.Fatalf("unexpected expiry: %v", sub.Expiry)
	}
}

func TestLatestReceipt_EqualExpiryKeepsFirst(t *testing.T) {
	t.Parallel()

	records := []appleReceiptInfo{
		{ExpiresDateMS: "1800000000000", OriginalTransactionID: "first"},
		{ExpiresDateMS: "1800000000000", OriginalTransactionID: "second"},
	}

	sub := latestReceipt(records)
	if sub == nil || sub.SubscriptionID != "first" {
		t.Fatalf("expected the first record on an expiry tie, got %+v", sub)
	}
}

func TestLatestReceipt_SkipsUnparseableExpiry(t *testing.T) {
	t.Parallel()

	records := []appleReceiptInfo{
		{ExpiresDateMS: "not-a-number", OriginalTransactionID: "bad"},
		{ExpiresDateMS: "1700000000000", OriginalTransactionID: "good"},
	}

	sub := latestReceipt(records)
	if sub == nil || sub.SubscriptionID != "good" {
		t.Fatalf("expected the parseable record, got %+v", sub)
	}

	if latestReceipt([]appleReceiptInfo{{ExpiresDateMS: "nope"}}) != nil {
		t.Fatalf("expected nil when no record has a parseable expiry")
	}
}

func TestAppleVerify_RejectedReceiptReturnsNil(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 21007}`))
	}))
	defer server.Close()

	client := NewAppleClient("secret")
	client.prodURL = server.URL

	sub, err := client.Verify(context.Background(), "receipt", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected nil subscription for rejected receipt, got %+v", sub)
	}
}

func TestAppleVerify_SandboxRouting(t *testing.T) {
	t.Parallel()

	prod := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("production endpoint called for a sandbox receipt")
	}))
	defer prod.Close()
	sandbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 0, "latest_receipt_info": [{"expires_date_ms": "99999999999999", "original_transaction_id": "sandbox-sub"}]}`))
	}))
	defer sandbox.Close()

	client := NewAppleClient("secret")
	client.prodURL = prod.URL
	client.sandboxURL = sandbox.URL

	sub, err := client.Verify(context.Background(), "receipt", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub == nil || sub.SubscriptionID != "sandbox-sub" {
		t.Fatalf("expected sandbox subscription, got %+v", sub)
	}
}
