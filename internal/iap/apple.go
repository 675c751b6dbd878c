package iap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	appleVerificationURL        = "https://buy.itunes.apple.com/verifyReceipt"
	appleSandboxVerificationURL = "https://sandbox.itunes.apple.com/verifyReceipt"
)

// AppleClient verifies receipts against the App Store verifyReceipt endpoint.
type AppleClient struct {
	sharedSecret string
	prodURL      string
	sandboxURL   string
	httpc        *http.Client
}

// NewAppleClient creates an AppleClient with the app's shared secret.
func NewAppleClient(sharedSecret string) *AppleClient {
	return &AppleClient{
		sharedSecret: sharedSecret,
		prodURL:      appleVerificationURL,
		sandboxURL:   appleSandboxVerificationURL,
		httpc:        &http.Client{Timeout: 30 * time.Second},
	}
}

type appleVerifyRequest struct {
	ReceiptData string `json:"receipt-data"`
	Password    string `json:"password"`
}

type appleReceiptInfo struct {
	ExpiresDateMS         string `json:"expires_date_ms"`
	OriginalTransactionID string `json:"original_transaction_id"`
}

type appleVerifyResponse struct {
	Status            int                `json:"status"`
	LatestReceiptInfo []appleReceiptInfo `json:"latest_receipt_info"`
}

// Verify posts the receipt to Apple and extracts the record with the maximum
// expiry. It returns nil when Apple rejects the receipt (non-zero status) or
// reports no receipt records, which the caller treats as no evidence rather
// than an expired subscription.
func (c *AppleClient) Verify(ctx context.Context, receiptData string, sandbox bool) (*Subscription, error) {
	url := c.prodURL
	if sandbox {
		url = c.sandboxURL
	}

	jsonBody, err := json.Marshal(appleVerifyRequest{ReceiptData: receiptData, Password: c.sharedSecret})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apple verifyReceipt request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed appleVerifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse Apple verifyReceipt response: %w", err)
	}

	if parsed.Status != 0 || len(parsed.LatestReceiptInfo) == 0 {
		return nil, nil
	}
	return latestReceipt(parsed.LatestReceiptInfo), nil
}

// latestReceipt selects the receipt record with the maximum expiry timestamp.
// Records with an unparseable expiry are skipped; equal expiries keep the
// earlier record in response order.
func latestReceipt(records []appleReceiptInfo) *Subscription {
	var best *Subscription
	for _, rec := range records {
		ms, err := strconv.ParseInt(rec.ExpiresDateMS, 10, 64)
		if err != nil {
			continue
		}
		expiry := time.UnixMilli(ms)
		if best == nil || expiry.After(best.Expiry) {
			best = &Subscription{
				SubscriptionID: rec.OriginalTransactionID,
				Expiry:         expiry,
			}
		}
	}
	return best
}
