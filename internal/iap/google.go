package iap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const googleVerificationURL = "https://www.googleapis.com/androidpublisher/v3/applications"

// GoogleClient verifies subscription purchases against the Android Publisher API.
type GoogleClient struct {
	packageName string
	accessToken string
	baseURL     string
	httpc       *http.Client
}

// NewGoogleClient creates a GoogleClient for the app's package name.
func NewGoogleClient(packageName, accessToken string) *GoogleClient {
	return &GoogleClient{
		packageName: packageName,
		accessToken: accessToken,
		baseURL:     googleVerificationURL,
		httpc:       &http.Client{Timeout: 30 * time.Second},
	}
}

type googlePurchaseResponse struct {
	ExpiryTimeMillis string `json:"expiryTimeMillis"`
	Error            *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Verify fetches the subscription purchase record. A missing or unparseable
// expiry yields a zero Expiry, which the caller treats as not subscribed.
func (c *GoogleClient) Verify(ctx context.Context, subscriptionID, purchaseToken string) (*Subscription, error) {
	endpoint := fmt.Sprintf("%s/%s/subscriptions/%s/purchases/%s?access_token=%s",
		c.baseURL,
		url.PathEscape(c.packageName),
		url.PathEscape(subscriptionID),
		url.PathEscape(purchaseToken),
		url.QueryEscape(c.accessToken),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google subscription verification request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed googlePurchaseResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse Android Publisher response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("android publisher API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	sub := &Subscription{SubscriptionID: subscriptionID}
	if ms, err := strconv.ParseInt(parsed.ExpiryTimeMillis, 10, 64); err == nil {
		sub.Expiry = time.UnixMilli(ms)
	}
	return sub, nil
}
