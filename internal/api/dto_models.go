package api

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// GenerateRequest is the body shared by every AI generation route.
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// GenerateResponse returns the generated text.
type GenerateResponse struct {
	Text string `json:"text"`
}

// CreateCheckoutSessionRequest defines the structure for creating a Stripe
// Checkout session.
type CreateCheckoutSessionRequest struct {
	PriceID    string `json:"priceId" binding:"required"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// CheckoutSessionResponse returns the hosted checkout URL.
type CheckoutSessionResponse struct {
	URL string `json:"url"`
}

// CreatePortalSessionRequest defines the structure for opening the billing portal.
type CreatePortalSessionRequest struct {
	ReturnURL string `json:"returnUrl"`
}

// PortalSessionResponse returns the hosted portal URL.
type PortalSessionResponse struct {
	URL string `json:"url"`
}

// VerifyReceiptRequest carries a platform purchase receipt for verification.
// ReceiptData applies to ios; SubscriptionID and PurchaseToken to android.
type VerifyReceiptRequest struct {
	Platform       string `json:"platform" binding:"required"`
	ReceiptData    string `json:"receiptData"`
	SubscriptionID string `json:"subscriptionId"`
	PurchaseToken  string `json:"purchaseToken"`
	Sandbox        bool   `json:"sandbox"`
}

// VerifyReceiptResponse reports the resulting subscription state.
type VerifyReceiptResponse struct {
	Subscribed bool `json:"subscribed"`
}

// SignOfferRequest names the promotional offer to sign.
type SignOfferRequest struct {
	ProductID string `json:"productId" binding:"required"`
	OfferID   string `json:"offerId" binding:"required"`
}

// ValidateReferralRequest carries a referral code to resolve.
type ValidateReferralRequest struct {
	Code string `json:"code" binding:"required"`
}

// ValidateReferralResponse reports whether the code exists and whose it is.
type ValidateReferralResponse struct {
	Valid      bool   `json:"valid"`
	ReferrerID string `json:"referrerId,omitempty"`
}

// RedeemReferralRequest records a referral for the authenticated subscriber.
type RedeemReferralRequest struct {
	ReferrerID string `json:"referrerId" binding:"required"`
}

// RedeemReferralResponse reports whether the redemption mutated anything.
// A repeat redemption succeeds with applied=false.
type RedeemReferralResponse struct {
	Applied bool `json:"applied"`
}

// SubmitFeedbackRequest is the feedback submission body.
type SubmitFeedbackRequest struct {
	Category string `json:"category"`
	Message  string `json:"message" binding:"required"`
	Platform string `json:"platform"`
	Version  string `json:"version"`
}
