package api

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pegumax/student-suite-backend/internal/core"
)

// BillingHandler handles billing-related API endpoints.
type BillingHandler struct {
	billingService core.BillingService
	clientURL      string
}

// NewBillingHandler creates a new BillingHandler. clientURL is the default
// base for checkout redirect URLs when the request omits them.
func NewBillingHandler(bs core.BillingService, clientURL string) *BillingHandler {
	return &BillingHandler{billingService: bs, clientURL: clientURL}
}

// mapBillingErrorToStatus maps errors from core.BillingService to HTTP status
// codes and ErrorResponse.
func mapBillingErrorToStatus(c *gin.Context, err error) {
	var statusCode int
	var errResponse ErrorResponse

	switch {
	case errors.Is(err, core.ErrUserNotFound):
		statusCode = http.StatusNotFound
		errResponse = ErrorResponse{Error: "User profile not found"}
	case errors.Is(err, core.ErrCustomerNotLinked):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "User not linked to payment provider", Details: err.Error()}
	case errors.Is(err, core.ErrNoActiveSubscription):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "No active subscription to cancel"}
	case errors.Is(err, core.ErrWebhookSignature):
		statusCode = http.StatusBadRequest
		errResponse = ErrorResponse{Error: "Webhook signature verification failed"}
	case errors.Is(err, core.ErrPaymentGateway):
		statusCode = http.StatusServiceUnavailable
		errResponse = ErrorResponse{Error: "Payment provider error", Details: "Could not complete the operation with the payment provider."}
		log.Printf("Payment gateway error: %v", err)
	default:
		log.Printf("Internal Server Error in BillingHandler: %v", err)
		statusCode = http.StatusInternalServerError
		errResponse = ErrorResponse{Error: "An unexpected internal server error occurred."}
	}
	c.JSON(statusCode, errResponse)
}

// CreateCheckoutSession handles POST /billing/checkout-session.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	successURL := req.SuccessURL
	if successURL == "" {
		successURL = h.clientURL + "/billing/success"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = h.clientURL + "/billing/cancel"
	}

	email := c.GetString("userEmail")
	sessionURL, err := h.billingService.CreateCheckoutSession(c.Request.Context(), userID, email, req.PriceID, successURL, cancelURL)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutSessionResponse{URL: sessionURL})
}

// CreatePortalSession handles POST /billing/portal-session.
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req CreatePortalSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = h.clientURL + "/account"
	}

	portalURL, err := h.billingService.CreatePortalSession(c.Request.Context(), userID, returnURL)
	if err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, PortalSessionResponse{URL: portalURL})
}

// CancelSubscription handles POST /billing/cancel-subscription.
func (h *BillingHandler) CancelSubscription(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	if err := h.billingService.CancelSubscription(c.Request.Context(), userID); err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Subscription canceled"})
}

// HandleStripeWebhook handles POST /billing/webhooks/stripe. Stripe
// authenticates via the signature header; no token middleware runs here.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read webhook payload"})
		return
	}
	signature := c.GetHeader("Stripe-Signature")

	if err := h.billingService.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "received"})
}
