package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pegumax/student-suite-backend/internal/core"
)

// IAPHandler handles in-app-purchase endpoints.
type IAPHandler struct {
	entitlementService core.EntitlementService
	offerService       core.OfferService
}

// NewIAPHandler creates a new IAPHandler. offerService may be nil when no
// App Store signing key is configured; the offer route then reports 503.
func NewIAPHandler(es core.EntitlementService, os core.OfferService) *IAPHandler {
	return &IAPHandler{entitlementService: es, offerService: os}
}

// VerifyReceipt handles POST /iap/verify-receipt.
func (h *IAPHandler) VerifyReceipt(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req VerifyReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	receipt := core.ReceiptPayload{
		ReceiptData:    req.ReceiptData,
		SubscriptionID: req.SubscriptionID,
		PurchaseToken:  req.PurchaseToken,
	}
	subscribed, err := h.entitlementService.ProcessIAPReceipt(c.Request.Context(), userID, req.Platform, receipt, req.Sandbox)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidPlatform):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "platform must be 'ios' or 'android'"})
		case errors.Is(err, core.ErrIAPVerification):
			log.Printf("VerifyReceipt Error: store verification failed for userID %s: %v", userID, err)
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Receipt verification unavailable"})
		default:
			log.Printf("VerifyReceipt Error: processing failed for userID %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to process receipt"})
		}
		return
	}
	c.JSON(http.StatusOK, VerifyReceiptResponse{Subscribed: subscribed})
}

// SignPromotionalOffer handles POST /iap/promotional-offer.
func (h *IAPHandler) SignPromotionalOffer(c *gin.Context) {
	if _, ok := contextUserID(c); !ok {
		return
	}
	if h.offerService == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Promotional offer signing is not configured"})
		return
	}

	var req SignOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	signature, err := h.offerService.SignPromotionalOffer(req.ProductID, req.OfferID)
	if err != nil {
		log.Printf("SignPromotionalOffer Error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to sign promotional offer"})
		return
	}
	c.JSON(http.StatusOK, signature)
}
