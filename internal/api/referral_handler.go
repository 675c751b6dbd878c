package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pegumax/student-suite-backend/internal/core"
)

// ReferralHandler handles referral endpoints.
type ReferralHandler struct {
	referralService core.ReferralService
}

// NewReferralHandler creates a new ReferralHandler.
func NewReferralHandler(rs core.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: rs}
}

// ValidateCode handles POST /referrals/validate. An unknown code is a valid
// request with valid=false, not a 404.
func (h *ReferralHandler) ValidateCode(c *gin.Context) {
	var req ValidateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	referrerID, err := h.referralService.ValidateCode(c.Request.Context(), req.Code)
	if err != nil {
		log.Printf("ValidateCode Error: lookup failed for code %q: %v", req.Code, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to validate referral code"})
		return
	}
	c.JSON(http.StatusOK, ValidateReferralResponse{
		Valid:      referrerID != "",
		ReferrerID: referrerID,
	})
}

// RedeemReferral handles POST /referrals/redeem for the authenticated
// subscriber. A repeat redemption succeeds without applying again.
func (h *ReferralHandler) RedeemReferral(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req RedeemReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	if req.ReferrerID == userID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Cannot redeem your own referral code"})
		return
	}

	applied, err := h.referralService.RedeemReferral(c.Request.Context(), userID, req.ReferrerID)
	if err != nil {
		if errors.Is(err, core.ErrReferrerNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Referrer not found"})
			return
		}
		log.Printf("RedeemReferral Error: redemption failed for userID %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to redeem referral"})
		return
	}
	c.JSON(http.StatusOK, RedeemReferralResponse{Applied: applied})
}
