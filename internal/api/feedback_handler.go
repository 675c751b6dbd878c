package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pegumax/student-suite-backend/internal/core"
	"github.com/pegumax/student-suite-backend/internal/models"
)

// FeedbackHandler handles feedback submission.
type FeedbackHandler struct {
	feedbackService core.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(fs core.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: fs}
}

// SubmitFeedback handles POST /feedback.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	feedback := &models.Feedback{
		Category:    req.Category,
		DisplayName: c.GetString("userDisplayName"),
		Email:       c.GetString("userEmail"),
		UserID:      userID,
		Platform:    req.Platform,
		Version:     req.Version,
		Message:     req.Message,
	}
	id, err := h.feedbackService.SubmitFeedback(c.Request.Context(), feedback)
	if err != nil {
		if errors.Is(err, core.ErrEmptyFeedback) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message is required"})
			return
		}
		log.Printf("SubmitFeedback Error: submission failed for userID %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to submit feedback"})
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Feedback received", Data: gin.H{"id": id}})
}
