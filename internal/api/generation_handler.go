package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pegumax/student-suite-backend/internal/core"
)

// GenerationHandler serves the AI generation routes. Every route shares one
// handler; the route names exist for client-side feature mapping only.
type GenerationHandler struct {
	generationService core.GenerationService
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(gs core.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: gs}
}

// Generate handles POST /ai/<feature>.
func (h *GenerationHandler) Generate(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	text, err := h.generationService.Generate(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyPrompt):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "prompt is required"})
		case errors.Is(err, core.ErrQuotaExceeded):
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "Monthly usage limit exceeded"})
		case errors.Is(err, core.ErrAIUnavailable):
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "AI service temporarily unavailable"})
		default:
			log.Printf("Generate Error: generation failed for userID %s: %v", userID, err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate content"})
		}
		return
	}
	c.JSON(http.StatusOK, GenerateResponse{Text: text})
}
