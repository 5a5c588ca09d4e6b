package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/memoryos/analytics-api/internal/apierror"
	"github.com/memoryos/analytics-api/internal/logger"
	"github.com/memoryos/analytics-api/internal/service"
)

// ConsistencyHandler handles engagement and consistency HTTP requests
type ConsistencyHandler struct {
	consistencyService service.ConsistencyService
}

// NewConsistencyHandler creates a new consistency handler
func NewConsistencyHandler(consistencyService service.ConsistencyService) *ConsistencyHandler {
	return &ConsistencyHandler{
		consistencyService: consistencyService,
	}
}

// pathUserID extracts and validates the user_id path parameter.
// Writes a problem response and returns false when the ID is malformed.
func pathUserID(c *gin.Context) (string, bool) {
	userID := c.Param("user_id")
	if _, err := uuid.Parse(userID); err != nil {
		apierror.WriteProblem(c, apierror.NewInvalidUUIDError(apierror.GetRequestID(c), "user_id", userID))
		return "", false
	}
	return userID, true
}

// GetEngagementScore returns the composite engagement score for a user
// GET /api/v1/consistency/:user_id
func (h *ConsistencyHandler) GetEngagementScore(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	log := logger.Ctx(c.Request.Context())

	score, err := h.consistencyService.CalculateEngagementScore(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to calculate engagement score", logger.Err(err), logger.String("user_id", userID))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    score,
	})
}

// GetCategoryConsistency returns the consistency score for one category
// GET /api/v1/consistency/:user_id/category/:category
func (h *ConsistencyHandler) GetCategoryConsistency(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	category := c.Param("category")
	if category == "" {
		apierror.WriteProblem(c, apierror.NewValidationError(apierror.GetRequestID(c), []apierror.FieldError{
			{Field: "category", Message: "is required", Code: "required"},
		}))
		return
	}

	log := logger.Ctx(c.Request.Context())

	score, err := h.consistencyService.CalculateCategoryConsistency(c.Request.Context(), userID, category)
	if err != nil {
		log.Error("failed to calculate category consistency",
			logger.Err(err), logger.String("user_id", userID), logger.String("category", category))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    score,
	})
}

// GetGaps returns recent inactivity gaps, optionally scoped to a category
// GET /api/v1/consistency/:user_id/gaps?category=
func (h *ConsistencyHandler) GetGaps(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	category := c.Query("category")

	log := logger.Ctx(c.Request.Context())

	gaps, err := h.consistencyService.DetectGaps(c.Request.Context(), userID, category)
	if err != nil {
		log.Error("failed to detect gaps",
			logger.Err(err), logger.String("user_id", userID), logger.String("category", category))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gaps,
		"count":   len(gaps),
	})
}
