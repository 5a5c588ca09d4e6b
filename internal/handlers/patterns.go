package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memoryos/analytics-api/internal/apierror"
	"github.com/memoryos/analytics-api/internal/logger"
	"github.com/memoryos/analytics-api/internal/models"
	"github.com/memoryos/analytics-api/internal/service"
)

// PatternsHandler handles behavioral pattern HTTP requests
type PatternsHandler struct {
	patternService service.PatternService
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(patternService service.PatternService) *PatternsHandler {
	return &PatternsHandler{
		patternService: patternService,
	}
}

// GetPatterns returns both pattern families for a user. A category filter
// scopes frequency patterns; time patterns are not category-scoped, so a
// filtered request returns an empty time list.
// GET /api/v1/patterns/:user_id?category=
func (h *PatternsHandler) GetPatterns(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	category := c.Query("category")

	log := logger.Ctx(c.Request.Context())

	var set *models.PatternSet
	if category != "" {
		frequency, err := h.patternService.DetectFrequencyPatterns(c.Request.Context(), userID, category)
		if err != nil {
			log.Error("failed to detect frequency patterns",
				logger.Err(err), logger.String("user_id", userID), logger.String("category", category))
			apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
			return
		}
		set = &models.PatternSet{
			FrequencyPatterns: frequency,
			TimePatterns:      []models.TimePattern{},
		}
	} else {
		var err error
		set, err = h.patternService.DetectAllPatterns(c.Request.Context(), userID)
		if err != nil {
			log.Error("failed to detect patterns", logger.Err(err), logger.String("user_id", userID))
			apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    set,
	})
}

// GetFrequencyPatterns returns frequency patterns only
// GET /api/v1/patterns/:user_id/frequency?category=
func (h *PatternsHandler) GetFrequencyPatterns(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	category := c.Query("category")

	log := logger.Ctx(c.Request.Context())

	patterns, err := h.patternService.DetectFrequencyPatterns(c.Request.Context(), userID, category)
	if err != nil {
		log.Error("failed to detect frequency patterns",
			logger.Err(err), logger.String("user_id", userID), logger.String("category", category))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    patterns,
		"count":   len(patterns),
	})
}

// GetTimePatterns returns time-of-day patterns only
// GET /api/v1/patterns/:user_id/time
func (h *PatternsHandler) GetTimePatterns(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	log := logger.Ctx(c.Request.Context())

	patterns, err := h.patternService.DetectTimePatterns(c.Request.Context(), userID)
	if err != nil {
		log.Error("failed to detect time patterns", logger.Err(err), logger.String("user_id", userID))
		apierror.WriteProblem(c, apierror.NewInternalError(apierror.GetRequestID(c)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    patterns,
		"count":   len(patterns),
	})
}
