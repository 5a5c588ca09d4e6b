package service

import (
	"context"

	"github.com/memoryos/analytics-api/internal/models"
)

// ConsistencyService defines the interface for engagement and consistency analysis
type ConsistencyService interface {
	CalculateEngagementScore(ctx context.Context, userID string) (*models.EngagementScore, error)
	CalculateCategoryConsistency(ctx context.Context, userID, category string) (*models.ConsistencyScore, error)
	DetectGaps(ctx context.Context, userID, category string) ([]models.Gap, error)
}

// PatternService defines the interface for behavioral pattern mining
type PatternService interface {
	DetectFrequencyPatterns(ctx context.Context, userID, category string) ([]models.FrequencyPattern, error)
	DetectTimePatterns(ctx context.Context, userID string) ([]models.TimePattern, error)
	DetectAllPatterns(ctx context.Context, userID string) (*models.PatternSet, error)
}
